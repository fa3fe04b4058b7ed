package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "codequestd.pid"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "courses":
		err = cmdCourses()
	case "exercise":
		err = cmdExercise(os.Args[2:])
	case "catalog":
		err = cmdCatalog(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "preview":
		err = cmdPreview(os.Args[2:])
	case "stats":
		err = cmdStats()
	case "worker":
		err = cmdWorker()
	case "grade":
		err = cmdGrade(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("codequest %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`CodeQuest - coding exercises with instant feedback

Usage:
  codequest <command> [arguments]

Setup Commands:
  init            Create ~/.codequest and a default configuration
  doctor          Check the catalog, database and broker
  config          Show current configuration

Daemon Commands:
  start           Start the CodeQuest daemon
  stop            Stop the CodeQuest daemon
  status          Show daemon status
  logs            View daemon logs
  stats           Show catalog statistics

Exercise Commands:
  courses                         List courses and exercises
  exercise info <course>/<id>     Show exercise details
  check <course>/<id> <file>      Check a file against the solution
  preview <course>/<id> <file>    Render a file the way the editor would

Catalog Commands:
  catalog validate [dir]          Validate course files
  catalog import [dir]            Import course files into the configured database

Grading Commands:
  worker                          Grade queued submissions
  grade <course>/<id> <file>...   Queue submissions and print their outcomes

Integration Commands:
  mcp             Start MCP server on stdio

Other:
  help            Show this help message
  version         Show version information

Examples:
  codequest check python/1 hello.py
  codequest catalog import ./courses
  codequest grade html/1 submissions/*.html`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
