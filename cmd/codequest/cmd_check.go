package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/preview"
)

// errMismatch makes the process exit 1 after a failed check
var errMismatch = errors.New("code does not match the solution")

// readSubmission reads a file, or stdin for "-"
func readSubmission(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read submission: %w", err)
	}
	return string(data), nil
}

// cmdCheck compares a file with the solution of an exercise
func cmdCheck(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: codequest check <course>/<id> <file|->")
	}

	registry, cfg, closeFn, err := openCatalog(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	ex, err := registry.GetExerciseByKey(args[0])
	if err != nil {
		return err
	}
	code, err := readSubmission(args[1])
	if err != nil {
		return err
	}

	ev := checker.NewEvaluator(checker.CatalogFor(cfg.Checker.Locale))
	result := ev.Evaluate(ex, code)
	fmt.Println(ev.Report(result))

	if !result.Matched {
		return errMismatch
	}
	if next, err := registry.NextExercise(ex.CourseID, ex.ID); err == nil && next != nil {
		fmt.Printf("\nNext: %s (%s)\n", next.Key(), next.Title)
	}
	return nil
}

// cmdPreview prints what the editor preview would show for a file. Python
// prints the simulated console; web languages print the preview document.
func cmdPreview(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: codequest preview <course>/<id> <file|-> [html-file]")
	}

	registry, _, closeFn, err := openCatalog(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	ex, err := registry.GetExerciseByKey(args[0])
	if err != nil {
		return err
	}
	code, err := readSubmission(args[1])
	if err != nil {
		return err
	}

	var html string
	if len(args) > 2 {
		if html, err = readSubmission(args[2]); err != nil {
			return err
		}
	}

	p := preview.RenderExercise(ex, html, code)
	switch {
	case p.Empty():
		fmt.Println("(nothing to preview)")
	case len(p.Output) > 0:
		fmt.Println(strings.Join(p.Output, "\n"))
	default:
		fmt.Println(p.Document)
	}
	return nil
}
