package main

import (
	"fmt"
	"sort"
)

// cmdStats shows how the daemon's catalog is spread over languages and
// difficulties
func cmdStats() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'codequest start' first)")
	}

	status, err := fetchStatus()
	if err != nil {
		return err
	}

	total := status.Catalog.ExerciseCount
	fmt.Println("Catalog Statistics")
	fmt.Println("==================")
	fmt.Printf("Courses:    %d\n", status.Catalog.CourseCount)
	fmt.Printf("Exercises:  %d\n", total)
	fmt.Printf("Sessions:   %d\n", status.Sessions)

	printDistribution("By Language", status.Catalog.ByLanguage, total)
	printDistribution("By Difficulty", status.Catalog.ByDifficulty, total)
	return nil
}

func printDistribution(title string, counts map[string]int, total int) {
	if len(counts) == 0 || total == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s\n", title)
	for _, k := range keys {
		share := float64(counts[k]) / float64(total)
		fmt.Printf("  %-12s %s %3d (%.0f%%)\n", k, renderProgressBar(share, 20), counts[k], share*100)
	}
}
