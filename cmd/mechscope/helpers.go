// Shared helpers for mechscope CLI commands.
package main

import (
	"os"
	"strconv"
	"time"
)

const timeRound = time.Millisecond

// isDirectory reports whether path exists and is a directory.
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// parseSteps converts step number arguments to ints.
func parseSteps(args []string) ([]int, error) {
	steps := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		steps = append(steps, n)
	}
	return steps, nil
}
