// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of stack that lives under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// file lines look like "/src/mod/internal/x/y.go:42 +0x1d"
		loc, _, _ := strings.Cut(line, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}

		idx := strings.Index(loc, "/internal/")
		if idx == -1 {
			continue
		}

		paths = append(paths, loc[idx+1:])
	}

	return paths
}
