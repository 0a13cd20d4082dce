// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of stack that lives under an internal/ directory, in stack order.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") && !strings.Contains(line, ":\\") {
			continue
		}

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc := line
		if end := strings.IndexByte(line[idx:], ' '); end != -1 {
			loc = line[:idx+end]
		}

		if _, rel, ok := strings.Cut(loc, "/internal/"); ok {
			paths = append(paths, "internal/"+rel)
		}
	}

	return paths
}
