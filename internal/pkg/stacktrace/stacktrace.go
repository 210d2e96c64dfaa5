// Package stacktrace trims runtime stacks down to this module's own frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// located under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := sc.Text()
		// file lines are tab-indented: "\t/path/to/file.go:42 +0x1d"
		if !strings.HasPrefix(line, "\t") {
			continue
		}

		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		i := strings.Index(loc, marker)
		if i < 0 || !strings.Contains(loc, ".go:") {
			continue
		}

		paths = append(paths, loc[i+1:])
	}

	return paths
}
