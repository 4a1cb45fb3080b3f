package invocation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFile reads a calls file, one call per line. "-" reads standard input.
// Every line is returned, so the line indices reported by Indexed match the
// file; blank lines and '#' comments simply never parse as calls.
func ReadFile(path string) ([]string, error) {
	if path == "-" {
		return ReadLines(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading calls file: %w", err)
	}
	defer f.Close()
	return ReadLines(f)
}

// ReadLines is ReadFile for an arbitrary reader.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading calls: %w", err)
	}
	return lines, nil
}

// IsComment reports whether line is blank or a '#' comment.
func IsComment(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}
