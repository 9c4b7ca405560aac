// Package input provides helpers for reading flag values from stdin and files
// (@file syntax).
package input

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ExpandValue expands a flag value that uses - (stdin) or @file syntax.
// Plain values pass through untouched. Trailing newlines are trimmed so
// file- and stdin-sourced values behave like typed ones.
func ExpandValue(value string) (string, error) {
	switch {
	case value == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	case strings.HasPrefix(value, "@"):
		path := strings.TrimPrefix(value, "@")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return value, nil
	}
}
