// Package utils holds small helpers shared across layers, independent of
// any game or wallet logic.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or
// not a valid integer. Used for query parameters like page and page_size,
// where a garbled value should read as "use the default" rather than fail
// the request.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
