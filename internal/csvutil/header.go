// Package csvutil holds the header and error helpers shared by the CSV loaders.
package csvutil

import (
	"encoding/csv"
	"errors"
	"strings"
)

// Columns maps each header name, trimmed and lower-cased with any byte order
// mark removed, to its index. A repeated name keeps its first position.
func Columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

// ErrorLine returns the line of a *csv.ParseError, or fallback.
func ErrorLine(err error, fallback int) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return fallback
}
