package util

import (
	"fmt"
	"strings"
)

// NormalizeBaseURL ensures the base URL ends with a slash.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimRight(trimmed, "/")
	return trimmed + "/"
}

// DeriveTableName constructs a capture table name from the configured prefix, if any.
// A nil prefix means "capture"; an empty prefix leaves the table name bare.
func DeriveTableName(prefix *string, table string) string {
	p := "capture"
	if prefix != nil {
		p = *prefix
	}

	if p == "" {
		return table
	}

	return fmt.Sprintf("%s_%s", p, table)
}
