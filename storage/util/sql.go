package util

import (
	"fmt"
	"strings"
)

type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// ResolveSQLDriverName maps a configured driver to the database/sql driver name.
func ResolveSQLDriverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "postgres":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func DetectPlaceholderStyle(driver string) (PlaceholderStyle, error) {
	driverName, err := ResolveSQLDriverName(driver)
	if err != nil {
		return PlaceholderQuestion, err
	}

	if driverName == "pgx" {
		return PlaceholderDollar, nil
	}

	return PlaceholderQuestion, nil
}

// Placeholders returns n comma separated bind placeholders in the given style.
func (s PlaceholderStyle) Placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = s.For(i + 1)
	}

	return strings.Join(out, ", ")
}

func (s PlaceholderStyle) For(index int) string {
	if s == PlaceholderDollar {
		return fmt.Sprintf("$%d", index)
	}

	return "?"
}
