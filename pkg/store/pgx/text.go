package pgx

import "strings"

// cleanText makes annotation text storable in a Postgres TEXT column. OCR
// output in the dataset carries NUL bytes, stray control characters and
// broken UTF-8; tabs and line breaks are kept.
func cleanText(value string) string {
	if value == "" {
		return value
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.ToValidUTF8(value, ""))
}
