package parser

import "strings"

// plainText returns file contents with line endings unified. A byte order
// mark is kept as U+FEFF.
func plainText(data []byte) string {
	return normalizeNewlines(string(data))
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
