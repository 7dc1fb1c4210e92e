package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// SanitizeText normalizes to NFC, drops invalid UTF-8 and strips control
// characters other than newline, carriage return and tab. Snippet bodies are
// stored verbatim otherwise; escaping is the renderer's job.
func SanitizeText(s string) string {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// SanitizeLine is SanitizeText for single-line fields (titles, names).
func SanitizeLine(s string) string {
	s = SanitizeText(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
