package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"keeps newlines and tabs", "a\n\tb\r\n", "a\n\tb\r\n"},
		{"strips control chars", "a\x00b\x1fc\x7fd", "abcd"},
		{"keeps unicode", "héllo wörld", "héllo wörld"},
		{"keeps html verbatim", "<script>alert(1)</script>", "<script>alert(1)</script>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeText(tc.in); got != tc.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeTextInvalidUTF8(t *testing.T) {
	in := "ok\xff\xfe"
	got := SanitizeText(in)
	if !utf8.ValidString(got) {
		t.Errorf("SanitizeText(%q) = %q is not valid UTF-8", in, got)
	}
	if !strings.HasPrefix(got, "ok") {
		t.Errorf("SanitizeText(%q) = %q lost valid prefix", in, got)
	}
}

func TestSanitizeLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  title  ", "title"},
		{"multi\nline\ttitle", "multi line title"},
		{"\n\n", ""},
	}
	for _, tc := range cases {
		if got := SanitizeLine(tc.in); got != tc.want {
			t.Errorf("SanitizeLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "**@example.com"},
		{"not-an-email", "[EMAIL-REDACTED]"},
		{"", "[EMAIL-REDACTED]"},
	}
	for _, tc := range cases {
		if got := RedactEmail(tc.in); got != tc.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactIP(t *testing.T) {
	if got := RedactIP("203.0.113.42:1234"); got != "203.0.113.0" {
		t.Errorf("RedactIP v4 = %q", got)
	}
	got := RedactIP("garbage")
	if len(got) == 0 || got == "garbage" {
		t.Errorf("RedactIP on non-IP leaked input: %q", got)
	}
}
