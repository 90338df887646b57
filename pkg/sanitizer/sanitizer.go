package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func truncate(max int) Strategy {
	return func(s string) string {
		runes := []rune(s)
		if len(runes) <= max {
			return s
		}
		return strings.TrimSpace(string(runes[:max]))
	}
}

// SanitizeText cleans free-text clinical fields (symptoms, allergies,
// history). Line breaks are kept; runs of spaces on a line are collapsed.
func SanitizeText(input string, maxRunes int) string {
	p := Pipeline{
		dropControl,
		collapseLines,
		strings.TrimSpace,
		truncate(maxRunes),
	}
	return p.Apply(input)
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = TrimAndNormalize(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	return NormalizeStringSlice(values, strategy)
}
