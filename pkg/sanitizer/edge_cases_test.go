package sanitizer

import (
	"strings"
	"testing"
)

func TestNormalizePhone_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "letters only", input: "invalid-phone"},
		{name: "too short with country code", input: "+1"},
		{name: "too short local", input: "123"},
		{name: "only special characters", input: "()---   "},
		{name: "extremely long", input: "+1234567890123456789012345678901234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != "" {
				t.Errorf("NormalizePhone(%q) = %q, want empty", tt.input, got)
			}
		})
	}
}

func TestSanitizeText_ControlCharacters(t *testing.T) {
	input := "fever\x00 and\x07   cough\r\n\n  since   monday "
	got := SanitizeText(input, 2000)
	want := "fever and cough\nsince monday"
	if got != want {
		t.Errorf("SanitizeText = %q, want %q", got, want)
	}
}

func TestSanitizeText_Truncates(t *testing.T) {
	got := SanitizeText(strings.Repeat("ü", 50), 10)
	if n := len([]rune(got)); n != 10 {
		t.Errorf("rune length = %d, want 10", n)
	}
}

func TestNormalizeName_ExtremelyLongInput(t *testing.T) {
	longName := strings.Repeat("a ", 10000)

	result := NormalizeName(longName)

	if result == "" {
		t.Error("expected non-empty result for long input")
	}
	if len(result) >= len(longName) {
		t.Error("expected trailing space to be trimmed")
	}
}
