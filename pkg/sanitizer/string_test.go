package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Amina Wanjiru  ",
			want:  "Amina Wanjiru",
		},
		{
			name:  "multiple spaces between words",
			input: "Amina    Wanjiru",
			want:  "Amina Wanjiru",
		},
		{
			name:  "tabs and newlines",
			input: "Amina\t\nWanjiru",
			want:  "Amina Wanjiru",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve apostrophes and accents",
			input: " N'Dour Hélène ",
			want:  "N'Dour Hélène",
		},
		{
			name:  "drop control characters",
			input: "Amina\x00 Otieno",
			want:  "Amina Otieno",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  General   Consultation "); got != "general consultation" {
		t.Errorf("NormalizeLabel = %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Dr.Otieno@Clinic.CO.KE "); got != "dr.otieno@clinic.co.ke" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestNormalizeSlotTime_KeepsValueOpaque(t *testing.T) {
	if got := NormalizeSlotTime(" 10:00 AM "); got != "10:00 AM" {
		t.Errorf("NormalizeSlotTime = %q", got)
	}
	if NormalizeSlotTime("10:00") == NormalizeSlotTime("10:00 AM") {
		t.Error("distinct time spellings must stay distinct")
	}
}

func TestPipeline_Apply(t *testing.T) {
	p := Pipeline{TrimAndNormalize, NormalizeLabel}
	if got := p.Apply("  A   B "); got != "a b" {
		t.Errorf("Apply = %q", got)
	}
}
