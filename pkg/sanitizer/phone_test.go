package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+254712345678",
			want:  "+254712345678",
		},
		{
			name:  "kenyan local format",
			input: "0712345678",
			want:  "+254712345678",
		},
		{
			name:  "with spaces",
			input: "+254 712 345 678",
			want:  "+254712345678",
		},
		{
			name:  "with dashes",
			input: "+254-712-345-678",
			want:  "+254712345678",
		},
		{
			name:  "ugandan number",
			input: "+256 772 123456",
			want:  "+256772123456",
		},
		{
			name:  "tanzanian number",
			input: "+255 754 123 456",
			want:  "+255754123456",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +254712345678  ",
			want:  "+254712345678",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("0712 345 678")
	twice := NormalizePhone(once)
	if once != twice {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}

func TestPhoneRegion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0712345678", "KE"},
		{"+256772123456", "UG"},
		{"+255754123456", "TZ"},
		{"not-a-phone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PhoneRegion(tt.input); got != tt.want {
				t.Errorf("PhoneRegion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMSISDN(t *testing.T) {
	if got := MSISDN("0712 345 678"); got != "254712345678" {
		t.Errorf("MSISDN = %q, want 254712345678", got)
	}
	if got := MSISDN("garbage"); got != "" {
		t.Errorf("MSISDN(garbage) = %q, want empty", got)
	}
}
