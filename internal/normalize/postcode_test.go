package normalize

import "testing"

func TestPostcode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase with no space", "cv129ja", "CV12 9JA"},
		{"already canonical", "CV12 9JA", "CV12 9JA"},
		{"extra interior whitespace", "CV12   9JA", "CV12 9JA"},
		{"trailing punctuation", "CV12 9JA.", "CV12 9JA"},
		{"two letter outward", "SW1A 1AA", "SW1A 1AA"},
		{"single letter single digit outward", "M1 1AE", "M1 1AE"},
		{"too short", "AB", ""},
		{"too long", "ABCDEFGHI", ""},
		{"bad inward shape", "CV12 999", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Postcode(tt.input); got != tt.expected {
				t.Errorf("Postcode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPostcodeIdempotent(t *testing.T) {
	canonical := []string{"CV12 9JA", "SW1A 1AA", "M1 1AE"}
	for _, p := range canonical {
		if got := Postcode(p); got != p {
			t.Errorf("Postcode(%q) = %q, want idempotent %q", p, got, p)
		}
	}
}

func TestInUKBox(t *testing.T) {
	if !InUKBox(51.5, -0.1) {
		t.Error("expected London coordinates inside UK box")
	}
	if InUKBox(40.7, -74.0) {
		t.Error("expected New York coordinates outside UK box")
	}
}
