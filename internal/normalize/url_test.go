package normalize

import "testing"

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"https kept", "https://example.com/event", "https://example.com/event"},
		{"http kept", "http://example.com", "http://example.com"},
		{"ftp dropped", "ftp://example.com", ""},
		{"javascript scheme dropped", "javascript:alert(1)", ""},
		{"empty dropped", "", ""},
		{"unparseable dropped", "://bad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.input); got != tt.expected {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
