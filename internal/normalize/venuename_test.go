package normalize

import "testing"

func TestVenueName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"junk: bare URL", "http://example.com/event/123", TbcSentinel},
		{"junk: bare postcode", "CV12 9JA", TbcSentinel},
		{"junk: empty", "", TbcSentinel},
		{"junk: too long", longString(101), TbcSentinel},
		{"strips single suffix", "Brook Equestrian", "Brook"},
		{"strips compound suffix", "Hickstead Equestrian Centre", "Hickstead"},
		{"strips three suffixes over two passes", "Brook Farm Stables Ltd", "Brook"},
		{"strips trailing Limited", "Arena UK Limited", "Arena UK"},
		{"preserves short acronym", "Arena UK", "Arena UK"},
		{"strips show numbering noise", "(12) - Spring Show at Hickstead", "Spring Show At Hickstead"},
		{"strips event descriptor paren", "Hickstead (Championship)", "Hickstead"},
		{"address truncation two commas", "Higher Farm, Long Lane, Cheshire", "Higher Farm"},
		{"address truncation short single comma kept", "Higher Farm, Cheshire", "Higher Farm, Cheshire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VenueName(tt.input); got != tt.expected {
				t.Errorf("VenueName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestVenueNameIdempotent(t *testing.T) {
	inputs := []string{"Brook Equestrian", "Hickstead", "Arena UK", "http://example.com"}
	for _, in := range inputs {
		once := VenueName(in)
		twice := VenueName(once)
		if once != twice {
			t.Errorf("VenueName not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
