package normalize

import "testing"

func TestParseISODate(t *testing.T) {
	ts, ok := ParseISODate("2026-03-14")
	if !ok {
		t.Fatal("expected valid ISO date to parse")
	}
	if got := FormatISODate(ts); got != "2026-03-14" {
		t.Errorf("round trip = %q, want %q", got, "2026-03-14")
	}

	if _, ok := ParseISODate("14/03/2026"); ok {
		t.Error("expected non-ISO date to fail to parse")
	}
	if _, ok := ParseISODate(""); ok {
		t.Error("expected empty string to fail to parse")
	}
}
