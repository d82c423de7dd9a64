package seed

import "testing"

func TestSourcesParse(t *testing.T) {
	defs, err := Sources()
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(defs) == 0 {
		t.Fatal("expected at least one compiled-in source")
	}
	seen := make(map[string]bool)
	for _, d := range defs {
		if d.Key == "" {
			t.Error("source definition missing key")
		}
		if seen[d.Key] {
			t.Errorf("duplicate source key %q", d.Key)
		}
		seen[d.Key] = true
	}
}

func TestVenuesParse(t *testing.T) {
	seeds, err := Venues()
	if err != nil {
		t.Fatalf("Venues: %v", err)
	}
	if len(seeds) == 0 {
		t.Fatal("expected at least one compiled-in venue seed")
	}
	for _, v := range seeds {
		if v.CanonicalName == "" {
			t.Error("venue seed missing canonical_name")
		}
	}
}

func TestAmbiguousNamesParse(t *testing.T) {
	names, err := AmbiguousNames()
	if err != nil {
		t.Fatalf("AmbiguousNames: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one ambiguous name")
	}
}
