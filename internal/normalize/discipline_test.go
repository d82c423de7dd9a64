package normalize

import "testing"

func TestDiscipline(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCanonical string
		wantCompete   bool
	}{
		{"exact show jumping", "Show Jumping", DisciplineShowJumping, true},
		{"abbreviation sj", "SJ", DisciplineShowJumping, true},
		{"case and whitespace insensitive", "  DRESSAGE  ", DisciplineDressage, true},
		{"horse trials maps to eventing", "horse trials", DisciplineEventing, true},
		{"venue hire is non-competition", "venue hire", DisciplineVenueHire, false},
		{"training is non-competition", "clinic", DisciplineTraining, false},
		{"unaffiliated show maps to other", "Unaffiliated Show", DisciplineOther, true},
		{"general equestrian maps to other", "general equestrian", DisciplineOther, true},
		{"unknown spelling", "unicorn jumping", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, compete := Discipline(tt.input)
			if canonical != tt.wantCanonical || compete != tt.wantCompete {
				t.Errorf("Discipline(%q) = (%q, %v), want (%q, %v)", tt.input, canonical, compete, tt.wantCanonical, tt.wantCompete)
			}
		})
	}
}

func TestInferDiscipline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"show jumping keyword in sentence", "Come and watch the show-jumping final", DisciplineShowJumping},
		{"dressage keyword", "An evening of dressage to music", DisciplineDressage},
		{"no keyword", "A lovely day out for the family", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferDiscipline(tt.input); got != tt.expected {
				t.Errorf("InferDiscipline(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDetectPonyClasses(t *testing.T) {
	if !DetectPonyClasses("Open to 12.2 and 13.2 pony classes") {
		t.Error("expected pony class detection to fire on height references")
	}
	if DetectPonyClasses("Senior horse championship") {
		t.Error("did not expect pony class detection to fire")
	}
}

func TestStrongNonCompetitionKeyword(t *testing.T) {
	canonical, ok := StrongNonCompetitionKeyword("Arena hire available", "")
	if !ok || canonical != DisciplineVenueHire {
		t.Errorf("expected venue hire keyword to fire, got (%q, %v)", canonical, ok)
	}

	canonical, ok = StrongNonCompetitionKeyword("Spring Show", "Open competition for all levels")
	if ok {
		t.Errorf("did not expect a strong non-competition keyword, got (%q, %v)", canonical, ok)
	}
}
