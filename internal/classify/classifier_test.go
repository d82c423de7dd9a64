package classify

import (
	"testing"

	"eventscout/internal/normalize"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		eventName      string
		disciplineHint string
		description    string
		wantCanonical  string
		wantCompete    bool
	}{
		{
			name:          "strong hire keyword in name wins over hint",
			eventName:     "Arena Hire Evening",
			wantCanonical: normalize.DisciplineVenueHire,
			wantCompete:   false,
		},
		{
			name:           "strong training keyword in description wins over hint",
			eventName:      "Spring Session",
			disciplineHint: "Show Jumping",
			description:    "A relaxed clinic for novice riders",
			wantCanonical:  normalize.DisciplineTraining,
			wantCompete:    false,
		},
		{
			name:           "discipline hint resolves",
			eventName:      "Spring Qualifier",
			disciplineHint: "BD Dressage",
			wantCanonical:  normalize.DisciplineDressage,
			wantCompete:    true,
		},
		{
			name:          "inference from name",
			eventName:     "County Cross Country Day",
			wantCanonical: normalize.DisciplineCrossCountry,
			wantCompete:   true,
		},
		{
			name:          "inference from description when name has no match",
			eventName:     "Spring Gathering",
			description:   "Dressage to music in the main arena",
			wantCanonical: normalize.DisciplineDressage,
			wantCompete:   true,
		},
		{
			name:          "unknown falls back to presumed competition",
			eventName:     "Spring Gathering",
			wantCanonical: "",
			wantCompete:   true,
		},
		{
			name:           "unresolvable hint falls through to inference",
			eventName:      "Hunter Trial Day",
			disciplineHint: "made up discipline",
			wantCanonical:  normalize.DisciplineHunterTrial,
			wantCompete:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, compete := Classify(tt.eventName, tt.disciplineHint, tt.description)
			if canonical != tt.wantCanonical || compete != tt.wantCompete {
				t.Errorf("Classify(%q, %q, %q) = (%q, %v), want (%q, %v)",
					tt.eventName, tt.disciplineHint, tt.description, canonical, compete, tt.wantCanonical, tt.wantCompete)
			}
		})
	}
}
