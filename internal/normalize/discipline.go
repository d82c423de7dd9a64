package normalize

import (
	"regexp"
	"strings"
)

// Canonical discipline categories. Twelve are competition categories, two
// are non-competition, and Other is the catch-all.
const (
	DisciplineShowJumping      = "Show Jumping"
	DisciplineDressage         = "Dressage"
	DisciplineEventing         = "Eventing"
	DisciplineCrossCountry     = "Cross Country"
	DisciplineCombinedTraining = "Combined Training"
	DisciplineShowing          = "Showing"
	DisciplineHunterTrial      = "Hunter Trial"
	DisciplinePonyClub         = "Pony Club"
	DisciplineNSEA             = "NSEA"
	DisciplineAgriculturalShow = "Agricultural Show"
	DisciplineEndurance        = "Endurance"
	DisciplineGymkhana         = "Gymkhana"

	DisciplineVenueHire = "Venue Hire"
	DisciplineTraining  = "Training"

	DisciplineOther = "Other"
)

// isCompetitionCategory reports whether events in the canonical category are
// competitions by default. Venue Hire and Training are the only two
// non-competition categories; everything else (including Other) is a
// competition.
func isCompetitionCategory(canonical string) bool {
	switch canonical {
	case DisciplineVenueHire, DisciplineTraining:
		return false
	default:
		return true
	}
}

// disciplineTable maps ~70 known raw spellings (lower-cased, whitespace
// collapsed) to their canonical category. Extend only via tests, per the
// spec's design note that this vocabulary was tuned empirically.
var disciplineTable = map[string]string{
	"show jumping": DisciplineShowJumping,
	"showjumping":  DisciplineShowJumping,
	"showjump":     DisciplineShowJumping,
	"sj":           DisciplineShowJumping,
	"jumping":      DisciplineShowJumping,
	"unaffiliated show jumping": DisciplineShowJumping,
	"affiliated show jumping":   DisciplineShowJumping,
	"bs show jumping":           DisciplineShowJumping,
	"british showjumping":       DisciplineShowJumping,

	"dressage":              DisciplineDressage,
	"unaffiliated dressage": DisciplineDressage,
	"affiliated dressage":   DisciplineDressage,
	"bd dressage":           DisciplineDressage,
	"british dressage":      DisciplineDressage,
	"dressage to music":     DisciplineDressage,
	"prix caprilli":         DisciplineDressage,

	"eventing":        DisciplineEventing,
	"horse trials":    DisciplineEventing,
	"ode":             DisciplineEventing,
	"one day event":   DisciplineEventing,
	"bevents":         DisciplineEventing,
	"british eventing": DisciplineEventing,
	"horse trial":     DisciplineEventing,

	"cross country":   DisciplineCrossCountry,
	"cross-country":   DisciplineCrossCountry,
	"xc":              DisciplineCrossCountry,
	"xc schooling":    DisciplineCrossCountry,
	"cross country schooling": DisciplineCrossCountry,

	"combined training": DisciplineCombinedTraining,
	"ct":                DisciplineCombinedTraining,
	"bd combined training": DisciplineCombinedTraining,

	"showing":          DisciplineShowing,
	"in hand showing":  DisciplineShowing,
	"ridden showing":   DisciplineShowing,
	"show class":       DisciplineShowing,
	"breed show":       DisciplineShowing,
	"native pony show": DisciplineShowing,

	"hunter trial":  DisciplineHunterTrial,
	"hunter trials": DisciplineHunterTrial,
	"ht":            DisciplineHunterTrial,

	"pony club":        DisciplinePonyClub,
	"pc":               DisciplinePonyClub,
	"pony club camp":   DisciplinePonyClub,
	"pony club rally":  DisciplinePonyClub,

	"nsea":                        DisciplineNSEA,
	"national schools equestrian": DisciplineNSEA,
	"schools equestrian":          DisciplineNSEA,

	"agricultural show": DisciplineAgriculturalShow,
	"county show":        DisciplineAgriculturalShow,
	"ag show":            DisciplineAgriculturalShow,

	"endurance":        DisciplineEndurance,
	"endurance ride":   DisciplineEndurance,
	"er":               DisciplineEndurance,
	"pleasure ride":    DisciplineEndurance,

	"gymkhana": DisciplineGymkhana,
	"mounted games": DisciplineGymkhana,
	"games":         DisciplineGymkhana,

	"venue hire":  DisciplineVenueHire,
	"arena hire":  DisciplineVenueHire,
	"facility hire": DisciplineVenueHire,
	"hire":        DisciplineVenueHire,

	"training":    DisciplineTraining,
	"clinic":      DisciplineTraining,
	"lesson":      DisciplineTraining,
	"lessons":     DisciplineTraining,
	"masterclass": DisciplineTraining,
	"camp":        DisciplineTraining,
	"schooling":   DisciplineTraining,
	"coaching":    DisciplineTraining,

	"unaffiliated show": DisciplineOther,
	"general equestrian": DisciplineOther,
	"other":             DisciplineOther,
	"miscellaneous":     DisciplineOther,
	"open show":         DisciplineOther,
}

// Discipline canonicalizes a raw discipline string, returning the canonical
// category and whether events in it are competitions by default. The second
// return value is only meaningful when the first is non-empty.
func Discipline(raw string) (string, bool) {
	key := normalizeDisciplineKey(raw)
	if key == "" {
		return "", false
	}
	if canonical, ok := disciplineTable[key]; ok {
		return canonical, isCompetitionCategory(canonical)
	}
	return "", false
}

func normalizeDisciplineKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = interiorWhitespace.ReplaceAllString(s, " ")
	return s
}

// inferencePatterns are applied in order; the first competition category
// whose keyword regex matches wins. Used only as a hint inside the
// classifier, never as a substitute for Discipline.
var inferencePatterns = []struct {
	canonical string
	pattern   *regexp.Regexp
}{
	{DisciplineShowJumping, regexp.MustCompile(`(?i)\bshow\s*-?jump`)},
	{DisciplineDressage, regexp.MustCompile(`(?i)\bdressage\b`)},
	{DisciplineEventing, regexp.MustCompile(`(?i)\b(eventing|horse\s*trial)`)},
	{DisciplineCrossCountry, regexp.MustCompile(`(?i)\bcross.?country\b|\bxc\b`)},
	{DisciplineCombinedTraining, regexp.MustCompile(`(?i)\bcombined\s*training\b`)},
	{DisciplineHunterTrial, regexp.MustCompile(`(?i)\bhunter\s*trial`)},
	{DisciplinePonyClub, regexp.MustCompile(`(?i)\bpony\s*club\b`)},
	{DisciplineNSEA, regexp.MustCompile(`(?i)\bnsea\b|\bschools\s*equestrian\b`)},
	{DisciplineAgriculturalShow, regexp.MustCompile(`(?i)\bagricultural\s*show\b|\bcounty\s*show\b`)},
	{DisciplineEndurance, regexp.MustCompile(`(?i)\bendurance\b`)},
	{DisciplineGymkhana, regexp.MustCompile(`(?i)\bgymkhana\b|\bmounted\s*games\b`)},
	{DisciplineShowing, regexp.MustCompile(`(?i)\bshowing\b|\bin-?hand\b`)},
}

// InferDiscipline applies regex-matched keyword inference to free text,
// returning the first matching competition category or "" if none match.
func InferDiscipline(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range inferencePatterns {
		if p.pattern.MatchString(text) {
			return p.canonical
		}
	}
	return ""
}

var ponyClassPattern = regexp.MustCompile(`(?i)\bpony\b|\bponies\b|\bjunior\b|\bu\.?16\b|\bunder\s*16\b|\b12\.2\b|\b13\.2\b|\b14\.2\b`)

// DetectPonyClasses scans text for pony/junior indicators, case-insensitive.
func DetectPonyClasses(text string) bool {
	return ponyClassPattern.MatchString(text)
}

// StrongNonCompetitionKeyword reports whether name or description contains a
// keyword strongly implying a non-competition event, and which category it
// implies.
func StrongNonCompetitionKeyword(name, description string) (string, bool) {
	combined := strings.ToLower(name + " " + description)
	hireKeywords := []string{"venue hire", "arena hire", "facility hire"}
	for _, k := range hireKeywords {
		if strings.Contains(combined, k) {
			return DisciplineVenueHire, true
		}
	}
	trainingKeywords := []string{"training", "clinic", "lesson", "masterclass", "camp"}
	for _, k := range trainingKeywords {
		if strings.Contains(combined, k) {
			return DisciplineTraining, true
		}
	}
	return "", false
}
