// Package classify holds the single pure classification function the rest
// of the system relies on. No other package may decide is_competition or a
// canonical discipline outside of Classify.
package classify

import "eventscout/internal/normalize"

// Classify derives the canonical discipline and competition flag for an
// event from its name, an optional raw discipline hint, and an optional
// description. It is pure, does no I/O, and is table-driven via the
// normalize package so new rules never require touching a call site.
//
// Rule order, first match wins:
//  1. a strong non-competition keyword in name or description
//  2. disciplineHint resolved through normalize.Discipline
//  3. keyword inference over name then description
//  4. unknown, presumed competition
func Classify(name, disciplineHint, description string) (string, bool) {
	if canonical, ok := normalize.StrongNonCompetitionKeyword(name, description); ok {
		return canonical, false
	}

	if disciplineHint != "" {
		if canonical, isCompetition := normalize.Discipline(disciplineHint); canonical != "" {
			return canonical, isCompetition
		}
	}

	if canonical := normalize.InferDiscipline(name); canonical != "" {
		return canonical, true
	}
	if canonical := normalize.InferDiscipline(description); canonical != "" {
		return canonical, true
	}

	return "", true
}
