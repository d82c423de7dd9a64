// Package audit implements the post-scheduled-scan discipline sweep
// (SPEC_FULL.md §4.11): re-derive the canonical discipline for every
// classified competition and fix rows whose stored value has drifted from
// what normalize.Discipline would now produce.
package audit

import (
	"context"
	"fmt"

	"eventscout/internal/domain"
	"eventscout/internal/normalize"
	"eventscout/pkg/logging"
)

// Auditor sweeps the competitions table for discipline drift. It satisfies
// scan.DisciplineAuditor.
type Auditor struct {
	repo domain.CompetitionRepository
	log  *logging.Logger
}

// New constructs an Auditor.
func New(repo domain.CompetitionRepository, log *logging.Logger) *Auditor {
	return &Auditor{repo: repo, log: log}
}

// Audit re-applies normalize.Discipline to every competition with a
// non-empty discipline and writes back any row whose canonical value has
// drifted. Returns the number of rows fixed.
func (a *Auditor) Audit(ctx context.Context) (int, error) {
	competitions, err := a.repo.ListWithDisciplineCtx(ctx)
	if err != nil {
		return 0, fmt.Errorf("audit: listing competitions: %w", err)
	}

	fixups := 0
	for _, c := range competitions {
		if c.Discipline == "" {
			continue
		}
		canonical, _ := normalize.Discipline(c.Discipline)
		if canonical == "" || canonical == c.Discipline {
			continue
		}
		if err := a.repo.UpdateDisciplineCtx(ctx, c.ID, canonical); err != nil {
			return fixups, fmt.Errorf("audit: updating competition %d: %w", c.ID, err)
		}
		fixups++
	}

	if a.log != nil && fixups > 0 {
		a.log.WithComponent("audit").Info("discipline audit fixed drifted rows", logging.Int("fixups", fixups))
	}

	return fixups, nil
}
