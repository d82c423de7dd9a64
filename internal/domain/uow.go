package domain

import "context"

// UnitOfWork coordinates a set of repository operations within a single
// database transaction, so that a competition upsert and its venue
// coordinate update (for example) commit or roll back together.
//
// Typical usage:
//  uow, err := factory.Begin(ctx)
//  if err != nil { ... }
//  defer uow.Rollback()
//  if _, err := uow.UpsertCompetitionCtx(ctx, &c); err != nil { ... }
//  if err := uow.Commit(); err != nil { ... }
//
// Keep the transaction as short as possible: one event per transaction, per
// the per-event transaction boundary.
type UnitOfWork interface {
	// Transaction controls
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// Repository access (embed to expose methods)
	Repository
}

// UnitOfWorkFactory starts new UnitOfWork instances.
// A returned UnitOfWork is already begun; Begin may be a no-op.
// Keeping Begin on UnitOfWork allows reusing implementations in tests.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
