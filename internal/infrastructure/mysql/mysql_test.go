package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"eventscout/internal/domain"
)

// newTestDB opens a connection to DATABASE_URL_TEST (or DATABASE_URL) and
// skips the test entirely when neither is set, matching this repo's
// convention for tests that need a real MySQL instance.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL_TEST")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("DATABASE_URL_TEST or DATABASE_URL not set; skipping mysql integration tests")
	}
	db, err := New(dsn, PoolConfig{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSourceUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLRepository(db)
	ctx := context.Background()

	src := domain.Source{Key: "test-source-upsert", DisplayName: "Test Source", URL: "https://example.com", Enabled: true}
	if err := repo.UpsertSourceCtx(ctx, src); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.UpsertSourceCtx(ctx, src); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetSourceByKeyCtx(ctx, "test-source-upsert")
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got == nil || got.DisplayName != "Test Source" {
		t.Fatalf("expected exactly one row with the original display name, got %+v", got)
	}
}

func TestCompetitionUpsertDistinguishesInsertFromUpdate(t *testing.T) {
	db := newTestDB(t)
	uowFactory := NewSQLUnitOfWorkFactory(db)
	ctx := context.Background()

	src := domain.Source{Key: "test-source-upsert-comp", DisplayName: "Test", URL: "https://example.com", Enabled: true}
	srcRepo := NewSQLRepository(db)
	if err := srcRepo.UpsertSourceCtx(ctx, src); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	s, err := srcRepo.GetSourceByKeyCtx(ctx, src.Key)
	if err != nil || s == nil {
		t.Fatalf("get seeded source: %v", err)
	}

	v := &domain.Venue{CanonicalName: "Test Venue Upsert"}
	uow, err := uowFactory.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	venueID, err := uow.CreateVenueCtx(ctx, v)
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	if err := uow.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	now := time.Now()
	comp := &domain.Competition{
		SourceID: s.ID, Name: "Test Show", DateStart: "2026-08-01", VenueID: venueID,
		IsCompetition: true, Discipline: "Show Jumping", FirstSeenAt: now, LastSeenAt: now,
	}

	uow2, err := uowFactory.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	inserted, err := uow2.UpsertCompetitionCtx(ctx, comp)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := uow2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !inserted {
		t.Error("first upsert should report inserted=true")
	}

	comp.Description = "updated description"
	uow3, err := uowFactory.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	inserted, err = uow3.UpsertCompetitionCtx(ctx, comp)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := uow3.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if inserted {
		t.Error("second upsert of the same dedup key should report inserted=false")
	}
}

func TestScanInFlightDetection(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLRepository(db)
	ctx := context.Background()

	src := domain.Source{Key: "test-source-scan-flight", DisplayName: "Test", URL: "https://example.com", Enabled: true}
	if err := repo.UpsertSourceCtx(ctx, src); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	s, err := repo.GetSourceByKeyCtx(ctx, src.Key)
	if err != nil || s == nil {
		t.Fatalf("get seeded source: %v", err)
	}

	inFlight, err := repo.IsScanInFlightCtx(ctx, s.ID)
	if err != nil {
		t.Fatalf("is in flight: %v", err)
	}
	if inFlight {
		t.Fatal("expected no scan in flight before any scan row exists")
	}

	scan := &domain.Scan{SourceID: s.ID, StartedAt: time.Now(), Status: domain.ScanRunning}
	id, err := repo.InsertScanCtx(ctx, scan)
	if err != nil {
		t.Fatalf("insert scan: %v", err)
	}
	scan.ID = id

	inFlight, err = repo.IsScanInFlightCtx(ctx, s.ID)
	if err != nil {
		t.Fatalf("is in flight: %v", err)
	}
	if !inFlight {
		t.Error("expected a running scan to be reported in flight")
	}

	finished := time.Now()
	scan.Status = domain.ScanCompleted
	scan.FinishedAt = &finished
	if err := repo.UpdateScanCtx(ctx, scan); err != nil {
		t.Fatalf("update scan: %v", err)
	}

	inFlight, err = repo.IsScanInFlightCtx(ctx, s.ID)
	if err != nil {
		t.Fatalf("is in flight: %v", err)
	}
	if inFlight {
		t.Error("expected no scan in flight after the scan completed")
	}
}
