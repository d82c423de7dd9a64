// Package scan implements the orchestrator: the per-source scan state
// machine and the per-event pipeline that turns an ExtractedEvent into a
// persisted Competition row (SPEC_FULL.md §4.6).
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eventscout/internal/classify"
	"eventscout/internal/domain"
	"eventscout/internal/geocode"
	"eventscout/internal/normalize"
	"eventscout/internal/parser"
	"eventscout/internal/venue"
	"eventscout/pkg/logging"
)

// ErrScanInFlight is returned when a scan is requested for a source that
// already has a running scan.
var ErrScanInFlight = errors.New("scan: a scan for this source is already running")

// DisciplineAuditor re-applies discipline normalization across every
// classified competition, fixing rows whose canonical value has drifted.
// Satisfied by internal/audit.Auditor; kept as an interface here so scan
// does not depend on audit's package.
type DisciplineAuditor interface {
	Audit(ctx context.Context) (fixups int, err error)
}

// Config carries the orchestrator's tunables (SPEC_FULL.md §6).
type Config struct {
	Concurrency int           // max simultaneous source scans
	Timeout     time.Duration // per-scan total-time budget
}

// Engine runs scans for enabled sources against the shared venue matcher,
// geocoder cascade, and parser registry.
type Engine struct {
	cfg Config

	repo       domain.ScanRepository
	uowFactory domain.UnitOfWorkFactory
	matcher    *venue.Matcher
	geocoder   *geocode.Cascade
	parsers    *parser.Registry
	auditor    DisciplineAuditor
	log        *logging.Logger

	semMu sync.RWMutex
	sem   chan struct{}
}

// New constructs an Engine. auditor may be nil; if so, the scheduler-scan
// discipline audit step is skipped entirely.
func New(cfg Config, repo domain.ScanRepository, uowFactory domain.UnitOfWorkFactory, matcher *venue.Matcher, geocoder *geocode.Cascade, parsers *parser.Registry, auditor DisciplineAuditor, log *logging.Logger) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Engine{
		cfg:        cfg,
		repo:       repo,
		uowFactory: uowFactory,
		matcher:    matcher,
		geocoder:   geocoder,
		parsers:    parsers,
		auditor:    auditor,
		log:        log,
		sem:        make(chan struct{}, cfg.Concurrency),
	}
}

// RunSources scans every given source, bounded by Config.Concurrency. Each
// source's events are processed strictly sequentially; only the sources
// themselves run concurrently. Sources already mid-scan are skipped.
func (e *Engine) RunSources(ctx context.Context, sources []domain.Source, fromScheduler bool) []*domain.Scan {
	results := make([]*domain.Scan, len(sources))
	var wg sync.WaitGroup
	sem := e.currentSem()

	for i, src := range sources {
		i, src := i, src
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s, err := e.RunSource(ctx, src, fromScheduler)
			if err != nil && !errors.Is(err, ErrScanInFlight) && e.log != nil {
				e.log.WithComponent("scan").Error("scan failed", err, logging.Int64("source_id", src.ID))
			}
			results[i] = s
		}()
	}
	wg.Wait()
	return results
}

func (e *Engine) currentSem() chan struct{} {
	e.semMu.RLock()
	defer e.semMu.RUnlock()
	return e.sem
}

// SetConcurrency resizes the scan semaphore for every RunSources call made
// after it returns. Scans already in flight keep running against their
// original semaphore, so this never blocks on or cancels in-progress work.
// Reached from the config watcher when SCAN_CONCURRENCY changes
// (SPEC_FULL.md §6).
func (e *Engine) SetConcurrency(n int) {
	if n <= 0 {
		n = 1
	}
	e.semMu.Lock()
	e.cfg.Concurrency = n
	e.sem = make(chan struct{}, n)
	e.semMu.Unlock()
}

// RunSource runs one scan of src to completion, recording state transitions
// on the returned Scan row. fromScheduler gates whether the post-scan
// discipline audit runs.
func (e *Engine) RunSource(ctx context.Context, src domain.Source, fromScheduler bool) (*domain.Scan, error) {
	inFlight, err := e.repo.IsScanInFlightCtx(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("scan: checking in-flight status: %w", err)
	}
	if inFlight {
		if e.log != nil {
			e.log.WithComponent("scan").Warn("scan suppressed, already in flight", logging.Int64("source_id", src.ID))
		}
		return nil, ErrScanInFlight
	}

	s := &domain.Scan{
		SourceID:  src.ID,
		StartedAt: time.Now(),
		Status:    domain.ScanPending,
	}
	id, err := e.repo.InsertScanCtx(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("scan: inserting scan row: %w", err)
	}
	s.ID = id

	s.Status = domain.ScanRunning
	if err := e.repo.UpdateScanCtx(ctx, s); err != nil {
		return nil, fmt.Errorf("scan: marking scan running: %w", err)
	}

	scanCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	touchedVenues, runErr := e.runEvents(scanCtx, src, s)

	finished := time.Now()
	s.FinishedAt = &finished

	switch {
	case runErr != nil && errors.Is(scanCtx.Err(), context.DeadlineExceeded):
		s.Status = domain.ScanFailed
		s.Error = "timeout"
	case runErr != nil:
		s.Status = domain.ScanFailed
		s.Error = runErr.Error()
	default:
		s.Status = domain.ScanCompleted
		if s.EventsFound == 0 && e.log != nil {
			e.log.WithComponent("scan").Warn("scan found zero events", logging.Int64("source_id", src.ID))
		}
	}

	if err := e.repo.UpdateScanCtx(ctx, s); err != nil {
		return s, fmt.Errorf("scan: recording terminal status: %w", err)
	}

	if runErr != nil {
		return s, runErr
	}

	if len(touchedVenues) > 0 && e.log != nil {
		e.log.WithComponent("scan").Info("venue coordinates learned", logging.Int("count", len(touchedVenues)))
	}

	if fromScheduler && e.auditor != nil {
		fixups, err := e.auditor.Audit(ctx)
		if err != nil && e.log != nil {
			e.log.WithComponent("scan").Error("discipline audit failed", err)
		} else if e.log != nil {
			e.log.WithComponent("scan").Info("discipline audit complete", logging.Int("fixups", fixups))
		}
	}

	return s, nil
}

// runEvents fetches and processes every event from src's parser, in order.
// It returns the set of venue ids whose coordinates were learned during the
// run. A non-nil error here is always fatal to the scan.
func (e *Engine) runEvents(ctx context.Context, src domain.Source, s *domain.Scan) (map[int64]bool, error) {
	p := e.parsers.Get(src.Key)

	events, err := p.FetchAndParse(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("scan: parser fetch: %w", err)
	}
	s.EventsFound = len(events)

	touched := make(map[int64]bool)

	for _, ev := range events {
		if ctx.Err() != nil {
			return touched, ctx.Err()
		}

		upserted, venueID, isCompetition, err := e.processEvent(ctx, src.ID, ev, touched)
		if err != nil {
			var opErr *dbOpError
			if errors.As(err, &opErr) {
				return touched, err // database errors are fatal to the scan
			}
			// normalization/skip failures: log and continue
			if e.log != nil {
				e.log.WithComponent("scan").Warn("skipping event", logging.String("name", ev.Name), logging.Error(err))
			}
			continue
		}
		if upserted {
			s.EventsUpserted++
			if isCompetition {
				s.CompetitionCount++
			} else {
				s.TrainingCount++
			}
		}
		_ = venueID
	}

	return touched, nil
}

// dbOpError marks an error as originating from a database operation, so
// runEvents can distinguish fatal scan-ending errors from per-event skips.
type dbOpError struct{ err error }

func (e *dbOpError) Error() string { return e.err.Error() }
func (e *dbOpError) Unwrap() error { return e.err }

func dbErr(err error) error {
	if err == nil {
		return nil
	}
	return &dbOpError{err: err}
}

// processEvent runs the per-event pipeline from SPEC_FULL.md §4.6 steps 1-8.
// touched accumulates venue ids whose coordinates were written this scan.
func (e *Engine) processEvent(ctx context.Context, sourceID int64, ev parser.ExtractedEvent, touched map[int64]bool) (upserted bool, venueID int64, isCompetition bool, err error) {
	startDate, ok := normalize.ParseISODate(ev.DateStart)
	if !ok {
		return false, 0, false, fmt.Errorf("unparseable date_start %q", ev.DateStart)
	}
	dateEnd := ""
	if ev.DateEnd != "" {
		if t, ok := normalize.ParseISODate(ev.DateEnd); ok {
			dateEnd = normalize.FormatISODate(t)
		}
	}

	canonicalName := normalize.VenueName(ev.VenueName)
	canonicalPostcode := normalize.Postcode(ev.VenuePostcode)

	discipline, isCompetition := classify.Classify(ev.Name, ev.Discipline, ev.Description)

	id, _, err := e.matcher.Resolve(ctx, canonicalName, canonicalPostcode)
	if err != nil {
		return false, 0, isCompetition, dbErr(fmt.Errorf("resolving venue: %w", err))
	}

	e.resolveCoordinates(ctx, id, ev, canonicalPostcode, touched)

	url := normalize.SanitizeURL(ev.URL)

	hasPony := ev.HasPonyClasses || normalize.DetectPonyClasses(ev.Name+" "+ev.Description)

	now := time.Now()
	comp := &domain.Competition{
		SourceID:       sourceID,
		Name:           ev.Name,
		DateStart:      normalize.FormatISODate(startDate),
		DateEnd:        dateEnd,
		VenueID:        id,
		IsCompetition:  isCompetition,
		Discipline:     discipline,
		HasPonyClasses: hasPony,
		URL:            url,
		Classes:        ev.Classes,
		Description:    ev.Description,
		FirstSeenAt:    now,
		LastSeenAt:     now,
	}

	uow, err := e.uowFactory.Begin(ctx)
	if err != nil {
		return false, 0, isCompetition, dbErr(fmt.Errorf("beginning transaction: %w", err))
	}
	defer uow.Rollback()

	if _, err := uow.UpsertCompetitionCtx(ctx, comp); err != nil {
		return false, 0, isCompetition, dbErr(fmt.Errorf("upserting competition: %w", err))
	}

	if err := uow.Commit(); err != nil {
		return false, 0, isCompetition, dbErr(fmt.Errorf("committing transaction: %w", err))
	}

	// Both inserts and updates count as an upsert for scan statistics.
	return true, id, isCompetition, nil
}

// resolveCoordinates runs the geocoder cascade for venueID and, if a result
// is learned for the first time this scan, persists it and updates the
// matcher's in-memory cache so subsequent events for the same venue reuse
// it without another lookup.
func (e *Engine) resolveCoordinates(ctx context.Context, venueID int64, ev parser.ExtractedEvent, canonicalPostcode string, touched map[int64]bool) {
	if e.geocoder == nil || touched[venueID] {
		return
	}
	v, ok := e.matcher.Venue(venueID)
	if !ok || v.HasCoordinates() {
		return
	}

	res, ok := e.geocoder.Resolve(ctx, v, ev.Latitude, ev.Longitude, canonicalPostcode)
	if !ok {
		return
	}

	uow, err := e.uowFactory.Begin(ctx)
	if err != nil {
		return
	}
	defer uow.Rollback()

	if err := uow.UpdateVenueCoordinatesCtx(ctx, venueID, res.Latitude, res.Longitude, res.DistanceMiles); err != nil {
		if e.log != nil {
			e.log.WithComponent("scan").Warn("failed to persist venue coordinates", logging.Int64("venue_id", venueID), logging.Error(err))
		}
		return
	}
	if v.Postcode == "" && canonicalPostcode != "" {
		if err := uow.UpdateVenuePostcodeCtx(ctx, venueID, canonicalPostcode); err == nil {
			e.matcher.SetPostcode(venueID, canonicalPostcode)
		}
	}
	if err := uow.Commit(); err != nil {
		return
	}

	e.matcher.SetCoordinates(venueID, res.Latitude, res.Longitude, res.DistanceMiles)
	touched[venueID] = true
}
