package scan

import (
	"context"
	"testing"

	"eventscout/internal/domain"
	"eventscout/internal/geocode"
	"eventscout/internal/parser"
	"eventscout/internal/venue"
)

// fakeRepo is an in-memory domain.Repository covering everything the
// orchestrator touches: sources, venues, competitions, scans.
type fakeRepo struct {
	venues       []domain.Venue
	aliases      []domain.VenueAlias
	competitions []domain.Competition
	scans        []domain.Scan
	nextVenueID  int64
	nextScanID   int64
	inFlight     map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{inFlight: make(map[int64]bool)}
}

func (f *fakeRepo) UpsertSourceCtx(ctx context.Context, src domain.Source) error { return nil }
func (f *fakeRepo) ListEnabledSourcesCtx(ctx context.Context) ([]domain.Source, error) {
	return nil, nil
}
func (f *fakeRepo) GetSourceByIDCtx(ctx context.Context, id int64) (*domain.Source, error) {
	return nil, nil
}
func (f *fakeRepo) GetSourceByKeyCtx(ctx context.Context, key string) (*domain.Source, error) {
	return nil, nil
}

func (f *fakeRepo) LoadAllVenuesCtx(ctx context.Context) ([]domain.Venue, error) { return f.venues, nil }
func (f *fakeRepo) LoadAllAliasesCtx(ctx context.Context) ([]domain.VenueAlias, error) {
	return f.aliases, nil
}
func (f *fakeRepo) GetVenueByIDCtx(ctx context.Context, id int64) (*domain.Venue, error) {
	for i := range f.venues {
		if f.venues[i].ID == id {
			return &f.venues[i], nil
		}
	}
	return nil, nil
}
func (f *fakeRepo) CreateVenueCtx(ctx context.Context, v *domain.Venue) (int64, error) {
	f.nextVenueID++
	v.ID = f.nextVenueID
	f.venues = append(f.venues, *v)
	return v.ID, nil
}
func (f *fakeRepo) CreateAliasCtx(ctx context.Context, alias domain.VenueAlias) error {
	f.aliases = append(f.aliases, alias)
	return nil
}
func (f *fakeRepo) UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error {
	for i := range f.venues {
		if f.venues[i].ID == venueID {
			f.venues[i].Latitude = &latitude
			f.venues[i].Longitude = &longitude
			f.venues[i].DistanceMiles = &distanceMiles
		}
	}
	return nil
}
func (f *fakeRepo) UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error {
	for i := range f.venues {
		if f.venues[i].ID == venueID {
			f.venues[i].Postcode = postcode
		}
	}
	return nil
}
func (f *fakeRepo) RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error {
	return nil
}

func (f *fakeRepo) UpsertCompetitionCtx(ctx context.Context, c *domain.Competition) (bool, error) {
	for i := range f.competitions {
		e := &f.competitions[i]
		if e.SourceID == c.SourceID && e.Name == c.Name && e.DateStart == c.DateStart && e.VenueID == c.VenueID {
			c.FirstSeenAt = e.FirstSeenAt
			*e = *c
			return false, nil
		}
	}
	f.competitions = append(f.competitions, *c)
	return true, nil
}
func (f *fakeRepo) ListWithDisciplineCtx(ctx context.Context) ([]domain.Competition, error) {
	return f.competitions, nil
}
func (f *fakeRepo) UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error {
	return nil
}

func (f *fakeRepo) InsertScanCtx(ctx context.Context, s *domain.Scan) (int64, error) {
	f.nextScanID++
	s.ID = f.nextScanID
	f.scans = append(f.scans, *s)
	f.inFlight[s.SourceID] = true
	return s.ID, nil
}
func (f *fakeRepo) UpdateScanCtx(ctx context.Context, s *domain.Scan) error {
	for i := range f.scans {
		if f.scans[i].ID == s.ID {
			f.scans[i] = *s
		}
	}
	if s.Status == domain.ScanCompleted || s.Status == domain.ScanFailed {
		f.inFlight[s.SourceID] = false
	}
	return nil
}
func (f *fakeRepo) IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error) {
	return f.inFlight[sourceID], nil
}
func (f *fakeRepo) ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]domain.Scan, error) {
	return f.scans, nil
}

// fakeUOW wraps fakeRepo directly; in this in-memory test double, Begin
// makes no snapshot and Rollback is a no-op, since all mutation happens
// through the same maps/slices the test asserts against afterward.
type fakeUOW struct {
	*fakeRepo
}

func (u *fakeUOW) Begin(ctx context.Context) error { return nil }
func (u *fakeUOW) Commit() error                   { return nil }
func (u *fakeUOW) Rollback() error                 { return nil }

type fakeUOWFactory struct {
	repo *fakeRepo
}

func (f *fakeUOWFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	return &fakeUOW{fakeRepo: f.repo}, nil
}

type stubParser struct {
	events []parser.ExtractedEvent
	err    error
}

func (s stubParser) FetchAndParse(ctx context.Context, sourceURL string) ([]parser.ExtractedEvent, error) {
	return s.events, s.err
}

func newTestEngine(t *testing.T, repo *fakeRepo, events []parser.ExtractedEvent) *Engine {
	t.Helper()
	m, err := venue.New(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("venue.New: %v", err)
	}
	gc, err := geocode.New(geocode.Config{HomeLatitude: 51.5, HomeLongitude: -0.1}, nil, nil)
	if err != nil {
		t.Fatalf("geocode.New: %v", err)
	}
	reg := parser.NewRegistry(stubParser{events: events})
	return New(Config{Concurrency: 1}, repo, &fakeUOWFactory{repo: repo}, m, gc, reg, nil, nil)
}

func TestRunSourceUpsertsEventsAndCompletes(t *testing.T) {
	repo := newFakeRepo()
	events := []parser.ExtractedEvent{
		{Name: "Spring Show", DateStart: "2026-05-01", VenueName: "Hickstead", Discipline: "showjump"},
	}
	e := newTestEngine(t, repo, events)

	src := domain.Source{ID: 1, Key: "unknown", URL: "https://example.com"}
	s, err := e.RunSource(context.Background(), src, false)
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if s.Status != domain.ScanCompleted {
		t.Errorf("status = %v, want completed", s.Status)
	}
	if s.EventsFound != 1 || s.EventsUpserted != 1 {
		t.Errorf("counts = found=%d upserted=%d, want 1/1", s.EventsFound, s.EventsUpserted)
	}
	if s.CompetitionCount != 1 || s.TrainingCount != 0 {
		t.Errorf("competition_count=%d training_count=%d, want 1/0", s.CompetitionCount, s.TrainingCount)
	}
	if len(repo.competitions) != 1 {
		t.Fatalf("expected 1 persisted competition, got %d", len(repo.competitions))
	}
	if repo.competitions[0].Discipline != "Show Jumping" || !repo.competitions[0].IsCompetition {
		t.Errorf("competition = %+v, want canonical Show Jumping / is_competition true", repo.competitions[0])
	}
}

func TestRunSourceSkipsUnparseableDate(t *testing.T) {
	repo := newFakeRepo()
	events := []parser.ExtractedEvent{
		{Name: "Bad Date Show", DateStart: "not-a-date", VenueName: "Hickstead"},
	}
	e := newTestEngine(t, repo, events)

	s, err := e.RunSource(context.Background(), domain.Source{ID: 1, URL: "https://example.com"}, false)
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if s.Status != domain.ScanCompleted {
		t.Errorf("status = %v, want completed (skip, not fail)", s.Status)
	}
	if s.EventsUpserted != 0 {
		t.Errorf("expected the unparseable event to be skipped, got EventsUpserted=%d", s.EventsUpserted)
	}
	if len(repo.competitions) != 0 {
		t.Errorf("expected no persisted competitions, got %d", len(repo.competitions))
	}
}

func TestRunSourceFailsOnParserFetchError(t *testing.T) {
	repo := newFakeRepo()
	m, _ := venue.New(context.Background(), repo, nil)
	gc, _ := geocode.New(geocode.Config{}, nil, nil)
	reg := parser.NewRegistry(stubParser{err: errBoom})
	e := New(Config{Concurrency: 1}, repo, &fakeUOWFactory{repo: repo}, m, gc, reg, nil, nil)

	s, err := e.RunSource(context.Background(), domain.Source{ID: 1, URL: "https://example.com"}, false)
	if err == nil {
		t.Fatal("expected RunSource to return an error")
	}
	if s.Status != domain.ScanFailed {
		t.Errorf("status = %v, want failed", s.Status)
	}
}

func TestRunSourceSuppressesInFlightDuplicate(t *testing.T) {
	repo := newFakeRepo()
	repo.inFlight[1] = true
	e := newTestEngine(t, repo, nil)

	_, err := e.RunSource(context.Background(), domain.Source{ID: 1, URL: "https://example.com"}, false)
	if err != ErrScanInFlight {
		t.Errorf("err = %v, want ErrScanInFlight", err)
	}
}

func TestRunSourceVenueAliasCollapse(t *testing.T) {
	repo := newFakeRepo()
	repo.venues = []domain.Venue{{ID: 1, CanonicalName: "Allens Hill Competition Centre"}}
	repo.aliases = []domain.VenueAlias{{AliasName: "ALLENS HILL", VenueID: 1}}

	events := []parser.ExtractedEvent{
		{Name: "Dressage Day", DateStart: "2026-06-01", VenueName: "Allens Hill"},
		{Name: "Jumping Day", DateStart: "2026-06-02", VenueName: "Allens Hill Competition Centre"},
	}
	e := newTestEngine(t, repo, events)

	_, err := e.RunSource(context.Background(), domain.Source{ID: 1, URL: "https://example.com"}, false)
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if len(repo.competitions) != 2 {
		t.Fatalf("expected 2 competitions, got %d", len(repo.competitions))
	}
	if repo.competitions[0].VenueID != repo.competitions[1].VenueID {
		t.Errorf("expected both events to share one venue id, got %d and %d", repo.competitions[0].VenueID, repo.competitions[1].VenueID)
	}
}

var errBoom = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
