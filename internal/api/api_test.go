package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"eventscout/internal/domain"
)

type fakeRepo struct {
	catalog       []domain.Competition
	catalogTotal  int
	gotFilter     domain.CatalogFilter
	scans         []domain.Scan
	venue         *domain.Venue
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
func (f *fakeRepo) LoadAllVenuesCtx(ctx context.Context) ([]domain.Venue, error) { return nil, nil }
func (f *fakeRepo) LoadAllAliasesCtx(ctx context.Context) ([]domain.VenueAlias, error) {
	return nil, nil
}
func (f *fakeRepo) GetVenueByIDCtx(ctx context.Context, id int64) (*domain.Venue, error) {
	return f.venue, nil
}
func (f *fakeRepo) CreateVenueCtx(ctx context.Context, v *domain.Venue) (int64, error) { return 0, nil }
func (f *fakeRepo) CreateAliasCtx(ctx context.Context, alias domain.VenueAlias) error  { return nil }
func (f *fakeRepo) UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error {
	return nil
}
func (f *fakeRepo) UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error {
	return nil
}
func (f *fakeRepo) RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error {
	return nil
}
func (f *fakeRepo) UpsertCompetitionCtx(ctx context.Context, c *domain.Competition) (bool, error) {
	return false, nil
}
func (f *fakeRepo) ListWithDisciplineCtx(ctx context.Context) ([]domain.Competition, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error {
	return nil
}
func (f *fakeRepo) ListCatalogCtx(ctx context.Context, filter domain.CatalogFilter) ([]domain.Competition, int, error) {
	f.gotFilter = filter
	return f.catalog, f.catalogTotal, nil
}
func (f *fakeRepo) InsertScanCtx(ctx context.Context, s *domain.Scan) (int64, error) { return 0, nil }
func (f *fakeRepo) UpdateScanCtx(ctx context.Context, s *domain.Scan) error          { return nil }
func (f *fakeRepo) IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error) {
	return false, nil
}
func (f *fakeRepo) ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]domain.Scan, error) {
	return f.scans, nil
}

var _ domain.Repository = (*fakeRepo)(nil)

func TestCatalogHandlerDefaultsCompetitionOnlyToTrue(t *testing.T) {
	repo := &fakeRepo{catalog: []domain.Competition{{ID: 1}}, catalogTotal: 1}
	req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
	w := httptest.NewRecorder()

	CatalogHandler(repo).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !repo.gotFilter.CompetitionOnly {
		t.Error("expected CompetitionOnly to default to true")
	}
	if repo.gotFilter.Limit != defaultCatalogLimit {
		t.Errorf("limit = %d, want default %d", repo.gotFilter.Limit, defaultCatalogLimit)
	}
}

func TestCatalogHandlerParsesFilters(t *testing.T) {
	repo := &fakeRepo{}
	req := httptest.NewRequest(http.MethodGet, "/competitions?discipline=dressage&venue=Hickstead&pony=true&competition=false&max_distance=25.5&limit=10&offset=20", nil)
	w := httptest.NewRecorder()

	CatalogHandler(repo).ServeHTTP(w, req)

	f := repo.gotFilter
	if f.Discipline != "dressage" || f.VenueSubstring != "Hickstead" || !f.PonyOnly || f.CompetitionOnly {
		t.Errorf("unexpected filter: %+v", f)
	}
	if f.MaxDistanceMiles == nil || *f.MaxDistanceMiles != 25.5 {
		t.Errorf("MaxDistanceMiles = %v, want 25.5", f.MaxDistanceMiles)
	}
	if f.Limit != 10 || f.Offset != 20 {
		t.Errorf("limit/offset = %d/%d, want 10/20", f.Limit, f.Offset)
	}
}

func TestVenueHandlerNotFound(t *testing.T) {
	repo := &fakeRepo{venue: nil}
	r := mux.NewRouter()
	r.HandleFunc("/venues/{id}", VenueHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/venues/9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestVenueHandlerFound(t *testing.T) {
	repo := &fakeRepo{venue: &domain.Venue{ID: 9, CanonicalName: "Hickstead"}}
	r := mux.NewRouter()
	r.HandleFunc("/venues/{id}", VenueHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/venues/9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got domain.Venue
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CanonicalName != "Hickstead" {
		t.Errorf("CanonicalName = %q, want Hickstead", got.CanonicalName)
	}
}

func TestScanHistoryHandlerInvalidSourceID(t *testing.T) {
	repo := &fakeRepo{}
	r := mux.NewRouter()
	r.HandleFunc("/sources/{id}/scans", ScanHistoryHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/sources/not-a-number/scans", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
