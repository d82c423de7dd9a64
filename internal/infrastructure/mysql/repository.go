package mysql

import (
	"context"

	"eventscout/internal/domain"
)

// SQLRepository is the non-transactional view of domain.Repository: every
// method is a direct passthrough to DB. It serves callers that never need
// cross-call atomicity, such as the discipline auditor and the scheduler's
// source lookups.
type SQLRepository struct {
	db *DB
}

// NewSQLRepository constructs a SQLRepository.
func NewSQLRepository(db *DB) *SQLRepository {
	return &SQLRepository{db: db}
}

var _ domain.Repository = (*SQLRepository)(nil)

func (r *SQLRepository) UpsertSourceCtx(ctx context.Context, src domain.Source) error {
	return r.db.UpsertSourceCtx(ctx, src)
}
func (r *SQLRepository) ListEnabledSourcesCtx(ctx context.Context) ([]domain.Source, error) {
	return r.db.ListEnabledSourcesCtx(ctx)
}
func (r *SQLRepository) GetSourceByIDCtx(ctx context.Context, id int64) (*domain.Source, error) {
	return r.db.GetSourceByIDCtx(ctx, id)
}
func (r *SQLRepository) GetSourceByKeyCtx(ctx context.Context, key string) (*domain.Source, error) {
	return r.db.GetSourceByKeyCtx(ctx, key)
}

func (r *SQLRepository) LoadAllVenuesCtx(ctx context.Context) ([]domain.Venue, error) {
	return r.db.LoadAllVenuesCtx(ctx)
}
func (r *SQLRepository) LoadAllAliasesCtx(ctx context.Context) ([]domain.VenueAlias, error) {
	return r.db.LoadAllAliasesCtx(ctx)
}
func (r *SQLRepository) GetVenueByIDCtx(ctx context.Context, id int64) (*domain.Venue, error) {
	return r.db.GetVenueByIDCtx(ctx, id)
}
func (r *SQLRepository) CreateVenueCtx(ctx context.Context, v *domain.Venue) (int64, error) {
	return r.db.CreateVenueCtx(ctx, v)
}
func (r *SQLRepository) CreateAliasCtx(ctx context.Context, alias domain.VenueAlias) error {
	return r.db.CreateAliasCtx(ctx, alias)
}
func (r *SQLRepository) UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error {
	return r.db.UpdateVenueCoordinatesCtx(ctx, venueID, latitude, longitude, distanceMiles)
}
func (r *SQLRepository) UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error {
	return r.db.UpdateVenuePostcodeCtx(ctx, venueID, postcode)
}
func (r *SQLRepository) RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error {
	return r.db.RecomputeAllDistancesCtx(ctx, homeLatitude, homeLongitude)
}

func (r *SQLRepository) UpsertCompetitionCtx(ctx context.Context, c *domain.Competition) (bool, error) {
	return r.db.UpsertCompetitionCtx(ctx, c)
}
func (r *SQLRepository) ListWithDisciplineCtx(ctx context.Context) ([]domain.Competition, error) {
	return r.db.ListWithDisciplineCtx(ctx)
}
func (r *SQLRepository) UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error {
	return r.db.UpdateDisciplineCtx(ctx, id, discipline)
}
func (r *SQLRepository) ListCatalogCtx(ctx context.Context, filter domain.CatalogFilter) ([]domain.Competition, int, error) {
	return r.db.ListCatalogCtx(ctx, filter)
}

func (r *SQLRepository) InsertScanCtx(ctx context.Context, s *domain.Scan) (int64, error) {
	return r.db.InsertScanCtx(ctx, s)
}
func (r *SQLRepository) UpdateScanCtx(ctx context.Context, s *domain.Scan) error {
	return r.db.UpdateScanCtx(ctx, s)
}
func (r *SQLRepository) IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error) {
	return r.db.IsScanInFlightCtx(ctx, sourceID)
}
func (r *SQLRepository) ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]domain.Scan, error) {
	return r.db.ListScanHistoryCtx(ctx, sourceID, limit)
}
