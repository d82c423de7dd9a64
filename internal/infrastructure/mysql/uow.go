package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"eventscout/internal/domain"
)

// SQLUnitOfWorkFactory starts SQL-backed transactions.
type SQLUnitOfWorkFactory struct {
	db *DB
}

// NewSQLUnitOfWorkFactory constructs a SQLUnitOfWorkFactory.
func NewSQLUnitOfWorkFactory(db *DB) *SQLUnitOfWorkFactory {
	return &SQLUnitOfWorkFactory{db: db}
}

var _ domain.UnitOfWorkFactory = (*SQLUnitOfWorkFactory)(nil)

func (f *SQLUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := f.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mysql: begin transaction: %w", err)
	}
	return &SQLUnitOfWork{db: f.db, tx: tx}, nil
}

// SQLUnitOfWork coordinates writes through a single *sql.Tx. Reads fall
// through to the non-transactional DB methods: nothing else commits
// concurrently during the short window a unit of work is open, so reading
// outside the transaction costs nothing in correctness and avoids holding
// every query against one *sql.Tx.
type SQLUnitOfWork struct {
	db     *DB
	tx     *sql.Tx
	closed bool
}

var _ domain.UnitOfWork = (*SQLUnitOfWork)(nil)

func (u *SQLUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	tx, err := u.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin transaction: %w", err)
	}
	u.tx = tx
	return nil
}

func (u *SQLUnitOfWork) Commit() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit()
}

func (u *SQLUnitOfWork) Rollback() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// --- writes, scoped to the transaction ---

func (u *SQLUnitOfWork) UpsertSourceCtx(ctx context.Context, src domain.Source) error {
	return u.db.UpsertSourceTx(ctx, u.tx, src)
}
func (u *SQLUnitOfWork) CreateVenueCtx(ctx context.Context, v *domain.Venue) (int64, error) {
	return u.db.CreateVenueTx(ctx, u.tx, v)
}
func (u *SQLUnitOfWork) CreateAliasCtx(ctx context.Context, alias domain.VenueAlias) error {
	return u.db.CreateAliasTx(ctx, u.tx, alias)
}
func (u *SQLUnitOfWork) UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error {
	return u.db.UpdateVenueCoordinatesTx(ctx, u.tx, venueID, latitude, longitude, distanceMiles)
}
func (u *SQLUnitOfWork) UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error {
	return u.db.UpdateVenuePostcodeTx(ctx, u.tx, venueID, postcode)
}
func (u *SQLUnitOfWork) RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error {
	// The one write here that does not use the transaction: it runs
	// directly against the connection pool.
	return u.db.RecomputeAllDistancesCtx(ctx, homeLatitude, homeLongitude)
}
func (u *SQLUnitOfWork) UpsertCompetitionCtx(ctx context.Context, c *domain.Competition) (bool, error) {
	return u.db.UpsertCompetitionTx(ctx, u.tx, c)
}
func (u *SQLUnitOfWork) UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error {
	return u.db.UpdateDisciplineTx(ctx, u.tx, id, discipline)
}
func (u *SQLUnitOfWork) InsertScanCtx(ctx context.Context, s *domain.Scan) (int64, error) {
	return u.db.InsertScanTx(ctx, u.tx, s)
}
func (u *SQLUnitOfWork) UpdateScanCtx(ctx context.Context, s *domain.Scan) error {
	return u.db.UpdateScanTx(ctx, u.tx, s)
}

// --- reads, served outside the transaction ---

func (u *SQLUnitOfWork) ListEnabledSourcesCtx(ctx context.Context) ([]domain.Source, error) {
	return u.db.ListEnabledSourcesCtx(ctx)
}
func (u *SQLUnitOfWork) GetSourceByIDCtx(ctx context.Context, id int64) (*domain.Source, error) {
	return u.db.GetSourceByIDCtx(ctx, id)
}
func (u *SQLUnitOfWork) GetSourceByKeyCtx(ctx context.Context, key string) (*domain.Source, error) {
	return u.db.GetSourceByKeyCtx(ctx, key)
}
func (u *SQLUnitOfWork) LoadAllVenuesCtx(ctx context.Context) ([]domain.Venue, error) {
	return u.db.LoadAllVenuesCtx(ctx)
}
func (u *SQLUnitOfWork) LoadAllAliasesCtx(ctx context.Context) ([]domain.VenueAlias, error) {
	return u.db.LoadAllAliasesCtx(ctx)
}
func (u *SQLUnitOfWork) GetVenueByIDCtx(ctx context.Context, id int64) (*domain.Venue, error) {
	return u.db.GetVenueByIDCtx(ctx, id)
}
func (u *SQLUnitOfWork) ListWithDisciplineCtx(ctx context.Context) ([]domain.Competition, error) {
	return u.db.ListWithDisciplineCtx(ctx)
}
func (u *SQLUnitOfWork) ListCatalogCtx(ctx context.Context, filter domain.CatalogFilter) ([]domain.Competition, int, error) {
	return u.db.ListCatalogCtx(ctx, filter)
}
func (u *SQLUnitOfWork) IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error) {
	return u.db.IsScanInFlightCtx(ctx, sourceID)
}
func (u *SQLUnitOfWork) ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]domain.Scan, error) {
	return u.db.ListScanHistoryCtx(ctx, sourceID, limit)
}
