package domain

import "context"

// SourceRepository defines data access for compiled-in source definitions.
type SourceRepository interface {
	// UpsertSourceCtx inserts a source by its unique key if absent. Existing
	// rows are never overwritten; sources have no user-controllable fields.
	UpsertSourceCtx(ctx context.Context, src Source) error
	ListEnabledSourcesCtx(ctx context.Context) ([]Source, error)
	GetSourceByIDCtx(ctx context.Context, id int64) (*Source, error)
	GetSourceByKeyCtx(ctx context.Context, key string) (*Source, error)
}

// VenueRepository defines data access for venues and their aliases.
type VenueRepository interface {
	LoadAllVenuesCtx(ctx context.Context) ([]Venue, error)
	LoadAllAliasesCtx(ctx context.Context) ([]VenueAlias, error)
	GetVenueByIDCtx(ctx context.Context, id int64) (*Venue, error)

	// CreateVenueCtx inserts a new venue and returns its id.
	CreateVenueCtx(ctx context.Context, v *Venue) (int64, error)
	// CreateAliasCtx inserts a venue alias; idempotent on (alias_name).
	CreateAliasCtx(ctx context.Context, alias VenueAlias) error

	UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error
	UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error
	// RecomputeAllDistancesCtx recomputes distance_miles on every venue that
	// already carries coordinates, against a (possibly new) home postcode.
	RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error
}

// CatalogFilter narrows ListCatalogCtx. The zero value matches every row
// except that CompetitionOnly defaults to true at the call site, per
// spec's "competition flag (default true)".
type CatalogFilter struct {
	DateFrom, DateTo string // ISO dates, inclusive bounds; empty means unbounded
	Discipline       string
	VenueSubstring   string
	PonyOnly         bool
	MaxDistanceMiles *float64
	CompetitionOnly  bool
	Limit, Offset    int
}

// CompetitionRepository defines data access for competitions (events).
type CompetitionRepository interface {
	// UpsertCompetitionCtx inserts a new row or refreshes last_seen_at and
	// mutable fields of an existing row keyed on DedupKey. Returns true if a
	// new row was inserted.
	UpsertCompetitionCtx(ctx context.Context, c *Competition) (inserted bool, err error)
	ListWithDisciplineCtx(ctx context.Context) ([]Competition, error)
	UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error
	// ListCatalogCtx serves the external read API's filtered, paginated
	// catalog query. Returns the page plus the total matching row count.
	ListCatalogCtx(ctx context.Context, filter CatalogFilter) (items []Competition, total int, err error)
}

// ScanRepository defines data access for the scan audit trail.
type ScanRepository interface {
	InsertScanCtx(ctx context.Context, s *Scan) (int64, error)
	UpdateScanCtx(ctx context.Context, s *Scan) error
	IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error)
	ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]Scan, error)
}

// Repository aggregates the repositories the scan orchestrator, scheduler,
// and startup seeding need.
type Repository interface {
	SourceRepository
	VenueRepository
	CompetitionRepository
	ScanRepository
}
