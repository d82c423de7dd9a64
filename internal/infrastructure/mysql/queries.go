package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"eventscout/internal/domain"
	"eventscout/internal/geocode"
)

// marshalClasses JSON-encodes an ordered class list for storage in the
// competitions.classes column. A nil/empty slice encodes as "[]" rather than
// NULL, so ON DUPLICATE KEY UPDATE always has a well-formed value to write.
func marshalClasses(classes []string) (string, error) {
	b, err := json.Marshal(classes)
	if err != nil {
		return "", fmt.Errorf("mysql: marshal classes: %w", err)
	}
	return string(b), nil
}

// unmarshalClasses decodes the competitions.classes column. An empty or NULL
// column decodes to a nil slice rather than an error.
func unmarshalClasses(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var classes []string
	if err := json.Unmarshal([]byte(raw.String), &classes); err != nil {
		return nil, fmt.Errorf("mysql: unmarshal classes: %w", err)
	}
	return classes, nil
}

// --- sources -----------------------------------------------------------

// UpsertSourceCtx inserts a source by key if absent. Sources have no
// user-controllable fields, so an existing row is never overwritten.
func (db *DB) UpsertSourceCtx(ctx context.Context, src domain.Source) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT IGNORE INTO sources (` + "`key`" + `, display_name, url, enabled) VALUES (?, ?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, query, src.Key, src.DisplayName, src.URL, src.Enabled); err != nil {
		return fmt.Errorf("mysql: upsert source %q: %w", src.Key, err)
	}
	return nil
}

func (db *DB) ListEnabledSourcesCtx(ctx context.Context) ([]domain.Source, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, ` + "`key`" + `, display_name, url, enabled, created_at FROM sources WHERE enabled = 1`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: list enabled sources: %w", err)
	}
	defer rows.Close()

	var out []domain.Source
	for rows.Next() {
		var s domain.Source
		if err := rows.Scan(&s.ID, &s.Key, &s.DisplayName, &s.URL, &s.Enabled, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("mysql: scan source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) GetSourceByIDCtx(ctx context.Context, id int64) (*domain.Source, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, ` + "`key`" + `, display_name, url, enabled, created_at FROM sources WHERE id = ?`
	return db.scanSourceRow(db.conn.QueryRowContext(ctx, query, id))
}

func (db *DB) GetSourceByKeyCtx(ctx context.Context, key string) (*domain.Source, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, ` + "`key`" + `, display_name, url, enabled, created_at FROM sources WHERE ` + "`key`" + ` = ?`
	return db.scanSourceRow(db.conn.QueryRowContext(ctx, query, key))
}

func (db *DB) scanSourceRow(row *sql.Row) (*domain.Source, error) {
	var s domain.Source
	if err := row.Scan(&s.ID, &s.Key, &s.DisplayName, &s.URL, &s.Enabled, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("mysql: scan source: %w", err)
	}
	return &s, nil
}

// --- venues --------------------------------------------------------------

func (db *DB) LoadAllVenuesCtx(ctx context.Context) ([]domain.Venue, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, canonical_name, postcode, latitude, longitude, distance_miles FROM venues`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: load venues: %w", err)
	}
	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var v domain.Venue
		var postcode sql.NullString
		if err := rows.Scan(&v.ID, &v.CanonicalName, &postcode, &v.Latitude, &v.Longitude, &v.DistanceMiles); err != nil {
			return nil, fmt.Errorf("mysql: scan venue: %w", err)
		}
		v.Postcode = postcode.String
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) LoadAllAliasesCtx(ctx context.Context) ([]domain.VenueAlias, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT alias_name, venue_id FROM venue_aliases`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: load aliases: %w", err)
	}
	defer rows.Close()

	var out []domain.VenueAlias
	for rows.Next() {
		var a domain.VenueAlias
		if err := rows.Scan(&a.AliasName, &a.VenueID); err != nil {
			return nil, fmt.Errorf("mysql: scan alias: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (db *DB) GetVenueByIDCtx(ctx context.Context, id int64) (*domain.Venue, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, canonical_name, postcode, latitude, longitude, distance_miles FROM venues WHERE id = ?`
	var v domain.Venue
	var postcode sql.NullString
	err := db.conn.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.CanonicalName, &postcode, &v.Latitude, &v.Longitude, &v.DistanceMiles)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get venue %d: %w", id, err)
	}
	v.Postcode = postcode.String
	return &v, nil
}

func (db *DB) CreateVenueCtx(ctx context.Context, v *domain.Venue) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT INTO venues (canonical_name, postcode) VALUES (?, ?)`
	res, err := db.conn.ExecContext(ctx, query, v.CanonicalName, v.Postcode)
	if err != nil {
		return 0, fmt.Errorf("mysql: create venue %q: %w", v.CanonicalName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mysql: create venue %q: last insert id: %w", v.CanonicalName, err)
	}
	return id, nil
}

// CreateAliasCtx is idempotent: INSERT IGNORE silently no-ops when the
// alias_name unique key already exists.
func (db *DB) CreateAliasCtx(ctx context.Context, alias domain.VenueAlias) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	stmt := db.stmts["createAlias"]
	if stmt == nil {
		return fmt.Errorf("mysql: createAlias statement not prepared")
	}
	if _, err := stmt.ExecContext(ctx, alias.AliasName, alias.VenueID); err != nil {
		return fmt.Errorf("mysql: create alias %q: %w", alias.AliasName, err)
	}
	return nil
}

func (db *DB) UpdateVenueCoordinatesCtx(ctx context.Context, venueID int64, latitude, longitude, distanceMiles float64) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE venues SET latitude = ?, longitude = ?, distance_miles = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, latitude, longitude, distanceMiles, venueID); err != nil {
		return fmt.Errorf("mysql: update venue coordinates %d: %w", venueID, err)
	}
	return nil
}

func (db *DB) UpdateVenuePostcodeCtx(ctx context.Context, venueID int64, postcode string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE venues SET postcode = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, postcode, venueID); err != nil {
		return fmt.Errorf("mysql: update venue postcode %d: %w", venueID, err)
	}
	return nil
}

// RecomputeAllDistancesCtx recomputes distance_miles for every venue that
// already carries coordinates against a (possibly new) home postcode. Done
// in Go rather than SQL trigonometry functions, matching the great-circle
// formula the geocoder cascade uses for freshly resolved venues.
func (db *DB) RecomputeAllDistancesCtx(ctx context.Context, homeLatitude, homeLongitude float64) error {
	readCtx, cancel := db.withReadTimeout(ctx)
	rows, err := db.conn.QueryContext(readCtx, `SELECT id, latitude, longitude FROM venues WHERE latitude IS NOT NULL AND longitude IS NOT NULL`)
	cancel()
	if err != nil {
		return fmt.Errorf("mysql: recompute distances: listing venues: %w", err)
	}

	type coord struct {
		id       int64
		lat, lng float64
	}
	var coords []coord
	for rows.Next() {
		var c coord
		if err := rows.Scan(&c.id, &c.lat, &c.lng); err != nil {
			rows.Close()
			return fmt.Errorf("mysql: recompute distances: scan: %w", err)
		}
		coords = append(coords, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("mysql: recompute distances: %w", err)
	}

	writeCtx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	for _, c := range coords {
		dist := geocode.GreatCircleMiles(homeLatitude, homeLongitude, c.lat, c.lng)
		if _, err := db.conn.ExecContext(writeCtx, `UPDATE venues SET distance_miles = ? WHERE id = ?`, dist, c.id); err != nil {
			return fmt.Errorf("mysql: recompute distances: update venue %d: %w", c.id, err)
		}
	}
	return nil
}

// --- competitions ----------------------------------------------------------

// UpsertCompetitionCtx inserts a new competition row or refreshes the
// mutable fields and last_seen_at of an existing one, keyed on the unique
// (source_id, name, date_start, venue_id) index. MySQL reports 1 row
// affected for a fresh insert and 2 for an update that actually changed a
// column, which is what distinguishes the two outcomes here.
func (db *DB) UpsertCompetitionCtx(ctx context.Context, c *domain.Competition) (bool, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	stmt := db.stmts["upsertCompetition"]
	if stmt == nil {
		return false, fmt.Errorf("mysql: upsertCompetition statement not prepared")
	}
	classes, err := marshalClasses(c.Classes)
	if err != nil {
		return false, err
	}
	res, err := stmt.ExecContext(ctx,
		c.SourceID, c.Name, c.DateStart, c.DateEnd, c.VenueID, c.IsCompetition, c.Discipline,
		c.HasPonyClasses, c.URL, classes, c.Description, c.RawExtract, c.FirstSeenAt, c.LastSeenAt,
	)
	if err != nil {
		return false, fmt.Errorf("mysql: upsert competition %q: %w", c.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mysql: upsert competition %q: rows affected: %w", c.Name, err)
	}
	inserted := affected == 1
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		c.ID = id
	}
	return inserted, nil
}

func (db *DB) ListWithDisciplineCtx(ctx context.Context) ([]domain.Competition, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, discipline FROM competitions WHERE discipline != ''`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: list competitions with discipline: %w", err)
	}
	defer rows.Close()

	var out []domain.Competition
	for rows.Next() {
		var c domain.Competition
		if err := rows.Scan(&c.ID, &c.Discipline); err != nil {
			return nil, fmt.Errorf("mysql: scan competition discipline: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) UpdateDisciplineCtx(ctx context.Context, id int64, discipline string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE competitions SET discipline = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, discipline, id); err != nil {
		return fmt.Errorf("mysql: update discipline for competition %d: %w", id, err)
	}
	return nil
}

// ListCatalogCtx serves the filtered, paginated catalog read. Filters are
// applied as a dynamically built WHERE clause so an empty CatalogFilter
// degrades to "every row, earliest date_start first".
func (db *DB) ListCatalogCtx(ctx context.Context, filter domain.CatalogFilter) ([]domain.Competition, int, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var where []string
	var args []interface{}

	if filter.CompetitionOnly {
		where = append(where, "c.is_competition = 1")
	}
	if filter.DateFrom != "" {
		where = append(where, "c.date_start >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		where = append(where, "c.date_start <= ?")
		args = append(args, filter.DateTo)
	}
	if filter.Discipline != "" {
		where = append(where, "c.discipline = ?")
		args = append(args, filter.Discipline)
	}
	if filter.VenueSubstring != "" {
		where = append(where, "v.canonical_name LIKE ?")
		args = append(args, "%"+filter.VenueSubstring+"%")
	}
	if filter.PonyOnly {
		where = append(where, "c.has_pony_classes = 1")
	}
	if filter.MaxDistanceMiles != nil {
		where = append(where, "v.distance_miles IS NOT NULL AND v.distance_miles <= ?")
		args = append(args, *filter.MaxDistanceMiles)
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM competitions c JOIN venues v ON v.id = c.venue_id ` + whereClause
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("mysql: count catalog: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT c.id, c.source_id, c.name, c.date_start, c.date_end, c.venue_id, c.is_competition,
			c.discipline, c.has_pony_classes, c.url, c.classes, c.description, c.first_seen_at, c.last_seen_at
		FROM competitions c JOIN venues v ON v.id = c.venue_id ` + whereClause + `
		ORDER BY c.date_start ASC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("mysql: list catalog: %w", err)
	}
	defer rows.Close()

	var out []domain.Competition
	for rows.Next() {
		var c domain.Competition
		var discipline, url, classesRaw, description sql.NullString
		var dateEnd sql.NullString
		if err := rows.Scan(&c.ID, &c.SourceID, &c.Name, &c.DateStart, &dateEnd, &c.VenueID, &c.IsCompetition,
			&discipline, &c.HasPonyClasses, &url, &classesRaw, &description, &c.FirstSeenAt, &c.LastSeenAt); err != nil {
			return nil, 0, fmt.Errorf("mysql: scan catalog row: %w", err)
		}
		c.DateEnd = dateEnd.String
		c.Discipline = discipline.String
		c.URL = url.String
		c.Description = description.String
		classes, err := unmarshalClasses(classesRaw)
		if err != nil {
			return nil, 0, err
		}
		c.Classes = classes
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// --- scans -------------------------------------------------------------

func (db *DB) InsertScanCtx(ctx context.Context, s *domain.Scan) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT INTO scans (source_id, started_at, status, events_found, events_upserted, competition_count, training_count) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := db.conn.ExecContext(ctx, query, s.SourceID, s.StartedAt, s.Status, s.EventsFound, s.EventsUpserted, s.CompetitionCount, s.TrainingCount)
	if err != nil {
		return 0, fmt.Errorf("mysql: insert scan for source %d: %w", s.SourceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mysql: insert scan for source %d: last insert id: %w", s.SourceID, err)
	}
	return id, nil
}

func (db *DB) UpdateScanCtx(ctx context.Context, s *domain.Scan) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE scans SET status = ?, finished_at = ?, events_found = ?, events_upserted = ?, competition_count = ?, training_count = ?, error = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, s.Status, s.FinishedAt, s.EventsFound, s.EventsUpserted, s.CompetitionCount, s.TrainingCount, s.Error, s.ID); err != nil {
		return fmt.Errorf("mysql: update scan %d: %w", s.ID, err)
	}
	return nil
}

func (db *DB) IsScanInFlightCtx(ctx context.Context, sourceID int64) (bool, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT EXISTS(SELECT 1 FROM scans WHERE source_id = ? AND status IN ('pending', 'running'))`
	var inFlight bool
	if err := db.conn.QueryRowContext(ctx, query, sourceID).Scan(&inFlight); err != nil {
		return false, fmt.Errorf("mysql: checking in-flight scan for source %d: %w", sourceID, err)
	}
	return inFlight, nil
}

func (db *DB) ListScanHistoryCtx(ctx context.Context, sourceID int64, limit int) ([]domain.Scan, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	query := `SELECT id, source_id, started_at, finished_at, status, events_found, events_upserted,
			competition_count, training_count, error
		FROM scans WHERE source_id = ? ORDER BY started_at DESC LIMIT ?`
	rows, err := db.conn.QueryContext(ctx, query, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("mysql: list scan history for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var out []domain.Scan
	for rows.Next() {
		var s domain.Scan
		var errStr sql.NullString
		if err := rows.Scan(&s.ID, &s.SourceID, &s.StartedAt, &s.FinishedAt, &s.Status, &s.EventsFound, &s.EventsUpserted,
			&s.CompetitionCount, &s.TrainingCount, &errStr); err != nil {
			return nil, fmt.Errorf("mysql: scan scan history row: %w", err)
		}
		s.Error = errStr.String
		out = append(out, s)
	}
	return out, rows.Err()
}
