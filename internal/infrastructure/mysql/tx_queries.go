package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"eventscout/internal/domain"
)

// Tx-suffixed methods run the same statements as their Ctx counterparts but
// against an explicit transaction, so the unit-of-work's writes commit or
// roll back atomically with the rest of the event it belongs to.

func (db *DB) UpsertSourceTx(ctx context.Context, tx *sql.Tx, src domain.Source) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT IGNORE INTO sources (` + "`key`" + `, display_name, url, enabled) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, src.Key, src.DisplayName, src.URL, src.Enabled); err != nil {
		return fmt.Errorf("mysql: upsert source %q: %w", src.Key, err)
	}
	return nil
}

func (db *DB) CreateVenueTx(ctx context.Context, tx *sql.Tx, v *domain.Venue) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT INTO venues (canonical_name, postcode) VALUES (?, ?)`
	res, err := tx.ExecContext(ctx, query, v.CanonicalName, v.Postcode)
	if err != nil {
		return 0, fmt.Errorf("mysql: create venue %q: %w", v.CanonicalName, err)
	}
	return res.LastInsertId()
}

func (db *DB) CreateAliasTx(ctx context.Context, tx *sql.Tx, alias domain.VenueAlias) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	stmt := db.stmts["createAlias"]
	if stmt == nil {
		return fmt.Errorf("mysql: createAlias statement not prepared")
	}
	txStmt := tx.StmtContext(ctx, stmt)
	if _, err := txStmt.ExecContext(ctx, alias.AliasName, alias.VenueID); err != nil {
		return fmt.Errorf("mysql: create alias %q: %w", alias.AliasName, err)
	}
	return nil
}

func (db *DB) UpdateVenueCoordinatesTx(ctx context.Context, tx *sql.Tx, venueID int64, latitude, longitude, distanceMiles float64) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	// Only the first writer sets coordinates; a venue that already has them
	// is left untouched, so concurrent scans cannot overwrite each other.
	query := `UPDATE venues SET latitude = ?, longitude = ?, distance_miles = ? WHERE id = ? AND latitude IS NULL`
	if _, err := tx.ExecContext(ctx, query, latitude, longitude, distanceMiles, venueID); err != nil {
		return fmt.Errorf("mysql: update venue coordinates %d: %w", venueID, err)
	}
	return nil
}

func (db *DB) UpdateVenuePostcodeTx(ctx context.Context, tx *sql.Tx, venueID int64, postcode string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE venues SET postcode = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, postcode, venueID); err != nil {
		return fmt.Errorf("mysql: update venue postcode %d: %w", venueID, err)
	}
	return nil
}

func (db *DB) UpsertCompetitionTx(ctx context.Context, tx *sql.Tx, c *domain.Competition) (bool, error) {
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
	txStmt := tx.StmtContext(ctx, stmt)
	res, err := txStmt.ExecContext(ctx,
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

func (db *DB) UpdateDisciplineTx(ctx context.Context, tx *sql.Tx, id int64, discipline string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE competitions SET discipline = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, discipline, id); err != nil {
		return fmt.Errorf("mysql: update discipline for competition %d: %w", id, err)
	}
	return nil
}

func (db *DB) InsertScanTx(ctx context.Context, tx *sql.Tx, s *domain.Scan) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `INSERT INTO scans (source_id, started_at, status, events_found, events_upserted, competition_count, training_count) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query, s.SourceID, s.StartedAt, s.Status, s.EventsFound, s.EventsUpserted, s.CompetitionCount, s.TrainingCount)
	if err != nil {
		return 0, fmt.Errorf("mysql: insert scan for source %d: %w", s.SourceID, err)
	}
	return res.LastInsertId()
}

func (db *DB) UpdateScanTx(ctx context.Context, tx *sql.Tx, s *domain.Scan) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	query := `UPDATE scans SET status = ?, finished_at = ?, events_found = ?, events_upserted = ?, competition_count = ?, training_count = ?, error = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, s.Status, s.FinishedAt, s.EventsFound, s.EventsUpserted, s.CompetitionCount, s.TrainingCount, s.Error, s.ID); err != nil {
		return fmt.Errorf("mysql: update scan %d: %w", s.ID, err)
	}
	return nil
}
