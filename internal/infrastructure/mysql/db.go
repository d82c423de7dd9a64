// Package mysql is the concrete persistence layer: a connection pool wrapper
// plus SQL-backed implementations of domain.Repository and
// domain.UnitOfWork against the sources/venues/venue_aliases/competitions/
// scans tables (SPEC_FULL.md §6).
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventscout/internal/constants"
	errs "eventscout/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

// PoolConfig controls connection pool sizing and per-query timeouts.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// DB wraps a connection pool and the prepared statements the repository
// layer reuses across calls.
type DB struct {
	conn         *sql.DB
	stmts        map[string]*sql.Stmt
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New opens a connection to dsn, pings it, and prepares the statement set.
func New(dsn string, cfg PoolConfig) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	connLifetime := cfg.ConnMaxLifetime
	if connLifetime <= 0 {
		connLifetime = 10 * time.Minute
	}
	connIdle := cfg.ConnMaxIdleTime
	if connIdle <= 0 {
		connIdle = 5 * time.Minute
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(connLifetime)
	conn.SetConnMaxIdleTime(connIdle)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	readTO := cfg.ReadTimeout
	if readTO <= 0 {
		readTO = constants.DBReadTimeoutDefault
	}
	writeTO := cfg.WriteTimeout
	if writeTO <= 0 {
		writeTO = constants.DBWriteTimeoutDefault
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  readTO,
		writeTimeout: writeTO,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("mysql.New", "failed to prepare statements", err)
	}

	return db, nil
}

// prepareStatements prepares the handful of hot-path queries run once per
// event; the rest of the repository uses ad-hoc queries since most run at
// most once per scan.
func (db *DB) prepareStatements() error {
	statements := map[string]string{
		"upsertCompetition": `INSERT INTO competitions
			(source_id, name, date_start, date_end, venue_id, is_competition, discipline,
			 has_pony_classes, url, classes, description, raw_extract, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				date_end = VALUES(date_end),
				is_competition = VALUES(is_competition),
				discipline = VALUES(discipline),
				has_pony_classes = VALUES(has_pony_classes),
				url = VALUES(url),
				classes = VALUES(classes),
				description = VALUES(description),
				raw_extract = VALUES(raw_extract),
				last_seen_at = VALUES(last_seen_at),
				id = LAST_INSERT_ID(id)`,
		"createAlias": `INSERT IGNORE INTO venue_aliases (alias_name, venue_id) VALUES (?, ?)`,
	}

	for name, query := range statements {
		stmt, err := db.conn.Prepare(query)
		if err != nil {
			return errs.NewDB("mysql.prepareStatements", fmt.Sprintf("failed to prepare statement %s", name), err)
		}
		db.stmts[name] = stmt
	}
	return nil
}

// Close closes every prepared statement and the underlying pool.
func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

// Conn exposes the raw pool for transaction use by SQLUnitOfWorkFactory.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.readTimeout)
}

func (db *DB) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.writeTimeout)
}
