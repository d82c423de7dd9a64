// Package domain holds the persisted entities and the repository/unit-of-work
// contracts the rest of the system depends on. Nothing outside
// internal/infrastructure/mysql knows how these are stored.
package domain

import "time"

// Source is a compiled-in definition of a site to scan. Sources are seeded
// at startup and never created at runtime.
type Source struct {
	ID          int64     `db:"id" json:"id"`
	Key         string    `db:"key" json:"key"`
	DisplayName string    `db:"display_name" json:"display_name"`
	URL         string    `db:"url" json:"url"`
	Enabled     bool      `db:"enabled" json:"enabled"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Venue is a physical location events are held at. Created lazily by the
// venue matcher, or loaded from the venue seed list at startup.
type Venue struct {
	ID            int64    `db:"id" json:"id"`
	CanonicalName string   `db:"canonical_name" json:"canonical_name"`
	Postcode      string   `db:"postcode" json:"postcode,omitempty"`
	Latitude      *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64 `db:"longitude" json:"longitude,omitempty"`
	DistanceMiles *float64 `db:"distance_miles" json:"distance_miles,omitempty"`
}

// HasCoordinates reports whether the venue already carries a confident
// latitude/longitude pair.
func (v *Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// VenueAlias is a normalized alias string pointing at a venue. Both
// seed-derived and runtime-learned aliases live in the same table, including
// the venue's own canonical name as a self-alias.
type VenueAlias struct {
	AliasName string `db:"alias_name" json:"alias_name"`
	VenueID   int64  `db:"venue_id" json:"venue_id"`
}

// Competition is a single extracted, classified, and venue-resolved event.
// Venue-derived attributes are read through VenueID, never duplicated here.
type Competition struct {
	ID              int64     `db:"id" json:"id"`
	SourceID        int64     `db:"source_id" json:"source_id"`
	Name            string    `db:"name" json:"name"`
	DateStart       string    `db:"date_start" json:"date_start"`
	DateEnd         string    `db:"date_end" json:"date_end,omitempty"`
	VenueID         int64     `db:"venue_id" json:"venue_id"`
	IsCompetition   bool      `db:"is_competition" json:"is_competition"`
	Discipline      string    `db:"discipline" json:"discipline,omitempty"`
	HasPonyClasses  bool      `db:"has_pony_classes" json:"has_pony_classes"`
	URL             string    `db:"url" json:"url,omitempty"`
	Classes         []string  `db:"classes" json:"classes,omitempty"`
	Description     string    `db:"description" json:"description,omitempty"`
	RawExtract      string    `db:"raw_extract" json:"raw_extract,omitempty"`
	FirstSeenAt     time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt      time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// DedupKey identifies the tuple a Competition upsert is keyed on.
type DedupKey struct {
	SourceID  int64
	Name      string
	DateStart string
	VenueID   int64
}

// ScanStatus is the terminal or in-flight state of a Scan row.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// Scan is an insert-only audit row recording one orchestrator invocation
// against a single source.
type Scan struct {
	ID               int64      `db:"id" json:"id"`
	SourceID         int64      `db:"source_id" json:"source_id"`
	StartedAt        time.Time  `db:"started_at" json:"started_at"`
	FinishedAt       *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Status           ScanStatus `db:"status" json:"status"`
	EventsFound      int        `db:"events_found" json:"events_found"`
	EventsUpserted   int        `db:"events_upserted" json:"events_upserted"`
	CompetitionCount int        `db:"competition_count" json:"competition_count"`
	TrainingCount    int        `db:"training_count" json:"training_count"`
	Error            string     `db:"error" json:"error,omitempty"`
}
