// Package seed holds the compiled-in source definitions, venue seed list,
// and ambiguous-name list, and loads them into the database idempotently at
// startup (SPEC_FULL.md §4.8).
package seed

import (
	_ "embed"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"eventscout/internal/domain"
	"eventscout/internal/normalize"
)

//go:embed sources.yaml
var sourcesYAML []byte

//go:embed venues.yaml
var venuesYAML []byte

//go:embed ambiguous_names.yaml
var ambiguousNamesYAML []byte

// SourceDefinition is the compiled-in shape of one row in sources.yaml.
type SourceDefinition struct {
	Key         string `yaml:"key"`
	DisplayName string `yaml:"display_name"`
	URL         string `yaml:"url"`
	Enabled     bool   `yaml:"enabled"`
}

// VenueSeed is the compiled-in shape of one row in venues.yaml.
type VenueSeed struct {
	CanonicalName string   `yaml:"canonical_name"`
	Postcode      string   `yaml:"postcode"`
	Latitude      *float64 `yaml:"latitude"`
	Longitude     *float64 `yaml:"longitude"`
	Aliases       []string `yaml:"aliases"`
}

// Sources parses the embedded source definitions.
func Sources() ([]SourceDefinition, error) {
	var defs []SourceDefinition
	if err := yaml.Unmarshal(sourcesYAML, &defs); err != nil {
		return nil, fmt.Errorf("seed: parse sources.yaml: %w", err)
	}
	return defs, nil
}

// Venues parses the embedded venue seed list.
func Venues() ([]VenueSeed, error) {
	var seeds []VenueSeed
	if err := yaml.Unmarshal(venuesYAML, &seeds); err != nil {
		return nil, fmt.Errorf("seed: parse venues.yaml: %w", err)
	}
	return seeds, nil
}

// AmbiguousNames parses the compiled-in ambiguous-name list consumed by the
// venue matcher's ambiguous-name guard.
func AmbiguousNames() ([]string, error) {
	var names []string
	if err := yaml.Unmarshal(ambiguousNamesYAML, &names); err != nil {
		return nil, fmt.Errorf("seed: parse ambiguous_names.yaml: %w", err)
	}
	return names, nil
}

// Loader runs startup seeding against a repository, within a single
// transaction per seeding pass so a partial failure leaves the previous
// state intact.
type Loader struct {
	uowFactory domain.UnitOfWorkFactory
}

// NewLoader constructs a Loader.
func NewLoader(uowFactory domain.UnitOfWorkFactory) *Loader {
	return &Loader{uowFactory: uowFactory}
}

// Run performs the three-step startup seeding pass described in
// SPEC_FULL.md §4.8: sources, then venues, then aliases. It is idempotent;
// running it twice produces the same database state.
func (l *Loader) Run(ctx context.Context) error {
	sources, err := Sources()
	if err != nil {
		return err
	}
	venues, err := Venues()
	if err != nil {
		return err
	}

	uow, err := l.uowFactory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed: begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, s := range sources {
		if err := uow.UpsertSourceCtx(ctx, domain.Source{
			Key:         s.Key,
			DisplayName: s.DisplayName,
			URL:         s.URL,
			Enabled:     s.Enabled,
		}); err != nil {
			return fmt.Errorf("seed: upsert source %q: %w", s.Key, err)
		}
	}

	existingVenues, err := uow.LoadAllVenuesCtx(ctx)
	if err != nil {
		return fmt.Errorf("seed: load existing venues: %w", err)
	}
	byName := make(map[string]int64, len(existingVenues))
	for _, v := range existingVenues {
		byName[v.CanonicalName] = v.ID
	}

	for _, vs := range venues {
		canonical := normalize.VenueName(vs.CanonicalName)
		postcode := normalize.Postcode(vs.Postcode)

		venueID, exists := byName[canonical]
		if !exists {
			v := &domain.Venue{CanonicalName: canonical, Postcode: postcode}
			id, err := uow.CreateVenueCtx(ctx, v)
			if err != nil {
				return fmt.Errorf("seed: create venue %q: %w", canonical, err)
			}
			venueID = id
			byName[canonical] = id

			if vs.Latitude != nil && vs.Longitude != nil && normalize.InUKBox(*vs.Latitude, *vs.Longitude) {
				dist := 0.0 // recomputed against the home postcode at startup, after seeding
				if err := uow.UpdateVenueCoordinatesCtx(ctx, venueID, *vs.Latitude, *vs.Longitude, dist); err != nil {
					return fmt.Errorf("seed: set coordinates for %q: %w", canonical, err)
				}
			}
		}

		if err := uow.CreateAliasCtx(ctx, domain.VenueAlias{AliasName: canonical, VenueID: venueID}); err != nil {
			return fmt.Errorf("seed: alias self for %q: %w", canonical, err)
		}
		for _, alias := range vs.Aliases {
			if err := uow.CreateAliasCtx(ctx, domain.VenueAlias{AliasName: normalize.VenueName(alias), VenueID: venueID}); err != nil {
				return fmt.Errorf("seed: alias %q for %q: %w", alias, canonical, err)
			}
		}
	}

	return uow.Commit()
}
