// Package venue resolves incoming (normalized_name, normalized_postcode)
// pairs to a venue identity, and owns the in-memory index used to do it.
package venue

import (
	"context"
	"strings"
	"sync"

	"eventscout/internal/domain"
)

// Matcher holds the in-memory index, built once when the process starts
// (after startup seeding) and mutated by each successful resolution from
// then on; it is not rebuilt between scans. A single Matcher is shared by
// every scan, including source scans running concurrently, so Resolve is
// safe to call from multiple goroutines; the index critical section is
// mutex-guarded.
type Matcher struct {
	mu sync.Mutex

	byAlias    map[string]int64   // normalized alias -> venue id
	byPostcode map[string][]int64 // canonical postcode -> venue ids
	venues     map[int64]*domain.Venue

	ambiguousNames map[string]struct{}
	ambiguousGuard Specification[string]

	repo domain.VenueRepository
}

// New builds a Matcher by loading every venue and alias from the repository.
// ambiguousNames is the compiled-in list of canonical names known to collide
// across genuinely distinct venues (e.g. common short names).
func New(ctx context.Context, repo domain.VenueRepository, ambiguousNames []string) (*Matcher, error) {
	venues, err := repo.LoadAllVenuesCtx(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := repo.LoadAllAliasesCtx(ctx)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		byAlias:        make(map[string]int64, len(aliases)),
		byPostcode:     make(map[string][]int64),
		venues:         make(map[int64]*domain.Venue, len(venues)),
		ambiguousNames: make(map[string]struct{}, len(ambiguousNames)),
		repo:           repo,
	}

	for _, name := range ambiguousNames {
		m.ambiguousNames[strings.ToUpper(name)] = struct{}{}
	}
	m.ambiguousGuard = newSpec(func(_ context.Context, name string) bool {
		_, ambiguous := m.ambiguousNames[strings.ToUpper(name)]
		return ambiguous
	})

	for i := range venues {
		v := venues[i]
		m.venues[v.ID] = &v
		// every venue's own canonical name is a self-alias
		m.byAlias[strings.ToUpper(v.CanonicalName)] = v.ID
		if v.Postcode != "" {
			m.byPostcode[v.Postcode] = append(m.byPostcode[v.Postcode], v.ID)
		}
	}
	for _, a := range aliases {
		m.byAlias[strings.ToUpper(a.AliasName)] = a.VenueID
	}

	return m, nil
}

// Resolve looks up a normalized venue name and optional normalized postcode
// against the index, creating a new venue if nothing matches. It returns the
// resolved venue id and whether a new venue was created.
func (m *Matcher) Resolve(ctx context.Context, normalizedName, normalizedPostcode string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToUpper(normalizedName)

	if !m.ambiguousGuard.IsSatisfiedBy(ctx, normalizedName) || normalizedPostcode != "" {
		if id, ok := m.byAlias[key]; ok {
			return id, false, nil
		}
	}

	if id, ok := m.prefixMatch(key); ok {
		return id, false, nil
	}

	if normalizedPostcode != "" {
		if ids := m.byPostcode[normalizedPostcode]; len(ids) == 1 {
			id := ids[0]
			if err := m.addRuntimeAlias(ctx, id, normalizedName); err != nil {
				return 0, false, err
			}
			return id, false, nil
		}
	}

	id, err := m.create(ctx, normalizedName, normalizedPostcode)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// prefixMatch returns the single venue id whose canonical name begins with
// normalizedName + " ". Ambiguity (two or more matches) yields no match.
func (m *Matcher) prefixMatch(normalizedName string) (int64, bool) {
	prefix := normalizedName + " "
	var found int64
	matches := 0
	for id, v := range m.venues {
		canonical := strings.ToUpper(v.CanonicalName)
		if len(canonical) <= len(normalizedName) {
			continue // must be a strict prefix, not equal or shorter
		}
		if strings.HasPrefix(canonical+" ", prefix) {
			found = id
			matches++
			if matches > 1 {
				return 0, false
			}
		}
	}
	if matches == 1 {
		return found, true
	}
	return 0, false
}

func (m *Matcher) addRuntimeAlias(ctx context.Context, venueID int64, aliasName string) error {
	key := strings.ToUpper(aliasName)
	if _, exists := m.byAlias[key]; exists {
		return nil
	}
	if err := m.repo.CreateAliasCtx(ctx, domain.VenueAlias{AliasName: aliasName, VenueID: venueID}); err != nil {
		return err
	}
	m.byAlias[key] = venueID
	return nil
}

func (m *Matcher) create(ctx context.Context, normalizedName, normalizedPostcode string) (int64, error) {
	v := &domain.Venue{CanonicalName: normalizedName, Postcode: normalizedPostcode}
	id, err := m.repo.CreateVenueCtx(ctx, v)
	if err != nil {
		return 0, err
	}
	v.ID = id

	m.venues[id] = v
	m.byAlias[strings.ToUpper(normalizedName)] = id
	if normalizedPostcode != "" {
		m.byPostcode[normalizedPostcode] = append(m.byPostcode[normalizedPostcode], id)
	}
	return id, nil
}

// Venue returns the cached venue record for id, reflecting any coordinate or
// postcode updates learned earlier in the current scan.
func (m *Matcher) Venue(id int64) (*domain.Venue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	return v, ok
}

// SetCoordinates updates the cached venue's coordinates and distance so
// later lookups within the same scan see the learned value without a
// round-trip to the repository.
func (m *Matcher) SetCoordinates(id int64, latitude, longitude, distanceMiles float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.venues[id]; ok {
		lat, lng, dist := latitude, longitude, distanceMiles
		v.Latitude = &lat
		v.Longitude = &lng
		v.DistanceMiles = &dist
	}
}

// SetPostcode updates the cached venue's postcode in place.
func (m *Matcher) SetPostcode(id int64, postcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.venues[id]; ok {
		v.Postcode = postcode
	}
	if postcode != "" {
		m.byPostcode[postcode] = append(m.byPostcode[postcode], id)
	}
}
