// Package api is the read/trigger surface described in SPEC_FULL.md §4.10:
// a thin gorilla/mux JSON surface over the catalog, scan history, venues,
// the on-demand scan trigger, and the home postcode update. No HTML
// rendering; write-gating at the network edge (auth, rate limiting) is left
// to infrastructure outside the core.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"eventscout/internal/domain"
	"eventscout/internal/geocode"
	"eventscout/internal/normalize"
	"eventscout/internal/schedule"
	"eventscout/pkg/logging"
)

const defaultCatalogLimit = 50
const defaultScanHistoryLimit = 20

// Router wires every SPEC_FULL.md §4.10 endpoint onto a fresh mux.Router.
func Router(repo domain.Repository, scheduler *schedule.Scheduler, geocoder *geocode.Cascade, log *logging.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/competitions", CatalogHandler(repo)).Methods(http.MethodGet)
	r.HandleFunc("/sources/{id}/scans", ScanHistoryHandler(repo)).Methods(http.MethodGet)
	r.HandleFunc("/venues/{id}", VenueHandler(repo)).Methods(http.MethodGet)
	r.HandleFunc("/scans", TriggerScanHandler(scheduler)).Methods(http.MethodPost)
	r.HandleFunc("/home-postcode", HomePostcodeHandler(geocoder, repo, log)).Methods(http.MethodPost)
	return r
}

// CatalogHandler serves the filtered, paginated catalog read: date range,
// discipline, venue substring, pony flag, max distance, and the competition
// flag (default true).
func CatalogHandler(repo domain.CompetitionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := domain.CatalogFilter{
			DateFrom:        q.Get("date_from"),
			DateTo:          q.Get("date_to"),
			Discipline:      q.Get("discipline"),
			VenueSubstring:  q.Get("venue"),
			PonyOnly:        q.Get("pony") == "true",
			CompetitionOnly: q.Get("competition") != "false",
		}
		if v := q.Get("max_distance"); v != "" {
			if d, err := strconv.ParseFloat(v, 64); err == nil {
				filter.MaxDistanceMiles = &d
			}
		}
		filter.Limit = defaultCatalogLimit
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				filter.Offset = n
			}
		}

		items, total, err := repo.ListCatalogCtx(r.Context(), filter)
		if err != nil {
			http.Error(w, "failed to list catalog", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":  items,
			"total":  total,
			"limit":  filter.Limit,
			"offset": filter.Offset,
		})
	}
}

// ScanHistoryHandler serves the scan history for one source, most recent
// first.
func ScanHistoryHandler(repo domain.ScanRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			http.Error(w, "invalid source id", http.StatusBadRequest)
			return
		}
		limit := defaultScanHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		scans, err := repo.ListScanHistoryCtx(r.Context(), sourceID, limit)
		if err != nil {
			http.Error(w, "failed to list scan history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"scans": scans})
	}
}

// VenueHandler serves a single venue by id.
func VenueHandler(repo domain.VenueRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			http.Error(w, "invalid venue id", http.StatusBadRequest)
			return
		}
		v, err := repo.GetVenueByIDCtx(r.Context(), id)
		if err != nil {
			http.Error(w, "failed to load venue", http.StatusInternalServerError)
			return
		}
		if v == nil {
			http.Error(w, "venue not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// triggerRequest is the POST /scans body. SourceID of 0 or omitted means
// "all enabled sources".
type triggerRequest struct {
	SourceID int64 `json:"source_id"`
}

// TriggerScanHandler runs an on-demand scan, synchronously, and returns
// once every requested source's scan has reached a terminal state.
func TriggerScanHandler(scheduler *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body triggerRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid JSON body", http.StatusBadRequest)
				return
			}
		}

		result, err := scheduler.RunNow(r.Context(), schedule.Trigger{SourceID: body.SourceID})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"suppressed": result.Suppressed,
			"scans":      result.Scans,
		})
	}
}

// homePostcodeRequest is the POST /home-postcode body.
type homePostcodeRequest struct {
	Postcode string `json:"postcode"`
}

// HomePostcodeHandler resolves a new home postcode, recomputes
// distance_miles on every coordinate-bearing venue against it, and updates
// the live geocoder cascade so freshly resolved venues use it too.
func HomePostcodeHandler(geocoder *geocode.Cascade, venues domain.VenueRepository, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body homePostcodeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Postcode) == "" {
			http.Error(w, "postcode is required", http.StatusBadRequest)
			return
		}

		postcode := normalize.Postcode(body.Postcode)
		lat, lng, ok := geocoder.GeocodePostcode(r.Context(), postcode)
		if !ok {
			http.Error(w, "could not resolve postcode", http.StatusUnprocessableEntity)
			return
		}

		if err := venues.RecomputeAllDistancesCtx(r.Context(), lat, lng); err != nil {
			http.Error(w, "failed to recompute venue distances", http.StatusInternalServerError)
			return
		}
		geocoder.SetHome(lat, lng)

		if log != nil {
			log.WithComponent("api").Info("home postcode updated", logging.String("postcode", postcode))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"postcode":  postcode,
			"latitude":  lat,
			"longitude": lng,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
