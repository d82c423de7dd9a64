// Package normalize implements the pure, I/O-free normalization utilities
// shared by the scan orchestrator: postcode canonicalization, venue-name
// canonicalization, discipline canonicalization, pony-class detection, date
// parsing, and URL sanitization. Every function here is deterministic and
// side-effect free; none may perform network or database access.
package normalize

import (
	"regexp"
	"strings"

	"eventscout/internal/constants"
)

var (
	interiorWhitespace = regexp.MustCompile(`\s+`)
	trailingPunct      = regexp.MustCompile(`[.,;:!?]+$`)

	inwardShape = regexp.MustCompile(`^\d[A-Z]{2}$`)

	outwardShapes = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z]$`),           // L
		regexp.MustCompile(`^[A-Z]{2}$`),        // LL
		regexp.MustCompile(`^[A-Z]\d$`),         // LD
		regexp.MustCompile(`^[A-Z]{2}\d$`),      // LLD
		regexp.MustCompile(`^[A-Z]{2}\d{2}$`),   // LLDD
		regexp.MustCompile(`^[A-Z]\d[A-Z]$`),    // LDL
		regexp.MustCompile(`^[A-Z]{2}\d[A-Z]$`), // LLDL
	}
)

// Postcode canonicalizes a raw postcode string into "OUTWARD INWARD" form,
// uppercase, single interior space. Returns "" if the input does not shape
// up as a recognized UK postcode.
func Postcode(raw string) string {
	s := strings.TrimSpace(raw)
	s = trailingPunct.ReplaceAllString(s, "")
	s = strings.ToUpper(s)
	s = interiorWhitespace.ReplaceAllString(s, "")

	if len(s) < constants.MinPostcodeLength || len(s) > constants.MaxPostcodeLength {
		return ""
	}

	inward := s[len(s)-3:]
	outward := s[:len(s)-3]

	if !inwardShape.MatchString(inward) {
		return ""
	}
	if !matchesOutwardShape(outward) {
		return ""
	}

	return outward + " " + inward
}

func matchesOutwardShape(outward string) bool {
	for _, re := range outwardShapes {
		if re.MatchString(outward) {
			return true
		}
	}
	return false
}

// InUKBox reports whether a latitude/longitude pair falls inside the UK
// bounding box (latitude 49-61, longitude -11 to +2).
func InUKBox(lat, lng float64) bool {
	return lat >= constants.UKMinLatitude && lat <= constants.UKMaxLatitude &&
		lng >= constants.UKMinLongitude && lng <= constants.UKMaxLongitude
}
