package normalize

import "time"

const isoDateLayout = "2006-01-02"

// ParseISODate parses a strict ISO YYYY-MM-DD date string. Returns the zero
// time and false if the string does not parse.
func ParseISODate(raw string) (time.Time, bool) {
	t, err := time.Parse(isoDateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatISODate renders a time as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}
