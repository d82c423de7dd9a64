package normalize

import "net/url"

// SanitizeURL returns the input URL unchanged if its scheme is http or
// https, and "" otherwise (including on parse failure).
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
