package generic

import (
	"strings"
	"testing"
)

func TestVisibleTextStripsScriptsAndStyles(t *testing.T) {
	html := []byte(`<html><head><style>.a{color:red}</style></head>
<body><script>alert(1)</script><h1>Hickstead Show</h1><p>19 July 2026</p></body></html>`)

	got := visibleText(html, 10_000)

	if strings.Contains(got, "alert") || strings.Contains(got, "color:red") {
		t.Errorf("visibleText should strip script/style content, got %q", got)
	}
	if !strings.Contains(got, "Hickstead Show") {
		t.Errorf("visibleText should keep visible text, got %q", got)
	}
}

func TestVisibleTextTruncates(t *testing.T) {
	html := []byte("<p>" + strings.Repeat("a", 100) + "</p>")

	got := visibleText(html, 10)

	if len(got) > 10 {
		t.Errorf("expected truncation to 10 bytes, got length %d", len(got))
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://example.com/events", "example.com"},
		{"http://foo.bar.com:8080/x", "foo.bar.com:8080"},
		{"example.com/nopath", "example.com"},
	}
	for _, c := range cases {
		if got := hostOf(c.in); got != c.want {
			t.Errorf("hostOf(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRawExtractedEventDiscardsMissingRequiredFields(t *testing.T) {
	raw := []rawExtractedEvent{
		{Name: "Show", DateStart: "2026-07-19", VenueName: "Hickstead"},
		{Name: "", DateStart: "2026-07-19", VenueName: "Hickstead"},
		{Name: "Show", DateStart: "", VenueName: "Hickstead"},
		{Name: "Show", DateStart: "2026-07-19", VenueName: ""},
	}

	kept := len(completeEvents(raw))
	if kept != 1 {
		t.Errorf("expected exactly 1 record to survive the required-field filter, got %d", kept)
	}
}
