package parser

import (
	"context"
	"testing"
)

type stubParser struct {
	label string
}

func (s stubParser) FetchAndParse(ctx context.Context, sourceURL string) ([]ExtractedEvent, error) {
	return []ExtractedEvent{{Name: s.label}}, nil
}

func TestRegistryGetRegistered(t *testing.T) {
	fallback := stubParser{label: "fallback"}
	r := NewRegistry(fallback)
	r.Register("britisheventing", stubParser{label: "britisheventing"})

	p := r.Get("britisheventing")
	events, _ := p.FetchAndParse(context.Background(), "https://example.com")
	if events[0].Name != "britisheventing" {
		t.Errorf("Get returned wrong parser, got event name %q", events[0].Name)
	}
}

func TestRegistryGetUnknownFallsBackToGeneric(t *testing.T) {
	fallback := stubParser{label: "fallback"}
	r := NewRegistry(fallback)

	p := r.Get("unknown-source")
	events, _ := p.FetchAndParse(context.Background(), "https://example.com")
	if events[0].Name != "fallback" {
		t.Errorf("Get should fall back to generic parser for unknown keys, got %q", events[0].Name)
	}
}
