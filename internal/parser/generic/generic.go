// Package generic implements the fallback parser invoked when the scan
// orchestrator requests a source key that has no registered concrete
// parser. It fetches the page, trims the HTML down to visible text, feeds
// that to an external structured-extraction service (an LLM), and coerces
// the response into parser.ExtractedEvent records.
package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/net/html"

	"eventscout/internal/constants"
	"eventscout/internal/parser"
	"eventscout/pkg/circuit"
	errs "eventscout/pkg/errors"
	"eventscout/pkg/logging"
	"eventscout/pkg/ratelimit"
)

// Parser is the generic LLM-backed fallback extractor. It satisfies
// parser.Parser.
type Parser struct {
	client      *openai.Client
	model       string
	httpClient  *http.Client
	limiter     *ratelimit.PerHost
	cb          *circuit.Breaker
	log         *logging.Logger
	maxHTMLSize int
}

// New constructs the generic fallback parser. baseURL overrides the default
// OpenAI endpoint when GENERIC_EXTRACTOR_URL points at a compatible
// self-hosted gateway instead; leave it empty to use the real OpenAI API.
func New(apiKey, model, baseURL string, limiter *ratelimit.PerHost, log *logging.Logger) *Parser {
	if model == "" {
		model = openai.GPT4oMini
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &Parser{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		httpClient: &http.Client{Timeout: constants.ExtractorDefaultAPITimeout},
		limiter:    limiter,
		cb: circuit.New(circuit.Config{
			Name:              "generic-extractor",
			OperationTimeout:  constants.ExtractorOperationTimeout,
			OpenFor:           constants.ExtractorOpenFor,
			WindowSize:        10,
			FailureRate:       constants.CircuitFailureRate,
			SlowCallThreshold: constants.ExtractorSlowCallThreshold,
			SlowCallRate:      constants.CircuitSlowCallRate,
		}, log),
		log:         log,
		maxHTMLSize: 200_000,
	}
}

// FetchAndParse fetches sourceURL, extracts visible text from the HTML, and
// asks the configured LLM to return a JSON array of events. Records missing
// name, date_start, or venue_name are discarded.
func (p *Parser) FetchAndParse(ctx context.Context, sourceURL string) ([]parser.ExtractedEvent, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, hostOf(sourceURL)); err != nil {
			return nil, err
		}
	}

	body, err := p.fetch(ctx, sourceURL)
	if err != nil {
		return nil, errs.NewExternal("generic.FetchAndParse", "generic-extractor", "fetch failed", err)
	}

	text := visibleText(body, p.maxHTMLSize)

	var raw []rawExtractedEvent
	err = p.cb.Do(ctx, func(ctx context.Context) error {
		resp, e := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			Temperature:    0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if e != nil {
			return e
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("generic extractor: empty response")
		}
		return json.Unmarshal([]byte(resp.Choices[0].Message.Content), &wrapper{Events: &raw})
	}, nil)
	if err != nil {
		return nil, errs.NewExternal("generic.FetchAndParse", "generic-extractor", "extraction failed", err)
	}

	return completeEvents(raw), nil
}

// completeEvents converts raw records to parser.ExtractedEvent, discarding
// any record missing name, date_start, or venue_name.
func completeEvents(raw []rawExtractedEvent) []parser.ExtractedEvent {
	events := make([]parser.ExtractedEvent, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" || r.DateStart == "" || r.VenueName == "" {
			continue // discard records missing required fields
		}
		events = append(events, r.toExtractedEvent())
	}
	return events
}

func (p *Parser) fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// rawExtractedEvent is the shape the LLM is instructed to emit; dates are
// left as raw strings, discipline as a raw hint, per the parser contract.
type rawExtractedEvent struct {
	Name           string   `json:"name"`
	DateStart      string   `json:"date_start"`
	DateEnd        string   `json:"date_end"`
	VenueName      string   `json:"venue_name"`
	VenuePostcode  string   `json:"venue_postcode"`
	Discipline     string   `json:"discipline"`
	HasPonyClasses bool     `json:"has_pony_classes"`
	Classes        []string `json:"classes"`
	URL            string   `json:"url"`
	Description    string   `json:"description"`
}

func (r rawExtractedEvent) toExtractedEvent() parser.ExtractedEvent {
	return parser.ExtractedEvent{
		Name:           r.Name,
		DateStart:      r.DateStart,
		DateEnd:        r.DateEnd,
		VenueName:      r.VenueName,
		VenuePostcode:  r.VenuePostcode,
		Discipline:     r.Discipline,
		HasPonyClasses: r.HasPonyClasses,
		Classes:        r.Classes,
		URL:            r.URL,
		Description:    r.Description,
	}
}

type wrapper struct {
	Events *[]rawExtractedEvent `json:"events"`
}

const systemPrompt = `You extract equestrian competition listings from raw page text.
Output a single JSON object: {"events": [...]}.
Each element has: name, date_start (YYYY-MM-DD), date_end (YYYY-MM-DD or empty),
venue_name, venue_postcode, discipline (raw text as seen on the page, do not
normalize it), has_pony_classes (bool), classes (array of strings), url,
description.
Emit every event you find, past or future. Do not decide whether an event is
a competition. Do not invent data not present in the text. If a field is not
present, use an empty string, empty array, or false as appropriate.`

// visibleText strips HTML tags/scripts/styles down to a plain-text
// approximation, truncated to maxLen, to keep the LLM prompt small.
func visibleText(body []byte, maxLen int) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return truncate(string(body), maxLen)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return truncate(sb.String(), maxLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func hostOf(rawURL string) string {
	const schemeSep = "://"
	idx := strings.Index(rawURL, schemeSep)
	rest := rawURL
	if idx >= 0 {
		rest = rawURL[idx+len(schemeSep):]
	}
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
