// Package lookup queries the remote AI service for a reverse-geocoded
// address and for grounded nearby parking facilities.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parksmart_backend/internal/geo"
	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	// AddressUnknown is shown when the service answers with no text.
	AddressUnknown = "Unknown Location"
	// AddressDetected is shown when reverse geocoding fails.
	AddressDetected = "Location detected"

	DefaultRadiusKm   = 2.0
	DefaultMaxResults = 5
	DefaultTimeout    = 30 * time.Second
)

// ErrSearchFailed wraps every parking search failure.
var ErrSearchFailed = errors.New("parking search failed")

// AddressCache stores resolved addresses. Implementations report a miss
// with ok=false and a nil error.
type AddressCache interface {
	GetAddress(ctx context.Context, c geo.Coordinate) (address string, ok bool, err error)
	SetAddress(ctx context.Context, c geo.Coordinate, address string) error
}

// Options tune the search request.
type Options struct {
	RadiusKm   float64
	MaxResults int
	Timeout    time.Duration
}

// Client performs remote lookups. It holds no per-query state and is safe
// for concurrent use.
type Client struct {
	search      model.LLM
	address     model.LLM
	cache       AddressCache
	placeholder *Placeholder
	opts        Options
	log         *logger.Logger
	metrics     *metrics.Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithAddressModel resolves addresses with a different model than search.
func WithAddressModel(m model.LLM) Option {
	return func(c *Client) { c.address = m }
}

func WithAddressCache(cache AddressCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithPlaceholder(p *Placeholder) Option {
	return func(c *Client) { c.placeholder = p }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

func WithOptions(opts Options) Option {
	return func(c *Client) { c.opts = opts }
}

// NewClient builds a Client. search must support Google Maps grounding.
func NewClient(search model.LLM, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		search:  search,
		address: search,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.placeholder == nil {
		c.placeholder = NewPlaceholder(nil, nil)
	}
	if c.opts.RadiusKm <= 0 {
		c.opts.RadiusKm = DefaultRadiusKm
	}
	if c.opts.MaxResults <= 0 {
		c.opts.MaxResults = DefaultMaxResults
	}
	if c.opts.Timeout <= 0 {
		c.opts.Timeout = DefaultTimeout
	}
	return c
}

// ResolveAddress returns a human-readable address for c. It never fails:
// errors degrade to AddressDetected and empty answers to AddressUnknown.
func (c *Client) ResolveAddress(ctx context.Context, coord geo.Coordinate) string {
	if c.cache != nil {
		if addr, ok, err := c.cache.GetAddress(ctx, coord); err != nil {
			c.log.WithContext(ctx).Debug("address cache read failed", "error", err)
		} else if ok {
			return addr
		}
	}

	started := time.Now()
	text, err := c.generateText(ctx, c.address, &model.LLMRequest{
		Contents: genai.Text(addressPrompt(coord)),
		Config:   &genai.GenerateContentConfig{},
	})
	c.metrics.ObserveLookup("address", started, err)
	if err != nil {
		c.log.WithContext(ctx).LookupFallback("address", err)
		c.metrics.AddressFallback("error")
		return AddressDetected
	}

	addr := strings.TrimSpace(text)
	if addr == "" {
		c.metrics.AddressFallback("empty")
		return AddressUnknown
	}

	if c.cache != nil {
		if err := c.cache.SetAddress(ctx, coord, addr); err != nil {
			c.log.WithContext(ctx).Debug("address cache write failed", "error", err)
		}
	}
	return addr
}

// SearchParking asks the grounded model for nearby facilities and derives
// one candidate per map reference, keeping at most MaxResults references.
// Errors wrap ErrSearchFailed.
func (c *Client) SearchParking(ctx context.Context, coord geo.Coordinate) (Outcome, error) {
	started := time.Now()
	responses, err := c.generate(ctx, c.search, c.searchRequest(coord))
	c.metrics.ObserveLookup("search", started, err)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	parsed := parseSearchResponse(responses)
	if len(parsed.References) > c.opts.MaxResults {
		parsed.References = parsed.References[:c.opts.MaxResults]
	}
	id := uuid.NewString()
	return Outcome{
		ID:          id,
		Candidates:  c.placeholder.Candidates(id, coord, parsed.References),
		Narrative:   parsed.Narrative,
		References:  parsed.References,
		Origin:      coord,
		CompletedAt: time.Now(),
	}, nil
}

// Lookup runs ResolveAddress and SearchParking concurrently and returns
// when both have finished. A search failure discards the address.
func (c *Client) Lookup(ctx context.Context, coord geo.Coordinate) (Result, error) {
	var (
		result Result
		g      errgroup.Group
	)

	g.Go(func() error {
		result.Address = c.ResolveAddress(ctx, coord)
		return nil
	})
	g.Go(func() error {
		outcome, err := c.SearchParking(ctx, coord)
		if err != nil {
			return err
		}
		result.Outcome = outcome
		return nil
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (c *Client) searchRequest(coord geo.Coordinate) *model.LLMRequest {
	return &model.LLMRequest{
		Contents: genai.Text(searchPrompt(coord, c.opts.MaxResults, c.opts.RadiusKm)),
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
			ToolConfig: &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{
						Latitude:  genai.Ptr(coord.Latitude),
						Longitude: genai.Ptr(coord.Longitude),
					},
				},
			},
		},
	}
}

func (c *Client) generate(ctx context.Context, llm model.LLM, req *model.LLMRequest) ([]*model.LLMResponse, error) {
	if llm == nil {
		return nil, errors.New("lookup model not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var responses []*model.LLMResponse
	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, err
		}
		if resp == nil {
			continue
		}
		if resp.ErrorCode != "" {
			return nil, fmt.Errorf("model error %s: %s", resp.ErrorCode, resp.ErrorMessage)
		}
		responses = append(responses, resp)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (c *Client) generateText(ctx context.Context, llm model.LLM, req *model.LLMRequest) (string, error) {
	responses, err := c.generate(ctx, llm, req)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, resp := range responses {
		b.WriteString(responseText(resp.Content))
	}
	return b.String(), nil
}
