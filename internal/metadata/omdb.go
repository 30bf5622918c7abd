package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

const breakerName = "omdb-api"

var (
	// ErrNotFound is returned when no title matches the query
	ErrNotFound = errors.New("no matching title")

	// ErrCircuitOpen is returned while the breaker rejects requests
	ErrCircuitOpen = errors.New("metadata circuit breaker open")
)

// Lookup outcomes recorded on the metrics collector
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// LookupError describes a failed request to the metadata API
type LookupError struct {
	Title      string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("lookup %q: status %d: %v", e.Title, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("lookup %q: %v", e.Title, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether retrying later could succeed
func (e *LookupError) IsTransient() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config configures the OMDb client
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// Breaker trips after this many consecutive failures
	FailureThreshold uint32
	// Breaker stays open this long before probing again
	OpenTimeout time.Duration
}

// Client looks up genres on the OMDb API
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]string]
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

type titleResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Genre    string `json:"Genre"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// NewClient creates an OMDb client guarded by a rate limiter and circuit breaker
func NewClient(cfg Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
		metrics: metricsCollector,
	}

	metricsCollector.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A title without a match is an answer, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "[METADATA_BREAKER] State transition", logging.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metricsCollector.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return c
}

// Genres returns the genres of the title best matching name.
// A title with no match returns ErrNotFound.
func (c *Client) Genres(ctx context.Context, name string) ([]string, error) {
	timer := c.metrics.NewTimer(c.metrics.MetadataLookupDuration)
	defer timer.ObserveDuration()

	genres, err := c.cb.Execute(func() ([]string, error) {
		return c.fetch(ctx, name)
	})

	switch {
	case err == nil:
		c.metrics.RecordLookup(OutcomeFound)
		return genres, nil
	case errors.Is(err, ErrNotFound):
		c.metrics.RecordLookup(OutcomeNotFound)
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.RecordLookup(OutcomeRejected)
		return nil, fmt.Errorf("lookup %q: %w", name, ErrCircuitOpen)
	default:
		c.metrics.RecordLookup(OutcomeError)
		return nil, err
	}
}

func (c *Client) fetch(ctx context.Context, name string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &LookupError{Title: name, Err: err}
	}

	params := url.Values{}
	params.Set("apikey", c.cfg.APIKey)
	params.Set("t", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &LookupError{Title: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &LookupError{Title: name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &LookupError{Title: name, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{Title: name, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var payload titleResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &LookupError{Title: name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if payload.Response == "False" {
		if strings.Contains(strings.ToLower(payload.Error), "not found") {
			c.logger.Debug(ctx, "[METADATA_NO_MATCH] No title matched", logging.Fields{"title": name})
			return nil, fmt.Errorf("lookup %q: %w", name, ErrNotFound)
		}
		return nil, &LookupError{Title: name, StatusCode: resp.StatusCode, Err: errors.New(payload.Error)}
	}

	genres := splitGenres(payload.Genre)
	if len(genres) == 0 {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrNotFound)
	}

	c.logger.Debug(ctx, "[METADATA_MATCH] Title matched", logging.Fields{
		"title":   name,
		"matched": payload.Title,
		"year":    payload.Year,
		"genres":  genres,
	})

	return genres, nil
}

func splitGenres(s string) []string {
	var genres []string
	for _, g := range strings.Split(s, ",") {
		g = strings.TrimSpace(g)
		if g != "" && g != "N/A" {
			genres = append(genres, g)
		}
	}
	return genres
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
