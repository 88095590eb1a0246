package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"parasol/pkg/sentinel"
)

// HTTPSource fetches snapshots from an oracle endpoint returning
// {"rainfall": n, "temperature": n} JSON. Transient failures are retried
// with exponential backoff; sustained failure trips a circuit breaker so
// claim cycles fail fast instead of hanging on a dead feed.
type HTTPSource struct {
	url        string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = client }
}

// WithMaxRetries bounds the per-fetch retry count.
func WithMaxRetries(n uint64) HTTPOption {
	return func(s *HTTPSource) { s.maxRetries = n }
}

// NewHTTPSource constructs an oracle client for the given endpoint.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "oracle",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return s
}

// Fetch returns one snapshot. Any failure, including an open breaker, is
// wrapped in sentinel.ErrUnavailable.
func (s *HTTPSource) Fetch(ctx context.Context) (Measurement, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetchWithRetry(ctx)
	})
	if err != nil {
		return Measurement{}, fmt.Errorf("%w: oracle fetch: %v", sentinel.ErrUnavailable, err)
	}
	return result.(Measurement), nil
}

func (s *HTTPSource) fetchWithRetry(ctx context.Context) (Measurement, error) {
	var m Measurement
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		var err error
		m, err = s.fetchOnce(ctx)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, s.maxRetries), ctx))
	return m, err
}

func (s *HTTPSource) fetchOnce(ctx context.Context) (Measurement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Measurement{}, backoff.Permanent(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Measurement{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		err := fmt.Errorf("oracle status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return Measurement{}, backoff.Permanent(err)
		}
		return Measurement{}, err
	}

	var m Measurement
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Measurement{}, backoff.Permanent(fmt.Errorf("decode oracle response: %w", err))
	}
	if m.ObservedAt.IsZero() {
		m.ObservedAt = time.Now()
	}
	return m, nil
}
