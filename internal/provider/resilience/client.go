package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling upstream while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError reports an upstream 5xx. The response is still returned to the
// caller so it can read the body.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig holds configuration for the guarded HTTP client.
type ClientConfig struct {
	// Name identifies the provider.
	Name string

	// Timeout bounds a single request (default: 10s).
	Timeout time.Duration

	// Breaker configures the circuit breaker. Zero value uses DefaultBreakerConfig.
	Breaker BreakerConfig

	// Registry receives the client and its outcomes when set.
	Registry *Registry

	// Transport overrides the HTTP transport (optional).
	Transport http.RoundTripper
}

// DefaultClientConfig returns the defaults for a weather provider client.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:    name,
		Timeout: 10 * time.Second,
		Breaker: DefaultBreakerConfig(name),
	}
}

// Client issues HTTP requests through a circuit breaker, one attempt each.
type Client struct {
	name     string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
}

// NewClient creates a guarded client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = cfg.Name
	}

	c := &Client{
		name: cfg.Name,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		breaker:  newBreaker[*http.Response](cfg.Breaker), //nolint:bodyclose // type param, not response
		registry: cfg.Registry,
	}

	if c.registry != nil {
		c.registry.Register(c.name, c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Do sends req once. Transport errors and 5xx responses count against the
// breaker; 4xx responses are returned as successes for the caller to map.
// A 5xx comes back with both the response and a *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
		r, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			return r, &StatusError{StatusCode: r.StatusCode}
		}
		return r, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	c.record(req.Context(), err)
	return resp, err
}

func (c *Client) record(ctx context.Context, err error) {
	if c.registry == nil {
		return
	}
	// A caller giving up is not a provider failure.
	if err != nil && ctx.Err() == nil {
		c.registry.RecordFailure(c.name, err)
		return
	}
	if err == nil {
		c.registry.RecordSuccess(c.name)
	}
}

// State returns the current breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker's current counters.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}
