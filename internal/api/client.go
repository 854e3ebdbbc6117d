package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // default values are overwritten by WithBaseURL and WithHTTPClient.
var (
	defaultTimeout = 5 * time.Second
)

// Classifier is the transport interface used by the scan dispatcher.
type Classifier interface {
	Classify(ctx context.Context, payload string) (Verdict, error)
}

// Client is a concrete implementation of Classifier over the remote
// classification endpoint.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string

	// Cached health state for one-shot health probing.
	healthOnce   sync.Once
	healthErr    error
	forceOffline atomic.Bool

	// skipHealthProbe disables the initial health check; used by tests.
	skipHealthProbe bool
}

// ClientOption mutates Client configuration.
type ClientOption func(*Client)

// WithBaseURL configures the backend base URL for production or tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		if base == "" {
			return
		}
		if u, err := url.Parse(base); err == nil {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// withSkipHealthProbe disables the initial health probe.
// Intended for internal tests that don't want the extra request.
func withSkipHealthProbe() ClientOption {
	return func(c *Client) {
		c.skipHealthProbe = true
	}
}

// NewClient constructs a new Client with defaults.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient:      &http.Client{Timeout: defaultTimeout},
		userAgent:       defaultUserAgent(),
		skipHealthProbe: false,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == nil {
		u, err := url.Parse("https://classify.qrsentry.dev")
		if err != nil {
			return nil, fmt.Errorf("invalid default baseURL: %w", err)
		}
		c.baseURL = u
	}
	// Perform an initial health probe unless disabled: if it fails, mark
	// offline and return ErrOffline so the caller can fall back.
	if c.skipHealthProbe {
		return c, nil
	}
	hctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
	defer cancel()
	if err := c.checkHealth(hctx); err != nil {
		c.forceOffline.Store(true)
		return c, ErrOffline
	}
	return c, nil
}

const healthProbeTimeout = 3 * time.Second

// checkHealth performs a one-time reachability probe against the backend root
// and caches the result. Subsequent calls return the cached status immediately.
func (c *Client) checkHealth(ctx context.Context) error {
	// Ensure the probe is performed at most once across goroutines.
	c.healthOnce.Do(func() {
		if c.skipHealthProbe {
			return
		}
		hctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()

		// Raw request to avoid re-entrancy via newRequest -> checkHealth.
		u := c.buildURL(url.Values{})
		req, err := http.NewRequestWithContext(hctx, http.MethodHead, u, nil)
		if err != nil {
			c.healthErr = err
			return
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.healthErr = err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.healthErr = fmt.Errorf("health probe: unexpected status %d", resp.StatusCode)
			return
		}
		c.healthErr = nil
	})
	return c.healthErr
}

// Offline reports whether the client has been marked unreachable.
func (c *Client) Offline() bool {
	return c.forceOffline.Load()
}

// --- Helpers ---

func defaultUserAgent() string {
	return fmt.Sprintf("qrsentry/%s (%s; %s)", BuildVersion, runtime.GOOS, runtime.GOARCH)
}

// buildURL renders the classification endpoint URL with the given query.
// The endpoint lives at the base URL root; the payload travels in the query.
func (c *Client) buildURL(q url.Values) string {
	u := *c.baseURL
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, fullURL string, body io.Reader) (*http.Request, error) {
	// If we've previously determined we are offline, short-circuit.
	if c.forceOffline.Load() {
		return nil, ErrOffline
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	// attach identity unless anonymous
	id, ok := IdentityFromContext(ctx)
	if ok && !id.Anonymous && id.HostUUID != "" {
		req.Header.Set("X-Host-Uuid", id.HostUUID)
	}
	return req, nil
}

func decodeJSON[T any](r io.Reader, out *T) error {
	dec := json.NewDecoder(r)
	return dec.Decode(out)
}
