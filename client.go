package tensalis

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tensalis/tensalis-go/internal/telemetry"
)

const (
	// DefaultEndpoint is the production API base URL.
	DefaultEndpoint = "https://api.tensalis.com/v1"
	// Version is the SDK version reported in the User-Agent header.
	Version = "0.1.0"

	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// Config configures a Client. It is validated at construction and immutable
// afterwards; only the verification mode may be overridden per call.
type Config struct {
	// APIKey authenticates every request. Required.
	APIKey string
	// Endpoint is the API base URL. Defaults to DefaultEndpoint. A trailing
	// slash is stripped.
	Endpoint string
	// Timeout is the per-attempt request timeout. Defaults to 30s.
	Timeout time.Duration
	// Retries is the number of retry attempts after the initial request for
	// transient failures. Defaults to 3. Set to 0 to disable retries.
	Retries *int
	// Mode selects server-side thresholding: strict, balanced, or
	// permissive. Defaults to balanced.
	Mode Mode
	// HTTPClient overrides the underlying HTTP client. Optional; useful for
	// tests and custom connection pooling. Its Timeout field is ignored;
	// the SDK applies Timeout per attempt via context.
	HTTPClient *http.Client
}

// Client is the entry point to the Tensalis API. It owns its configuration
// and transport for its lifetime and is safe for concurrent use.
type Client struct {
	cfg  Config
	tr   *transport
	mets *telemetry.Metrics

	rateMu   sync.RWMutex
	rate     RateLimit
	rateSeen bool
}

// New creates a Client from cfg. It returns a *ValidationError when a config
// field violates its documented constraints.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ValidationError{Field: "api_key", Message: "API key is required"}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.Timeout < 0 {
		return nil, &ValidationError{Field: "timeout", Message: "timeout must be positive"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	retries := defaultRetries
	if cfg.Retries != nil {
		if *cfg.Retries < 0 {
			return nil, &ValidationError{Field: "retries", Message: "retries must be non-negative"}
		}
		retries = *cfg.Retries
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBalanced
	}
	if !cfg.Mode.valid() {
		return nil, &ValidationError{Field: "mode", Message: "mode must be strict, balanced, or permissive"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, &ClientError{Message: "initializing metric instruments", Err: err}
	}

	c := &Client{cfg: cfg, mets: metrics}
	c.tr = &transport{
		baseURL:     cfg.Endpoint,
		apiKey:      cfg.APIKey,
		mode:        cfg.Mode,
		retries:     retries,
		timeout:     cfg.Timeout,
		client:      httpClient,
		metrics:     metrics,
		sleep:       sleepContext,
		onRateLimit: c.storeRateLimit,
	}
	return c, nil
}

// Retries returns the number of configured retry attempts.
func (c *Client) Retries() int { return c.tr.retries }

// Mode returns the client-level verification mode.
func (c *Client) Mode() Mode { return c.cfg.Mode }

// Endpoint returns the normalized API base URL.
func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// verifyOptions holds per-call settings for Verify.
type verifyOptions struct {
	metadata map[string]any
	mode     Mode
}

// VerifyOption customizes a single Verify call.
type VerifyOption func(*verifyOptions)

// WithMetadata attaches an opaque key-value mapping to the request for
// server-side logging and tracking.
func WithMetadata(md map[string]any) VerifyOption {
	return func(o *verifyOptions) { o.metadata = md }
}

// WithMode overrides the client-level verification mode for one call.
func WithMode(m Mode) VerifyOption {
	return func(o *verifyOptions) { o.mode = m }
}

// verifyRequest is the wire body of POST /verify.
type verifyRequest struct {
	Response string         `json:"response"`
	Context  []string       `json:"context"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Verify checks one LLM response against source context and returns the
// server verdict. Input constraints are validated before any network call.
func (c *Client) Verify(ctx context.Context, response string, contextDocs []string, opts ...VerifyOption) (*VerificationResult, error) {
	var o verifyOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.mode != "" && !o.mode.valid() {
		return nil, &ValidationError{Field: "mode", Message: "mode must be strict, balanced, or permissive"}
	}
	if err := validateInput(response, contextDocs); err != nil {
		return nil, err
	}

	body := verifyRequest{Response: response, Context: contextDocs, Metadata: o.metadata}
	data, err := c.tr.do(ctx, http.MethodPost, "/verify", body, o.mode)
	if err != nil {
		return nil, err
	}

	result, err := parseResult(data)
	if err != nil {
		return nil, err
	}
	c.mets.RecordVerdict(ctx, string(result.Status), result.Layer)
	return result, nil
}

// batchRequest is the wire body of POST /verify/batch.
type batchRequest struct {
	Items []BatchItem `json:"items"`
}

// batchResponse is the wire envelope of POST /verify/batch.
type batchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// VerifyBatch checks multiple (response, context) pairs in one request.
// Result order matches item order. One HTTP call carries all items, so any
// remote failure fails the whole batch.
func (c *Client) VerifyBatch(ctx context.Context, items []BatchItem) ([]*VerificationResult, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one item is required"}
	}
	for _, it := range items {
		if err := validateInput(it.Response, it.Context); err != nil {
			return nil, err
		}
	}

	data, err := c.tr.do(ctx, http.MethodPost, "/verify/batch", batchRequest{Items: items}, "")
	if err != nil {
		return nil, err
	}

	var env batchResponse
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ClientError{Message: "malformed batch response", Err: err}
	}
	results := make([]*VerificationResult, 0, len(env.Results))
	for _, raw := range env.Results {
		r, err := parseResult(raw)
		if err != nil {
			return nil, err
		}
		c.mets.RecordVerdict(ctx, string(r.Status), r.Layer)
		results = append(results, r)
	}
	return results, nil
}

// Health reports API availability and server version.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	data, err := c.tr.do(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, &ClientError{Message: "malformed health response", Err: err}
	}
	return &hs, nil
}

// Usage reports current consumption and limits for the API key.
func (c *Client) Usage(ctx context.Context) (*UsageReport, error) {
	data, err := c.tr.do(ctx, http.MethodGet, "/usage", nil, "")
	if err != nil {
		return nil, err
	}
	var ur UsageReport
	if err := json.Unmarshal(data, &ur); err != nil {
		return nil, &ClientError{Message: "malformed usage response", Err: err}
	}
	return &ur, nil
}

// RateLimit returns the most recent X-RateLimit-* header snapshot. The
// second return is false until at least one response has carried the headers.
func (c *Client) RateLimit() (RateLimit, bool) {
	c.rateMu.RLock()
	defer c.rateMu.RUnlock()
	return c.rate, c.rateSeen
}

func (c *Client) storeRateLimit(rl RateLimit) {
	c.rateMu.Lock()
	c.rate = rl
	c.rateSeen = true
	c.rateMu.Unlock()
}

// validateInput enforces the documented Verify constraints locally.
func validateInput(response string, contextDocs []string) error {
	if response == "" {
		return &ValidationError{Field: "response", Message: "response text must be non-empty"}
	}
	if len(contextDocs) == 0 {
		return &ValidationError{Field: "context", Message: "at least one context fragment is required"}
	}
	for _, doc := range contextDocs {
		if doc == "" {
			return &ValidationError{Field: "context", Message: "context fragments must be non-empty"}
		}
	}
	return nil
}
