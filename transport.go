package tensalis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tensalis/tensalis-go/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// baseRetryDelay is the starting point for exponential backoff.
	baseRetryDelay = 500 * time.Millisecond
	// maxRetryDelay caps backoff so exhausting retries stays predictable.
	maxRetryDelay = 5 * time.Second
	// maxResponseSize caps the bytes read from a response body.
	maxResponseSize = 5 * 1024 * 1024 // 5 MB
)

var transportTracer = otel.Tracer("tensalis-go/transport")

// transport encapsulates one scoped HTTPS request/response exchange per
// invocation, with retry. Transient failures (network errors, per-attempt
// timeouts, 5xx, 429) are retried up to retries times with exponential
// backoff; a 429 Retry-After hint is honored as a minimum wait. Everything
// else fails immediately.
type transport struct {
	baseURL string
	apiKey  string
	mode    Mode
	retries int
	timeout time.Duration
	client  *http.Client
	metrics *telemetry.Metrics

	// sleep is time-based waiting, injectable for tests. Returns the context
	// error if the context ends first.
	sleep func(context.Context, time.Duration) error

	// onRateLimit receives the X-RateLimit-* snapshot of every response that
	// carries one.
	onRateLimit func(RateLimit)
}

// errorBody is the JSON error envelope the API attaches to non-2xx responses.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// do issues one API call with retries. mode overrides the client-level
// verification mode when non-empty. The returned bytes are the raw response
// body of the final successful attempt.
func (t *transport) do(ctx context.Context, method, path string, payload any, mode Mode) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, &ClientError{Message: "encoding request body", Err: err}
		}
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		t.metrics.RecordRequest(ctx, path, outcome, time.Since(start))
	}()

	var lastErr error
	var minWait time.Duration
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			if minWait > delay {
				delay = minWait
			}
			t.metrics.RecordRetry(ctx, retryTrigger(lastErr))
			slog.Debug("retrying request", "path", path, "attempt", attempt, "delay", delay)
			if err := t.sleep(ctx, delay); err != nil {
				// Caller gave up while waiting; surface the last observed
				// failure rather than inventing a new one.
				return nil, lastErr
			}
		}

		data, err := t.attempt(ctx, method, path, body, mode, attempt)
		if err == nil {
			outcome = "ok"
			return data, nil
		}
		lastErr = err

		var rle *RateLimitError
		if errors.As(err, &rle) {
			minWait = rle.RetryAfter
			continue
		}
		minWait = 0
		if !isTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs a single request/response exchange. The response body is
// closed on every exit path.
func (t *transport) attempt(ctx context.Context, method, path string, body []byte, mode Mode, attempt int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	ctx, span := transportTracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.Int("http.request.resend_count", attempt),
		),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "bad_request"))
		return nil, &ClientError{Message: "creating request", Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("User-Agent", "tensalis-go/"+Version)
	req.Header.Set("X-Tensalis-Mode", string(t.resolveMode(mode)))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, t.classifyTransportError(span, err)
	}
	defer resp.Body.Close()

	if rl, ok := parseRateLimit(resp.Header); ok && t.onRateLimit != nil {
		t.onRateLimit(rl)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "read_body"))
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	apiErr := decodeAPIError(resp.StatusCode, data, resp.Header)
	span.SetAttributes(attribute.String("error.type", fmt.Sprintf("http_%d", resp.StatusCode)))
	return nil, apiErr
}

// resolveMode returns the per-call mode override, or the client mode.
func (t *transport) resolveMode(mode Mode) Mode {
	if mode != "" {
		return mode
	}
	return t.mode
}

// classifyTransportError maps a net/http client error to the typed taxonomy.
func (t *transport) classifyTransportError(span trace.Span, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		span.SetAttributes(attribute.String("error.type", "timeout"))
		return &TimeoutError{Timeout: t.timeout, Err: err}
	}
	span.SetAttributes(attribute.String("error.type", "connection"))
	return &ConnectionError{Err: err}
}

// decodeAPIError builds the typed error for a non-2xx response.
func decodeAPIError(status int, body []byte, header http.Header) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) // missing or malformed envelope is fine
	msg := eb.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	base := APIError{
		StatusCode: status,
		Message:    msg,
		Body:       body,
		Code:       eb.Code,
		RequestID:  eb.RequestID,
	}

	switch status {
	case http.StatusUnauthorized:
		return &AuthenticationError{APIError: base}
	case http.StatusTooManyRequests:
		return &RateLimitError{APIError: base, RetryAfter: parseRetryAfter(header)}
	default:
		return &base
	}
}

// parseRetryAfter reads the Retry-After header in seconds. Defaults to 1s
// when absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return time.Second
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

// parseRateLimit reads the X-RateLimit-* headers, if present.
func parseRateLimit(header http.Header) (RateLimit, bool) {
	limitStr := header.Get("X-RateLimit-Limit")
	if limitStr == "" {
		return RateLimit{}, false
	}
	rl := RateLimit{}
	rl.Limit, _ = strconv.ParseInt(limitStr, 10, 64)
	rl.Remaining, _ = strconv.ParseInt(header.Get("X-RateLimit-Remaining"), 10, 64)
	if unix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil && unix > 0 {
		rl.Reset = time.Unix(unix, 0).UTC()
	}
	return rl, true
}

// isTransient reports whether a failure may succeed on retry.
func isTransient(err error) bool {
	var (
		te  *TimeoutError
		ce  *ConnectionError
		rle *RateLimitError
		ae  *APIError
	)
	switch {
	case errors.As(err, &te), errors.As(err, &ce), errors.As(err, &rle):
		return true
	case errors.As(err, &ae):
		return ae.StatusCode >= 500
	default:
		return false
	}
}

// retryTrigger names the failure class for the retry counter.
func retryTrigger(err error) string {
	var (
		te  *TimeoutError
		rle *RateLimitError
		ae  *APIError
	)
	switch {
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &rle):
		return "429"
	case errors.As(err, &ae):
		return "5xx"
	default:
		return "network"
	}
}

// backoffDelay returns the exponential backoff delay before retry n (n >= 1).
func backoffDelay(n int) time.Duration {
	d := baseRetryDelay << (n - 1)
	if d > maxRetryDelay || d <= 0 {
		return maxRetryDelay
	}
	return d
}

// sleepContext waits for d or until ctx ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
