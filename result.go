package tensalis

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of a verification call.
type Status string

const (
	// StatusVerified means the response is consistent with the context.
	StatusVerified Status = "VERIFIED"
	// StatusBlocked means a detection layer flagged the response.
	StatusBlocked Status = "BLOCKED"
	// StatusWarning means the response is suspect but below the block threshold.
	StatusWarning Status = "WARNING"
	// StatusPending is the neutral placeholder carried by stream events
	// emitted between remote checks. It never appears on a VerificationResult.
	StatusPending Status = "PENDING"
)

// Severity grades a blocked or warning verdict.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Mode selects the server-side verification thresholds. It is passed through
// unmodified and never changes client behavior.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModeBalanced   Mode = "balanced"
	ModePermissive Mode = "permissive"
)

func (m Mode) valid() bool {
	switch m {
	case ModeStrict, ModeBalanced, ModePermissive:
		return true
	default:
		return false
	}
}

// VerificationResult is a typed view of one server verdict. It is immutable
// once constructed; the raw server JSON is retained and available via Raw.
type VerificationResult struct {
	// Status is VERIFIED, BLOCKED, or WARNING.
	Status Status `json:"status"`
	// Severity grades the issue when Status is BLOCKED or WARNING.
	Severity Severity `json:"severity,omitempty"`
	// Reason is a human-readable explanation of the issue. Always non-empty
	// when Status is BLOCKED.
	Reason string `json:"reason,omitempty"`
	// Confidence is the detection confidence in [0,1], when reported.
	Confidence *float64 `json:"confidence,omitempty"`
	// Layer names the detection layer that triggered a block
	// (e.g., "cascading_nli", "fabrication_density").
	Layer string `json:"layer,omitempty"`
	// LatencyMS is the server-side processing time in milliseconds.
	LatencyMS *int64 `json:"latency_ms,omitempty"`

	raw json.RawMessage
}

// IsBlocked reports whether the response was blocked.
func (r *VerificationResult) IsBlocked() bool { return r.Status == StatusBlocked }

// IsVerified reports whether the response passed verification.
func (r *VerificationResult) IsVerified() bool { return r.Status == StatusVerified }

// Raw returns a copy of the untouched server JSON for this verdict.
func (r *VerificationResult) Raw() json.RawMessage {
	out := make(json.RawMessage, len(r.raw))
	copy(out, r.raw)
	return out
}

func (r *VerificationResult) String() string {
	return fmt.Sprintf("VerificationResult(status=%s, severity=%s)", r.Status, r.Severity)
}

// parseResult decodes and validates one verdict object. A verdict that
// violates the documented invariants is reported as a malformed response,
// never coerced into a default status.
func parseResult(data []byte) (*VerificationResult, error) {
	var r VerificationResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ClientError{Message: "malformed verification response", Err: err}
	}
	switch r.Status {
	case StatusVerified, StatusBlocked, StatusWarning:
	default:
		return nil, &ClientError{Message: fmt.Sprintf("invalid verification status %q", r.Status)}
	}
	if r.Status == StatusBlocked && r.Reason == "" {
		return nil, &ClientError{Message: "blocked verdict is missing a reason"}
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return nil, &ClientError{Message: fmt.Sprintf("confidence %v outside [0,1]", *r.Confidence)}
	}
	if r.LatencyMS != nil && *r.LatencyMS < 0 {
		return nil, &ClientError{Message: fmt.Sprintf("negative latency_ms %d", *r.LatencyMS)}
	}
	r.raw = append(json.RawMessage(nil), data...)
	return &r, nil
}

// BatchItem is one (response, context) pair in a batch verification call.
type BatchItem struct {
	// Response is the LLM-generated text to verify.
	Response string `json:"response"`
	// Context is the ordered sequence of reference text fragments.
	Context []string `json:"context"`
}

// HealthStatus is the result of a Health call.
type HealthStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Version   string `json:"version"`
}

// UsageReport is the result of a Usage call: consumption and limits for the
// authenticated API key.
type UsageReport struct {
	RequestsToday     int64  `json:"requests_today"`
	RequestsThisMonth int64  `json:"requests_this_month"`
	LimitDaily        int64  `json:"limit_daily"`
	LimitMonthly      int64  `json:"limit_monthly"`
	Plan              string `json:"plan"`
}

// RateLimit is a snapshot of the X-RateLimit-* response headers. The client
// records it on every call for callers needing quota awareness; it is never
// enforced locally.
type RateLimit struct {
	// Limit is the request quota for the current window.
	Limit int64
	// Remaining is the number of requests left in the current window.
	Remaining int64
	// Reset is when the current window ends.
	Reset time.Time
}
