package tensalis

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "client",
			err:  &ClientError{Message: "malformed verification response"},
			want: "tensalis: malformed verification response",
		},
		{
			name: "api",
			err:  &APIError{StatusCode: 422, Message: "context too large"},
			want: "tensalis: api error [422] context too large",
		},
		{
			name: "authentication",
			err:  &AuthenticationError{APIError: APIError{StatusCode: 401, Message: "invalid API key"}},
			want: "tensalis: authentication failed [401] invalid API key",
		},
		{
			name: "rate limit",
			err:  &RateLimitError{RetryAfter: 5 * time.Second},
			want: "tensalis: rate limit exceeded (retry after 5s)",
		},
		{
			name: "timeout",
			err:  &TimeoutError{Timeout: 30 * time.Second},
			want: "tensalis: request timed out after 30s",
		},
		{
			name: "validation with field",
			err:  &ValidationError{Field: "response", Message: "response text must be non-empty"},
			want: `tensalis: validation error on "response": response text must be non-empty`,
		},
		{
			name: "validation without field",
			err:  &ValidationError{Message: "bad input"},
			want: "tensalis: validation error: bad input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error(): got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllVariantsImplementError(t *testing.T) {
	variants := []error{
		&ClientError{},
		&APIError{},
		&AuthenticationError{},
		&RateLimitError{},
		&TimeoutError{},
		&ValidationError{},
		&ConnectionError{},
	}
	for _, v := range variants {
		var sdkErr Error
		if !errors.As(v, &sdkErr) {
			t.Errorf("%T does not implement the Error marker interface", v)
		}
	}
}

func TestSpecializationsMatchAPIError(t *testing.T) {
	var apiErr *APIError

	auth := error(&AuthenticationError{APIError: APIError{StatusCode: 401}})
	if !errors.As(auth, &apiErr) || apiErr.StatusCode != 401 {
		t.Error("*AuthenticationError does not unwrap to *APIError")
	}

	rle := error(&RateLimitError{APIError: APIError{StatusCode: 429}, RetryAfter: time.Minute})
	if !errors.As(rle, &apiErr) || apiErr.StatusCode != 429 {
		t.Error("*RateLimitError does not unwrap to *APIError")
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := errors.New("connection reset by peer")
	var err error = &ConnectionError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("*ConnectionError does not unwrap to its cause")
	}

	err = &ClientError{Message: "decoding", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("*ClientError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("message does not include the cause: %q", err.Error())
	}
}
