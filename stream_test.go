package tensalis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// streamStub verifies the accumulated text and blocks once it contains the
// trigger substring.
func streamStub(t *testing.T, trigger string, checks *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks.Add(1)
		var body struct {
			Response string `json:"response"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if strings.Contains(body.Response, trigger) {
			w.Write([]byte(`{"status":"BLOCKED","severity":"HIGH","reason":"drift from context","confidence":0.9,"layer":"drift_velocity"}`))
			return
		}
		w.Write([]byte(`{"status":"VERIFIED"}`))
	}))
}

func TestVerifyStreamBlocksAndTerminates(t *testing.T) {
	var checks atomic.Int64
	srv := streamStub(t, "D", &checks)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	chunks := Chunks([]string{"A ", "B ", "C ", "D "})

	var events []StreamEvent
	for event, err := range c.VerifyStream(context.Background(), chunks, []string{"reference"}, WithCheckInterval(2)) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		events = append(events, event)
	}

	if len(events) != 4 {
		t.Fatalf("events: got %d, want 4", len(events))
	}
	wantStatus := []Status{StatusPending, StatusVerified, StatusPending, StatusBlocked}
	for i, ev := range events {
		if ev.Status != wantStatus[i] {
			t.Errorf("events[%d].Status: got %s, want %s", i, ev.Status, wantStatus[i])
		}
	}
	// Interval-skipped chunks carry no result; checked chunks carry the verdict.
	if events[0].Result != nil || events[2].Result != nil {
		t.Error("pending events carry a result")
	}
	if events[3].Result == nil || !events[3].Result.IsBlocked() {
		t.Fatal("blocked event is missing its result")
	}
	if events[3].Result.Reason == "" {
		t.Error("blocked result has empty reason")
	}
	if got := checks.Load(); got != 2 {
		t.Errorf("remote checks: got %d, want 2", got)
	}
}

func TestVerifyStreamChunkTextPreserved(t *testing.T) {
	var checks atomic.Int64
	srv := streamStub(t, "never-matches", &checks)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	input := []string{"The refund ", "policy allows ", "returns within ", "90 days."}

	var got []string
	for event, err := range c.VerifyStream(context.Background(), Chunks(input), []string{"docs"}, WithCheckInterval(3)) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		got = append(got, event.Text)
	}
	if strings.Join(got, "") != strings.Join(input, "") {
		t.Errorf("chunk text: got %q", strings.Join(got, ""))
	}
}

func TestVerifyStreamRuneInterval(t *testing.T) {
	var checks atomic.Int64
	srv := streamStub(t, "never-matches", &checks)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	chunks := Chunks([]string{"abcde", "fghij", "klmno"})

	for _, err := range c.VerifyStream(context.Background(), chunks, []string{"docs"},
		WithCheckInterval(5), WithIntervalUnit(IntervalRunes)) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
	}
	if got := checks.Load(); got != 3 {
		t.Errorf("remote checks: got %d, want one per 5-rune chunk", got)
	}
}

func TestVerifyStreamFailurePropagates(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	chunks := Chunks([]string{"one ", "two ", "three ", "four "})

	var events, errs int
	for _, err := range c.VerifyStream(context.Background(), chunks, []string{"docs"}, WithCheckInterval(2)) {
		if err != nil {
			errs++
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Errorf("got %v, want *APIError", err)
			}
			continue
		}
		events++
	}
	if errs != 1 {
		t.Errorf("errors: got %d, want 1 (sequence ends at the failure)", errs)
	}
	// One pending event before the failed check, nothing after.
	if events != 1 {
		t.Errorf("events: got %d, want 1", events)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("remote calls: got %d, want 1", got)
	}
}

func TestVerifyStreamEmptyContext(t *testing.T) {
	c := newTestClient(t, "http://localhost:0", 0)
	var sawErr bool
	for _, err := range c.VerifyStream(context.Background(), Chunks([]string{"x"}), nil) {
		if err != nil {
			sawErr = true
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("got %v, want *ValidationError", err)
			}
		}
	}
	if !sawErr {
		t.Error("expected a validation error before any event")
	}
}

func TestVerifyStreamConsumerStopsPulling(t *testing.T) {
	var checks atomic.Int64
	srv := streamStub(t, "never-matches", &checks)
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	produced := 0
	source := func(yield func(string) bool) {
		for {
			produced++
			if !yield("word ") {
				return
			}
		}
	}

	seen := 0
	for _, err := range c.VerifyStream(context.Background(), source, []string{"docs"}, WithCheckInterval(2)) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		seen++
		if seen == 3 {
			break
		}
	}
	// The unbounded source stops as soon as the consumer does.
	if produced > 4 {
		t.Errorf("produced: got %d chunks after early break, want at most 4", produced)
	}
}
