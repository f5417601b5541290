package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type flakyClient struct {
	failures  int
	calls     int
	permanent bool
}

func (f *flakyClient) Name() string { return "flaky" }
func (f *flakyClient) Close() error { return nil }
func (f *flakyClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.permanent {
			return nil, &PermanentError{Err: errors.New("bad request")}
		}
		return nil, errors.New("transient failure")
	}
	return json.RawMessage(`{}`), nil
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	client := &flakyClient{failures: 2}
	wrapped := Retry(5, time.Millisecond)(client)

	if _, err := wrapped.GenerateJSON(context.Background(), "p", nil); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 calls (2 failures + success), got %d", client.calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	client := &flakyClient{failures: 5, permanent: true}
	wrapped := Retry(5, time.Millisecond)(client)

	_, err := wrapped.GenerateJSON(context.Background(), "p", nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if client.calls != 1 {
		t.Fatalf("expected a PermanentError to short-circuit after 1 call, got %d", client.calls)
	}
}

func TestBackoffDelayStaysWithinCap(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := backoffDelay(time.Second, i)
		if d < 0 || d > maxBackoff {
			t.Fatalf("backoffDelay(%d) = %v, want within [0, %v]", i, d, maxBackoff)
		}
	}
}
