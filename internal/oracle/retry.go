package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"
)

// maxBackoff caps the exponential delay between oracle retries (§4.5:
// "exponential on failure (base 2, capped, with jitter)"); attempt counts
// far beyond this would otherwise sleep for minutes between requests.
const maxBackoff = 30 * time.Second

// Retry wraps a Client with exponential backoff, short-circuiting on a
// PermanentError: that error is returned at once, and any other error is
// retried, up to maxAttempts calls in all.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

// backoffDelay returns the delay before retry attempt i (0-indexed),
// exponential in base capped at maxBackoff, with full jitter so that many
// candidates retrying at once do not all wake up and hit the oracle in
// lockstep.
func backoffDelay(base time.Duration, i int) time.Duration {
	delay := base * time.Duration(1<<i)
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	return time.Duration(rand.Int63n(int64(delay) + 1))
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, input)
		if err == nil {
			return resp, nil
		}
		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		last = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		time.Sleep(backoffDelay(r.base, i))
	}
	return nil, last
}
