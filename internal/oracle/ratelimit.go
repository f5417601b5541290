package oracle

import (
	"context"
	"encoding/json"
	"time"
)

// tokenBucket is a lightweight token-bucket limiter throttling to at most
// qps requests per second with a given burst capacity.
type tokenBucket struct {
	tokens chan struct{}
	stopCh chan struct{}
}

func newTokenBucket(qps float64, burst int) *tokenBucket {
	if qps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	b := &tokenBucket{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		b.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / qps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case b.tokens <- struct{}{}:
				default:
				}
			case <-b.stopCh:
				return
			}
		}
	}()
	return b
}

func (b *tokenBucket) Acquire(ctx context.Context) error {
	if b == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopCh:
		return context.Canceled
	case <-b.tokens:
		return nil
	}
}

func (b *tokenBucket) Stop() {
	if b == nil {
		return
	}
	close(b.stopCh)
}

// Throttle wraps a Client so at most qps GenerateJSON calls start per
// second, with burst allowing an initial spike (§6.3 AI profile budgets).
func Throttle(qps float64, burst int) Middleware {
	bucket := newTokenBucket(qps, burst)
	return func(next Client) Client {
		return &throttled{next: next, bucket: bucket}
	}
}

type throttled struct {
	next   Client
	bucket *tokenBucket
}

func (t *throttled) Name() string { return t.next.Name() }
func (t *throttled) Close() error {
	t.bucket.Stop()
	return t.next.Close()
}

func (t *throttled) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if err := t.bucket.Acquire(ctx); err != nil {
		return nil, err
	}
	return t.next.GenerateJSON(ctx, prompt, input)
}
