// Package oracle implements C5 (§4.5): the Layer C advisory verifier and
// its resumable, append-only cache.
package oracle

import (
	"context"
	"encoding/json"
)

// Client is the minimal surface the verifier needs from an LLM backend.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// PermanentError marks a failure that a retry middleware must not retry
// (malformed request, authentication failure, and similar non-transient
// conditions). Anything else is treated as transient (§7 oracle_transient).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Middleware wraps a Client with cross-cutting behavior.
type Middleware func(Client) Client
