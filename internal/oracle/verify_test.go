package oracle

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
)

type fakeClient struct {
	calls int
	resp  json.RawMessage
	err   error
}

func (f *fakeClient) Name() string { return "fake" }
func (f *fakeClient) Close() error { return nil }
func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestVerifyCachesResultAndDoesNotReQuery(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	client := &fakeClient{resp: json.RawMessage(`{"is_heading":true,"level":2,"normalized_title":"باب","confidence":0.9,"reason":"title"}`)}
	v := NewVerifier(client, cache, "test-model")

	c := ibptypes.Candidate{CandidateID: "cand-1", Text: "باب"}

	r1, err := v.Verify(context.Background(), c)
	if err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if !r1.IsHeading {
		t.Fatalf("expected is_heading=true")
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 client call, got %d", client.calls)
	}

	// Resume with a fresh Verifier over the same cache directory: must not
	// re-query the client.
	cache2, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache (resume): %v", err)
	}
	v2 := NewVerifier(client, cache2, "test-model")
	r2, err := v2.Verify(context.Background(), c)
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	if r2.NormalizedTitle != r1.NormalizedTitle {
		t.Fatalf("cached result mismatch: %+v vs %+v", r1, r2)
	}
	if client.calls != 1 {
		t.Fatalf("expected client not to be re-queried on resume, got %d calls", client.calls)
	}
}

func TestVerifyDefaultsUnexpectedLevelTo2(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	client := &fakeClient{resp: json.RawMessage(`{"is_heading":true,"level":5,"normalized_title":"x","confidence":0.9,"reason":"title"}`)}
	v := NewVerifier(client, cache, "test-model")

	r, err := v.Verify(context.Background(), ibptypes.Candidate{CandidateID: "cand-2", Text: "x"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if r.Level != 2 {
		t.Fatalf("expected level to default to 2, got %d", r.Level)
	}
}

// multiClient replays a fixed sequence of responses across successive
// GenerateJSON calls, the last one repeating once the sequence is exhausted.
type multiClient struct {
	calls int
	resps []json.RawMessage
}

func (m *multiClient) Name() string { return "multi" }
func (m *multiClient) Close() error { return nil }
func (m *multiClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	i := m.calls
	if i >= len(m.resps) {
		i = len(m.resps) - 1
	}
	m.calls++
	return m.resps[i], nil
}

func TestVerifyRejectsReplyMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	client := &multiClient{resps: []json.RawMessage{
		json.RawMessage(`{"is_heading":true,"level":2,"confidence":0.9,"reason":"title"}`),
	}}
	v := NewVerifier(client, cache, "test-model")

	_, err = v.Verify(context.Background(), ibptypes.Candidate{CandidateID: "cand-3", Text: "x"})
	if err == nil {
		t.Fatalf("expected an error for a reply missing normalized_title")
	}
	if client.calls != maxProtocolRetries {
		t.Fatalf("expected %d retries exhausted, got %d calls", maxProtocolRetries, client.calls)
	}
}

func TestVerifyRetriesProtocolFailureThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	client := &multiClient{resps: []json.RawMessage{
		json.RawMessage(`{"is_heading":true,"level":2,"normalized_title":"","confidence":0.9,"reason":"title"}`),
		json.RawMessage(`{"is_heading":true,"level":2,"normalized_title":"باب","confidence":0.9,"reason":"title"}`),
	}}
	v := NewVerifier(client, cache, "test-model")

	r, err := v.Verify(context.Background(), ibptypes.Candidate{CandidateID: "cand-4", Text: "x"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if r.NormalizedTitle != "باب" {
		t.Fatalf("expected second reply to win after retry, got %+v", r)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 client calls, got %d", client.calls)
	}
}
