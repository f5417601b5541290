package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"google.golang.org/genai"
)

var errInvalidJSON = errors.New("oracle: model returned no content")

// GeminiClient wraps the official genai client behind the Client interface.
// The environment variable names used by the caller (OPENAI_API_KEY,
// OPENAI_MODEL) are the repository's own convention; the backend wired
// underneath is Gemini, consistent with the model default of
// "gemini-2.5-flash".
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON sends prompt+input and requests a JSON response. The caller
// (Verifier) is responsible for validating the OracleResult shape; a reply
// with no content is a permanent protocol failure, not a transient one.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, phase, prompt, input)
	}

	in, _ := json.MarshalIndent(input, "", "  ")
	full := prompt + "\n\n[INPUT JSON]\n" + string(in)
	log.Printf("oracle request (%s): %d bytes", phase, len(full))

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		if hook := HookFrom(ctx); hook != nil {
			hook.After(ctx, phase, nil, err)
		}
		return nil, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		if hook := HookFrom(ctx); hook != nil {
			hook.After(ctx, phase, nil, errInvalidJSON)
		}
		return nil, &PermanentError{Err: errInvalidJSON}
	}

	txt := resp.Candidates[0].Content.Parts[0].Text
	raw := json.RawMessage(txt)
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, phase, raw, nil)
	}
	return raw, nil
}
