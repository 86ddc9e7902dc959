package ai

import "context"

// LLMProvider sends a system and a user prompt to an LLM and returns the raw
// text response. Used only by PostingExtractor.
type LLMProvider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
