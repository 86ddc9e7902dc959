package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// DefaultOpenAIBaseURL is used when no base URL is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

const maxCompletionTokens = 4096

// maxResponseBytes caps how much of a completion response is read.
const maxResponseBytes = 1 << 20

// postingSchema mirrors rawPosting. With strict mode the API refuses to
// return anything that does not match it.
var postingSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"title":            map[string]any{"type": "string"},
		"company":          map[string]any{"type": "string"},
		"location":         map[string]any{"type": "string"},
		"is_remote":        map[string]any{"type": "boolean"},
		"description_html": map[string]any{"type": "string"},
	},
	"required": []string{"title", "company", "location", "is_remote", "description_html"},
}

// OpenAIProvider talks to an OpenAI-compatible chat/completions endpoint
// using structured outputs.
type OpenAIProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAIProvider creates a provider. An empty baseURL targets OpenAI
// itself; a nil client gets a 15s timeout.
func NewOpenAIProvider(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &OpenAIProvider{
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:   apiKey,
		model:    model,
		client:   httpClient,
	}
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type completionResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *apiError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return e.Type + ": " + e.Message
}

// Complete asks the model for one posting object and returns its raw JSON.
func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: p.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxCompletionTokens,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "job_posting",
				Strict: true,
				Schema: postingSchema,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	var out completionResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		httpErr := &model.HTTPError{StatusCode: resp.StatusCode}
		if decodeErr == nil && out.Error != nil {
			httpErr.Err = out.Error
		}
		return "", fmt.Errorf("openai: %w", httpErr)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decodeErr)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai: %w", out.Error)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: response has no choices")
	}

	choice := out.Choices[0]
	switch {
	case choice.Message.Refusal != "":
		return "", fmt.Errorf("openai: model refused: %s", choice.Message.Refusal)
	case choice.FinishReason == "length":
		return "", errors.New("openai: completion truncated at max_tokens")
	}
	return choice.Message.Content, nil
}
