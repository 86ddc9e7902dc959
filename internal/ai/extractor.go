package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// ExtractRequest is the page handed to an Extractor.
type ExtractRequest struct {
	URL  string
	Text string
}

// ExtractedPosting is what an Extractor recovers from an unstructured page.
type ExtractedPosting struct {
	Title           string
	Company         string
	Location        string
	IsRemote        bool
	DescriptionHTML string
}

// Extractor turns a job page's visible text into posting fields.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (ExtractedPosting, error)
}

// PostingExtractor implements Extractor with an LLM.
type PostingExtractor struct {
	provider LLMProvider
	tmpl     *template.Template
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPostingExtractor creates an extractor. A zero timeout leaves the
// caller's deadline in charge.
func NewPostingExtractor(provider LLMProvider, tmpl *template.Template, timeout time.Duration, logger *slog.Logger) *PostingExtractor {
	return &PostingExtractor{
		provider: provider,
		tmpl:     tmpl,
		timeout:  timeout,
		logger:   logger,
	}
}

// rawPosting is the JSON shape returned by the LLM (matches postingSchema).
type rawPosting struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	IsRemote        bool   `json:"is_remote"`
	DescriptionHTML string `json:"description_html"`
}

// Extract renders the prompt, calls the model and validates the answer.
// Output without a title or a company wraps model.ErrExtraction.
func (e *PostingExtractor) Extract(ctx context.Context, req ExtractRequest) (ExtractedPosting, error) {
	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, req); err != nil {
		return ExtractedPosting{}, fmt.Errorf("render prompt: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.provider.Complete(ctx, systemPrompt, promptBuf.String())
	if err != nil {
		return ExtractedPosting{}, fmt.Errorf("llm complete: %w", err)
	}

	var rp rawPosting
	if err := json.Unmarshal([]byte(stripFences(raw)), &rp); err != nil {
		e.logger.Debug("unparseable extractor response", "url", req.URL, "response", raw)
		return ExtractedPosting{}, fmt.Errorf("%w: unmarshal response: %v", model.ErrExtraction, err)
	}

	out := ExtractedPosting{
		Title:           strings.TrimSpace(rp.Title),
		Company:         strings.TrimSpace(rp.Company),
		Location:        strings.TrimSpace(rp.Location),
		IsRemote:        rp.IsRemote,
		DescriptionHTML: strings.TrimSpace(rp.DescriptionHTML),
	}
	if out.Title == "" || out.Company == "" {
		return ExtractedPosting{}, fmt.Errorf("%w: missing title or company", model.ErrExtraction)
	}
	return out, nil
}

// stripFences removes a markdown code fence some JSON-mode models still emit.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
