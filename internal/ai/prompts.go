package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract_posting.md
var extractPostingPromptRaw string

// ExtractPostingTemplate is the parsed prompt template for job page extraction.
// Parsed once at package init; reused on every Extract call.
var ExtractPostingTemplate = template.Must(template.New("extract_posting").Parse(extractPostingPromptRaw))

const systemPrompt = "You are a precise structured data extractor for job postings. Reply with JSON only."
