package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/stackradar/internal/model"
)

// fakeProvider is a function-field LLMProvider.
type fakeProvider struct {
	CompleteFunc func(ctx context.Context, system, prompt string) (string, error)
}

func (f *fakeProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f.CompleteFunc(ctx, system, prompt)
}

func respond(body string) *fakeProvider {
	return &fakeProvider{CompleteFunc: func(context.Context, string, string) (string, error) {
		return body, nil
	}}
}

func newTestExtractor(p LLMProvider) *PostingExtractor {
	tmpl := template.Must(template.New("test").Parse("url: {{.URL}}\n{{.Text}}"))
	return NewPostingExtractor(p, tmpl, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtract_Success(t *testing.T) {
	var gotSystem, gotPrompt string
	p := &fakeProvider{CompleteFunc: func(_ context.Context, system, prompt string) (string, error) {
		gotSystem, gotPrompt = system, prompt
		return `{"title":" Marketing Automation Manager ","company":"Acme","location":"Austin, TX","is_remote":false,"description_html":"<p>Own Marketo.</p>"}`, nil
	}}

	got, err := newTestExtractor(p).Extract(context.Background(), ExtractRequest{
		URL:  "https://acme.wd5.myworkdayjobs.com/job/1",
		Text: "Marketing Automation Manager Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, ExtractedPosting{
		Title:           "Marketing Automation Manager",
		Company:         "Acme",
		Location:        "Austin, TX",
		DescriptionHTML: "<p>Own Marketo.</p>",
	}, got)
	assert.Equal(t, systemPrompt, gotSystem)
	assert.Contains(t, gotPrompt, "url: https://acme.wd5.myworkdayjobs.com/job/1")
	assert.Contains(t, gotPrompt, "Marketing Automation Manager Acme")
}

func TestExtract_StripsCodeFences(t *testing.T) {
	body := "```json\n{\"title\":\"MOps Lead\",\"company\":\"Acme\",\"location\":\"\",\"is_remote\":true,\"description_html\":\"\"}\n```"

	got, err := newTestExtractor(respond(body)).Extract(context.Background(), ExtractRequest{URL: "u"})
	require.NoError(t, err)
	assert.Equal(t, "MOps Lead", got.Title)
	assert.True(t, got.IsRemote)
}

func TestExtract_MissingTitleOrCompany(t *testing.T) {
	for _, body := range []string{
		`{"title":"","company":"Acme","location":"","is_remote":false,"description_html":""}`,
		`{"title":"Analyst","company":"  ","location":"","is_remote":false,"description_html":""}`,
	} {
		_, err := newTestExtractor(respond(body)).Extract(context.Background(), ExtractRequest{URL: "u"})
		assert.ErrorIs(t, err, model.ErrExtraction)
	}
}

func TestExtract_InvalidJSON(t *testing.T) {
	_, err := newTestExtractor(respond("sorry, I cannot help")).Extract(context.Background(), ExtractRequest{URL: "u"})
	assert.ErrorIs(t, err, model.ErrExtraction)
}

func TestExtract_ProviderError(t *testing.T) {
	boom := errors.New("upstream down")
	p := &fakeProvider{CompleteFunc: func(context.Context, string, string) (string, error) {
		return "", boom
	}}

	_, err := newTestExtractor(p).Extract(context.Background(), ExtractRequest{URL: "u"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, model.ErrExtraction)
}

func TestExtract_AppliesTimeout(t *testing.T) {
	var hasDeadline bool
	p := &fakeProvider{CompleteFunc: func(ctx context.Context, _, _ string) (string, error) {
		_, hasDeadline = ctx.Deadline()
		return `{"title":"t","company":"c","location":"","is_remote":false,"description_html":""}`, nil
	}}
	e := newTestExtractor(p)
	e.timeout = 5 * time.Second

	_, err := e.Extract(context.Background(), ExtractRequest{URL: "u"})
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}

func TestExtractPostingTemplate_Renders(t *testing.T) {
	var b strings.Builder
	err := ExtractPostingTemplate.Execute(&b, ExtractRequest{URL: "https://x.test/job/1", Text: "PAGE BODY"})
	require.NoError(t, err)
	assert.Contains(t, b.String(), "https://x.test/job/1")
	assert.Contains(t, b.String(), "PAGE BODY")
	assert.Contains(t, b.String(), "description_html")
}
