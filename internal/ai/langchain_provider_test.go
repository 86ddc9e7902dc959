package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLangChainProvider_Complete(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"title\":\"MOps\"}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	p, err := NewLangChainProvider(srv.URL, "lc-key", "test-model")
	require.NoError(t, err)

	got, err := p.Complete(context.Background(), "system", "extract")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"MOps"}`, got)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer lc-key", gotAuth)
}

func TestLangChainProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewLangChainProvider(srv.URL, "lc-key", "test-model")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "system", "extract")
	assert.Error(t, err)
}
