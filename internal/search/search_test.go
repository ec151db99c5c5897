package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5, RelevanceThreshold: 0.5})
}

func TestSearchRequestShape(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"results": []}`))
	})

	_, err := client.Search(context.Background(), "uk work visa", 3)
	require.NoError(t, err)
	assert.Equal(t, "uk work visa", captured["query"])
	assert.Equal(t, "web", captured["search_type"])
	assert.Equal(t, float64(3), captured["max_num_results"])
	assert.Equal(t, 0.5, captured["relevance_threshold"])
	assert.Equal(t, true, captured["is_tool_call"])
}

func TestSearchNormalizesAlternateFieldNames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [
			{"title": "Visa guide", "url": "https://example.com/a", "snippet": "How to apply."},
			{"name": "Fees page", "link": "https://example.com/b", "description": "Fee schedule."},
			{"heading": "Timelines", "source_url": "https://example.com/c", "content": "Processing times."},
			{}
		]}`))
	})

	got, err := client.Search(context.Background(), "visa", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, Source{Title: "Visa guide", URL: "https://example.com/a", Snippet: "How to apply."}, got[0])
	assert.Equal(t, Source{Title: "Fees page", URL: "https://example.com/b", Snippet: "Fee schedule."}, got[1])
	assert.Equal(t, Source{Title: "Timelines", URL: "https://example.com/c", Snippet: "Processing times."}, got[2])
	// missing fields fall back to placeholders rather than empty strings
	assert.Equal(t, Source{Title: "Relevant Information", URL: "https://gov.uk", Snippet: "No description available"}, got[3])
}

func TestSearchTruncatesLongSnippets(t *testing.T) {
	long := strings.Repeat("x", 600)
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"title": "t", "url": "https://u", "snippet": long}},
		})
	})

	got, err := client.Search(context.Background(), "visa", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, []rune(got[0].Snippet), 503)
	assert.True(t, strings.HasSuffix(got[0].Snippet, "..."))
}

func TestSearchErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "visa", 3)
	assert.Error(t, err)
}

func TestFallbackSources(t *testing.T) {
	visa := FallbackSources("uk work visa requirements")
	require.Len(t, visa, 2)
	assert.Equal(t, "https://gov.uk/check-uk-visa", visa[0].URL)
	assert.Equal(t, "https://gov.uk/apply-uk-visa", visa[1].URL)

	generic := FallbackSources("driving licence renewal")
	require.Len(t, generic, 1)
	assert.Equal(t, "https://gov.uk", generic[0].URL)
	assert.Contains(t, generic[0].Snippet, "driving licence renewal")
}
