package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	errx "github.com/mandry-ai/server/internal/core/error"
	logx "github.com/mandry-ai/server/pkg/logger"
)

const maxSnippetLen = 500

type Config struct {
	BaseURL            string  `envconfig:"SEARCH_BASE_URL" default:"https://api.valyu.network/v1/search"`
	APIKey             string  `envconfig:"SEARCH_API_KEY"`
	Timeout            int     `envconfig:"SEARCH_TIMEOUT" default:"10"`
	RelevanceThreshold float64 `envconfig:"SEARCH_RELEVANCE_THRESHOLD" default:"0.5"`
}

// Client queries a web search API and normalises the heterogenous result
// shapes different backends return into Source records.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string, topK int) ([]Source, error) {
	payload := map[string]any{
		"query":               query,
		"search_type":         "web",
		"max_num_results":     topK,
		"relevance_threshold": c.cfg.RelevanceThreshold,
		"is_tool_call":        true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errx.WrapSearch(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errx.WrapSearch(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("url", c.cfg.BaseURL).Msg("search request failed")
		return nil, errx.WrapSearch(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		logx.Error().Int("status", resp.StatusCode).Str("query", query).Msg("search request rejected")
		return nil, errx.WrapSearch(fmt.Errorf("search status %d", resp.StatusCode))
	}

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errx.WrapSearch(fmt.Errorf("decode search response: %w", err))
	}

	sources := normalizeResults(envelope)
	logx.Debug().Str("query", query).Int("count", len(sources)).Msg("search completed")
	return sources, nil
}

var _ Provider = (*Client)(nil)

// normalizeResults extracts the result list from the response envelope and
// maps each item's alternate field names onto the Source shape.
func normalizeResults(envelope map[string]any) []Source {
	var raw []any
	if v, ok := envelope["results"].([]any); ok {
		raw = v
	} else if v, ok := envelope["data"].([]any); ok {
		raw = v
	}

	sources := make([]Source, 0, len(raw))
	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sources = append(sources, Source{
			Title:   firstString(fields, "Relevant Information", "title", "name", "heading"),
			URL:     firstString(fields, "https://gov.uk", "url", "link", "source_url"),
			Snippet: truncate(firstString(fields, "No description available", "snippet", "description", "content", "text", "summary")),
		})
	}
	return sources
}

func firstString(fields map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSnippetLen {
		return s
	}
	return string(runes[:maxSnippetLen]) + "..."
}
