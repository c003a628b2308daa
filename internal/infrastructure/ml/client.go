package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

// Client talks to an external text-classification service.
type Client struct {
	endpoint   string
	apiKey     string
	vocabulary map[string]bool
	http       *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client; categories restricts accepted labels.
func NewClient(endpoint, apiKey string, categories []string) *Client {
	vocab := make(map[string]bool, len(categories))
	for _, c := range categories {
		vocab[c] = true
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		vocabulary: vocab,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

type classifyResponse struct {
	Relevance  string   `json:"relevance"`
	Categories []string `json:"categories"`
	Analysis   string   `json:"analysis"`
}

// Classify sends title and summary for labelling; any failure is a ClassificationError.
func (c *Client) Classify(ctx context.Context, candidate domain.Candidate) (domain.Classification, error) {
	payload := map[string]any{
		"source":  candidate.Source,
		"title":   candidate.Title,
		"summary": candidate.RawSummary,
		"hints":   candidate.SourceCategoryHints,
	}

	var resp classifyResponse
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return domain.DefaultClassification(), &domain.ClassificationError{Err: err}
	}

	relevance := domain.Relevance(strings.ToLower(strings.TrimSpace(resp.Relevance)))
	if !relevance.Valid() {
		return domain.DefaultClassification(), &domain.ClassificationError{
			Err: fmt.Errorf("%w: %q", domain.ErrInvalidRelevance, resp.Relevance),
		}
	}

	categories := make([]string, 0, len(resp.Categories))
	seen := map[string]bool{}
	for _, cat := range resp.Categories {
		cat = strings.TrimSpace(cat)
		if len(c.vocabulary) > 0 && !c.vocabulary[cat] {
			return domain.DefaultClassification(), &domain.ClassificationError{
				Err: fmt.Errorf("unknown category %q", cat),
			}
		}
		if !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}

	return domain.Classification{
		Relevance:  relevance,
		Categories: categories,
		AIAnalysis: strings.TrimSpace(resp.Analysis),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
