package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"RegulatoryScanner/internal/config"
	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const maxAnalysisRunes = 1200

// ChatGPTClient implements ports.Analyzer backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Analyzer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze asks the model for a short compliance note about the candidate.
func (c *ChatGPTClient) Analyze(ctx context.Context, candidate domain.Candidate, cls domain.Classification) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildUserMessage(candidate, cls)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}

	return truncateRunes(strings.TrimSpace(decoded.Choices[0].Message.Content), maxAnalysisRunes), nil
}

func buildUserMessage(candidate domain.Candidate, cls domain.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", candidate.Source)
	fmt.Fprintf(&b, "Title: %s\n", candidate.Title)
	if candidate.RawSummary != "" && candidate.RawSummary != candidate.Title {
		fmt.Fprintf(&b, "Summary: %s\n", candidate.RawSummary)
	}
	if len(cls.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(cls.Categories, ", "))
	}
	fmt.Fprintf(&b, "Relevance: %s\n", cls.Relevance)
	fmt.Fprintf(&b, "URL: %s", candidate.ArticleURL)
	return b.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a trade compliance analyst who summarizes regulatory notices for importers."
	}
	return prompt
}
