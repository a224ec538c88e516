package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"bookstack/internal/config"
	apperrors "bookstack/internal/errors"
)

// BookInfo is the book metadata included in recommendation prompts.
type BookInfo struct {
	ID            uint
	Title         string
	Author        string
	Genre         string
	AverageRating float64
}

// Generator produces text from the hosted LLM. Implementations must be safe
// for concurrent use.
type Generator interface {
	GenerateSummary(ctx context.Context, title, author, content string) (string, error)
	GenerateReviewSummary(ctx context.Context, bookTitle string, reviews []string, avgRating float64) (string, error)
	GenerateRecommendations(ctx context.Context, preferences string, books []BookInfo, limit int) (string, error)
}

// Client talks to Groq's OpenAI-compatible chat completions API.
// All calls are bounded by the configured timeout; failures surface as
// ErrLLMUnavailable so callers can substitute a deterministic fallback.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates an LLM client from configuration. An empty API key
// yields a client whose calls fail with ErrLLMNotConfigured.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.GroqBaseURL, "/"),
		apiKey:    cfg.GroqAPIKey,
		model:     cfg.LLMModel,
		maxTokens: cfg.LLMMaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.ErrLLMNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: strings.TrimSpace(prompt)}},
		MaxTokens:   c.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned status %d", apperrors.ErrLLMUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", apperrors.ErrLLMUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrLLMUnavailable)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// GenerateSummary produces a 2-3 sentence summary for book content.
func (c *Client) GenerateSummary(ctx context.Context, title, author, content string) (string, error) {
	prompt := fmt.Sprintf(`Generate a concise summary for the following book content.
The summary should be 2-3 sentences and capture the main ideas.

Book Title: %s
Author: %s

Content:
%s

Summary:`, title, author, content)

	return c.complete(ctx, prompt)
}

// GenerateReviewSummary summarizes what readers liked and disliked.
// At most the first five reviews are included in the prompt.
func (c *Client) GenerateReviewSummary(ctx context.Context, bookTitle string, reviews []string, avgRating float64) (string, error) {
	if len(reviews) > 5 {
		reviews = reviews[:5]
	}
	var sb strings.Builder
	for _, review := range reviews {
		fmt.Fprintf(&sb, "- %s\n", review)
	}

	prompt := fmt.Sprintf(`Summarize the following reviews for the book %q.
The book has an average rating of %.1f/5.
Provide key insights about what readers liked and disliked.

Reviews:
%s
Summary:`, bookTitle, avgRating, sb.String())

	return c.complete(ctx, prompt)
}

// GenerateRecommendations asks the model to pick books matching the
// caller's stated preferences. At most 20 books go into the prompt.
func (c *Client) GenerateRecommendations(ctx context.Context, preferences string, books []BookInfo, limit int) (string, error) {
	if len(books) > 20 {
		books = books[:20]
	}
	var sb strings.Builder
	for _, b := range books {
		fmt.Fprintf(&sb, "- %s by %s (Genre: %s)\n", b.Title, b.Author, b.Genre)
	}

	prompt := fmt.Sprintf(`Based on the user preferences below, recommend %d books from the available list.
Provide a brief explanation for each recommendation.

User Preferences:
%s

Available Books:
%s
Recommendations:`, limit, preferences, sb.String())

	return c.complete(ctx, prompt)
}
