// Package gemini provides a client for the Google Gemini API, used for
// optional news-intelligence digests.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
)

const (
	DefaultModel = "gemini-2.5-flash"
	maxItems     = 15 // cap prompt size; more headlines add noise, not signal
)

// Client implements the IntelClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SummarizeNews generates a short digest and overall sentiment for a set
// of commodity news items.
func (c *Client) SummarizeNews(ctx context.Context, commodity string, items []models.NewsItem) (*models.NewsIntelligence, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no news items to summarize")
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a commodity market analyst. Summarize the following %s headlines in 2-3 sentences, ", commodity)
	b.WriteString("then on a final line output exactly one of: SENTIMENT: bullish | bearish | neutral | mixed\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s)\n", item.Title, item.Source)
	}

	c.logger.Debug().Str("model", c.model).Int("items", len(items)).Msg("Generating news digest")

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(b.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return nil, err
	}

	return parseDigest(text), nil
}

// parseDigest splits the model output into summary and sentiment.
func parseDigest(text string) *models.NewsIntelligence {
	intel := &models.NewsIntelligence{
		Summary:          strings.TrimSpace(text),
		OverallSentiment: "neutral",
		GeneratedAt:      time.Now(),
	}

	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if after, ok := strings.CutPrefix(line, "SENTIMENT:"); ok {
			sentiment := strings.ToLower(strings.TrimSpace(after))
			switch sentiment {
			case "bullish", "bearish", "neutral", "mixed":
				intel.OverallSentiment = sentiment
			}
			intel.Summary = strings.TrimSpace(strings.Join(lines[:i], "\n"))
			break
		}
	}
	return intel
}

// extractTextFromResponse pulls the text parts from a generate response.
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}

	text := b.String()
	if text == "" {
		return "", fmt.Errorf("no text in model response")
	}
	return text, nil
}

// Ensure Client implements IntelClient
var _ interfaces.IntelClient = (*Client)(nil)
