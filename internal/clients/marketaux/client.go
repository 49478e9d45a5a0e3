// Package marketaux provides a client for the Marketaux news API
package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
)

const (
	SourceName       = "marketaux"
	DefaultBaseURL   = "https://api.marketaux.com/v1"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2
)

// Client implements the NewsSource capability against Marketaux. Searches
// run on the canonical commodity name rather than a ticker, so no symbol
// mapping is required.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Marketaux client
func NewClient(apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the source identifier.
func (c *Client) Name() string { return SourceName }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Marketaux API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type newsResponse struct {
	Data []struct {
		UUID        string `json:"uuid"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		PublishedAt string `json:"published_at"`
		Entities    []struct {
			SentimentScore float64 `json:"sentiment_score"`
		} `json:"entities"`
	} `json:"data"`
}

// classifySentiment folds the entity sentiment score into the three-way
// model; no entities means neutral.
func classifySentiment(entities []struct {
	SentimentScore float64 `json:"sentiment_score"`
}) string {
	if len(entities) == 0 {
		return "neutral"
	}
	score := entities[0].SentimentScore
	switch {
	case score > 0.15:
		return "positive"
	case score < -0.15:
		return "negative"
	}
	return "neutral"
}

// FetchNews retrieves news articles matching the commodity name.
func (c *Client) FetchNews(ctx context.Context, name string, limit int) ([]models.NewsItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}

	// Search on the base commodity word ("Gold Futures" -> "Gold").
	search := name
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		search = name[:idx]
	}

	params := url.Values{}
	params.Set("api_token", c.apiToken)
	params.Set("search", search)
	params.Set("filter_entities", "true")
	params.Set("language", "en")
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/news/all?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("search", search).Msg("Marketaux API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/news/all",
		}
	}

	var news newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&news); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]models.NewsItem, 0, len(news.Data))
	for _, a := range news.Data {
		publishedAt, _ := time.Parse("2006-01-02T15:04:05.000000Z", a.PublishedAt)
		if publishedAt.IsZero() {
			publishedAt, _ = time.Parse(time.RFC3339, a.PublishedAt)
		}
		items = append(items, models.NewsItem{
			ID:          "marketaux-" + a.UUID,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: publishedAt,
			Sentiment:   classifySentiment(a.Entities),
		})
	}
	return items, nil
}

// Ensure Client implements the source capabilities
var _ interfaces.NewsSource = (*Client)(nil)
