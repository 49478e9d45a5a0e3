// Package commodityprice provides a client for the CommodityPriceAPI
package commodityprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

const (
	SourceName       = "commodityprice"
	DefaultBaseURL   = "https://api.commoditypriceapi.com/v2"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2
)

// Client implements the QuoteSource and BulkSource capabilities against
// CommodityPriceAPI. The vendor publishes spot rates only: no change data,
// no history, so quotes carry change 0 and the aggregator keeps this
// client last in priority order.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	mapper     *symbols.Mapper
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

// NewClient creates a new CommodityPriceAPI client
func NewClient(apiKey string, mapper *symbols.Mapper, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		mapper:  mapper,
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
	return fmt.Sprintf("CommodityPriceAPI error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type latestResponse struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
	Error     *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// latest fetches spot rates for the given vendor symbols.
func (c *Client) latest(ctx context.Context, vendorSymbols []string) (*latestResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("symbols", strings.Join(vendorSymbols, ","))

	reqURL := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Int("symbols", len(vendorSymbols)).Msg("CommodityPriceAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/latest",
		}
	}

	var latest latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !latest.Success {
		msg := "request unsuccessful"
		if latest.Error != nil {
			msg = latest.Error.Info
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: "/latest"}
	}
	return &latest, nil
}

func (c *Client) toQuote(name, symbol string, latest *latestResponse) *models.CommodityQuote {
	lastUpdate := time.Now()
	if latest.Timestamp > 0 {
		lastUpdate = time.Unix(latest.Timestamp, 0)
	}
	return &models.CommodityQuote{
		Name:       name,
		Symbol:     symbol,
		Price:      latest.Rates[symbol],
		LastUpdate: lastUpdate,
		Category:   c.mapper.Category(name),
		Source:     SourceName,
		Provenance: models.ProvenanceLive,
	}
}

// FetchQuote retrieves the spot rate for one commodity.
func (c *Client) FetchQuote(ctx context.Context, name string) (*models.CommodityQuote, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceCommodityPrice)
	if !ok {
		return nil, nil
	}

	latest, err := c.latest(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if latest.Rates[symbol] == 0 {
		return nil, nil
	}
	return c.toQuote(name, symbol, latest), nil
}

// FetchAllQuotes retrieves spot rates for every commodity the vendor maps.
func (c *Client) FetchAllQuotes(ctx context.Context) ([]models.CommodityQuote, error) {
	names := c.mapper.Names()
	vendorSymbols := make([]string, 0, len(names))
	byName := make(map[string]string, len(names))
	for _, name := range names {
		if symbol, ok := c.mapper.Symbol(name, symbols.SourceCommodityPrice); ok {
			vendorSymbols = append(vendorSymbols, symbol)
			byName[name] = symbol
		}
	}
	if len(vendorSymbols) == 0 {
		return nil, nil
	}

	latest, err := c.latest(ctx, vendorSymbols)
	if err != nil {
		return nil, err
	}

	out := make([]models.CommodityQuote, 0, len(byName))
	for _, name := range names {
		symbol, ok := byName[name]
		if !ok || latest.Rates[symbol] == 0 {
			continue
		}
		out = append(out, *c.toQuote(name, symbol, latest))
	}
	return out, nil
}

// Ensure Client implements the source capabilities
var (
	_ interfaces.QuoteSource = (*Client)(nil)
	_ interfaces.BulkSource  = (*Client)(nil)
)
