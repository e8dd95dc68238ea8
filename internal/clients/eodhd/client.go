// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the EODHDClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.EODHDClient = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
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
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether the API said the ticker does not exist
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetEOD retrieves daily end-of-day bars, oldest first unless overridden
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResponse, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a",
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", url.PathEscape(ticker))

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := &models.EODResponse{
		Data: make([]models.EODBar, 0, len(bars)),
	}

	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", bar.Date).Msg("Skipping EOD bar with unparseable date")
			continue
		}
		result.Data = append(result.Data, models.EODBar{
			Date:     date,
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjustedClose),
			Volume:   int64(bar.Volume),
		})
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetFundFundamentals retrieves fund metadata, every reported holding and sector weights
func (c *Client) GetFundFundamentals(ctx context.Context, ticker string) (*models.FundFundamentals, error) {
	path := fmt.Sprintf("/fundamentals/%s", url.PathEscape(ticker))

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	f := &models.FundFundamentals{
		Ticker:      ticker,
		Name:        resp.General.Name,
		Type:        resp.General.Type,
		Category:    resp.General.Category,
		LastUpdated: time.Now(),
	}
	if f.Category == "" {
		f.Category = resp.ETFData.Category
	}

	f.Holdings = make([]models.Holding, 0, len(resp.ETFData.Holdings))
	for key, h := range resp.ETFData.Holdings {
		code := h.Code
		if code == "" {
			code = key
		}
		if h.Exchange != "" && !strings.Contains(code, ".") {
			code = code + "." + h.Exchange
		}
		f.Holdings = append(f.Holdings, models.Holding{
			Ticker: code,
			Name:   h.Name,
			Weight: float64(h.AssetsPercent),
		})
	}
	sort.Slice(f.Holdings, func(i, j int) bool {
		if f.Holdings[i].Weight != f.Holdings[j].Weight {
			return f.Holdings[i].Weight > f.Holdings[j].Weight
		}
		return f.Holdings[i].Ticker < f.Holdings[j].Ticker
	})

	f.SectorWeights = make([]models.SectorAllocation, 0, len(resp.ETFData.SectorWeights))
	for sector, w := range resp.ETFData.SectorWeights {
		if float64(w.EquityPercent) > 0 {
			f.SectorWeights = append(f.SectorWeights, models.SectorAllocation{
				Sector: sector,
				Weight: float64(w.EquityPercent),
			})
		}
	}
	sort.Slice(f.SectorWeights, func(i, j int) bool {
		if f.SectorWeights[i].Weight != f.SectorWeights[j].Weight {
			return f.SectorWeights[i].Weight > f.SectorWeights[j].Weight
		}
		return f.SectorWeights[i].Sector < f.SectorWeights[j].Sector
	})

	return f, nil
}

// fundamentalsResponse represents the fund-relevant parts of the API response
type fundamentalsResponse struct {
	General struct {
		Code     string `json:"Code"`
		Name     string `json:"Name"`
		Type     string `json:"Type"` // "ETF", "FUND", "Common Stock", ...
		Category string `json:"Category"`
	} `json:"General"`
	ETFData struct {
		Category string `json:"Category"`
		Holdings map[string]struct {
			Code          string      `json:"Code"`
			Exchange      string      `json:"Exchange"`
			Name          string      `json:"Name"`
			AssetsPercent flexFloat64 `json:"Assets_%"`
		} `json:"Holdings"`
		SectorWeights map[string]struct {
			EquityPercent flexFloat64 `json:"Equity_%"`
		} `json:"Sector_Weights"`
	} `json:"ETF_Data"`
}
