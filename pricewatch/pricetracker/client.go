// Package pricetracker is a client for the price tracking API, which reports
// current TCGPlayer, eBay and CardMarket prices for a card in one call.
package pricetracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
)

const DefaultBaseURL = "https://www.pokemonpricetracker.com/api/v1"

var ErrMissingAPIKey = errors.New("price tracker API key not configured")

type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("price tracker API error: %s", e.Status)
}

type Card struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	SetName  string     `json:"setName"`
	Number   string     `json:"number"`
	Rarity   string     `json:"rarity"`
	ImageURL string     `json:"imageUrl"`
	Prices   CardPrices `json:"prices"`
}

type CardPrices struct {
	TCGPlayer  *TCGPlayerPrices  `json:"tcgplayer,omitempty"`
	EBay       *EBayPrices       `json:"ebay,omitempty"`
	CardMarket *CardMarketPrices `json:"cardmarket,omitempty"`
}

type TCGPlayerPrices struct {
	MarketPrice float64 `json:"marketPrice"`
	LowPrice    float64 `json:"lowPrice"`
	MidPrice    float64 `json:"midPrice"`
	HighPrice   float64 `json:"highPrice"`
	SubTypeName string  `json:"subTypeName"`
}

type EBayPrices struct {
	AveragePrice float64 `json:"averagePrice"`
	RecentSales  []Sale  `json:"recentSales"`
}

type Sale struct {
	Price     float64 `json:"price"`
	Date      string  `json:"date"`
	Condition string  `json:"condition"`
}

type CardMarketPrices struct {
	AveragePrice float64 `json:"averagePrice"`
	LowPrice     float64 `json:"lowPrice"`
	TrendPrice   float64 `json:"trendPrice"`
}

type SearchResponse struct {
	Data    []Card `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type HistoryPoint struct {
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	Condition string  `json:"condition"`
}

type HistoryResponse struct {
	Data    []HistoryPoint `json:"data"`
	Success bool           `json:"success"`
}

type Set struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
}

type SearchOptions struct {
	Limit int
}

type HistoryOptions struct {
	Days   int
	Source string
}

type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.UpstreamAPITimeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		http.SetAuthToken(apiKey)
	}

	return &Client{http: http, apiKey: apiKey}
}

// HasAPIKey reports whether a key was configured at all.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// SearchPrices looks up current prices for cards matching query. It fails
// with ErrMissingAPIKey when no key is configured.
func (c *Client) SearchPrices(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var out SearchResponse
	err := c.get(ctx, "/prices", map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPriceHistory(ctx context.Context, cardID string, opts HistoryOptions) (*HistoryResponse, error) {
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}
	days := opts.Days
	if days <= 0 {
		days = config.HistoryDefaultDays
	}

	params := map[string]string{
		"cardId": cardID,
		"days":   strconv.Itoa(days),
	}
	if opts.Source != "" {
		params["source"] = opts.Source
	}

	var out HistoryResponse
	if err := c.get(ctx, "/prices/history", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSets(ctx context.Context) ([]Set, error) {
	var out struct {
		Data []Set `json:"data"`
	}
	if err := c.get(ctx, "/sets", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ValidateAPIKey checks that a key is configured and accepted by the API.
func (c *Client) ValidateAPIKey(ctx context.Context) bool {
	if !c.HasAPIKey() {
		return false
	}

	var out struct {
		Data []Set `json:"data"`
	}
	if err := c.get(ctx, "/sets", map[string]string{"limit": "1"}, &out); err != nil {
		slog.Warn("Price tracker API key validation failed",
			slog.String("type", "http"),
			slog.Any("error", err))
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("price tracker request %s: %w", path, err)
	}

	slog.Debug("Price tracker request",
		slog.String("type", "http"),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("took", time.Since(start)))

	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}
	return nil
}
