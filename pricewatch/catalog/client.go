// Package catalog is a client for the public trading card catalog API. Card
// metadata and the TCGPlayer and CardMarket prices it embeds are read from
// here.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
)

const DefaultBaseURL = "https://api.pokemontcg.io/v2"

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog API error: %s", e.Status)
}

type cachedResponse struct {
	body    []byte
	expires time.Time
}

type Client struct {
	http  *resty.Client
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewClient builds a client for baseURL. The API key is optional; without it
// the API applies its anonymous quota.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.UpstreamAPITimeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		http.SetHeader("X-Api-Key", apiKey)
	}

	cache, _ := lru.New(config.CatalogCacheSize)
	return &Client{
		http:  http,
		cache: cache,
		ttl:   config.CatalogCacheExpiration,
		now:   time.Now,
	}
}

// SearchCards searches card names containing query. Japanese queries are
// translated first.
func (c *Client) SearchCards(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	term := TranslateQuery(query)
	if term != query {
		slog.Debug("Translated catalog query",
			slog.String("type", "http"),
			slog.String("query", query),
			slog.String("term", term))
	}

	params := pageParams(opts.Page, opts.PageSize)
	params.Set("q", fmt.Sprintf("name:*%s*", term))
	if opts.OrderBy != "" {
		params.Set("orderBy", opts.OrderBy)
	}

	var out SearchResponse
	if err := c.get(ctx, "/cards", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCardsBySet lists the cards of the set with the exact given name.
func (c *Client) SearchCardsBySet(ctx context.Context, setName string, opts SearchOptions) (*SearchResponse, error) {
	params := pageParams(opts.Page, opts.PageSize)
	params.Set("q", fmt.Sprintf("set.name:%q", setName))

	var out SearchResponse
	if err := c.get(ctx, "/cards", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCardByID(ctx context.Context, id string) (*Card, error) {
	var out struct {
		Data Card `json:"data"`
	}
	if err := c.get(ctx, "/cards/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) GetSets(ctx context.Context, opts SearchOptions) ([]Set, error) {
	params := pageParams(opts.Page, opts.PageSize)
	if opts.OrderBy != "" {
		params.Set("orderBy", opts.OrderBy)
	}

	var out struct {
		Data []Set `json:"data"`
	}
	if err := c.get(ctx, "/sets", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetSetByID(ctx context.Context, id string) (*Set, error) {
	var out struct {
		Data Set `json:"data"`
	}
	if err := c.get(ctx, "/sets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func pageParams(page, pageSize int) url.Values {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = config.CatalogPageSize
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	key := path + "?" + params.Encode()
	if cached, ok := c.cache.Get(key); ok {
		if entry, ok := cached.(cachedResponse); ok && c.now().Before(entry.expires) {
			return json.Unmarshal(entry.body, out)
		}
		c.cache.Remove(key)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("catalog request %s: %w", path, err)
	}

	slog.Debug("Catalog request",
		slog.String("type", "http"),
		slog.String("url", resp.Request.URL),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("took", time.Since(start)))

	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	body := resp.Body()
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}

	c.cache.Add(key, cachedResponse{body: body, expires: c.now().Add(c.ttl)})
	return nil
}
