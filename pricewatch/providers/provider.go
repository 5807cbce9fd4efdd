// Package providers holds the price source adapters and the fixed registry
// that maps a source name to its adapter.
package providers

import (
	"context"
	"fmt"
	"time"
)

// CandidateMatch is a provider search hit before any price lookup. ID is
// only meaningful to the provider that returned it.
type CandidateMatch struct {
	ID        string `json:"cardId"`
	Name      string `json:"name"`
	SetName   string `json:"setName"`
	SetNumber string `json:"setNumber"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Rarity    string `json:"rarity,omitempty"`
}

// Quote is one normalized price observation.
type Quote struct {
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Condition  string    `json:"condition,omitempty"`
	InStock    bool      `json:"inStock"`
	ProductURL string    `json:"productUrl,omitempty"`
	ScrapedAt  time.Time `json:"scrapedAt"`
}

// SourcedQuote is a quote an aggregating API reports on behalf of a named
// marketplace, e.g. "TCGPlayer" prices returned by the card catalog.
type SourcedQuote struct {
	Source string `json:"source"`
	Quote
}

// Provider is implemented by every price source adapter. Errors from the
// network or from parsing are returned as is; adapters never retry.
type Provider interface {
	Name() string
	SearchCard(ctx context.Context, query string) ([]CandidateMatch, error)
	GetPrice(ctx context.Context, candidateID string) (*Quote, error)
}

// Config is the adapter configuration built from a source row and its
// JSON config blob.
type Config struct {
	Enabled    bool
	RateLimit  time.Duration
	BaseURL    string
	SearchPath string
	Headers    map[string]string
	// Options keeps every key the adapter constructor does not recognize.
	Options map[string]any
}

// Option returns a string option or def when it is absent.
func (c Config) Option(key, def string) string {
	if v, ok := c.Options[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// BoolOption returns a boolean option or false when it is absent.
func (c Config) BoolOption(key string) bool {
	v, ok := c.Options[key].(bool)
	return ok && v
}

// NewConfig merges the source row values with its config blob. Keys in the
// blob win over the row.
func NewConfig(active bool, rateLimitMs int, baseURL string, blob map[string]any) Config {
	cfg := Config{
		Enabled:   active,
		RateLimit: time.Duration(rateLimitMs) * time.Millisecond,
		BaseURL:   baseURL,
		Headers:   map[string]string{},
		Options:   map[string]any{},
	}

	for key, value := range blob {
		switch key {
		case "enabled":
			if b, ok := value.(bool); ok {
				cfg.Enabled = b
			}
		case "rateLimitMs":
			if ms, ok := toInt(value); ok {
				cfg.RateLimit = time.Duration(ms) * time.Millisecond
			}
		case "baseUrl":
			if s, ok := value.(string); ok {
				cfg.BaseURL = s
			}
		case "searchPath":
			if s, ok := value.(string); ok {
				cfg.SearchPath = s
			}
		case "headers":
			if m, ok := value.(map[string]any); ok {
				for k, v := range m {
					cfg.Headers[k] = fmt.Sprint(v)
				}
			}
		default:
			cfg.Options[key] = value
		}
	}

	return cfg
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
