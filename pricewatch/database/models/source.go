package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Source is an upstream price provider: a registered scraper or a named
// origin reported by one of the price APIs.
type Source struct {
	bun.BaseModel `bun:"table:sources,alias:s"`

	ID          int64          `bun:"id,pk,autoincrement" json:"id"`
	Name        string         `bun:"name,notnull,unique" json:"name"`
	BaseURL     string         `bun:"base_url,notnull,default:''" json:"baseUrl"`
	IsActive    bool           `bun:"is_active,notnull,default:true" json:"isActive"`
	RateLimitMs int            `bun:"rate_limit_ms,notnull,default:1000" json:"rateLimitMs"`
	Config      map[string]any `bun:"config,type:jsonb" json:"config,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// SourceSummary is the subset of a source embedded in price record responses.
type SourceSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
}

func (s *Source) Summary() *SourceSummary {
	if s == nil {
		return nil
	}
	return &SourceSummary{ID: s.ID, Name: s.Name, BaseURL: s.BaseURL}
}
