package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PriceRecord is one observed quote. Rows are append-only.
type PriceRecord struct {
	bun.BaseModel `bun:"table:price_records,alias:pr"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	CardID     int64     `bun:"card_id,notnull" json:"cardId"`
	SourceID   int64     `bun:"source_id,notnull" json:"sourceId"`
	Price      float64   `bun:"price,notnull" json:"price"`
	Currency   string    `bun:"currency,notnull" json:"currency"`
	Condition  string    `bun:"condition,notnull,default:''" json:"condition,omitempty"`
	InStock    bool      `bun:"in_stock,notnull,default:true" json:"inStock"`
	ProductURL string    `bun:"product_url,nullzero" json:"productUrl,omitempty"`
	ScrapedAt  time.Time `bun:"scraped_at,notnull,default:current_timestamp" json:"scrapedAt"`

	Card   *Card   `bun:"rel:belongs-to,join:card_id=id" json:"-"`
	Source *Source `bun:"rel:belongs-to,join:source_id=id" json:"-"`
}

// PriceRecordView is the JSON shape served to clients.
type PriceRecordView struct {
	ID         int64          `json:"id"`
	Price      float64        `json:"price"`
	Currency   string         `json:"currency"`
	Condition  string         `json:"condition,omitempty"`
	InStock    bool           `json:"inStock"`
	ProductURL string         `json:"productUrl,omitempty"`
	ScrapedAt  time.Time      `json:"scrapedAt"`
	Source     *SourceSummary `json:"source,omitempty"`
}

func (p *PriceRecord) View() PriceRecordView {
	return PriceRecordView{
		ID:         p.ID,
		Price:      p.Price,
		Currency:   p.Currency,
		Condition:  p.Condition,
		InStock:    p.InStock,
		ProductURL: p.ProductURL,
		ScrapedAt:  p.ScrapedAt,
		Source:     p.Source.Summary(),
	}
}

// CardWithPrices is a card together with its most recent price records.
type CardWithPrices struct {
	*Card
	PriceRecords []PriceRecordView `json:"priceRecords"`
}

func NewCardWithPrices(card *Card, records []*PriceRecord) CardWithPrices {
	views := make([]PriceRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return CardWithPrices{Card: card, PriceRecords: views}
}
