// Package ingest turns provider quotes into persisted price records. Every
// write goes through the same steps: resolve the source, check the dedup
// gate, insert, touch the card.
package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

const lockStripes = 64

// Outcome is what happened to one ingested quote.
type Outcome struct {
	Source     *models.Source
	Record     *models.PriceRecord
	Suppressed bool
}

type Pipeline struct {
	cards   repositories.CardRepository
	sources repositories.SourceRepository
	records repositories.PriceRecordRepository
	gate    *DedupGate
	now     func() time.Time

	// serializes check-then-insert for the same dedup key within this process
	locks [lockStripes]sync.Mutex
}

func NewPipeline(cards repositories.CardRepository, sources repositories.SourceRepository, records repositories.PriceRecordRepository) *Pipeline {
	return &Pipeline{
		cards:   cards,
		sources: sources,
		records: records,
		gate:    NewDedupGate(records, config.FreshnessWindow),
		now:     time.Now,
	}
}

// ResolveSource returns the named source, creating it on first use. When
// two callers create the same source at once the loser re-reads the row
// the winner inserted.
func (p *Pipeline) ResolveSource(ctx context.Context, name string) (*models.Source, error) {
	source, err := p.sources.GetByName(ctx, name)
	if err == nil {
		return source, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}

	source = &models.Source{
		Name:        name,
		BaseURL:     config.DefaultSourceURLs[name],
		IsActive:    true,
		RateLimitMs: config.DefaultSourceRateLimitMs,
	}
	if err := p.sources.Create(ctx, source); err != nil {
		if !repositories.IsConflict(err) {
			return nil, err
		}
		slog.Debug("Source created concurrently, re-reading",
			slog.String("type", "db"),
			slog.String("provider", name))
		return p.sources.GetByName(ctx, name)
	}

	slog.Info("Source created",
		slog.String("type", "db"),
		slog.String("provider", name),
		slog.String("base_url", source.BaseURL))
	return source, nil
}

// Ingest records quote for card as reported by sourceName. A quote already
// seen inside the freshness window is reported as suppressed, not as an
// error. The card's updated_at is touched either way. Records are stamped
// with the ingestion time; the quote's own ScrapedAt is ignored so the
// freshness window always measures from the same clock.
func (p *Pipeline) Ingest(ctx context.Context, card *models.Card, sourceName string, quote providers.Quote) (*Outcome, error) {
	source, err := p.ResolveSource(ctx, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source %s: %w", sourceName, err)
	}

	out := &Outcome{Source: source}

	mu := p.lockFor(card.ID, source.ID, quote.Condition)
	mu.Lock()
	fresh, err := p.gate.Fresh(ctx, card.ID, source.ID, quote.Condition)
	if err == nil && !fresh {
		out.Record = &models.PriceRecord{
			CardID:     card.ID,
			SourceID:   source.ID,
			Price:      quote.Price,
			Currency:   quote.Currency,
			Condition:  quote.Condition,
			InStock:    quote.InStock,
			ProductURL: quote.ProductURL,
			ScrapedAt:  p.now(),
		}
		err = p.records.Create(ctx, out.Record)
	}
	mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to store price for card %d: %w", card.ID, err)
	}
	out.Suppressed = fresh

	now := p.now()
	if err := p.cards.Touch(ctx, card.ID, now); err != nil {
		return nil, fmt.Errorf("failed to touch card %d: %w", card.ID, err)
	}
	card.UpdatedAt = now

	return out, nil
}

// IngestAll ingests every quote and returns how many were written. The
// first failure stops the batch.
func (p *Pipeline) IngestAll(ctx context.Context, card *models.Card, quotes []providers.SourcedQuote) (int, error) {
	written := 0
	for _, q := range quotes {
		out, err := p.Ingest(ctx, card, q.Source, q.Quote)
		if err != nil {
			return written, err
		}
		if !out.Suppressed {
			written++
		}
	}
	return written, nil
}

func (p *Pipeline) lockFor(cardID, sourceID int64, condition string) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%d|%s", cardID, sourceID, condition)
	return &p.locks[h.Sum32()%lockStripes]
}
