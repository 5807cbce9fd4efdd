package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tcgwatch/pricewatch/pricewatch/catalog"
	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

type CatalogSearcher interface {
	SearchCards(ctx context.Context, query string, opts catalog.SearchOptions) (*catalog.SearchResponse, error)
}

type PriceAggregator interface {
	LoadProviders(ctx context.Context) error
	GetAllPrices(ctx context.Context, query string) map[string][]providers.Quote
}

// ImageMirror copies a card's image somewhere durable. Failures are the
// mirror's business; ingestion never waits on or fails because of it.
type ImageMirror interface {
	MirrorCardImage(ctx context.Context, card *models.Card)
}

// ScrapeResult is one stored quote from a free-text scrape.
type ScrapeResult struct {
	Card     string  `json:"card"`
	Source   string  `json:"source"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	InStock  bool    `json:"inStock"`
}

// Service runs the two ingestion entry points.
type Service struct {
	pipeline *Pipeline
	records  repositories.PriceRecordRepository
	catalog  CatalogSearcher
	scrapers PriceAggregator
	images   ImageMirror
}

func NewService(pipeline *Pipeline, records repositories.PriceRecordRepository, catalog CatalogSearcher, scrapers PriceAggregator) *Service {
	return &Service{
		pipeline: pipeline,
		records:  records,
		catalog:  catalog,
		scrapers: scrapers,
	}
}

// WithImageMirror enables mirroring of newly created cards' images.
func (s *Service) WithImageMirror(m ImageMirror) *Service {
	s.images = m
	return s
}

// CatalogSearch searches the card catalog, stores every returned card and
// its marketplace prices, and returns the cards in catalog order with their
// most recent price records.
func (s *Service) CatalogSearch(ctx context.Context, query string) ([]models.CardWithPrices, error) {
	resp, err := s.catalog.SearchCards(ctx, query, catalog.SearchOptions{
		PageSize: config.CatalogPageSize,
		OrderBy:  config.CatalogOrderBy,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	out := make([]models.CardWithPrices, len(resp.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxConcurrentSources)

	for i := range resp.Data {
		apiCard := &resp.Data[i]
		g.Go(func() error {
			card, created, err := s.pipeline.ResolveCatalogCard(gctx, catalog.ConvertToInternalCard(apiCard))
			if err != nil {
				return fmt.Errorf("failed to store card %s: %w", apiCard.ID, err)
			}
			if created && s.images != nil {
				s.images.MirrorCardImage(context.WithoutCancel(gctx), card)
			}

			if _, err := s.pipeline.IngestAll(gctx, card, catalog.ExtractPrices(apiCard)); err != nil {
				return err
			}

			records, err := s.records.GetLatestForCard(gctx, card.ID, config.SearchResultRecords)
			if err != nil {
				return err
			}
			out[i] = models.NewCardWithPrices(card, records)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Scrape runs every enabled scraper for target.Query and stores the quotes
// against the card the query resolves to. With no quotes at all nothing is
// written and no card is created.
func (s *Service) Scrape(ctx context.Context, target ScrapeTarget) ([]ScrapeResult, error) {
	if err := s.scrapers.LoadProviders(ctx); err != nil {
		return nil, err
	}

	prices := s.scrapers.GetAllPrices(ctx, target.Query)

	total := 0
	for _, quotes := range prices {
		total += len(quotes)
	}
	results := make([]ScrapeResult, 0, total)
	if total == 0 {
		return results, nil
	}

	card, err := s.pipeline.ResolveScrapedCard(ctx, target)
	if err != nil {
		return nil, err
	}

	for _, name := range sortedKeys(prices) {
		for _, quote := range prices[name] {
			if _, err := s.pipeline.Ingest(ctx, card, name, quote); err != nil {
				slog.Warn("Dropping scraped quote",
					slog.String("type", "error"),
					slog.String("provider", name),
					slog.Any("error", err))
				continue
			}
			results = append(results, ScrapeResult{
				Card:     card.Name,
				Source:   name,
				Price:    quote.Price,
				Currency: quote.Currency,
				InStock:  quote.InStock,
			})
		}
	}
	return results, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
