package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgwatch/pricewatch/pricewatch/catalog"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

type stubCatalog struct {
	resp *catalog.SearchResponse
	err  error
	opts catalog.SearchOptions
}

func (s *stubCatalog) SearchCards(_ context.Context, _ string, opts catalog.SearchOptions) (*catalog.SearchResponse, error) {
	s.opts = opts
	return s.resp, s.err
}

type stubAggregator struct {
	prices  map[string][]providers.Quote
	loadErr error
}

func (s *stubAggregator) LoadProviders(context.Context) error { return s.loadErr }

func (s *stubAggregator) GetAllPrices(context.Context, string) map[string][]providers.Quote {
	return s.prices
}

type recordingMirror struct {
	mu    sync.Mutex
	cards []string
}

func (m *recordingMirror) MirrorCardImage(_ context.Context, card *models.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, card.Name)
}

func catalogPage() *catalog.SearchResponse {
	return &catalog.SearchResponse{Data: []catalog.Card{
		{
			ID: "sv3pt5-25", Name: "Pikachu", Number: "25",
			Set:        catalog.Set{Name: "151", Series: "Scarlet & Violet"},
			Images:     catalog.CardImages{Large: "https://img/pika.png"},
			TCGPlayer:  &catalog.TCGPlayer{URL: "https://tcg/p", Prices: catalog.TCGPlayerPrices{Normal: &catalog.PriceTier{Market: 0.25}}},
			CardMarket: &catalog.CardMarket{URL: "https://cm/p", Prices: catalog.CardMarketPrices{AverageSellPrice: 0.3, TrendPrice: 0.35}},
		},
		{ID: "sv3pt5-26", Name: "Raichu", Number: "26", Set: catalog.Set{Name: "151"}},
	}}
}

func TestCatalogSearch(t *testing.T) {
	p, store := newMemPipeline(t)
	cat := &stubCatalog{resp: catalogPage()}
	mirror := &recordingMirror{}
	svc := NewService(p, store.Records(), cat, nil).WithImageMirror(mirror)

	got, err := svc.CatalogSearch(context.Background(), "pikachu")
	require.NoError(t, err)

	assert.Equal(t, catalog.SearchOptions{PageSize: 20, OrderBy: "-set.releaseDate"}, cat.opts)
	require.Len(t, got, 2)
	assert.Equal(t, "Pikachu", got[0].Name)
	assert.Equal(t, "Raichu", got[1].Name)
	assert.Len(t, got[0].PriceRecords, 3)
	assert.Empty(t, got[1].PriceRecords)
	for _, rec := range got[0].PriceRecords {
		assert.True(t, rec.InStock)
		require.NotNil(t, rec.Source)
	}
	assert.ElementsMatch(t, []string{"Pikachu", "Raichu"}, mirror.cards)

	// a repeat search inside the freshness window writes nothing new
	_, err = svc.CatalogSearch(context.Background(), "pikachu")
	require.NoError(t, err)
	assert.Equal(t, 3, store.RecordCount())
	assert.Equal(t, 2, store.CardCount())
	assert.Equal(t, 2, store.SourceCount())
	assert.Len(t, mirror.cards, 2, "images are mirrored only for new cards")
}

func TestCatalogSearchUpstreamError(t *testing.T) {
	p, store := newMemPipeline(t)
	svc := NewService(p, store.Records(), &stubCatalog{err: errors.New("503")}, nil)

	_, err := svc.CatalogSearch(context.Background(), "pikachu")
	assert.Error(t, err)
	assert.Zero(t, store.CardCount())
}

func TestScrape(t *testing.T) {
	p, store := newMemPipeline(t)
	agg := &stubAggregator{prices: map[string][]providers.Quote{
		"sample": {
			{Price: 5000, Currency: "JPY", Condition: "mint", InStock: true},
			{Price: 7000, Currency: "JPY", Condition: "played", InStock: false},
		},
		"broken": {},
	}}
	svc := NewService(p, store.Records(), nil, agg)

	got, err := svc.Scrape(context.Background(), ScrapeTarget{Query: "pikachu"})
	require.NoError(t, err)

	want := []ScrapeResult{
		{Card: "pikachu", Source: "sample", Price: 5000, Currency: "JPY", InStock: true},
		{Card: "pikachu", Source: "sample", Price: 7000, Currency: "JPY", InStock: false},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 2, store.RecordCount())

	card, err := store.Cards().GetBySetKey(context.Background(), "Unknown Set", "000")
	require.NoError(t, err)
	assert.Equal(t, "pikachu", card.Name)
}

func TestScrapeWithoutQuotesCreatesNothing(t *testing.T) {
	p, store := newMemPipeline(t)
	svc := NewService(p, store.Records(), nil, &stubAggregator{prices: map[string][]providers.Quote{"sample": {}}})

	got, err := svc.Scrape(context.Background(), ScrapeTarget{Query: "pikachu"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, store.CardCount())
}

func TestScrapeLoadError(t *testing.T) {
	p, store := newMemPipeline(t)
	svc := NewService(p, store.Records(), nil, &stubAggregator{loadErr: errors.New("db down")})

	_, err := svc.Scrape(context.Background(), ScrapeTarget{Query: "pikachu"})
	assert.Error(t, err)
}
