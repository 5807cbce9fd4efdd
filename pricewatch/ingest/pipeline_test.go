package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories/memstore"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories/mock"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

func newMemPipeline(t *testing.T) (*Pipeline, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewPipeline(store.Cards(), store.Sources(), store.Records()), store
}

// setClock points every time source of the pipeline at *now.
func setClock(p *Pipeline, now *time.Time) {
	clock := func() time.Time { return *now }
	p.now = clock
	p.gate.now = clock
}

func mustCard(t *testing.T, p *Pipeline, name, set, number string) *models.Card {
	t.Helper()
	card, _, err := p.ResolveCatalogCard(context.Background(), &models.Card{Name: name, SetName: set, SetNumber: number})
	if err != nil {
		t.Fatalf("ResolveCatalogCard() error = %v", err)
	}
	return card
}

func TestIngestDedupWindow(t *testing.T) {
	p, store := newMemPipeline(t)
	ctx := context.Background()
	card := mustCard(t, p, "Pikachu", "151", "25")

	now := time.Now()
	setClock(p, &now)
	quote := providers.Quote{Price: 4.2, Currency: "USD", Condition: "holofoil", InStock: true}

	tests := []struct {
		name           string
		advance        time.Duration
		condition      string
		wantSuppressed bool
		wantRecords    int
	}{
		{"first write", 0, "holofoil", false, 1},
		{"repeat inside window", 30 * time.Minute, "holofoil", true, 1},
		{"other condition is independent", 0, "normal", false, 2},
		{"repeat after window", 31 * time.Minute, "holofoil", false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)
			q := quote
			q.Condition = tt.condition

			out, err := p.Ingest(ctx, card, "TCGPlayer", q)
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if out.Suppressed != tt.wantSuppressed {
				t.Errorf("Suppressed = %v, want %v", out.Suppressed, tt.wantSuppressed)
			}
			if got := store.RecordCount(); got != tt.wantRecords {
				t.Errorf("records = %d, want %d", got, tt.wantRecords)
			}
		})
	}
}

func TestIngestStampsIngestionTime(t *testing.T) {
	p, store := newMemPipeline(t)
	ctx := context.Background()
	card := mustCard(t, p, "Pikachu", "151", "25")

	now := time.Now()
	setClock(p, &now)
	quote := providers.Quote{
		Price:     4.2,
		Currency:  "USD",
		Condition: "holofoil",
		InStock:   true,
		ScrapedAt: now.Add(-2 * time.Hour),
	}

	for i, wantSuppressed := range []bool{false, true, true} {
		out, err := p.Ingest(ctx, card, "TCGPlayer", quote)
		if err != nil {
			t.Fatalf("Ingest() #%d error = %v", i+1, err)
		}
		if out.Suppressed != wantSuppressed {
			t.Errorf("Ingest() #%d Suppressed = %v, want %v", i+1, out.Suppressed, wantSuppressed)
		}
		if i == 0 && !out.Record.ScrapedAt.Equal(now) {
			t.Errorf("ScrapedAt = %v, want ingestion time %v", out.Record.ScrapedAt, now)
		}
	}
	if got := store.RecordCount(); got != 1 {
		t.Errorf("records = %d, want 1", got)
	}
}

func TestIngestTouchesCard(t *testing.T) {
	p, store := newMemPipeline(t)
	ctx := context.Background()
	card := mustCard(t, p, "Pikachu", "151", "25")

	later := time.Now().Add(2 * time.Hour)
	setClock(p, &later)

	out, err := p.Ingest(ctx, card, "eBay", providers.Quote{Price: 10, Currency: "USD", Condition: "average", InStock: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !out.Record.ScrapedAt.Equal(later) {
		t.Errorf("ScrapedAt = %v, want %v", out.Record.ScrapedAt, later)
	}

	stored, err := store.Cards().GetByID(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.UpdatedAt.Equal(later) {
		t.Errorf("card updated_at = %v, want %v", stored.UpdatedAt, later)
	}
	if out.Source.BaseURL != "https://www.ebay.com" {
		t.Errorf("eBay base URL = %q", out.Source.BaseURL)
	}
}

func TestResolveSourceDefaults(t *testing.T) {
	p, _ := newMemPipeline(t)

	tests := []struct {
		name    string
		wantURL string
	}{
		{"TCGPlayer", "https://www.tcgplayer.com"},
		{"eBay", "https://www.ebay.com"},
		{"CardMarket", "https://www.cardmarket.com"},
		{"card-shop", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := p.ResolveSource(context.Background(), tt.name)
			if err != nil {
				t.Fatalf("ResolveSource() error = %v", err)
			}
			if source.BaseURL != tt.wantURL {
				t.Errorf("BaseURL = %q, want %q", source.BaseURL, tt.wantURL)
			}
			if !source.IsActive || source.RateLimitMs != 3000 {
				t.Errorf("source = %+v, want active with 3000ms delay", source)
			}
		})
	}
}

func TestResolveSourceConcurrently(t *testing.T) {
	p, store := newMemPipeline(t)

	const callers = 16
	ids := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source, err := p.ResolveSource(context.Background(), "eBay")
			if err != nil {
				t.Errorf("ResolveSource() error = %v", err)
				return
			}
			ids[i] = source.ID
		}()
	}
	wg.Wait()

	if got := store.SourceCount(); got != 1 {
		t.Fatalf("sources = %d, want 1", got)
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Errorf("caller %d got source %d, want %d", i, id, ids[0])
		}
	}
}

func TestResolveSourceConflictRereads(t *testing.T) {
	ctrl := gomock.NewController(t)
	sources := mock.NewMockSourceRepository(ctrl)
	p := NewPipeline(nil, sources, nil)

	winner := &models.Source{ID: 7, Name: "eBay"}
	gomock.InOrder(
		sources.EXPECT().GetByName(gomock.Any(), "eBay").Return(nil, &repositories.NotFoundError{Entity: "source", ID: "eBay"}),
		sources.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&repositories.ConflictError{Entity: "source", Field: "name", Value: "eBay"}),
		sources.EXPECT().GetByName(gomock.Any(), "eBay").Return(winner, nil),
	)

	got, err := p.ResolveSource(context.Background(), "eBay")
	if err != nil {
		t.Fatalf("ResolveSource() error = %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("ResolveSource() = %+v, want the re-read winner", got)
	}
}

func TestResolveSourcePropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	sources := mock.NewMockSourceRepository(ctrl)
	p := NewPipeline(nil, sources, nil)

	dbErr := errors.New("connection reset")
	sources.EXPECT().GetByName(gomock.Any(), "eBay").Return(nil, dbErr)

	if _, err := p.ResolveSource(context.Background(), "eBay"); !errors.Is(err, dbErr) {
		t.Errorf("ResolveSource() error = %v, want %v", err, dbErr)
	}
}

func TestIngestStoreFailureSkipsTouch(t *testing.T) {
	ctrl := gomock.NewController(t)
	cards := mock.NewMockCardRepository(ctrl)
	sources := mock.NewMockSourceRepository(ctrl)
	records := mock.NewMockPriceRecordRepository(ctrl)
	p := NewPipeline(cards, sources, records)

	sources.EXPECT().GetByName(gomock.Any(), "TCGPlayer").Return(&models.Source{ID: 3, Name: "TCGPlayer"}, nil)
	records.EXPECT().ExistsSince(gomock.Any(), int64(1), int64(3), "normal", gomock.Any()).Return(false, nil)
	records.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	cards.EXPECT().Touch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := p.Ingest(context.Background(), &models.Card{ID: 1}, "TCGPlayer", providers.Quote{Price: 1, Currency: "USD", Condition: "normal"})
	if err == nil {
		t.Fatal("Ingest() error = nil, want store failure")
	}
}
