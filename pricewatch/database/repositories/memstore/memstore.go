// Package memstore implements the repository interfaces in memory. It backs
// package tests that need real pipeline behaviour without PostgreSQL.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
)

// Store holds every table. Use the Cards, Sources and Records views to get
// the repository implementations.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	cards   []*models.Card
	sources []*models.Source
	records []*models.PriceRecord
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Cards() repositories.CardRepository          { return cardRepo{s} }
func (s *Store) Sources() repositories.SourceRepository      { return sourceRepo{s} }
func (s *Store) Records() repositories.PriceRecordRepository { return recordRepo{s} }

// RecordCount returns the number of stored price records.
func (s *Store) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// CardCount returns the number of stored cards.
func (s *Store) CardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// SourceCount returns the number of stored sources.
func (s *Store) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

type cardRepo struct{ s *Store }

func (r cardRepo) Create(_ context.Context, card *models.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.cards {
		if c.SetName == card.SetName && c.SetNumber == card.SetNumber {
			return &repositories.ConflictError{Entity: "card", Field: "set_key", Value: card.SetName + "/" + card.SetNumber}
		}
	}
	now := time.Now()
	card.ID = r.s.id()
	card.CreatedAt = now
	card.UpdatedAt = now
	stored := *card
	r.s.cards = append(r.s.cards, &stored)
	return nil
}

func (r cardRepo) GetByID(_ context.Context, id int64) (*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cards {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "card", ID: id}
}

func (r cardRepo) GetBySetKey(_ context.Context, setName, setNumber string) (*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cards {
		if c.SetName == setName && c.SetNumber == setNumber {
			out := *c
			return &out, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "card", ID: setName + "/" + setNumber}
}

func (r cardRepo) FindByName(_ context.Context, query string, limit int) ([]*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var out []*models.Card
	for _, c := range r.s.cards {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.JapaneseName), q) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return truncate(out, limit), nil
}

func (r cardRepo) List(_ context.Context, limit int) ([]*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Card, 0, len(r.s.cards))
	for _, c := range r.s.cards {
		cp := *c
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return truncate(out, limit), nil
}

func (r cardRepo) Touch(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cards {
		if c.ID == id {
			c.UpdatedAt = at
			return nil
		}
	}
	return &repositories.NotFoundError{Entity: "card", ID: id}
}

func (r cardRepo) GetStale(_ context.Context, cutoff time.Time, limit int) ([]*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	fresh := make(map[int64]bool)
	for _, rec := range r.s.records {
		if !rec.ScrapedAt.Before(cutoff) {
			fresh[rec.CardID] = true
		}
	}

	var out []*models.Card
	for _, c := range r.s.cards {
		if !fresh[c.ID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return truncate(out, limit), nil
}

type sourceRepo struct{ s *Store }

func (r sourceRepo) Create(_ context.Context, source *models.Source) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, src := range r.s.sources {
		if src.Name == source.Name {
			return &repositories.ConflictError{Entity: "source", Field: "name", Value: source.Name}
		}
	}
	now := time.Now()
	source.ID = r.s.id()
	source.CreatedAt = now
	source.UpdatedAt = now
	stored := *source
	r.s.sources = append(r.s.sources, &stored)
	return nil
}

func (r sourceRepo) GetByName(_ context.Context, name string) (*models.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if src := r.s.sourceByName(name); src != nil {
		out := *src
		return &out, nil
	}
	return nil, &repositories.NotFoundError{Entity: "source", ID: name}
}

func (r sourceRepo) GetActive(_ context.Context) ([]*models.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Source
	for _, src := range r.s.sources {
		if src.IsActive {
			cp := *src
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r sourceRepo) GetAll(_ context.Context) ([]*models.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Source, 0, len(r.s.sources))
	for _, src := range r.s.sources {
		cp := *src
		out = append(out, &cp)
	}
	return out, nil
}

func (r sourceRepo) SetActive(_ context.Context, name string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	src := r.s.sourceByName(name)
	if src == nil {
		return &repositories.NotFoundError{Entity: "source", ID: name}
	}
	src.IsActive = active
	src.UpdatedAt = time.Now()
	return nil
}

func (s *Store) sourceByName(name string) *models.Source {
	for _, src := range s.sources {
		if src.Name == name {
			return src
		}
	}
	return nil
}

type recordRepo struct{ s *Store }

func (r recordRepo) Create(_ context.Context, record *models.PriceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	record.ID = r.s.id()
	if record.ScrapedAt.IsZero() {
		record.ScrapedAt = time.Now()
	}
	stored := *record
	stored.Card, stored.Source = nil, nil
	r.s.records = append(r.s.records, &stored)
	return nil
}

func (r recordRepo) ExistsSince(_ context.Context, cardID, sourceID int64, condition string, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if rec.CardID == cardID && rec.SourceID == sourceID && rec.Condition == condition && !rec.ScrapedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r recordRepo) GetLatestForCard(ctx context.Context, cardID int64, limit int) ([]*models.PriceRecord, error) {
	return r.GetHistory(ctx, cardID, repositories.HistoryFilter{Limit: limit})
}

func (r recordRepo) GetHistory(_ context.Context, cardID int64, filter repositories.HistoryFilter) ([]*models.PriceRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.PriceRecord
	for _, rec := range r.s.records {
		if rec.CardID != cardID {
			continue
		}
		if !filter.Since.IsZero() && rec.ScrapedAt.Before(filter.Since) {
			continue
		}
		if filter.Currency != "" && rec.Currency != filter.Currency {
			continue
		}

		var source *models.Source
		for _, src := range r.s.sources {
			if src.ID == rec.SourceID {
				cp := *src
				source = &cp
			}
		}
		if filter.SourceName != "" && (source == nil || source.Name != filter.SourceName) {
			continue
		}

		cp := *rec
		cp.Source = source
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScrapedAt.After(out[j].ScrapedAt) })
	return truncate(out, filter.Limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
