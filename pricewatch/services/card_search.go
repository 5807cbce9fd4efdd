package services

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
)

// scanLimit bounds how many recent cards are considered for typo-tolerant
// matching on top of the substring matches.
const scanLimit = 500

// CardSearch searches cards already stored locally. It never calls out to
// the catalog.
type CardSearch struct {
	cards repositories.CardRepository
}

func NewCardSearch(cards repositories.CardRepository) *CardSearch {
	return &CardSearch{cards: cards}
}

type searchableCards []*models.Card

func (c searchableCards) String(i int) string {
	if c[i].JapaneseName != "" {
		return c[i].Name + " " + c[i].JapaneseName
	}
	return c[i].Name
}

func (c searchableCards) Len() int { return len(c) }

// Search returns up to limit cards. An empty query lists the most recently
// updated cards; otherwise substring matches and fuzzy matches among recent
// cards are ranked together by fuzzy score.
func (s *CardSearch) Search(ctx context.Context, query string, limit int) ([]*models.Card, error) {
	if limit <= 0 || limit > config.LocalSearchLimit {
		limit = config.LocalSearchLimit
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return s.cards.List(ctx, limit)
	}

	exact, err := s.cards.FindByName(ctx, query, scanLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.cards.List(ctx, scanLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(exact)+len(recent))
	var pool searchableCards
	for _, c := range append(exact, recent...) {
		if !seen[c.ID] {
			seen[c.ID] = true
			pool = append(pool, c)
		}
	}

	matches := fuzzy.FindFrom(query, pool)
	out := make([]*models.Card, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, pool[m.Index])
	}
	return out, nil
}
