package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
)

const nameCandidates = 20

// ErrAmbiguousCard is returned when a free-text query matches no card and
// the placeholder card is already taken by another name.
var ErrAmbiguousCard = errors.New("no card matches the query; provide setName and setNumber")

// ResolveCatalogCard returns the stored card with the same set name and set
// number as card, inserting card when there is none. created reports
// whether this call inserted it.
func (p *Pipeline) ResolveCatalogCard(ctx context.Context, card *models.Card) (stored *models.Card, created bool, err error) {
	existing, err := p.cards.GetBySetKey(ctx, card.SetName, card.SetNumber)
	if err == nil {
		return existing, false, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, false, err
	}

	if err := p.cards.Create(ctx, card); err != nil {
		if !repositories.IsConflict(err) {
			return nil, false, err
		}
		existing, err = p.cards.GetBySetKey(ctx, card.SetName, card.SetNumber)
		return existing, false, err
	}
	return card, true, nil
}

// ScrapeTarget names the card a free-text scrape is for. SetName and
// SetNumber are optional; when both are set the card is resolved by its
// natural key instead of by name.
type ScrapeTarget struct {
	Query     string
	SetName   string
	SetNumber string
}

// ResolveScrapedCard finds the card a free-text query refers to. Cards whose
// name or Japanese name contain the query are ranked by fuzzy score and the
// best one wins. With no match a single placeholder card in the unknown set
// is created for the query; once that placeholder belongs to another name,
// further unmatched queries fail with ErrAmbiguousCard.
func (p *Pipeline) ResolveScrapedCard(ctx context.Context, target ScrapeTarget) (*models.Card, error) {
	query := strings.TrimSpace(target.Query)

	if target.SetName != "" && target.SetNumber != "" {
		card, _, err := p.ResolveCatalogCard(ctx, &models.Card{
			Name:      query,
			SetName:   target.SetName,
			SetNumber: target.SetNumber,
		})
		return card, err
	}

	candidates, err := p.cards.FindByName(ctx, query, nameCandidates)
	if err != nil {
		return nil, err
	}
	if best := BestNameMatch(query, candidates); best != nil {
		return best, nil
	}

	placeholder, created, err := p.ResolveCatalogCard(ctx, &models.Card{
		Name:      query,
		SetName:   config.PlaceholderSetName,
		SetNumber: config.PlaceholderSetNumber,
	})
	if err != nil {
		return nil, err
	}
	if !created && !strings.EqualFold(placeholder.Name, query) {
		return nil, ErrAmbiguousCard
	}
	return placeholder, nil
}

// cardNames exposes each card's name and Japanese name to the fuzzy matcher.
type cardNames struct {
	entries []string
	owners  []int
}

func newCardNames(cards []*models.Card) cardNames {
	var n cardNames
	for i, c := range cards {
		n.entries = append(n.entries, c.Name)
		n.owners = append(n.owners, i)
		if c.JapaneseName != "" {
			n.entries = append(n.entries, c.JapaneseName)
			n.owners = append(n.owners, i)
		}
	}
	return n
}

func (n cardNames) String(i int) string { return n.entries[i] }
func (n cardNames) Len() int            { return len(n.entries) }

// BestNameMatch returns the candidate whose name matches query most
// closely, or nil when there are no candidates. Ties keep the candidates'
// order.
func BestNameMatch(query string, candidates []*models.Card) *models.Card {
	if len(candidates) == 0 {
		return nil
	}

	names := newCardNames(candidates)
	matches := fuzzy.FindFrom(query, names)
	if len(matches) == 0 {
		return candidates[0]
	}
	return candidates[names.owners[matches[0].Index]]
}
