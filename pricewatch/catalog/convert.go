package catalog

import (
	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

// ConvertToInternalCard maps an API card onto an unsaved card row.
func ConvertToInternalCard(card *Card) *models.Card {
	return &models.Card{
		Name:      card.Name,
		SetName:   card.Set.Name,
		SetNumber: card.Number,
		Rarity:    card.Rarity,
		CardType:  card.Supertype,
		Series:    card.Set.Series,
		ImageURL:  card.Images.Large,
	}
}

// ExtractPrices returns the marketplace prices embedded in an API card.
// Catalog listings are always reported in stock.
func ExtractPrices(card *Card) []providers.SourcedQuote {
	var quotes []providers.SourcedQuote
	add := func(source string, price float64, currency, condition, productURL string) {
		if price <= 0 {
			return
		}
		quotes = append(quotes, providers.SourcedQuote{
			Source: source,
			Quote: providers.Quote{
				Price:      price,
				Currency:   currency,
				Condition:  condition,
				InStock:    true,
				ProductURL: productURL,
			},
		})
	}

	if tp := card.TCGPlayer; tp != nil {
		for _, tier := range []struct {
			prices    *PriceTier
			condition string
		}{
			{tp.Prices.Holofoil, "holofoil"},
			{tp.Prices.Normal, "normal"},
			{tp.Prices.ReverseHolofoil, "reverse_holofoil"},
		} {
			if tier.prices != nil {
				add(config.SourceTCGPlayer, tier.prices.Market, "USD", tier.condition, tp.URL)
			}
		}
	}

	if cm := card.CardMarket; cm != nil {
		add(config.SourceCardMarket, cm.Prices.AverageSellPrice, "EUR", "average", cm.URL)
		add(config.SourceCardMarket, cm.Prices.TrendPrice, "EUR", "trend", cm.URL)
	}

	return quotes
}
