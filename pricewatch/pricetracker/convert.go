package pricetracker

import (
	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

const maxRecentSales = 3

// ConvertToInternalPrices flattens the per-marketplace price blocks of a card
// into quotes. Zero prices are skipped; recent eBay sales are copied as
// reported.
func ConvertToInternalPrices(card *Card) []providers.SourcedQuote {
	var quotes []providers.SourcedQuote
	add := func(source string, price float64, currency, condition string) {
		quotes = append(quotes, providers.SourcedQuote{
			Source: source,
			Quote: providers.Quote{
				Price:     price,
				Currency:  currency,
				Condition: condition,
				InStock:   true,
			},
		})
	}

	if tp := card.Prices.TCGPlayer; tp != nil {
		if tp.MarketPrice > 0 {
			condition := tp.SubTypeName
			if condition == "" {
				condition = "market"
			}
			add(config.SourceTCGPlayer, tp.MarketPrice, "USD", condition)
		}
		if tp.LowPrice > 0 {
			add(config.SourceTCGPlayer, tp.LowPrice, "USD", "low")
		}
	}

	if eb := card.Prices.EBay; eb != nil {
		if eb.AveragePrice > 0 {
			add(config.SourceEBay, eb.AveragePrice, "USD", "average")
		}
		sales := eb.RecentSales
		if len(sales) > maxRecentSales {
			sales = sales[:maxRecentSales]
		}
		for _, sale := range sales {
			add(config.SourceEBay, sale.Price, "USD", sale.Condition)
		}
	}

	if cm := card.Prices.CardMarket; cm != nil {
		if cm.AveragePrice > 0 {
			add(config.SourceCardMarket, cm.AveragePrice, "EUR", "average")
		}
		if cm.TrendPrice > 0 {
			add(config.SourceCardMarket, cm.TrendPrice, "EUR", "trend")
		}
	}

	return quotes
}
