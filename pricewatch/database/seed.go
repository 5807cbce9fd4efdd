package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
)

// SeedSampleData inserts the sample scraper source, one card and one price
// record. Running it twice leaves a single copy of each row.
func (db *DB) SeedSampleData(ctx context.Context) error {
	source := &models.Source{
		Name:        "sample",
		BaseURL:     "https://example.com",
		IsActive:    true,
		RateLimitMs: config.SampleSourceRateLimitMs,
		Config: map[string]any{
			"enabled":    true,
			"searchPath": "/search",
			"headers":    map[string]any{"Accept": "application/json"},
		},
	}
	if _, err := db.bunDB.NewInsert().
		Model(source).
		On("CONFLICT (name) DO UPDATE").
		Set("base_url = EXCLUDED.base_url").
		Returning("id").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed source: %w", err)
	}

	card := &models.Card{
		Name:         "Pikachu",
		JapaneseName: "ピカチュウ",
		SetName:      "Sample Set",
		SetNumber:    "001",
		Rarity:       "Common",
	}
	if _, err := db.bunDB.NewInsert().
		Model(card).
		On("CONFLICT (set_name, set_number) DO UPDATE").
		Set("name = EXCLUDED.name").
		Returning("id").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed card: %w", err)
	}

	exists, err := db.bunDB.NewSelect().
		Model((*models.PriceRecord)(nil)).
		Where("card_id = ?", card.ID).
		Where("source_id = ?", source.ID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check seeded price: %w", err)
	}
	if !exists {
		record := &models.PriceRecord{
			CardID:    card.ID,
			SourceID:  source.ID,
			Price:     5000,
			Currency:  "JPY",
			Condition: "mint",
			InStock:   true,
			ScrapedAt: time.Now(),
		}
		if _, err := db.bunDB.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed price record: %w", err)
		}
	}

	slog.Info("Sample data seeded",
		slog.String("type", "db"),
		slog.Int64("source_id", source.ID),
		slog.Int64("card_id", card.ID))
	return nil
}
