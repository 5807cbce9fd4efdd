package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/aggregator"
	"github.com/tcgwatch/pricewatch/pricewatch/catalog"
	"github.com/tcgwatch/pricewatch/pricewatch/database"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/ingest"
	"github.com/tcgwatch/pricewatch/pricewatch/logger"
	"github.com/tcgwatch/pricewatch/pricewatch/pricetracker"
	"github.com/tcgwatch/pricewatch/pricewatch/ratelimit"
	"github.com/tcgwatch/pricewatch/pricewatch/scheduler"
	"github.com/tcgwatch/pricewatch/pricewatch/services"
)

// components is everything a command may need, wired once from config.
type components struct {
	db        *database.DB
	cards     repositories.CardRepository
	sources   repositories.SourceRepository
	records   repositories.PriceRecordRepository
	manager   *aggregator.Manager
	ingest    *ingest.Service
	scheduler *scheduler.Scheduler
	search    *services.CardSearch
	images    *services.ImageMirror
}

func openDatabase(ctx context.Context, cfg *pricewatch.Config) (*database.DB, error) {
	start := time.Now()
	db, err := database.New(ctx, database.DBConfig(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.LogSystem("Database connected", "took", time.Since(start))

	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func buildComponents(ctx context.Context, cfg *pricewatch.Config) (*components, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &components{
		db:      db,
		cards:   repositories.NewCardRepository(db.BunDB()),
		sources: repositories.NewSourceRepository(db.BunDB()),
		records: repositories.NewPriceRecordRepository(db.BunDB()),
	}
	c.search = services.NewCardSearch(c.cards)

	c.manager = aggregator.NewManager(c.sources, ratelimit.New())
	if err := c.manager.LoadProviders(ctx); err != nil {
		logger.LogError("Failed to load providers", err)
	}

	pipeline := ingest.NewPipeline(c.cards, c.sources, c.records)
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	c.ingest = ingest.NewService(pipeline, c.records, catalogClient, c.manager)

	images, err := services.NewImageMirror(ctx, cfg.Images)
	if err != nil {
		db.Close()
		return nil, err
	}
	if images != nil {
		c.images = images
		c.ingest.WithImageMirror(images)
	}

	tracker := pricetracker.NewClient(cfg.PriceTracker.BaseURL, cfg.PriceTracker.APIKey)
	c.scheduler = scheduler.New(c.cards, pipeline, tracker)

	notifier, err := services.NewRunNotifier(cfg.Notify)
	if err != nil {
		db.Close()
		return nil, err
	}
	if notifier != nil {
		c.scheduler.WithNotifier(notifier)
	}

	return c, nil
}

// Close waits for pending image uploads and closes the database.
func (c *components) Close() {
	if c.images != nil {
		c.images.Wait()
	}
	c.db.Close()
}
