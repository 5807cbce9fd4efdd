// Package scheduler refreshes prices for cards that have gone stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/ingest"
	"github.com/tcgwatch/pricewatch/pricewatch/logger"
	"github.com/tcgwatch/pricewatch/pricewatch/pricetracker"
)

const NotConfiguredMessage = "Pokemon Price Tracker API key not configured or invalid"

var ErrRunInProgress = errors.New("a price refresh is already running")

type PriceTracker interface {
	ValidateAPIKey(ctx context.Context) bool
	SearchPrices(ctx context.Context, query string, opts pricetracker.SearchOptions) (*pricetracker.SearchResponse, error)
}

// Notifier is told about every finished run.
type Notifier interface {
	NotifyRun(ctx context.Context, report *Report) error
}

// Report summarizes one run. Total counts the cards attempted, Updated the
// ones the tracker had data for.
type Report struct {
	RunID   string `json:"runId"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
	Total   int    `json:"total"`
}

type Scheduler struct {
	cards    repositories.CardRepository
	pipeline *ingest.Pipeline
	tracker  PriceTracker
	notifier Notifier

	threshold time.Duration
	batchSize int
	delay     time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	running atomic.Bool
}

func New(cards repositories.CardRepository, pipeline *ingest.Pipeline, tracker PriceTracker) *Scheduler {
	return &Scheduler{
		cards:     cards,
		pipeline:  pipeline,
		tracker:   tracker,
		threshold: config.StalenessThreshold,
		batchSize: config.StaleBatchSize,
		delay:     config.StaleInterCardDelay,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func (s *Scheduler) WithNotifier(n Notifier) *Scheduler {
	s.notifier = n
	return s
}

// Start runs Run every interval until ctx ends.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
					logger.LogError("Scheduled price refresh failed", err)
				}
			}
		}
	}()
}

// Run refreshes one batch of stale cards, one card at a time with a pause
// between cards. Without a usable tracker key the run is a no-op that
// still succeeds. A failing card is logged and skipped.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	report := &Report{RunID: uuid.NewString()}

	if !s.tracker.ValidateAPIKey(ctx) {
		report.Message = NotConfiguredMessage
		logger.LogSystem("Skipping price refresh", slog.String("run", report.RunID), slog.String("reason", report.Message))
		return report, nil
	}

	cards, err := s.cards.GetStale(ctx, s.now().Add(-s.threshold), s.batchSize)
	if err != nil {
		logger.LogJob("price-refresh", time.Since(start), err, slog.String("run", report.RunID))
		return nil, fmt.Errorf("failed to load stale cards: %w", err)
	}
	if len(cards) > s.batchSize {
		cards = cards[:s.batchSize]
	}
	report.Total = len(cards)

	for i, card := range cards {
		updated, err := s.refresh(ctx, card)
		switch {
		case err != nil:
			logger.LogError("Failed to refresh card prices", err,
				slog.String("run", report.RunID),
				slog.Int64("card_id", card.ID))
		case updated:
			report.Updated++
		}

		if i < len(cards)-1 {
			if err := s.sleep(ctx, s.delay); err != nil {
				report.Message = fmt.Sprintf("Interrupted after %d of %d cards", i+1, len(cards))
				logger.LogJob("price-refresh", time.Since(start), err, slog.String("run", report.RunID))
				return report, err
			}
		}
	}

	report.Message = fmt.Sprintf("Successfully updated prices for %d cards", report.Updated)
	logger.LogJob("price-refresh", time.Since(start), nil,
		slog.String("run", report.RunID),
		slog.Int("updated", report.Updated),
		slog.Int("total", report.Total))

	if s.notifier != nil {
		if err := s.notifier.NotifyRun(ctx, report); err != nil {
			logger.LogError("Failed to send run notification", err, slog.String("run", report.RunID))
		}
	}
	return report, nil
}

func (s *Scheduler) refresh(ctx context.Context, card *models.Card) (bool, error) {
	resp, err := s.tracker.SearchPrices(ctx, card.Name+" "+card.SetName, pricetracker.SearchOptions{Limit: 1})
	if err != nil {
		return false, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return false, nil
	}

	quotes := pricetracker.ConvertToInternalPrices(&resp.Data[0])
	if _, err := s.pipeline.IngestAll(ctx, card, quotes); err != nil {
		return false, err
	}
	if err := s.cards.Touch(ctx, card.ID, s.now()); err != nil {
		return false, err
	}
	return true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
