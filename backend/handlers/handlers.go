package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/tcgwatch/pricewatch/backend/models"
	"github.com/tcgwatch/pricewatch/backend/utils"
	"github.com/tcgwatch/pricewatch/pricewatch/aggregator"
	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/ingest"
	"github.com/tcgwatch/pricewatch/pricewatch/scheduler"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CardSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Card, error)
}

type Ingestor interface {
	CatalogSearch(ctx context.Context, query string) ([]models.CardWithPrices, error)
	Scrape(ctx context.Context, target ingest.ScrapeTarget) ([]ingest.ScrapeResult, error)
}

type JobRunner interface {
	Run(ctx context.Context) (*scheduler.Report, error)
}

type ProviderAdmin interface {
	Status() []aggregator.ProviderStatus
	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
}

// WebApp represents the web application with all dependencies
type WebApp struct {
	DB        Pinger
	Cards     repositories.CardRepository
	Sources   repositories.SourceRepository
	Records   repositories.PriceRecordRepository
	Search    CardSearcher
	Ingest    Ingestor
	Jobs      JobRunner
	Providers ProviderAdmin
	Version   string
	Commit    string
}

// parseInt64 is a utility function to parse int64 from string
func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func internalError(c *fiber.Ctx, msg string, err error, attrs ...any) error {
	attrs = append(attrs,
		slog.String("type", "http"),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	slog.Error(msg, attrs...)
	return utils.SendInternalServerError(c)
}

func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := webmodels.HealthResponse{
			Status:    "healthy",
			Version:   webApp.Version,
			Commit:    webApp.Commit,
			Database:  "ok",
			Timestamp: time.Now(),
		}
		if err := webApp.DB.Ping(c.Context()); err != nil {
			slog.Warn("Health check database ping failed",
				slog.String("type", "db"),
				slog.String("error", err.Error()))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			return utils.SendJSON(c, fiber.StatusServiceUnavailable, resp)
		}
		return utils.SendOK(c, resp)
	}
}

// CardsList ranks stored cards against q without calling any upstream API.
func CardsList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", config.LocalSearchLimit)
		if limit <= 0 {
			return utils.SendBadRequest(c, "Invalid limit", map[string]string{"limit": c.Query("limit")})
		}

		cards, err := webApp.Search.Search(c.Context(), strings.TrimSpace(c.Query("q")), limit)
		if err != nil {
			return internalError(c, "Failed to list cards", err)
		}
		return utils.SendOK(c, cards)
	}
}

func CardsSearch(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return utils.SendBadRequest(c, "Search query is required", nil)
		}

		cards, err := webApp.Ingest.CatalogSearch(c.Context(), query)
		if err != nil {
			return internalError(c, "Catalog search failed", err, slog.String("query", query))
		}
		return utils.SendOK(c, cards)
	}
}

func CardsDetail(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()

		cardIDStr := c.Params("id")
		cardID, err := parseInt64(cardIDStr)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "INVALID_CARD_ID", "Invalid card ID", map[string]string{
				"card_id": cardIDStr,
			})
		}

		card, err := webApp.Cards.GetByID(ctx, cardID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendError(c, fiber.StatusNotFound, "CARD_NOT_FOUND", "Card not found", nil)
			}
			return internalError(c, "Failed to get card details", err, slog.Int64("card_id", cardID))
		}

		records, err := webApp.Records.GetLatestForCard(ctx, cardID, config.CardDetailRecords)
		if err != nil {
			return internalError(c, "Failed to get card prices", err, slog.Int64("card_id", cardID))
		}
		return utils.SendOK(c, models.NewCardWithPrices(card, records))
	}
}

// CardPrices serves a card's price history, newest first.
func CardPrices(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()

		cardIDStr := c.Params("id")
		cardID, err := parseInt64(cardIDStr)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "INVALID_CARD_ID", "Invalid card ID", map[string]string{
				"card_id": cardIDStr,
			})
		}

		days := c.QueryInt("days", config.HistoryDefaultDays)
		if days <= 0 {
			return utils.SendBadRequest(c, "Invalid days", map[string]string{"days": c.Query("days")})
		}

		if _, err := webApp.Cards.GetByID(ctx, cardID); err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendError(c, fiber.StatusNotFound, "CARD_NOT_FOUND", "Card not found", nil)
			}
			return internalError(c, "Failed to get card", err, slog.Int64("card_id", cardID))
		}

		records, err := webApp.Records.GetHistory(ctx, cardID, repositories.HistoryFilter{
			Since:      time.Now().AddDate(0, 0, -days),
			SourceName: strings.TrimSpace(c.Query("source")),
			Currency:   strings.ToUpper(strings.TrimSpace(c.Query("currency"))),
			Limit:      config.HistoryMaxRecords,
		})
		if err != nil {
			return internalError(c, "Failed to get price history", err, slog.Int64("card_id", cardID))
		}

		views := make([]models.PriceRecordView, 0, len(records))
		for _, r := range records {
			views = append(views, r.View())
		}
		return utils.SendOK(c, webmodels.PriceHistoryResponse{CardID: cardID, Days: days, Records: views})
	}
}

func Scrape(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.ScrapeRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		req.Query = strings.TrimSpace(req.Query)
		if req.Query == "" {
			return utils.SendBadRequest(c, "Query is required", nil)
		}

		results, err := webApp.Ingest.Scrape(c.Context(), ingest.ScrapeTarget{
			Query:     req.Query,
			SetName:   strings.TrimSpace(req.SetName),
			SetNumber: strings.TrimSpace(req.SetNumber),
		})
		if err != nil {
			if errors.Is(err, ingest.ErrAmbiguousCard) {
				return utils.SendBadRequest(c, "Card could not be identified; provide setName and setNumber", nil)
			}
			return internalError(c, "Scrape failed", err, slog.String("query", req.Query))
		}
		if results == nil {
			results = []ingest.ScrapeResult{}
		}
		return utils.SendOK(c, webmodels.ScrapeResponse{Message: "Scraping completed", Results: results})
	}
}

func UpdatePrices(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := webApp.Jobs.Run(c.Context())
		if err != nil {
			if errors.Is(err, scheduler.ErrRunInProgress) {
				return utils.SendConflict(c, "A price update is already running")
			}
			return internalError(c, "Price update failed", err)
		}
		return utils.SendOK(c, webmodels.JobResponse{
			RunID:   report.RunID,
			Message: report.Message,
			Updated: report.Updated,
			Total:   report.Total,
		})
	}
}

func SourcesList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sources, err := webApp.Sources.GetAll(c.Context())
		if err != nil {
			return internalError(c, "Failed to list sources", err)
		}

		status := make(map[string]aggregator.ProviderStatus)
		for _, s := range webApp.Providers.Status() {
			status[s.Name] = s
		}

		views := make([]webmodels.SourceView, 0, len(sources))
		for _, src := range sources {
			view := webmodels.SourceView{Source: src}
			if s, ok := status[src.Name]; ok {
				view.Provider = &s
			}
			views = append(views, view)
		}
		return utils.SendOK(c, views)
	}
}

func SourceEnable(webApp *WebApp) fiber.Handler {
	return setSourceActive(webApp, true)
}

func SourceDisable(webApp *WebApp) fiber.Handler {
	return setSourceActive(webApp, false)
}

func setSourceActive(webApp *WebApp, active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")

		toggle := webApp.Providers.Disable
		if active {
			toggle = webApp.Providers.Enable
		}
		if err := toggle(c.Context(), name); err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "Source not found")
			}
			return internalError(c, "Failed to update source", err, slog.String("source", name))
		}

		src, err := webApp.Sources.GetByName(c.Context(), name)
		if err != nil {
			return internalError(c, "Failed to reload source", err, slog.String("source", name))
		}
		return utils.SendOK(c, src)
	}
}
