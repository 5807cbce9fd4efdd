// Package backend serves the price comparison HTTP API.
package backend

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tcgwatch/pricewatch/backend/handlers"
	"github.com/tcgwatch/pricewatch/backend/middleware"
	"github.com/tcgwatch/pricewatch/backend/utils"
	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/config"
)

const appName = "PriceWatch API"

// NewApp builds the fiber application with middleware and every route
// registered. The caller owns Listen and Shutdown.
func NewApp(cfg pricewatch.WebConfig, webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          middleware.CustomErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             config.MaxRequestSize,
		ReadTimeout:           config.RequestReadTimeout,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggingMiddleware())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.RequestIDHeader,
	}))

	setupRoutes(app, cfg, webApp)
	return app
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, cfg pricewatch.WebConfig, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	api := app.Group("/api", middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))

	cards := api.Group("/cards")
	cards.Get("/", handlers.CardsList(webApp))
	cards.Get("/search", handlers.CardsSearch(webApp))
	cards.Get("/:id", handlers.CardsDetail(webApp))
	cards.Get("/:id/prices", handlers.CardPrices(webApp))

	api.Post("/scrape", handlers.Scrape(webApp))
	api.Post("/jobs/update-prices", handlers.UpdatePrices(webApp))

	sources := api.Group("/sources")
	sources.Get("/", handlers.SourcesList(webApp))
	sources.Post("/:name/enable", handlers.SourceEnable(webApp))
	sources.Post("/:name/disable", handlers.SourceDisable(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", utils.GetIPAddress(c)),
		)
		return utils.SendNotFound(c, "The requested endpoint does not exist")
	})
}
