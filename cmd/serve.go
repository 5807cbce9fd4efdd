package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcgwatch/pricewatch/backend"
	"github.com/tcgwatch/pricewatch/backend/handlers"
	"github.com/tcgwatch/pricewatch/pricewatch/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic price refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := buildComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		if cfg.Scheduler.IntervalMinutes > 0 {
			interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
			c.scheduler.Start(ctx, interval)
			logger.LogSystem("Price refresh scheduled", slog.Duration("interval", interval))
		}

		app := backend.NewApp(cfg.Web, &handlers.WebApp{
			DB:        c.db,
			Cards:     c.cards,
			Sources:   c.sources,
			Records:   c.records,
			Search:    c.search,
			Ingest:    c.ingest,
			Jobs:      c.scheduler,
			Providers: c.manager,
			Version:   Version,
			Commit:    Commit,
		})

		address := net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port))
		logger.LogSystem("Starting backend server",
			slog.String("address", address),
			slog.String("version", Version),
			slog.String("commit", Commit))

		listenErr := make(chan error, 1)
		go func() {
			listenErr <- app.Listen(address)
		}()

		select {
		case err := <-listenErr:
			return fmt.Errorf("failed to start server: %w", err)
		case <-ctx.Done():
		}

		logger.LogSystem("Shutting down backend server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.LogError("Server shutdown error", err)
		}

		logger.LogSystem("Backend server shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
