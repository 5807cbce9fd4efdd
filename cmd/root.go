package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/logger"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

const appName = "PriceWatch"

var (
	configPath string
	cfg        *pricewatch.Config
)

var rootCmd = &cobra.Command{
	Use:           "pricewatch",
	Short:         "Trading card price comparison backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := pricewatch.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		opts := &slog.HandlerOptions{
			Level:     cfg.Log.Level,
			AddSource: cfg.Log.AddSource,
		}
		var handler slog.Handler = logger.NewHandler(appName, opts)
		if cfg.Log.Format == "json" {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		}
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
}

// Execute runs the CLI until it finishes or the process receives SIGINT or
// SIGTERM, which cancels the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", slog.String("type", "error"), slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
