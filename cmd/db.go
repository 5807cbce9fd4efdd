package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/logger"
)

var resetTables bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if resetTables {
			if err := db.ResetTables(ctx); err != nil {
				return err
			}
		}

		stale, err := db.StaleCardCount(ctx, time.Now().Add(-config.StalenessThreshold))
		if err != nil {
			return err
		}
		logger.LogSystem("Schema ready", slog.Int64("stale_cards", stale))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample source, card and price record",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.SeedSampleData(ctx); err != nil {
			return err
		}
		logger.LogSystem("Sample data seeded")
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&resetTables, "reset", false, "truncate every table after creating it")
	rootCmd.AddCommand(schemaCmd, seedCmd)
}
