package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcgwatch/pricewatch/pricewatch/ingest"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh prices for one batch of stale cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := buildComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		report, err := c.scheduler.Run(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

var (
	scrapeSetName   string
	scrapeSetNumber string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Query every enabled provider and store the quotes found",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := buildComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		results, err := c.ingest.Scrape(ctx, ingest.ScrapeTarget{
			Query:     strings.Join(args, " "),
			SetName:   scrapeSetName,
			SetNumber: scrapeSetNumber,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, results)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the card catalog and store the cards and prices returned",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := buildComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		cards, err := c.ingest.CatalogSearch(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, cards)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeSetName, "set", "", "set name of the card being priced")
	scrapeCmd.Flags().StringVar(&scrapeSetNumber, "number", "", "collector number within the set")

	rootCmd.AddCommand(refreshCmd, scrapeCmd, searchCmd)
}
