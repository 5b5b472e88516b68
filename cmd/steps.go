package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/coworking-map/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the coworking directory into the raw CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ds, report, err := env.Pipeline.Scrape(ctx)
		if err != nil {
			return err
		}
		if ds.Len() == 0 {
			fmt.Fprintln(os.Stderr, "No listing found.")
			return nil
		}
		printScrapeReport(os.Stdout, env.Pipeline.Paths().Raw, report)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize and deduplicate the raw CSV into the clean CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		_, report, err := env.Pipeline.Clean(cmd.Context())
		if err != nil {
			return err
		}
		printCleanReport(os.Stdout, env.Pipeline.Paths().Clean, report)
		return nil
	},
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Fill in coordinates of the clean CSV",
	Long:  "Geocodes every row of the clean CSV lacking coordinates. Ctrl-C stops the batch; resolved rows are saved.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		_, report, err := env.Pipeline.Geocode(ctx)
		if report.Total > 0 {
			printGeocodeReport(os.Stdout, report)
		}
		return err
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Filter the clean CSV into the search CSV",
	Long:  "Keeps rows where query appears, case-insensitively, in any column. An empty query keeps every row.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var state pipeline.State
		ds, err := env.Pipeline.Search(cmd.Context(), query, &state)
		if err != nil {
			return err
		}
		if ds.Len() == 0 {
			fmt.Fprintln(os.Stderr, "No match.")
			return nil
		}
		return writeTable(os.Stdout, ds)
	},
}

func printScrapeReport(w io.Writer, path string, r pipeline.ScrapeReport) {
	_, _ = fmt.Fprintf(w, "Scraped %d of %d links into %s (%d fetch failures, %d without content)\n",
		r.Extracted, r.Links, path, r.FetchFailed, r.NoContainer)
}

func printCleanReport(w io.Writer, path string, r pipeline.CleanReport) {
	_, _ = fmt.Fprintf(w, "Kept %d of %d rows in %s (%d invalid, %d duplicates)\n",
		r.Kept, r.Read, path, r.Invalid, r.Duplicates)
}

func printGeocodeReport(w io.Writer, r pipeline.GeocodeReport) {
	_, _ = fmt.Fprintf(w, "Geocoded %d rows: %d resolved, %d not found, %d failed, %d already done\n",
		r.Total, r.Resolved, r.NotFound, r.Failed, r.Skipped)
	if r.Aborted {
		_, _ = fmt.Fprintln(w, "Stopped early; progress was saved.")
	}
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(geocodeCmd)
	rootCmd.AddCommand(searchCmd)
}
