package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/brain-product-parser/internal/browser"
	"github.com/maltedev/brain-product-parser/internal/extract"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/pipeline"
	"github.com/maltedev/brain-product-parser/internal/retry"
	"github.com/maltedev/brain-product-parser/internal/search"
	"github.com/maltedev/brain-product-parser/internal/storage"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		showUI      bool
		snapshotDir string
		noStore     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search brain.com.ua and parse the first product in stock",
		Args:  cobra.NoArgs,
		RunE: guarded(a, func(cmd *cobra.Command, args []string) error {
			if showUI {
				a.cfg.Browser.Headless = false
			}
			if snapshotDir != "" {
				a.cfg.Export.SnapshotDir = snapshotDir
			}
			if noStore {
				a.cfg.Database.Enabled = false
				a.cfg.Redis.Enabled = false
			}
			return a.run(cmd.Context(), cmd.OutOrStdout())
		}),
	}

	cmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Save the product page HTML into this directory")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not write to the database or publish events")

	return cmd
}

func (a *app) run(parent context.Context, out io.Writer) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Scraper.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Scraper.RunTimeout)
		defer cancel()
	}

	opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}

	db, publisher, closeSinks := a.sinks(ctx)
	defer closeSinks()
	if db != nil {
		opts = append(opts, pipeline.WithSink(db))
	}
	if publisher != nil {
		opts = append(opts, pipeline.WithNotifier(publisher))
	}

	if dir := a.cfg.Export.SnapshotDir; dir != "" {
		snapshots, err := storage.NewSnapshotStore(dir)
		if err != nil {
			a.logger.Error("snapshots disabled", "error", err)
		} else {
			opts = append(opts, pipeline.WithSnapshots(snapshots))
		}
	}

	b, err := browser.New(browserOptions(a.cfg), a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.logger.Error("failed to close browser", "error", err)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return err
	}

	pacer := pacing.NewRandomPacer()
	nav := retry.NewNavigator(retryPolicy(a.cfg), pacer, a.logger, a.metrics)
	searcher := search.New(page, nav, pacer, searchOptions(a.cfg), a.logger)
	extractor := extract.New(extractOptions(a.cfg), pacer, a.logger, a.metrics)

	p := pipeline.New(searcher, extractor, a.logger, opts...)

	result, err := p.Run(ctx, page, pipeline.Target{
		HomeURL: a.cfg.Target.HomeURL,
		Query:   a.cfg.Target.SearchQuery,
	})
	if err != nil {
		return err
	}

	return printRecord(out, result.Record)
}

func printRecord(out io.Writer, record *models.ProductRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("failed to print record: %w", err)
	}
	return nil
}
