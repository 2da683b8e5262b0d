package main

import (
	"fmt"

	"github.com/maltedev/brain-product-parser/internal/driver/htmlpage"
	"github.com/maltedev/brain-product-parser/internal/extract"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/pipeline"
	"github.com/maltedev/brain-product-parser/internal/storage"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		snapshotDir string
		store       bool
	)

	cmd := &cobra.Command{
		Use:   "replay [snapshot.html]",
		Short: "Run the extractors on a saved product page without a browser",
		Long: `replay parses a product page snapshot written by "run --snapshot-dir".
Without an argument it uses the latest snapshot in --snapshot-dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: guarded(a, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path, err := snapshotPath(args, snapshotDir)
			if err != nil {
				return err
			}

			page, err := htmlpage.LoadFile(path)
			if err != nil {
				return err
			}
			a.logger.Info("replaying snapshot", "path", path)

			extractor := extract.New(extractOptions(a.cfg), pacing.NewInstant(), a.logger, a.metrics)
			opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}

			if store {
				db, publisher, closeSinks := a.sinks(ctx)
				defer closeSinks()
				if db != nil {
					opts = append(opts, pipeline.WithSink(db))
				}
				if publisher != nil {
					opts = append(opts, pipeline.WithNotifier(publisher))
				}
			}

			p := pipeline.New(nil, extractor, a.logger, opts...)
			result := p.Process(ctx, page)

			return printRecord(cmd.OutOrStdout(), result.Record)
		}),
	}

	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory written by run --snapshot-dir")
	cmd.Flags().BoolVar(&store, "store", false, "Store the replayed record like a live run")

	return cmd
}

func snapshotPath(args []string, dir string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if dir == "" {
		return "", fmt.Errorf("either a snapshot file or --snapshot-dir is required")
	}

	snapshots, err := storage.NewSnapshotStore(dir)
	if err != nil {
		return "", err
	}
	latest, err := snapshots.Latest()
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, err)
	}
	return snapshots.Path(latest), nil
}
