package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"engagement-optimizer/internal/pipeline"
	"engagement-optimizer/internal/redisclient"
	"engagement-optimizer/internal/report"
	"engagement-optimizer/internal/storage"

	"github.com/spf13/cobra"
)

var runInput string

// runCmd runs both stages for one configured channel, ignoring run_at and
// the done marker.
var runCmd = &cobra.Command{
	Use:   "run <channel>",
	Short: "Ingest and analyze one configured channel now and write its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ch, ok := cfg.Channel(args[0])
		if !ok {
			return fmt.Errorf("channel %q is not configured", args[0])
		}

		var in pipeline.Ingester
		if runInput != "" {
			in = pipeline.FileIngester{Path: runInput}
		} else {
			yt, err := newYouTubeIngester(cfg, ch.ChannelID, ch.MaxResults, ch.Source)
			if err != nil {
				return err
			}
			in = yt
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb, retention(cfg))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := &pipeline.Runner{
			Store:    store,
			Advisor:  newAdvisor(cfg),
			Options:  analysisOptions(cfg),
			Language: ch.Language,
		}
		res, err := runner.Run(ctx, ch.Name, in)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		md, err := report.Render(report.NewData(res, cfg.Analysis.DisplayTop, ch.Title, now))
		if err != nil {
			return err
		}
		dir := filepath.Join(cfg.Pipeline.OutputDir, ch.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, report.FileName(now))
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d records, report %s\n", res.RunID, len(res.Ranked), path)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "read records from a dataset file instead of YouTube")
	rootCmd.AddCommand(runCmd)
}
