package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"engagement-optimizer/internal/dataset"

	"github.com/spf13/cobra"
)

var (
	ingestChannelID  string
	ingestMaxResults int
	ingestOutput     string
	ingestSource     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch a channel's recent video metrics into a CSV or Parquet file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if ingestChannelID == "" {
			return fmt.Errorf("--channel-id is required")
		}
		source := ingestSource
		if source == "" {
			source = cfg.YouTube.Source
		}
		in, err := newYouTubeIngester(cfg, ingestChannelID, ingestMaxResults, source)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := in.Ingest(ctx)
		if err != nil {
			return err
		}
		if err := dataset.Save(ctx, ingestOutput, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), ingestOutput)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestChannelID, "channel-id", "", "YouTube channel id (UC...)")
	ingestCmd.Flags().IntVar(&ingestMaxResults, "max-results", 50, "maximum number of recent videos")
	ingestCmd.Flags().StringVar(&ingestOutput, "output", "data/raw_videos.csv", "output file (.csv or .parquet)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "video listing source: search or feed (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
