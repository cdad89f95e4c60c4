package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engagement-optimizer/internal/config"
	"engagement-optimizer/internal/httpapi"
	"engagement-optimizer/internal/pipeline"
	"engagement-optimizer/internal/redisclient"
	"engagement-optimizer/internal/storage"
	"engagement-optimizer/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveNoAPI bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily pipeline for every configured channel and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb, retention(cfg))

		runAt, err := config.ParseRunAt(cfg.Pipeline.RunAt)
		if err != nil {
			return err
		}
		loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
		if err != nil {
			return err
		}
		interval, err := time.ParseDuration(cfg.Pipeline.CheckInterval)
		if err != nil {
			return err
		}
		advisor := newAdvisor(cfg)

		// Pipeline jobs (one per channel)
		var ws []worker.Worker
		for _, ch := range cfg.Channels {
			in, err := newYouTubeIngester(cfg, ch.ChannelID, ch.MaxResults, ch.Source)
			if err != nil {
				return fmt.Errorf("channel %s: %w", ch.Name, err)
			}
			ws = append(ws, &worker.PipelineJob{
				Runner: &pipeline.Runner{
					Store:    store,
					Advisor:  advisor,
					Options:  analysisOptions(cfg),
					Language: ch.Language,
				},
				Marker:     store,
				Ingester:   in,
				Channel:    ch.Name,
				RunAt:      runAt,
				Location:   loc,
				Interval:   interval,
				OutputDir:  cfg.Pipeline.OutputDir,
				Title:      ch.Title,
				DisplayTop: cfg.Analysis.DisplayTop,
			})
			slog.Info("starting pipeline job", "channel", ch.Name, "source", ch.Source, "run_at", cfg.Pipeline.RunAt, "timezone", loc.String())
		}

		if !serveNoAPI {
			gin.SetMode(gin.ReleaseMode)
			ws = append(ws, &worker.HTTPServer{
				Addr: cfg.HTTP.Addr,
				Handler: httpapi.New(httpapi.Deps{
					Store:          store,
					MaxUploadBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
					Options:        analysisOptions(cfg),
				}),
			})
		}
		if len(ws) == 0 {
			return fmt.Errorf("nothing to serve: no channels configured and --no-api set")
		}

		mgr := worker.NewManager(ws...)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoAPI, "no-api", false, "run only the pipeline jobs")
	rootCmd.AddCommand(serveCmd)
}
