package cmd

import (
	"fmt"
	"os"
	"time"

	"engagement-optimizer/internal/dataset"
	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	analyzeInput  string
	analyzeTop    int
	analyzeCohort int
	analyzeTopics int
	analyzeFormat string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank a dataset by engagement score and suggest topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if analyzeInput == "" {
			return fmt.Errorf("--input is required")
		}
		format, err := report.ParseFormat(analyzeFormat)
		if err != nil {
			return err
		}
		opts := analysisOptions(cfg)
		if cmd.Flags().Changed("cohort") {
			opts.CohortSize = analyzeCohort
		}
		if cmd.Flags().Changed("topics") {
			opts.TopTopics = analyzeTopics
		}
		top := cfg.Analysis.DisplayTop
		if cmd.Flags().Changed("top") {
			top = analyzeTop
		}

		records, err := dataset.Load(cmd.Context(), analyzeInput)
		if err != nil {
			return err
		}
		res, err := engagement.Analyze(records, opts)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		a := model.Analysis{
			RunID:       uuid.NewString(),
			GeneratedAt: now,
			Ranked:      res.Ranked,
			Topics:      res.Topics,
		}
		data := report.NewData(a, top, "Engagement report {.CurrentDate}", now)
		if analyzeOutput == "" {
			return report.Write(cmd.OutOrStdout(), format, data)
		}
		return writeReportFile(analyzeOutput, format, data)
	},
}

func writeReportFile(path string, format report.Format, data report.Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Write(f, format, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "dataset file (.csv or .parquet)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 10, "number of ranked items to show")
	analyzeCmd.Flags().IntVar(&analyzeCohort, "cohort", engagement.DefaultCohortSize, "top performers inspected for topics")
	analyzeCmd.Flags().IntVar(&analyzeTopics, "topics", engagement.DefaultTopTopics, "number of topics to suggest")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "output format: table, json, yaml or markdown")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
