// Package dataset reads and writes content records as CSV or Parquet files
// with a fixed, validated schema.
package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"engagement-optimizer/internal/model"
)

// Schema columns.
const (
	ColVideoID         = "video_id"
	ColTitle           = "title"
	ColPublishedAt     = "published_at"
	ColDurationSec     = "duration_sec"
	ColViews           = "views"
	ColLikes           = "likes"
	ColComments        = "comments"
	ColShares          = "shares"
	ColAvgViewDuration = "average_view_duration_sec"
	ColTags            = "tags"
)

// Columns lists the schema in file order.
var Columns = []string{
	ColVideoID, ColTitle, ColPublishedAt, ColDurationSec, ColViews,
	ColLikes, ColComments, ColShares, ColAvgViewDuration, ColTags,
}

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Format is a dataset file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads records from a CSV or Parquet file.
func Load(ctx context.Context, path string) ([]model.ContentRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatParquet {
		return ReadParquet(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f))
}

// Save writes records to a CSV or Parquet file, creating parent directories.
func Save(ctx context.Context, path string, records []model.ContentRecord) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if format == FormatParquet {
		return WriteParquet(ctx, path, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
