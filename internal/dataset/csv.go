package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"
)

// ReadCSV parses records from CSV with a header row naming the schema columns.
// Column order is free and extra columns are ignored. The first bad row aborts
// the read with a *validation.RecordError whose Row is the CSV line number.
func ReadCSV(r io.Reader) ([]model.ContentRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.ContentRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	out := []model.ContentRecord{}
	seen := map[string]int{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		rec, err := parseRow(line, cell)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, validation.NewRecordError(line, ColVideoID, rec.ID, "duplicate id (first seen on line %d)", first)
		}
		seen[rec.ID] = line
		out = append(out, rec)
	}
	return out, nil
}

// WriteCSV writes records with the schema header. Tags are JSON arrays.
func WriteCSV(w io.Writer, records []model.ContentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		published := ""
		if !r.PublishedAt.IsZero() {
			published = r.PublishedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.ID,
			r.Title,
			published,
			strconv.FormatInt(r.DurationSec, 10),
			strconv.FormatInt(r.Views, 10),
			strconv.FormatInt(r.Likes, 10),
			strconv.FormatInt(r.Comments, 10),
			strconv.FormatInt(r.Shares, 10),
			strconv.FormatFloat(r.AvgViewDurationSec, 'f', -1, 64),
			FormatTags(r.Tags),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRow(line int, cell func(string) string) (model.ContentRecord, error) {
	rec := model.ContentRecord{
		ID:    strings.TrimSpace(cell(ColVideoID)),
		Title: cell(ColTitle),
	}
	var err error
	if rec.PublishedAt, err = parseTime(cell(ColPublishedAt)); err != nil {
		return rec, validation.NewRecordError(line, ColPublishedAt, cell(ColPublishedAt), "%v", err)
	}
	ints := []struct {
		col string
		dst *int64
	}{
		{ColDurationSec, &rec.DurationSec},
		{ColViews, &rec.Views},
		{ColLikes, &rec.Likes},
		{ColComments, &rec.Comments},
		{ColShares, &rec.Shares},
	}
	for _, f := range ints {
		v, err := parseCount(cell(f.col))
		if err != nil {
			return rec, validation.NewRecordError(line, f.col, cell(f.col), "%v", err)
		}
		*f.dst = v
	}
	watch := strings.TrimSpace(cell(ColAvgViewDuration))
	if watch == "" {
		return rec, validation.NewRecordError(line, ColAvgViewDuration, watch, "value is required")
	}
	if rec.AvgViewDurationSec, err = strconv.ParseFloat(watch, 64); err != nil {
		return rec, validation.NewRecordError(line, ColAvgViewDuration, watch, "not a number")
	}
	tags, err := ParseTags(cell(ColTags))
	if err != nil {
		slog.Warn("dataset: unparseable tags, treating as none", "line", line, "id", rec.ID, "err", err)
		tags = nil
	}
	rec.Tags = tags
	if err := validation.ValidateRecord(line, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// parseCount accepts decimal integers, and floats only when they are integral
// ("12.0" as written by dataframe tools). Anything else is rejected.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("value is required")
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("not an RFC3339 timestamp")
}
