package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"

	_ "github.com/duckdb/duckdb-go/v2"
)

// tagSep joins tags into one bound parameter; DuckDB splits it back into a list.
const tagSep = "\x1f"

const createTable = `
	CREATE TABLE videos (
		video_id VARCHAR,
		title VARCHAR,
		published_at TIMESTAMP,
		duration_sec BIGINT,
		views BIGINT,
		likes BIGINT,
		comments BIGINT,
		shares BIGINT,
		average_view_duration_sec DOUBLE,
		tags VARCHAR[]
	)`

const insertRow = `
	INSERT INTO videos VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
		CASE WHEN CAST(? AS VARCHAR) = '' THEN []::VARCHAR[] ELSE string_split(CAST(? AS VARCHAR), chr(31)) END)`

func openDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// one connection keeps the in-memory table visible to every statement
	db.SetMaxOpenConns(1)
	return db, nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ReadParquet loads records from a Parquet file through an in-memory DuckDB.
// Tags may be stored as a list of strings or as a text cell.
func ReadParquet(ctx context.Context, path string) ([]model.ContentRecord, error) {
	db, err := openDuckDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM read_parquet("+quoteLiteral(path)+")")
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(cols)
	if err != nil {
		return nil, err
	}

	out := []model.ContentRecord{}
	seen := map[string]int{}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	row := 0
	for rows.Next() {
		row++
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan parquet row %d: %w", row, err)
		}
		rec, err := recordFromValues(row, func(col string) any { return vals[idx[col]] })
		if err != nil {
			return nil, err
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, validation.NewRecordError(row, ColVideoID, rec.ID, "duplicate id (first seen in row %d)", first)
		}
		seen[rec.ID] = row
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return out, nil
}

// WriteParquet writes records to path as Parquet with tags as a string list.
func WriteParquet(ctx context.Context, path string, records []model.ContentRecord) error {
	db, err := openDuckDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, r := range records {
		var published any
		if !r.PublishedAt.IsZero() {
			published = r.PublishedAt.UTC()
		}
		tags := strings.Join(r.Tags, tagSep)
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, published, r.DurationSec, r.Views, r.Likes, r.Comments, r.Shares,
			r.AvgViewDurationSec, tags, tags,
		); err != nil {
			stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "COPY videos TO "+quoteLiteral(path)+" (FORMAT PARQUET, COMPRESSION 'ZSTD')"); err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	return nil
}

func recordFromValues(row int, val func(string) any) (model.ContentRecord, error) {
	var rec model.ContentRecord
	var err error
	if rec.ID, err = asString(val(ColVideoID)); err != nil {
		return rec, validation.NewRecordError(row, ColVideoID, val(ColVideoID), "%v", err)
	}
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.Title, err = asString(val(ColTitle)); err != nil {
		return rec, validation.NewRecordError(row, ColTitle, val(ColTitle), "%v", err)
	}
	if rec.PublishedAt, err = asTime(val(ColPublishedAt)); err != nil {
		return rec, validation.NewRecordError(row, ColPublishedAt, val(ColPublishedAt), "%v", err)
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
		v, err := asInt(val(f.col))
		if err != nil {
			return rec, validation.NewRecordError(row, f.col, val(f.col), "%v", err)
		}
		*f.dst = v
	}
	if rec.AvgViewDurationSec, err = asFloat(val(ColAvgViewDuration)); err != nil {
		return rec, validation.NewRecordError(row, ColAvgViewDuration, val(ColAvgViewDuration), "%v", err)
	}
	rec.Tags, err = asTags(val(ColTags))
	if err != nil {
		slog.Warn("dataset: unparseable tags, treating as none", "row", row, "id", rec.ID, "err", err)
		rec.Tags = nil
	}
	if err := validation.ValidateRecord(row, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

func asInt(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errors.New("value is required")
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, errors.New("integer out of range")
		}
		return int64(t), nil
	case *big.Int:
		if !t.IsInt64() {
			return 0, errors.New("integer out of range")
		}
		return t.Int64(), nil
	case float64:
		return integralFloat(t)
	case float32:
		return integralFloat(float64(t))
	case string:
		return parseCount(t)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func integralFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errors.New("value is required")
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.New("not a number")
		}
		return f, nil
	default:
		i, err := asInt(v)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %T", v)
		}
		return float64(i), nil
	}
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTime(t)
	default:
		return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
	}
}

func asTags(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseTags(t)
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("tag element is %T, not text", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported tags type %T", v)
	}
}
