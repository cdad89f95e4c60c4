package dataset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "video_id,title,published_at,duration_sec,views,likes,comments,shares,average_view_duration_sec,tags\n"

func TestReadCSV(t *testing.T) {
	in := header +
		`a1,First,2025-01-02T03:04:05Z,45,100,10,2,1,20.5,"['music', 'live']"` + "\n" +
		`a2,Second,,600,1000,50,0,0,300,music|tutorial` + "\n" +
		`a3,Third,2025-02-01,0,5.0,0,0,0,0,` + "\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), got[0].PublishedAt)
	assert.Equal(t, int64(45), got[0].DurationSec)
	assert.Equal(t, 20.5, got[0].AvgViewDurationSec)
	assert.Equal(t, []string{"music", "live"}, got[0].Tags)

	assert.True(t, got[1].PublishedAt.IsZero())
	assert.Equal(t, []string{"music", "tutorial"}, got[1].Tags)

	assert.Equal(t, int64(5), got[2].Views, "integral floats are accepted")
	assert.Nil(t, got[2].Tags)
}

func TestReadCSV_ColumnOrderAndExtras(t *testing.T) {
	in := "tags,extra,views,likes,comments,shares,average_view_duration_sec,duration_sec,published_at,title,video_id\n" +
		`"[""x""]",ignored,1,2,3,4,5,6,,T,id1` + "\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ContentRecord{
		ID: "id1", Title: "T", DurationSec: 6, Views: 1, Likes: 2, Comments: 3, Shares: 4,
		AvgViewDurationSec: 5, Tags: []string{"x"},
	}, got[0])
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("video_id,title,duration_sec\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "shares")
}

func TestReadCSV_ShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"missing views", `a,T,,10,,1,1,1,1,`, ColViews},
		{"fractional likes", `a,T,,10,1,1.5,1,1,1,`, ColLikes},
		{"text comments", `a,T,,10,1,1,many,1,1,`, ColComments},
		{"negative shares", `a,T,,10,1,1,1,-3,1,`, ColShares},
		{"missing watch time", `a,T,,10,1,1,1,1,,`, ColAvgViewDuration},
		{"bad timestamp", `a,T,yesterday,10,1,1,1,1,1,`, ColPublishedAt},
		{"missing id", `,T,,10,1,1,1,1,1,`, ColVideoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(header + tt.row + "\n"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidRecord))
			var re *validation.RecordError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.field, re.Field)
			assert.Equal(t, 2, re.Row)
		})
	}
}

func TestReadCSV_DuplicateID(t *testing.T) {
	in := header + "a,T,,1,1,1,1,1,1,\n" + "a,T,,1,1,1,1,1,1,\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.ErrorIs(t, err, model.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestReadCSV_MalformedTagsBecomeEmpty(t *testing.T) {
	in := header + `a,T,,10,1,1,1,1,1,"[os.system('x')]"` + "\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Nil(t, got[0].Tags)
}

func TestWriteCSV_ReadBack(t *testing.T) {
	records := []model.ContentRecord{
		{ID: "v1", Title: "Hello, world", PublishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			DurationSec: 59, Views: 1 << 40, Likes: 3, AvgViewDurationSec: 12.25, Tags: []string{"a", "b|c"}},
		{ID: "v2", Title: "No tags", DurationSec: 0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), strings.TrimSuffix(header, "\n")))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0])
	assert.Equal(t, "v2", got[1].ID)
	assert.Empty(t, got[1].Tags)
}

func TestLoadSave_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "videos.csv")
	recs := []model.ContentRecord{{ID: "x", Views: 1, Tags: []string{"t"}}}
	require.NoError(t, Save(context.Background(), path, recs))
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/b.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	f, err = FormatOf("x.parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)
	_, err = FormatOf("x.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
