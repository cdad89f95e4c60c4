package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"engagement-optimizer/internal/dataset"
	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/metrics"
	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/report"
	"engagement-optimizer/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	defaultTop = 10
	minTop     = 5
	maxTop     = 20
)

// AnalyzeResponse is the body returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	Top    []report.Row       `json:"top"`
	Topics []model.TopicCount `json:"topics"`
	Total  int                `json:"total"`
}

// HealthHandler reports whether redis answers.
func HealthHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// AnalyzeHandler ranks an uploaded CSV or Parquet file.
// Form field: file. Query: top (clamped to 5..20, default 10), topics
// (default 5).
func AnalyzeHandler(maxUpload int64, opts engagement.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		top, err := intQuery(c, "top", defaultTop)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		top = max(minTop, min(maxTop, top))
		topics, err := intQuery(c, "topics", engagement.DefaultTopTopics)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if maxUpload > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
			return
		}

		records, err := readUpload(c.Request.Context(), fh.Filename, func() (io.ReadCloser, error) { return fh.Open() })
		if err != nil {
			if errors.Is(err, model.ErrInvalidRecord) {
				metrics.ValidationFailures.WithLabelValues("api").Inc()
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reqOpts := opts
		reqOpts.TopTopics = topics
		start := time.Now()
		res, err := engagement.Analyze(records, reqOpts)
		metrics.ObserveAnalysis(time.Since(start))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, AnalyzeResponse{
			Top:    report.Rows(res.Ranked, top),
			Topics: res.Topics,
			Total:  len(res.Ranked),
		})
	}
}

// LatestHandler returns the stored analysis for a channel.
func LatestHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := c.Param("channel")
		a, err := store.LatestAnalysis(c.Request.Context(), channel)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no analysis for channel " + channel})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query %s: not an integer: %q", key, raw)
	}
	if n <= 0 {
		return def, nil
	}
	return n, nil
}

// readUpload parses an uploaded dataset. CSV streams directly; Parquet is
// spooled to a temp file for DuckDB. Files without a known extension are
// read as CSV.
func readUpload(ctx context.Context, name string, open func() (io.ReadCloser, error)) ([]model.ContentRecord, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := dataset.FormatOf(name)
	if err != nil || format == dataset.FormatCSV {
		return dataset.ReadCSV(f)
	}
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return dataset.Load(ctx, tmp.Name())
}
