// Package report renders analysis results for people: a terminal table,
// JSON or YAML for scripts, and a markdown file with frontmatter for the
// scheduled daily run.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/model"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an output format Write does not support.
var ErrUnknownFormat = errors.New("report: unknown format")

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name case-insensitively; "md" and "yml" are
// aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w %q (want table, json, yaml or markdown)", ErrUnknownFormat, s)
}

// Summary is the machine-readable shape of a report.
type Summary struct {
	RunID   string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Channel string             `json:"channel,omitempty" yaml:"channel,omitempty"`
	Top     []Row              `json:"top" yaml:"top"`
	Topics  []model.TopicCount `json:"topics" yaml:"topics"`
	Total   int                `json:"total" yaml:"total"`
	Ideas   string             `json:"ideas,omitempty" yaml:"ideas,omitempty"`
}

// Rows converts the first n ranked items into report rows.
func Rows(ranked []model.Ranked, n int) []Row {
	head := engagement.Top(ranked, n)
	rows := make([]Row, 0, len(head))
	for i, r := range head {
		rows = append(rows, Row{
			Rank:       i + 1,
			ID:         r.Record.ID,
			Title:      r.Record.Title,
			Type:       string(r.ContentType),
			Score:      r.Score,
			Views:      r.Record.Views,
			Likes:      r.Record.Likes,
			Comments:   r.Record.Comments,
			Shares:     r.Record.Shares,
			WatchRatio: engagement.WatchRatio(r.Record.AvgViewDurationSec, r.Record.DurationSec),
		})
	}
	return rows
}

// NewData assembles template data for an analysis. titleTmpl may use the
// placeholders understood by ExpandVars.
func NewData(a model.Analysis, top int, titleTmpl string, now time.Time) Data {
	title := strings.TrimSpace(ExpandVars(titleTmpl, now, a.Channel))
	if title == "" {
		title = fmt.Sprintf("%s engagement report %s", a.Channel, now.Format("2006-01-02"))
	}
	topics := a.Topics
	if topics == nil {
		topics = []model.TopicCount{}
	}
	return Data{
		Title:    title,
		Slug:     strings.TrimSuffix(FileName(now), ".md"),
		Datetime: now.Format("2006-01-02 15:04"),
		Channel:  a.Channel,
		RunID:    a.RunID,
		Total:    len(a.Ranked),
		Rows:     Rows(a.Ranked, top),
		Topics:   topics,
		Ideas:    strings.TrimSpace(a.Ideas),
	}
}

// FileName is the report file name for the day of now, in now's location.
func FileName(now time.Time) string {
	return fmt.Sprintf("daily-%s.md", now.Format("20060102"))
}

// Write renders d to w in the requested format.
func Write(w io.Writer, f Format, d Data) error {
	switch f {
	case FormatTable:
		return writeTable(w, d)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryOf(d))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaryOf(d)); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		md, err := Render(d)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func summaryOf(d Data) Summary {
	s := Summary{RunID: d.RunID, Channel: d.Channel, Top: d.Rows, Topics: d.Topics, Total: d.Total, Ideas: d.Ideas}
	if s.Top == nil {
		s.Top = []Row{}
	}
	if s.Topics == nil {
		s.Topics = []model.TopicCount{}
	}
	return s
}

func writeTable(w io.Writer, d Data) error {
	fmt.Fprintf(w, "Top %d of %d\n", len(d.Rows), d.Total)
	if len(d.Rows) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "#\tVIDEO_ID\tTYPE\tSCORE\tVIEWS\tLIKES\tCOMMENTS\tSHARES\tWATCH\t")
		for _, r := range d.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%d\t%d\t%d\t%d\t%.2f\t\n",
				r.Rank, r.ID, r.Type, r.Score, r.Views, r.Likes, r.Comments, r.Shares, r.WatchRatio)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Suggested topics:")
	if len(d.Topics) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, t := range d.Topics {
		fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, t.Tag, t.Count)
	}
	if d.Ideas != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Theme ideas:")
		_, err := fmt.Fprintln(w, d.Ideas)
		return err
	}
	return nil
}
