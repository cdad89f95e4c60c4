package report

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"engagement-optimizer/internal/model"
)

// Row is one ranked item as shown in a report.
type Row struct {
	Rank       int     `json:"rank" yaml:"rank"`
	ID         string  `json:"video_id" yaml:"video_id"`
	Title      string  `json:"title" yaml:"title"`
	Type       string  `json:"content_type" yaml:"content_type"`
	Score      float64 `json:"engagement_score" yaml:"engagement_score"`
	Views      int64   `json:"views" yaml:"views"`
	Likes      int64   `json:"likes" yaml:"likes"`
	Comments   int64   `json:"comments" yaml:"comments"`
	Shares     int64   `json:"shares" yaml:"shares"`
	WatchRatio float64 `json:"watch_ratio" yaml:"watch_ratio"`
}

type Data struct {
	Title    string
	Slug     string
	Datetime string
	Channel  string
	RunID    string
	Total    int
	Rows     []Row
	Topics   []model.TopicCount
	Ideas    string
}

//go:embed report.tmpl
var reportTpl string

var compiled = template.Must(template.New("report").Funcs(template.FuncMap{
	"quote": strconv.Quote,
	"cell":  func(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ") },
}).Parse(reportTpl))

// Render produces the markdown report with YAML frontmatter.
func Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
