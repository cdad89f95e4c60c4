package markdown

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document represents a Markdown file with YAML frontmatter.
type Document struct {
	Frontmatter map[string]any
	Body        string
	raw         string
}

// ReportMeta is the frontmatter written on every engagement report.
type ReportMeta struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Datetime string   `yaml:"datetime"`
	Channel  string   `yaml:"channel"`
	RunID    string   `yaml:"run_id"`
	Topics   []string `yaml:"topics"`
}

// ParseFile reads a Markdown file and extracts YAML frontmatter and body.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse extracts YAML frontmatter and body from r.
// Frontmatter is expected at the top between two lines containing only "---".
func Parse(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, err
	}
	hasFM := string(peek) == "---"
	var fmBuf, bodyBuf strings.Builder

	if hasFM {
		// opening delimiter
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}
		closed := false
		for {
			l, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return Document{}, err
			}
			if strings.TrimSpace(l) == "---" {
				closed = true
				break
			}
			fmBuf.WriteString(l)
			if errors.Is(err, io.EOF) {
				break
			}
		}
		if !closed {
			return Document{}, errors.New("markdown: unterminated frontmatter")
		}
	}
	for {
		l, err := br.ReadString('\n')
		bodyBuf.WriteString(l)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, err
		}
	}

	d := Document{
		Frontmatter: map[string]any{},
		Body:        bodyBuf.String(),
		raw:         fmBuf.String(),
	}
	if hasFM {
		if err := yaml.Unmarshal([]byte(d.raw), &d.Frontmatter); err != nil {
			return Document{}, fmt.Errorf("markdown: frontmatter: %w", err)
		}
		if d.Frontmatter == nil {
			d.Frontmatter = map[string]any{}
		}
	}
	return d, nil
}

// ReportMeta decodes the frontmatter into the report's typed fields.
func (d Document) ReportMeta() (ReportMeta, error) {
	var m ReportMeta
	if strings.TrimSpace(d.raw) == "" {
		return m, errors.New("markdown: document has no frontmatter")
	}
	if err := yaml.Unmarshal([]byte(d.raw), &m); err != nil {
		return m, fmt.Errorf("markdown: report frontmatter: %w", err)
	}
	return m, nil
}
