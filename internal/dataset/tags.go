package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseTags turns a stored tags cell into a list of tags without evaluating it.
// Accepted forms: empty, a JSON array of strings, a Python-style list literal
// of quoted strings (as written by pandas), or a pipe-separated list.
func ParseTags(cell string) ([]string, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		return splitPipes(s), nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err == nil {
		return tags, nil
	}
	return parseListLiteral(s)
}

// FormatTags renders tags as a JSON array, the form written back to CSV files.
func FormatTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func splitPipes(s string) []string {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseListLiteral accepts ['a', "b", 'it\'s'] (optionally with one trailing
// comma) and nothing else.
func parseListLiteral(s string) ([]string, error) {
	rs := []rune(s)
	if len(rs) < 2 || rs[0] != '[' || rs[len(rs)-1] != ']' {
		return nil, fmt.Errorf("tags: not a list literal")
	}
	body := rs[1 : len(rs)-1]
	out := []string{}
	i := 0
	skipSpace := func() {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
	}
	skipSpace()
	if i == len(body) {
		return out, nil
	}
	for {
		q := body[i]
		if q != '\'' && q != '"' {
			return nil, fmt.Errorf("tags: unquoted element at offset %d", i+1)
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(body) {
			c := body[i]
			if c == '\\' && i+1 < len(body) {
				switch next := body[i+1]; next {
				case 'n':
					b.WriteRune('\n')
				case 't':
					b.WriteRune('\t')
				default:
					b.WriteRune(next)
				}
				i += 2
				continue
			}
			if c == q {
				closed = true
				i++
				break
			}
			b.WriteRune(c)
			i++
		}
		if !closed {
			return nil, fmt.Errorf("tags: unterminated string")
		}
		out = append(out, b.String())
		skipSpace()
		if i == len(body) {
			return out, nil
		}
		if body[i] != ',' {
			return nil, fmt.Errorf("tags: expected ',' at offset %d", i+1)
		}
		i++
		// a single trailing comma closes the list, as in Python
		skipSpace()
		if i == len(body) {
			return out, nil
		}
	}
}
