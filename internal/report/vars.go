package report

import (
	"strings"
	"time"
)

// ExpandVars performs simple placeholder substitutions for template strings
// used in config-provided text fields (e.g., the report title).
//
// Supported variables:
// - {.CurrentDate} => formatted as YYYY-MM-DD in now's location
// - {.Channel}     => the configured channel name
func ExpandVars(s string, now time.Time, channel string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	r := strings.NewReplacer(
		"{.CurrentDate}", now.Format("2006-01-02"),
		"{.Channel}", channel,
	)
	return r.Replace(s)
}
