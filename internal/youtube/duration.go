package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration converts an ISO 8601 duration such as "PT1H2M3S" or
// "P1DT30M" into whole seconds. Live streams report "P0D".
func ParseISODuration(s string) (int64, error) {
	bad := fmt.Errorf("invalid ISO 8601 duration %q", s)
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "P")
	if !ok || rest == "" {
		return 0, bad
	}
	var total int64
	inTime, seen := false, false
	for rest != "" {
		if rest[0] == 'T' {
			if inTime || len(rest) == 1 {
				return 0, bad
			}
			inTime = true
			rest = rest[1:]
			continue
		}
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			return 0, bad
		}
		n, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return 0, bad
		}
		var unit int64
		switch u := rest[i]; {
		case !inTime && u == 'W':
			unit = 7 * 86400
		case !inTime && u == 'D':
			unit = 86400
		case inTime && u == 'H':
			unit = 3600
		case inTime && u == 'M':
			unit = 60
		case inTime && u == 'S':
			unit = 1
		default:
			return 0, bad
		}
		total += n * unit
		seen = true
		rest = rest[i+1:]
	}
	if !seen {
		return 0, bad
	}
	return total, nil
}
