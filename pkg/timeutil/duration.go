package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultWindow is the fallback agenda window used when none is provided.
	DefaultWindow = "1d"
)

var (
	windowPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([a-z]+)`)
	clockPattern  = regexp.MustCompile(`^(\d+):([0-5]?\d)(?::([0-5]?\d))?$`)
	isoPattern    = regexp.MustCompile(`^p(?:(\d+(?:\.\d+)?)w)?(?:(\d+(?:\.\d+)?)d)?(?:t(?:(\d+(?:\.\d+)?)h)?(?:(\d+(?:\.\d+)?)m)?(?:(\d+(?:\.\d+)?)s)?)?$`)
	unitMap       = map[string]time.Duration{
		"s":       time.Second,
		"sec":     time.Second,
		"secs":    time.Second,
		"second":  time.Second,
		"seconds": time.Second,
		"m":       time.Minute,
		"min":     time.Minute,
		"mins":    time.Minute,
		"minute":  time.Minute,
		"minutes": time.Minute,
		"h":       time.Hour,
		"hr":      time.Hour,
		"hrs":     time.Hour,
		"hour":    time.Hour,
		"hours":   time.Hour,
		"d":       24 * time.Hour,
		"day":     24 * time.Hour,
		"days":    24 * time.Hour,
		"w":       7 * 24 * time.Hour,
		"wk":      7 * 24 * time.Hour,
		"wks":     7 * 24 * time.Hour,
		"week":    7 * 24 * time.Hour,
		"weeks":   7 * 24 * time.Hour,
	}
)

// ParseWindow parses a human-friendly duration string (for example "1w", "3d", or
// "1w2d6h") and returns the equivalent duration along with a canonical, compact
// representation. When the input is empty, the default window of one day is used.
func ParseWindow(input string) (time.Duration, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		trimmed = DefaultWindow
	}

	total, err := parseLoose(strings.ToLower(trimmed))
	if err != nil {
		return 0, "", err
	}
	if total <= 0 {
		return 0, "", fmt.Errorf("duration must be greater than zero")
	}

	return total, FormatWindow(total), nil
}

// FormatWindow renders a duration using week/day/hour/minute/second tokens.
func FormatWindow(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	type unit struct {
		label string
		value time.Duration
	}
	units := []unit{
		{"w", 7 * 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	}

	var parts []string
	remaining := d
	for _, u := range units {
		if remaining < u.value {
			continue
		}
		count := remaining / u.value
		remaining -= count * u.value
		parts = append(parts, fmt.Sprintf("%d%s", count, u.label))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, "")
}

// ParseDurationMinutes reads a free-form task duration and returns it in whole
// minutes. Accepted forms are "H:MM[:SS]", ISO-8601 ("PT1H30M", "P1DT2H"), loose
// unit strings ("2h30m", "90min", "1.5h") and bare numbers, which count minutes.
// Leftover seconds round up to the next minute. Anything unparseable or not
// positive reports false.
func ParseDurationMinutes(input string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, false
	}

	var d time.Duration
	switch {
	case clockPattern.MatchString(s):
		m := clockPattern.FindStringSubmatch(s)
		h, _ := strconv.ParseInt(m[1], 10, 64)
		mm, _ := strconv.ParseInt(m[2], 10, 64)
		var ss int64
		if m[3] != "" {
			ss, _ = strconv.ParseInt(m[3], 10, 64)
		}
		d = time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second
	case strings.HasPrefix(s, "p"):
		m := isoPattern.FindStringSubmatch(s)
		if m == nil || s == "p" || s == "pt" {
			return 0, false
		}
		for i, unit := range []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second} {
			if m[i+1] == "" {
				continue
			}
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return 0, false
			}
			d += time.Duration(v * float64(unit))
		}
	default:
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, false
			}
			d = time.Duration(v * float64(time.Minute))
			break
		}
		var err error
		d, err = parseLoose(s)
		if err != nil {
			return 0, false
		}
	}

	if d <= 0 {
		return 0, false
	}
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes, true
}

func parseLoose(remaining string) (time.Duration, error) {
	total := time.Duration(0)
	for len(strings.TrimSpace(remaining)) > 0 {
		matches := windowPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return 0, fmt.Errorf("invalid duration segment %q", strings.TrimSpace(remaining))
		}
		valueStr := matches[1]
		unitStr := matches[2]

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q: %w", valueStr, err)
		}
		base, ok := unitMap[unitStr]
		if !ok {
			return 0, fmt.Errorf("unsupported duration unit %q", unitStr)
		}
		total += time.Duration(value * float64(base))

		remaining = remaining[len(matches[0]):]
	}
	return total, nil
}
