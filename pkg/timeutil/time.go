package timeutil

import (
	"strings"
	"time"
)

const (
	// LayoutDay is the day-bucket key layout.
	LayoutDay = "2006-01-02"
	// LayoutLocal is the offset-free layout used in modify commands.
	LayoutLocal = "2006-01-02T15:04"

	layoutCompact = "20060102T150405Z"
)

var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	LayoutDay,
}

// LoadLocation resolves an IANA zone name. An empty name is UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// LocationOrUTC is LoadLocation that falls back to UTC on failure.
func LocationOrUTC(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseCompactUTC parses the compact task-export timestamp "20200101T090000Z"
// into epoch milliseconds. RFC3339 and plain "2006-01-02[T15:04[:05]]" values are
// accepted too and read as UTC when they carry no offset.
func ParseCompactUTC(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if t, err := time.Parse(layoutCompact, v); err == nil {
		return t.UnixMilli(), true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// FromMillis converts epoch milliseconds into a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}

// DayKey returns the "YYYY-MM-DD" calendar day of ms in loc.
func DayKey(ms int64, loc *time.Location) string {
	return FromMillis(ms, loc).Format(LayoutDay)
}

// StartOfDay returns local midnight for the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LocalMidnight returns local midnight, in epoch milliseconds, of the calendar
// day that contains ms in loc. The date never changes.
func LocalMidnight(ms int64, loc *time.Location) int64 {
	return StartOfDay(FromMillis(ms, loc)).UnixMilli()
}

// IsLocalMidnight reports whether ms falls exactly on local midnight in loc.
func IsLocalMidnight(ms int64, loc *time.Location) bool {
	return LocalMidnight(ms, loc) == ms
}

// AtMinute returns the instant minute-of-day minutes into the day of t.
func AtMinute(t time.Time, minute int) time.Time {
	day := StartOfDay(t)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// SnapMs rounds ms to the nearest multiple of snapMin minutes counted from
// local midnight. A grid of one minute or less leaves ms untouched.
func SnapMs(ms int64, snapMin int64, loc *time.Location) int64 {
	if snapMin <= 1 {
		return ms
	}
	grid := snapMin * int64(time.Minute/time.Millisecond)
	base := LocalMidnight(ms, loc)
	offset := ms - base
	snapped := (offset + grid/2) / grid * grid
	return base + snapped
}

// FormatLocal renders ms in loc without any UTC offset.
func FormatLocal(ms int64, loc *time.Location) string {
	return FromMillis(ms, loc).Format(LayoutLocal)
}
