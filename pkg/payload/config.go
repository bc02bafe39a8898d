package payload

import (
	"fmt"
	"time"

	"tableflip.dev/taskcal/pkg/timeutil"
)

// Config is the calendar configuration carried in a payload as "cfg".
type Config struct {
	WorkStartMin        int    `json:"work_start_min" yaml:"work_start_min" mapstructure:"work_start_min"`
	WorkEndMin          int    `json:"work_end_min" yaml:"work_end_min" mapstructure:"work_end_min"`
	SnapMin             int    `json:"snap_min" yaml:"snap_min" mapstructure:"snap_min"`
	DefaultDurationMin  int    `json:"default_duration_min" yaml:"default_duration_min" mapstructure:"default_duration_min"`
	MaxInferDurationMin int    `json:"max_infer_duration_min" yaml:"max_infer_duration_min" mapstructure:"max_infer_duration_min"`
	TZ                  string `json:"tz" yaml:"tz" mapstructure:"tz"`
	DisplayTZ           string `json:"display_tz,omitempty" yaml:"display_tz,omitempty" mapstructure:"display_tz"`
	ViewStartMs         *int64 `json:"view_start_ms,omitempty" yaml:"view_start_ms,omitempty" mapstructure:"-"`
}

// DefaultConfig is a 09:00–17:00 UTC working day on a 15 minute grid.
func DefaultConfig() Config {
	return Config{
		WorkStartMin:        9 * 60,
		WorkEndMin:          17 * 60,
		SnapMin:             15,
		DefaultDurationMin:  60,
		MaxInferDurationMin: 8 * 60,
		TZ:                  "UTC",
	}
}

// Location resolves cfg.tz.
func (c Config) Location() (*time.Location, error) {
	loc, err := timeutil.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("%w: cfg.tz %q: %v", ErrMalformed, c.TZ, err)
	}
	return loc, nil
}

// LocationOrUTC resolves cfg.tz, falling back to UTC.
func (c Config) LocationOrUTC() *time.Location {
	return timeutil.LocationOrUTC(c.TZ)
}

// DisplayLocation resolves display_tz, then tz, then UTC.
func (c Config) DisplayLocation() *time.Location {
	if c.DisplayTZ != "" {
		if loc, err := timeutil.LoadLocation(c.DisplayTZ); err == nil {
			return loc
		}
	}
	return c.LocationOrUTC()
}

// ViewStartAligned reports whether view_start_ms, when present, is local
// midnight in cfg.tz.
func (c Config) ViewStartAligned(loc *time.Location) bool {
	return c.ViewStartMs == nil || timeutil.IsLocalMidnight(*c.ViewStartMs, loc)
}
