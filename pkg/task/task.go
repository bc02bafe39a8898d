// Package task normalizes raw task-export records into the canonical shape
// shared by the index, query and planner packages.
package task

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"
	"time"

	"tableflip.dev/taskcal/pkg/timeutil"
)

// DefaultStatus is used when a record carries no status.
const DefaultStatus = "pending"

// Record is a raw task record with arbitrary optional fields.
type Record map[string]any

// Task is a normalized task. Optional timestamps and durations are nil when
// absent.
type Task struct {
	UUID        string   `json:"uuid"`
	Status      string   `json:"status"`
	Project     string   `json:"project,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	DayKey      string   `json:"day_key,omitempty"`

	DueMs       *int64 `json:"due_ms,omitempty"`
	ScheduledMs *int64 `json:"scheduled_ms,omitempty"`
	DurationMin *int64 `json:"duration_min,omitempty"`

	// Precomputed interval attached upstream, if any.
	StartCalcMs *int64 `json:"start_calc_ms,omitempty"`
	EndCalcMs   *int64 `json:"end_calc_ms,omitempty"`
	DurCalcMin  *int64 `json:"dur_calc_min,omitempty"`

	Raw Record `json:"raw,omitempty"`
}

// Normalize maps rec into a Task, bucketing its day key in loc. It never
// fails: malformed fields are treated as absent.
func Normalize(rec Record, loc *time.Location) Task {
	if loc == nil {
		loc = time.UTC
	}
	t := Task{Raw: maps.Clone(rec)}
	if t.Raw == nil {
		t.Raw = Record{}
	}

	if s, ok := String(rec["uuid"]); ok {
		t.UUID = s
	} else if s, ok := String(rec["id"]); ok {
		t.UUID = s
	}

	t.Status = DefaultStatus
	if s, ok := String(rec["status"]); ok {
		t.Status = strings.ToLower(s)
	}
	t.Project, _ = String(rec["project"])
	t.Tags = dedupe(Strings(rec["tags"]))
	if s, ok := rec["description"].(string); ok {
		t.Description = s
	}

	t.DueMs = millis(rec, "due_ms", "due")
	t.ScheduledMs = millis(rec, "scheduled_ms", "scheduled")
	t.DurationMin = duration(rec)
	t.StartCalcMs = optional(Int64(rec["start_calc_ms"]))
	t.EndCalcMs = optional(Int64(rec["end_calc_ms"]))
	t.DurCalcMin = optional(Int64(rec["dur_calc_min"]))

	if s, ok := rec["day_key"].(string); ok && s != "" {
		t.DayKey = s
	} else {
		for _, ms := range []*int64{t.DueMs, t.ScheduledMs, t.StartCalcMs, t.EndCalcMs} {
			if ms != nil {
				t.DayKey = timeutil.DayKey(*ms, loc)
				break
			}
		}
	}
	return t
}

// Record returns the raw record for t, rebuilding one from the normalized
// fields when none was preserved.
func (t Task) Record() Record {
	if t.Raw != nil {
		return maps.Clone(t.Raw)
	}
	rec := Record{
		"uuid":   t.UUID,
		"status": t.Status,
	}
	if t.Project != "" {
		rec["project"] = t.Project
	}
	if len(t.Tags) > 0 {
		tags := make([]any, len(t.Tags))
		for i, tag := range t.Tags {
			tags[i] = tag
		}
		rec["tags"] = tags
	}
	if t.Description != "" {
		rec["description"] = t.Description
	}
	if t.DayKey != "" {
		rec["day_key"] = t.DayKey
	}
	for key, v := range map[string]*int64{
		"due_ms":        t.DueMs,
		"scheduled_ms":  t.ScheduledMs,
		"duration_min":  t.DurationMin,
		"start_calc_ms": t.StartCalcMs,
		"end_calc_ms":   t.EndCalcMs,
		"dur_calc_min":  t.DurCalcMin,
	} {
		if v != nil {
			rec[key] = *v
		}
	}
	return rec
}

// IsNormalized reports whether t went through Normalize (or was decoded
// from a normalized payload).
func (t Task) IsNormalized() bool {
	return t.UUID != "" && t.Raw != nil
}

// HasTag reports whether tag is one of t's tags.
func (t Task) HasTag(tag string) bool {
	for _, candidate := range t.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both normalized tasks and raw export records. A
// record without a "raw" object is kept verbatim in Raw and left for
// Normalize.
func (t *Task) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return err
	}
	if _, ok := rec["raw"].(map[string]any); !ok {
		*t = Task{Raw: rec}
		return nil
	}
	type alias Task
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*t = Task(a)
	return nil
}

func millis(rec Record, msKey, key string) *int64 {
	if v, ok := Int64(rec[msKey]); ok {
		return &v
	}
	if s, ok := rec[key].(string); ok {
		if v, ok := timeutil.ParseCompactUTC(s); ok {
			return &v
		}
	}
	return optional(Int64(rec[key]))
}

func duration(rec Record) *int64 {
	if v, ok := Int64(rec["duration_min"]); ok && v > 0 {
		return &v
	}
	if s, ok := String(rec["duration"]); ok {
		if v, ok := timeutil.ParseDurationMinutes(s); ok {
			return &v
		}
	}
	return nil
}

func optional(v int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &v
}

func dedupe(tags []string) []string {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0:0]
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
