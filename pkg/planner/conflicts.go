package planner

import (
	"sort"
	"strings"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// Kind classifies a conflict segment.
type Kind string

const (
	KindOverlap    Kind = "overlap"
	KindOutOfHours Kind = "out_of_hours"
)

// maxDayWalk bounds the out-of-hours walk for a single interval.
const maxDayWalk = 400

// Segment is a conflicting range [StartMs, EndMs). Key is the comma-joined
// sorted uuids.
type Segment struct {
	Kind    Kind     `json:"kind"`
	StartMs int64    `json:"start_ms"`
	EndMs   int64    `json:"end_ms"`
	UUIDs   []string `json:"uuids"`
	Key     string   `json:"key"`
}

// DetectConflicts returns the overlap and out-of-hours segments of events
// ordered by start, kind and key.
func (p *Planner) DetectConflicts(events Events) []Segment {
	sorted := events.Sorted()
	out := overlaps(sorted)
	out = append(out, p.outOfHours(sorted)...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StartMs != b.StartMs {
			return a.StartMs < b.StartMs
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Key < b.Key
	})
	return out
}

// DetectConflicts is New(cfg).DetectConflicts(events).
func DetectConflicts(events Events, cfg payload.Config) []Segment {
	return New(cfg).DetectConflicts(events)
}

type sweepPoint struct {
	ts    int64
	delta int
	uuid  string
}

// sweepPoints orders boundaries by time with starts ahead of ends at the same
// instant, so an interval that ends where another begins joins the active
// set before it leaves.
func sweepPoints(events []Event) []sweepPoint {
	pts := make([]sweepPoint, 0, 2*len(events))
	for _, e := range events {
		if !e.Valid() {
			continue
		}
		pts = append(pts, sweepPoint{e.StartMs, +1, e.UUID}, sweepPoint{e.DueMs, -1, e.UUID})
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].ts != pts[j].ts {
			return pts[i].ts < pts[j].ts
		}
		if pts[i].delta != pts[j].delta {
			return pts[i].delta > pts[j].delta
		}
		return pts[i].uuid < pts[j].uuid
	})
	return pts
}

func overlaps(events []Event) []Segment {
	var out []Segment
	active := map[string]int{}
	var prev int64
	for i, pt := range sweepPoints(events) {
		if i > 0 && pt.ts > prev && len(active) >= 2 {
			out = appendSegment(out, KindOverlap, prev, pt.ts, activeUUIDs(active))
		}
		if pt.delta > 0 {
			active[pt.uuid]++
		} else if active[pt.uuid]--; active[pt.uuid] <= 0 {
			delete(active, pt.uuid)
		}
		prev = pt.ts
	}
	return out
}

func activeUUIDs(active map[string]int) []string {
	out := make([]string, 0, len(active))
	for u := range active {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (p *Planner) outOfHours(events []Event) []Segment {
	start, end := p.Cfg.WorkStartMin, p.Cfg.WorkEndMin
	if end <= start {
		return nil
	}
	loc := p.Cfg.LocationOrUTC()

	var out []Segment
	for _, e := range events {
		if !e.Valid() {
			continue
		}
		var own []Segment
		day := timeutil.StartOfDay(timeutil.FromMillis(e.StartMs, loc))
		for i := 0; i < maxDayWalk && day.UnixMilli() < e.DueMs; i++ {
			next := timeutil.StartOfDay(day.AddDate(0, 0, 1))
			dayMs, nextMs := day.UnixMilli(), next.UnixMilli()
			workStart := timeutil.AtMinute(day, start).UnixMilli()
			workEnd := timeutil.AtMinute(day, end).UnixMilli()

			if s, f := max(e.StartMs, dayMs), min(e.DueMs, workStart); f > s {
				own = appendSegment(own, KindOutOfHours, s, f, []string{e.UUID})
			}
			if s, f := max(e.StartMs, workEnd), min(e.DueMs, nextMs); f > s {
				own = appendSegment(own, KindOutOfHours, s, f, []string{e.UUID})
			}
			day = next
		}
		out = append(out, own...)
	}
	return out
}

// appendSegment adds [start, end) to out, extending the last segment instead
// when it has the same kind and key and ends exactly at start.
func appendSegment(out []Segment, kind Kind, start, end int64, uuids []string) []Segment {
	key := strings.Join(uuids, ",")
	if n := len(out); n > 0 {
		last := &out[n-1]
		if last.Kind == kind && last.Key == key && last.EndMs == start {
			last.EndMs = end
			return out
		}
	}
	return append(out, Segment{Kind: kind, StartMs: start, EndMs: end, UUIDs: uuids, Key: key})
}
