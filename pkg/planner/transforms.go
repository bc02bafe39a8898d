package planner

import (
	"sort"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// candidates returns the valid events named by uuids, each once.
func candidates(uuids []string, events Events) []Event {
	seen := map[string]bool{}
	var out []Event
	for _, u := range uuids {
		e, ok := events[u]
		if !ok || seen[u] || !e.Valid() {
			continue
		}
		seen[u] = true
		out = append(out, e)
	}
	return out
}

// byDay groups events by the local calendar day of their start. Groups are
// returned in day order with members sorted by start.
func (p *Planner) byDay(events []Event) [][]Event {
	loc := p.Cfg.LocationOrUTC()
	groups := map[string][]Event{}
	var days []string
	for _, e := range events {
		day := timeutil.DayKey(e.StartMs, loc)
		if _, ok := groups[day]; !ok {
			days = append(days, day)
		}
		groups[day] = append(groups[day], e)
	}
	sort.Strings(days)
	out := make([][]Event, 0, len(days))
	for _, day := range days {
		g := groups[day]
		sortEvents(g)
		out = append(out, g)
	}
	return out
}

func (p *Planner) snap(ms int64) int64 {
	return timeutil.SnapMs(ms, int64(p.Cfg.SnapMin), p.Cfg.LocationOrUTC())
}

func place(out Overrides, e Event, start int64) {
	d := e.durationMs()
	dur := d / msPerMinute
	out[e.UUID] = Override{StartMs: start, DueMs: start + d, DurationMin: &dur}
}

// AlignStarts moves every task of a day to the snapped start of the day's
// earliest task. Durations are kept.
func (p *Planner) AlignStarts(uuids []string, events Events) Overrides {
	out := Overrides{}
	for _, g := range p.byDay(candidates(uuids, events)) {
		if len(g) < 2 {
			continue
		}
		anchor := p.snap(g[0].StartMs)
		for _, e := range g {
			place(out, e, anchor)
		}
	}
	return out
}

// AlignEnds moves every task of a day so it ends at the snapped due time of
// the day's latest-ending task.
func (p *Planner) AlignEnds(uuids []string, events Events) Overrides {
	out := Overrides{}
	for _, g := range p.byDay(candidates(uuids, events)) {
		if len(g) < 2 {
			continue
		}
		ref := g[0]
		for _, e := range g[1:] {
			if e.DueMs > ref.DueMs || (e.DueMs == ref.DueMs && e.UUID < ref.UUID) {
				ref = e
			}
		}
		anchor := p.snap(ref.DueMs)
		for _, e := range g {
			place(out, e, anchor-e.durationMs())
		}
	}
	return out
}

// Stack lays the tasks of each day back to back from the snapped start of
// the earliest one.
func (p *Planner) Stack(uuids []string, events Events) Overrides {
	out := Overrides{}
	for _, g := range p.byDay(candidates(uuids, events)) {
		if len(g) < 2 {
			continue
		}
		cursor := p.snap(g[0].StartMs)
		for _, e := range g {
			place(out, e, cursor)
			cursor += e.durationMs()
		}
	}
	return out
}

// Distribute spreads three or more tasks of a day evenly across the window
// from the earliest start to the latest due. When the tasks do not fit the
// gap is zero and they are laid back to back past the window.
func (p *Planner) Distribute(uuids []string, events Events) Overrides {
	out := Overrides{}
	for _, g := range p.byDay(candidates(uuids, events)) {
		n := int64(len(g))
		if n < 3 {
			continue
		}
		first, last := g[0].StartMs, g[0].DueMs
		var total int64
		for _, e := range g {
			last = max(last, e.DueMs)
			total += e.durationMs()
		}
		gap := max(0, (last-first-total)/(n-1))
		cursor := first
		for _, e := range g {
			place(out, e, cursor)
			cursor += e.durationMs() + gap
		}
	}
	return out
}

// Nudge shifts each task by deltaMin minutes.
func (p *Planner) Nudge(uuids []string, events Events, deltaMin int64) Overrides {
	out := Overrides{}
	for _, e := range candidates(uuids, events) {
		dur := e.DurationMin
		out[e.UUID] = Override{
			StartMs:     e.StartMs + deltaMin*msPerMinute,
			DueMs:       e.DueMs + deltaMin*msPerMinute,
			DurationMin: &dur,
		}
	}
	return out
}

// Transform is the shape shared by the day-grouped scheduling transforms.
type Transform func(p *Planner, uuids []string, events Events) Overrides

// Transforms names the day-grouped transforms.
var Transforms = map[string]Transform{
	"align-starts": (*Planner).AlignStarts,
	"align-ends":   (*Planner).AlignEnds,
	"stack":        (*Planner).Stack,
	"distribute":   (*Planner).Distribute,
}

func AlignStarts(uuids []string, events Events, cfg payload.Config) Overrides {
	return New(cfg).AlignStarts(uuids, events)
}

func AlignEnds(uuids []string, events Events, cfg payload.Config) Overrides {
	return New(cfg).AlignEnds(uuids, events)
}

func Stack(uuids []string, events Events, cfg payload.Config) Overrides {
	return New(cfg).Stack(uuids, events)
}

func Distribute(uuids []string, events Events, cfg payload.Config) Overrides {
	return New(cfg).Distribute(uuids, events)
}

func Nudge(uuids []string, events Events, deltaMin int64) Overrides {
	return (&Planner{}).Nudge(uuids, events, deltaMin)
}
