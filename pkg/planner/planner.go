// Package planner resolves the effective calendar interval of every task and
// derives conflicts, selection metrics and scheduling transforms from them.
package planner

import (
	"sort"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/task"
)

const msPerMinute = int64(60 * 1000)

// Source names the resolver that placed an event.
type Source string

const (
	SourceOverride    Source = "override"
	SourcePrecomputed Source = "precomputed"
	SourceInferred    Source = "inferred"
)

// Override pins a task to an explicit interval for one planning call.
type Override struct {
	StartMs     int64  `json:"start_ms"`
	DueMs       int64  `json:"due_ms"`
	DurationMin *int64 `json:"duration_min,omitempty"`
}

// Overrides maps task uuid to its pinned interval.
type Overrides map[string]Override

// Event is the effective interval of one task.
type Event struct {
	UUID        string `json:"uuid"`
	StartMs     int64  `json:"start_ms"`
	DueMs       int64  `json:"due_ms"`
	DurationMin int64  `json:"duration_min"`
	Source      Source `json:"source,omitempty"`
}

// Valid reports whether the interval is non-empty.
func (e Event) Valid() bool {
	return e.DueMs > e.StartMs
}

func (e Event) durationMs() int64 {
	if e.DurationMin > 0 {
		return e.DurationMin * msPerMinute
	}
	return e.DueMs - e.StartMs
}

// Events maps task uuid to its effective interval. Unscheduled tasks are
// absent.
type Events map[string]Event

// Sorted returns the events ordered by start, then uuid.
func (ev Events) Sorted() []Event {
	out := make([]Event, 0, len(ev))
	for _, e := range ev {
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

func sortEvents(es []Event) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].StartMs != es[j].StartMs {
			return es[i].StartMs < es[j].StartMs
		}
		return es[i].UUID < es[j].UUID
	})
}

// Outcome is what a Resolver decided for a task.
type Outcome int

const (
	// Defer hands the task to the next resolver.
	Defer Outcome = iota
	// Resolved places the task with the returned event.
	Resolved
	// Rejected drops the task from this planning call.
	Rejected
)

// Resolver is one strategy in the placement priority chain.
type Resolver func(t task.Task) (Event, Outcome)

// Planner holds the calendar configuration and the interval-inference
// collaborator.
type Planner struct {
	Cfg   payload.Config
	Infer InferFunc
}

// New returns a Planner using due-dominant inference.
func New(cfg payload.Config) *Planner {
	return &Planner{Cfg: cfg, Infer: DueDominant}
}

// Resolvers returns the placement chain: overrides, then precomputed
// intervals, then inference.
func (p *Planner) Resolvers(overrides Overrides) []Resolver {
	return []Resolver{
		overrideResolver(overrides),
		precomputedResolver,
		p.inferResolver,
	}
}

// ApplyOverrides resolves the effective interval of every task. Tasks no
// resolver can place are left out.
func (p *Planner) ApplyOverrides(tasks []task.Task, overrides Overrides) Events {
	chain := p.Resolvers(overrides)
	events := make(Events, len(tasks))
	for _, t := range tasks {
		if t.UUID == "" {
			continue
		}
	placement:
		for _, resolve := range chain {
			ev, outcome := resolve(t)
			switch outcome {
			case Resolved:
				ev.UUID = t.UUID
				events[t.UUID] = ev
				break placement
			case Rejected:
				break placement
			}
		}
	}
	return events
}

// ApplyOverrides is New(cfg).ApplyOverrides(tasks, overrides).
func ApplyOverrides(tasks []task.Task, overrides Overrides, cfg payload.Config) Events {
	return New(cfg).ApplyOverrides(tasks, overrides)
}

func overrideResolver(overrides Overrides) Resolver {
	return func(t task.Task) (Event, Outcome) {
		o, ok := overrides[t.UUID]
		if !ok {
			return Event{}, Defer
		}
		if o.DueMs <= o.StartMs {
			return Event{}, Rejected
		}
		dur := spanMinutes(o.StartMs, o.DueMs)
		if o.DurationMin != nil && *o.DurationMin > 0 {
			dur = *o.DurationMin
		}
		return Event{StartMs: o.StartMs, DueMs: o.DueMs, DurationMin: dur, Source: SourceOverride}, Resolved
	}
}

func precomputedResolver(t task.Task) (Event, Outcome) {
	if t.StartCalcMs == nil || t.EndCalcMs == nil || *t.EndCalcMs <= *t.StartCalcMs {
		return Event{}, Defer
	}
	start, end := *t.StartCalcMs, *t.EndCalcMs
	dur := spanMinutes(start, end)
	if t.DurCalcMin != nil && *t.DurCalcMin > 0 {
		dur = *t.DurCalcMin
	}
	return Event{StartMs: start, DueMs: end, DurationMin: dur, Source: SourcePrecomputed}, Resolved
}

func (p *Planner) inferResolver(t task.Task) (Event, Outcome) {
	if t.DueMs == nil || p.Infer == nil {
		return Event{}, Defer
	}
	res := p.Infer(InferRequest{
		DueMs:               *t.DueMs,
		ScheduledMs:         t.ScheduledMs,
		DurationMin:         t.DurationMin,
		DefaultDurationMin:  int64(p.Cfg.DefaultDurationMin),
		MaxInferDurationMin: int64(p.Cfg.MaxInferDurationMin),
	})
	if !res.OK || res.EndMs <= res.StartMs {
		return Event{}, Defer
	}
	dur := res.DurationMin
	if dur <= 0 {
		dur = spanMinutes(res.StartMs, res.EndMs)
	}
	return Event{StartMs: res.StartMs, DueMs: res.EndMs, DurationMin: dur, Source: SourceInferred}, Resolved
}

func spanMinutes(start, end int64) int64 {
	return max(1, (end-start)/msPerMinute)
}
