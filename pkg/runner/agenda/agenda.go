// Package agenda renders a day-by-day timeline of a payload.
package agenda

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/plan"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
	"tableflip.dev/taskcal/pkg/task"
	"tableflip.dev/taskcal/pkg/timeutil"
)

const day = 24 * time.Hour

// Agenda prints the events of the selected tasks for each day of a window.
type Agenda struct {
	Payload         string
	Expr            string
	Day             string // YYYY-MM-DD in the display zone; today when empty
	Window          string // e.g. 1d, 1w
	Month           bool
	OverridesFile   string
	PlanID          string
	IncludeFixtures bool
	Plans           store.Plans
	Now             func() time.Time

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

// View is the structured result of an agenda.
type View struct {
	From   string          `json:"from"`
	Window string          `json:"window"`
	Days   []printers.Day  `json:"days"`
	Tasks  []task.Task     `json:"-"`
	All    []planner.Event `json:"-"`
}

func (n *Agenda) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	window, canonical, err := timeutil.ParseWindow(n.Window)
	if err != nil {
		return fmt.Errorf("agenda: window: %w", err)
	}
	p, err := source.LoadPayload(n.Payload, n.Stdin, log)
	if err != nil {
		return err
	}
	overrides, err := plan.Overrides(n.Plans, n.PlanID, n.OverridesFile)
	if err != nil {
		return err
	}
	loc := p.Cfg.DisplayLocation()
	from, err := n.start(loc)
	if err != nil {
		return err
	}

	// The query engine and the planner read the same snapshot and never
	// mutate it, so they run side by side.
	var (
		selected []task.Task
		events   planner.Events
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		selected, err = plan.Select(p, n.Expr, n.IncludeFixtures)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		events = planner.ApplyOverrides(p.Tasks, overrides, p.Cfg)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	keep := make(planner.Events, len(selected))
	for _, t := range selected {
		if e, ok := events[t.UUID]; ok {
			keep[t.UUID] = e
		}
	}
	v := Build(from, window, keep, p.Cfg)
	v.Window = canonical
	v.Tasks = selected
	log.Debug("agenda built",
		zap.String("from", v.From),
		zap.String("window", canonical),
		zap.Int("selected", len(selected)),
		zap.Int("events", len(keep)))

	if n.Result.Loc == nil {
		n.Result.Loc = loc
	}
	return n.Result.Emit(v, func(pp *printers.PrettyPrint) {
		if n.Month {
			pp.PrintMonth(from, keep.Sorted())
		}
		pp.Agenda(v.Days, plan.ByUUID(selected), p.Cfg.WorkStartMin, p.Cfg.WorkEndMin)
	})
}

func (n *Agenda) start(loc *time.Location) (time.Time, error) {
	if n.Day == "" {
		now := time.Now
		if n.Now != nil {
			now = n.Now
		}
		return timeutil.StartOfDay(now().In(loc)), nil
	}
	t, err := time.ParseInLocation(timeutil.LayoutDay, n.Day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("agenda: day %q: %w", n.Day, err)
	}
	return t, nil
}

// Build splits events into the calendar days starting at from that the
// window covers. Each day lists the events that intersect it and the
// conflicts detected among them.
func Build(from time.Time, window time.Duration, events planner.Events, cfg payload.Config) View {
	count := int((window + day - 1) / day)
	if count < 1 {
		count = 1
	}
	pl := planner.New(cfg)
	sorted := events.Sorted()

	v := View{From: from.Format(timeutil.LayoutDay), All: sorted}
	for i := 0; i < count; i++ {
		start := timeutil.StartOfDay(from.AddDate(0, 0, i))
		end := timeutil.StartOfDay(start.AddDate(0, 0, 1))
		d := printers.Day{Date: start, Events: []planner.Event{}}
		within := planner.Events{}
		for _, e := range sorted {
			if e.StartMs < end.UnixMilli() && e.DueMs > start.UnixMilli() {
				d.Events = append(d.Events, e)
				within[e.UUID] = e
			}
		}
		for _, s := range pl.DetectConflicts(within) {
			if s.StartMs < end.UnixMilli() && s.EndMs > start.UnixMilli() {
				d.Conflicts = append(d.Conflicts, s)
			}
		}
		v.Days = append(v.Days, d)
	}
	return v
}
