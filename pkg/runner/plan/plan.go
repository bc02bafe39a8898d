// Package plan resolves effective intervals and conflicts for a payload.
package plan

import (
	"context"
	"fmt"
	"io"
	"maps"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/query"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
	"tableflip.dev/taskcal/pkg/task"
)

// Plan prints the events and conflict segments of a payload, optionally under
// overrides from a file and a saved plan.
type Plan struct {
	Payload         string
	Expr            string
	OverridesFile   string
	PlanID          string
	IncludeFixtures bool
	Plans           store.Plans

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

// Schedule is the structured result of planning.
type Schedule struct {
	Events    []planner.Event   `json:"events"`
	Conflicts []planner.Segment `json:"conflicts"`
}

// Overrides merges the saved plan, if any, with the overrides file. Entries
// from the file win.
func Overrides(plans store.Plans, planID, file string) (planner.Overrides, error) {
	out := planner.Overrides{}
	if planID != "" {
		if plans == nil {
			return nil, fmt.Errorf("plan %s: no plan store", planID)
		}
		saved, err := plans.Get(planID)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", planID, err)
		}
		maps.Copy(out, saved.Overrides)
	}
	fromFile, err := source.LoadOverrides(file)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, fromFile)
	return out, nil
}

// Select returns the tasks of p matching expr, without scaffolding unless
// includeFixtures is set.
func Select(p *payload.Payload, expr string, includeFixtures bool) ([]task.Task, error) {
	tasks := p.Tasks
	if expr != "" {
		q, err := query.Parse(expr)
		if err != nil {
			return nil, err
		}
		tasks = q.Run(p)
	}
	if !includeFixtures {
		tasks = task.WithoutScaffold(tasks)
	}
	return tasks, nil
}

// ByUUID indexes tasks by uuid.
func ByUUID(tasks []task.Task) map[string]task.Task {
	out := make(map[string]task.Task, len(tasks))
	for _, t := range tasks {
		out[t.UUID] = t
	}
	return out
}

func (n *Plan) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	p, err := source.LoadPayload(n.Payload, n.Stdin, log)
	if err != nil {
		return err
	}
	overrides, err := Overrides(n.Plans, n.PlanID, n.OverridesFile)
	if err != nil {
		return err
	}
	tasks, err := Select(p, n.Expr, n.IncludeFixtures)
	if err != nil {
		return err
	}

	pl := planner.New(p.Cfg)
	events := pl.ApplyOverrides(tasks, overrides)
	s := Schedule{Events: events.Sorted(), Conflicts: pl.DetectConflicts(events)}
	if s.Conflicts == nil {
		s.Conflicts = []planner.Segment{}
	}
	log.Debug("planned",
		zap.Int("tasks", len(tasks)),
		zap.Int("overrides", len(overrides)),
		zap.Int("events", len(s.Events)),
		zap.Int("conflicts", len(s.Conflicts)))

	if n.Result.Loc == nil {
		n.Result.Loc = p.Cfg.DisplayLocation()
	}
	return n.Result.Emit(s, func(pp *printers.PrettyPrint) {
		pp.TitleWithCount("Events", len(s.Events), "event")
		pp.Events(s.Events, ByUUID(tasks))
		pp.TitleWithCount("Conflicts", len(s.Conflicts), "segment")
		pp.Segments(s.Conflicts)
	})
}
