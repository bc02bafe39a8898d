// Package schedule applies a scheduling transform to a selection of tasks.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/plan"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
)

// Nudge is the transform name that shifts tasks by DeltaMin.
const Nudge = "nudge"

// Names lists every transform the runner accepts.
func Names() []string {
	names := []string{Nudge}
	for name := range planner.Transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schedule computes an override map for the selected tasks, and optionally
// the modify commands that apply it and a saved plan.
type Schedule struct {
	Payload       string
	Transform     string
	UUIDs         []string
	Expr          string
	DeltaMin      int64
	OverridesFile string
	PlanID        string
	Commands      bool
	Save          bool
	Name          string
	Plans         store.Plans

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

// Outcome is the structured result of a transform.
type Outcome struct {
	Transform string            `json:"transform"`
	Overrides planner.Overrides `json:"overrides"`
	Commands  []planner.Command `json:"commands,omitempty"`
	PlanID    string            `json:"plan_id,omitempty"`
}

func (n *Schedule) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	transform, ok := planner.Transforms[n.Transform]
	if !ok && n.Transform != Nudge {
		return fmt.Errorf("unknown transform %q, want one of %s", n.Transform, strings.Join(Names(), ", "))
	}
	if len(n.UUIDs) == 0 && n.Expr == "" {
		return errors.New("schedule: no uuids or query given")
	}
	if n.Save && n.Plans == nil {
		return errors.New("schedule: --save needs a plan store")
	}

	p, err := source.LoadPayload(n.Payload, n.Stdin, log)
	if err != nil {
		return err
	}
	base, err := plan.Overrides(n.Plans, n.PlanID, n.OverridesFile)
	if err != nil {
		return err
	}
	tasks, err := plan.Select(p, n.Expr, false)
	if err != nil {
		return err
	}
	uuids := n.UUIDs
	if len(uuids) == 0 {
		for _, t := range tasks {
			uuids = append(uuids, t.UUID)
		}
	}

	pl := planner.New(p.Cfg)
	events := pl.ApplyOverrides(tasks, base)

	out := Outcome{Transform: n.Transform}
	if n.Transform == Nudge {
		out.Overrides = pl.Nudge(uuids, events, n.DeltaMin)
	} else {
		out.Overrides = transform(pl, uuids, events)
	}
	log.Info("transform applied",
		zap.String("transform", n.Transform),
		zap.Int("selected", len(uuids)),
		zap.Int("moved", len(out.Overrides)))

	if n.Commands {
		merged := maps.Clone(base)
		maps.Copy(merged, out.Overrides)
		after := pl.ApplyOverrides(tasks, merged)
		moved := make([]string, 0, len(out.Overrides))
		for u := range out.Overrides {
			moved = append(moved, u)
		}
		out.Commands = pl.GenerateModifyCommands(moved, after)
	}

	if n.Save {
		saved := &store.Plan{Name: n.Name, Transform: n.Transform, Payload: n.Payload, Overrides: out.Overrides}
		if err := n.Plans.Save(saved); err != nil {
			return err
		}
		out.PlanID = saved.ID
		log.Info("plan saved", zap.String("id", saved.ID))
	}

	if n.Result.Loc == nil {
		n.Result.Loc = p.Cfg.DisplayLocation()
	}
	return n.Result.Emit(out, func(pp *printers.PrettyPrint) {
		if n.Commands {
			pp.Commands(out.Commands)
			return
		}
		pp.TitleWithCount(n.Transform, len(out.Overrides), "override")
		pp.Overrides(out.Overrides)
		if out.PlanID != "" {
			pp.Title("saved as " + out.PlanID)
		}
	})
}
