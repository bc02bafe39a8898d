// Package metrics summarizes a selection of scheduled tasks.
package metrics

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/plan"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
)

// Metrics prints count, duration, span and gap for UUIDs, or for every task
// matching Expr when no uuids are given.
type Metrics struct {
	Payload       string
	UUIDs         []string
	Expr          string
	OverridesFile string
	PlanID        string
	Plans         store.Plans

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

func (n *Metrics) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	if len(n.UUIDs) == 0 && n.Expr == "" {
		return errors.New("metrics: no uuids or query given")
	}
	p, err := source.LoadPayload(n.Payload, n.Stdin, log)
	if err != nil {
		return err
	}
	overrides, err := plan.Overrides(n.Plans, n.PlanID, n.OverridesFile)
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
	events := planner.ApplyOverrides(tasks, overrides, p.Cfg)
	m := planner.SelectionMetrics(uuids, events)
	log.Debug("metrics", zap.Int("selected", len(uuids)), zap.Int("counted", m.Count))

	return n.Result.Emit(m, func(pp *printers.PrettyPrint) {
		pp.Metrics(m)
	})
}
