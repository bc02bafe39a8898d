// Package plans lists, shows and removes saved override plans.
package plans

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
)

var errNoStore = errors.New("plans: no plan store")

// List prints every saved plan.
type List struct {
	Plans  store.Plans
	Result printers.Result
}

func (n *List) Do(ctx context.Context) error {
	if n.Plans == nil {
		return errNoStore
	}
	all := n.Plans.List(ctx)
	return n.Result.Emit(all, func(pp *printers.PrettyPrint) {
		pp.TitleWithCount("Plans", len(all), "plan")
		pp.Plans(all...)
	})
}

// Show prints one saved plan.
type Show struct {
	ID     string
	Plans  store.Plans
	Result printers.Result
}

func (n *Show) Do(ctx context.Context) error {
	if n.Plans == nil {
		return errNoStore
	}
	p, err := n.Plans.Get(n.ID)
	if err != nil {
		return err
	}
	return n.Result.Emit(p, func(pp *printers.PrettyPrint) {
		pp.Plans(p)
		pp.NewLine()
		pp.Overrides(p.Overrides)
	})
}

// Remove deletes saved plans by id.
type Remove struct {
	IDs   []string
	Plans store.Plans
	Log   *zap.Logger
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Plans == nil {
		return errNoStore
	}
	log := source.Logger(n.Log)
	for _, id := range n.IDs {
		if err := n.Plans.Delete(id); err != nil {
			return err
		}
		log.Info("plan removed", zap.String("id", id))
	}
	return nil
}
