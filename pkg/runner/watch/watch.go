// Package watch re-runs a query whenever its payload file changes.
package watch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/query"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/store"
)

// Watch prints the result of Expr against Payload now and after every change
// to the file, until ctx is done.
type Watch struct {
	Payload         string
	Expr            string
	IncludeFixtures bool

	Result printers.Result
	Log    *zap.Logger
}

func (n *Watch) Do(ctx context.Context) error {
	if n.Payload == "" || n.Payload == source.Stdin {
		return errors.New("watch: a payload file is required")
	}
	log := source.Logger(n.Log)

	events, err := store.WatchFile(ctx, n.Payload)
	if err != nil {
		return err
	}
	n.run(ctx, log)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case store.EventRemoved:
				log.Warn("payload removed, waiting for it to return", zap.String("path", ev.Path))
			default:
				log.Debug("payload changed", zap.String("path", ev.Path), zap.Int("type", int(ev.Type)))
				n.run(ctx, log)
			}
		}
	}
}

// run evaluates the query once. Failures are logged so a half-written file
// does not end the watch.
func (n *Watch) run(ctx context.Context, log *zap.Logger) {
	q := query.Query{
		Payload:         n.Payload,
		Expr:            n.Expr,
		IncludeFixtures: n.IncludeFixtures,
		Result:          n.Result,
		Log:             log,
	}
	if n.Result.Format == printers.FormatText {
		q.Result.Pretty().Title(time.Now().Format(time.Kitchen))
	}
	if err := q.Do(ctx); err != nil {
		log.Error("query failed", zap.Error(err))
	}
}
