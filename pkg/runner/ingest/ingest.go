// Package ingest turns a task-manager export into a payload.
package ingest

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/runner/source"
)

// Ingest reads a JSON array of raw task records and writes a latest-schema
// payload with normalized tasks and indices.
type Ingest struct {
	Input  string
	Output string
	Cfg    payload.Config
	Now    func() time.Time

	Stdin  io.Reader
	Stdout io.Writer
	Log    *zap.Logger
}

func (n *Ingest) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}

	b, err := source.ReadAll(n.Input, n.Stdin)
	if err != nil {
		return err
	}
	records, err := source.DecodeRecords(b)
	if err != nil {
		return err
	}
	p, err := payload.FromRecords(records, n.Cfg, now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	if dropped := len(records) - len(p.Tasks); dropped > 0 {
		log.Debug("records without a unique uuid dropped", zap.Int("dropped", dropped))
	}
	if err := payload.Validate(p); err != nil {
		return err
	}
	out, err := payload.Encode(p)
	if err != nil {
		return err
	}
	log.Info("payload built",
		zap.Int("tasks", len(p.Tasks)),
		zap.Int("schema_version", p.SchemaVersion),
		zap.String("output", n.Output))
	return source.WriteFile(n.Output, out, n.Stdout)
}
