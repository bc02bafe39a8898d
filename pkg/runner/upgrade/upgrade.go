// Package upgrade rewrites a payload at a newer schema version.
package upgrade

import (
	"context"
	"io"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/runner/source"
)

// Upgrade reads Input, upgrades it to version To and writes it to Output.
type Upgrade struct {
	Input  string
	Output string
	To     int

	Stdin  io.Reader
	Stdout io.Writer
	Log    *zap.Logger
}

func (n *Upgrade) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	b, err := source.ReadAll(n.Input, n.Stdin)
	if err != nil {
		return err
	}
	p, err := payload.Decode(b)
	if err != nil {
		return err
	}
	to := n.To
	if to == 0 {
		to = payload.LatestVersion
	}
	up, err := payload.Upgrade(p, to)
	if err != nil {
		return err
	}
	out, err := payload.Encode(up)
	if err != nil {
		return err
	}
	log.Info("payload upgraded",
		zap.Int("from", p.SchemaVersion),
		zap.Int("to", up.SchemaVersion),
		zap.Int("tasks", len(up.Tasks)))
	return source.WriteFile(n.Output, out, n.Stdout)
}
