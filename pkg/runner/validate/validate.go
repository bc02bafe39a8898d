// Package validate checks a payload against the schema contract without
// repairing it.
package validate

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/runner/source"
)

// Validate reports whether a payload already holds the invariants of its
// declared schema version.
type Validate struct {
	Payload string

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

// Report is the structured result of validation.
type Report struct {
	Valid         bool   `json:"valid"`
	SchemaVersion int    `json:"schema_version"`
	Tasks         int    `json:"tasks"`
	Error         string `json:"error,omitempty"`
}

// Do returns the validation error after printing the report, so the command
// exits non-zero on an invalid payload.
func (n *Validate) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	b, err := source.ReadAll(n.Payload, n.Stdin)
	if err != nil {
		return err
	}
	p, err := payload.Decode(b)
	if err != nil {
		return err
	}
	r := Report{SchemaVersion: p.SchemaVersion, Tasks: len(p.Tasks)}
	verr := payload.Validate(p)
	if verr == nil {
		r.Valid = true
	} else {
		r.Error = verr.Error()
		log.Debug("payload invalid", zap.Error(verr))
	}

	if err := n.Result.Emit(r, func(pp *printers.PrettyPrint) {
		if r.Valid {
			_, _ = color.New(color.FgGreen).Fprintf(pp.Out, "valid: schema v%d, %d tasks\n", r.SchemaVersion, r.Tasks)
			return
		}
		_, _ = color.New(color.FgRed).Fprintf(pp.Out, "invalid: %s\n", r.Error)
	}); err != nil {
		return err
	}
	if verr != nil {
		return fmt.Errorf("validate: %w", verr)
	}
	return nil
}
