// Package query runs filter expressions against a payload.
package query

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"tableflip.dev/taskcal/pkg/printers"
	q "tableflip.dev/taskcal/pkg/query"
	"tableflip.dev/taskcal/pkg/runner/source"
	"tableflip.dev/taskcal/pkg/task"
)

// Query prints the tasks of a payload matching Expr.
type Query struct {
	Payload         string
	Expr            string
	Indices         bool
	IncludeFixtures bool

	Result printers.Result
	Stdin  io.Reader
	Log    *zap.Logger
}

// Matches is the structured result of a query.
type Matches struct {
	Expr      string      `json:"expr"`
	Positions []int       `json:"positions"`
	Tasks     []task.Task `json:"tasks,omitempty"`
}

func (n *Query) Do(ctx context.Context) error {
	log := source.Logger(n.Log)
	expr, err := q.Parse(n.Expr)
	if err != nil {
		return err
	}
	p, err := source.LoadPayload(n.Payload, n.Stdin, log)
	if err != nil {
		return err
	}
	if n.Result.Loc == nil {
		n.Result.Loc = p.Cfg.DisplayLocation()
	}

	m := Matches{Expr: n.Expr, Positions: []int{}}
	for _, i := range expr.RunIndices(p) {
		t := p.Tasks[i]
		if !n.IncludeFixtures && task.IsScaffold(t) {
			continue
		}
		m.Positions = append(m.Positions, i)
		if !n.Indices {
			m.Tasks = append(m.Tasks, t)
		}
	}
	log.Debug("query evaluated",
		zap.String("expr", n.Expr),
		zap.Int("candidates", len(p.Tasks)),
		zap.Int("matches", len(m.Positions)))

	return n.Result.Emit(m, func(pp *printers.PrettyPrint) {
		if n.Indices {
			pp.Positions(m.Positions)
			return
		}
		title := strings.TrimSpace(n.Expr)
		if title == "" {
			title = "all tasks"
		}
		pp.TitleWithCount(title, len(m.Tasks), "task")
		pp.Tasks(m.Tasks...)
	})
}
