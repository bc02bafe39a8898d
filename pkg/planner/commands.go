package planner

import (
	"fmt"

	"github.com/kballard/go-shellquote"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// Command is a task-manager modify invocation for one task.
type Command struct {
	UUID    string `json:"uuid"`
	StartMs int64  `json:"start_ms"`
	Line    string `json:"line"`
}

// GenerateModifyCommands returns modify commands for every uuid with a
// valid, positive-duration event, ordered by start. Times are rendered in
// the display timezone without an offset.
func (p *Planner) GenerateModifyCommands(uuids []string, events Events) []Command {
	loc := p.Cfg.DisplayLocation()
	picked := candidates(uuids, events)
	sortEvents(picked)

	out := make([]Command, 0, len(picked))
	for _, e := range picked {
		dur := e.durationMs() / msPerMinute
		if dur <= 0 {
			continue
		}
		line := fmt.Sprintf("task %s modify scheduled:%s due:%s duration:%dmin",
			shellquote.Join(e.UUID),
			timeutil.FormatLocal(e.StartMs, loc),
			timeutil.FormatLocal(e.DueMs, loc),
			dur)
		out = append(out, Command{UUID: e.UUID, StartMs: e.StartMs, Line: line})
	}
	return out
}

// GenerateModifyCommands is New(cfg).GenerateModifyCommands(uuids, events)
// reduced to the command lines.
func GenerateModifyCommands(uuids []string, events Events, cfg payload.Config) []string {
	cmds := New(cfg).GenerateModifyCommands(uuids, events)
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Line
	}
	return out
}
