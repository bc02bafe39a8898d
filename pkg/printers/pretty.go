package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/store"
	"tableflip.dev/taskcal/pkg/task"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// PrettyPrint renders core results as terminal tables.
type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
	Loc    *time.Location
}

var (
	spacing = strings.Repeat(" ", len("00000000  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) when(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return timeutil.FormatLocal(*ms, pp.Loc)
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

// TitleWithCount prints title followed by a faint "- n noun(s)".
func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintf(pp.out(), " %s\n", noun)
	default:
		_, _ = c.Fprintf(pp.out(), " %ss\n", noun)
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Tasks prints one row per task.
func (pp *PrettyPrint) Tasks(tasks ...task.Task) {
	if len(tasks) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	if pp.ShowID {
		tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Status"), bold.Sprint("Due"), bold.Sprint("Project"), bold.Sprint("Tags"), bold.Sprint("Description"))
	} else {
		tbl.AddRow(bold.Sprint("Status"), bold.Sprint("Due"), bold.Sprint("Project"), bold.Sprint("Tags"), bold.Sprint("Description"))
	}
	for _, t := range tasks {
		tags := "+" + strings.Join(t.Tags, " +")
		if len(t.Tags) == 0 {
			tags = ""
		}
		row := []interface{}{t.Status, pp.when(t.DueMs), t.Project, tags, t.Description}
		if pp.ShowID {
			row = append([]interface{}{y.Sprint(shortID(t.UUID))}, row...)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Positions prints bare payload positions, one per line.
func (pp *PrettyPrint) Positions(positions []int) {
	for _, i := range positions {
		_, _ = fmt.Fprintln(pp.out(), i)
	}
}

// Events prints effective intervals with the description of their task.
func (pp *PrettyPrint) Events(events []planner.Event, byUUID map[string]task.Task) {
	if len(events) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Start"), bold.Sprint("Due"), bold.Sprint("Min"), bold.Sprint("Source"), bold.Sprint("Description"))
	for _, e := range events {
		tbl.AddRow(shortID(e.UUID),
			timeutil.FormatLocal(e.StartMs, pp.Loc),
			timeutil.FormatLocal(e.DueMs, pp.Loc),
			e.DurationMin,
			faint.Sprint(e.Source),
			byUUID[e.UUID].Description)
	}
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Segments prints conflict segments.
func (pp *PrettyPrint) Segments(segments []planner.Segment) {
	if len(segments) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	overlap := color.New(color.FgRed)
	after := color.New(color.FgYellow)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Kind"), bold.Sprint("From"), bold.Sprint("To"), bold.Sprint("Tasks"))
	for _, s := range segments {
		kind := after.Sprint(s.Kind)
		if s.Kind == planner.KindOverlap {
			kind = overlap.Sprint(s.Kind)
		}
		ids := make([]string, len(s.UUIDs))
		for i, u := range s.UUIDs {
			ids[i] = shortID(u)
		}
		tbl.AddRow(kind,
			timeutil.FormatLocal(s.StartMs, pp.Loc),
			timeutil.FormatLocal(s.EndMs, pp.Loc),
			strings.Join(ids, ","))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Metrics prints selection metrics as a two column table.
func (pp *PrettyPrint) Metrics(m planner.Metrics) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("count", m.Count)
	tbl.AddRow("duration", formatMinutes(m.DurationMin))
	tbl.AddRow("span", formatMinutes(m.SpanMin))
	tbl.AddRow("gap", formatMinutes(m.GapMin))
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Overrides prints an override map ordered by start.
func (pp *PrettyPrint) Overrides(o planner.Overrides) {
	if len(o) == 0 {
		pp.none()
		return
	}
	events := make(planner.Events, len(o))
	for u, ov := range o {
		e := planner.Event{UUID: u, StartMs: ov.StartMs, DueMs: ov.DueMs, Source: planner.SourceOverride}
		if ov.DurationMin != nil {
			e.DurationMin = *ov.DurationMin
		}
		events[u] = e
	}
	pp.Events(events.Sorted(), nil)
}

// Commands prints modify command lines.
func (pp *PrettyPrint) Commands(cmds []planner.Command) {
	for _, c := range cmds {
		_, _ = fmt.Fprintln(pp.out(), c.Line)
	}
}

// Plans prints saved plans.
func (pp *PrettyPrint) Plans(plans ...*store.Plan) {
	if len(plans) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Created"), bold.Sprint("Transform"), bold.Sprint("Tasks"), bold.Sprint("Name"))
	for _, p := range plans {
		tbl.AddRow(y.Sprint(p.ID), p.Created.Local().Format(time.RFC822), p.Transform, len(p.Overrides), p.Name)
	}
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func formatMinutes(m int64) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
