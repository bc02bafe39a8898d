package printers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/task"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// Day is one calendar day of an agenda.
type Day struct {
	Date      time.Time         `json:"date"`
	Events    []planner.Event   `json:"events"`
	Conflicts []planner.Segment `json:"conflicts,omitempty"`
}

const (
	agendaWidth = 48 // columns for the 24h bar
	minutesDay  = 24 * 60
)

type agendaStyles struct {
	day      lipgloss.Style
	work     lipgloss.Style
	off      lipgloss.Style
	block    lipgloss.Style
	conflict lipgloss.Style
	label    lipgloss.Style
}

func newAgendaStyles(plain bool) agendaStyles {
	if plain {
		s := lipgloss.NewStyle()
		return agendaStyles{s, s, s, s, s, s}
	}
	return agendaStyles{
		day:      lipgloss.NewStyle().Bold(true).Underline(true),
		work:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		off:      lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		block:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		conflict: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Plain reports whether output should skip styling.
func (pp *PrettyPrint) Plain() bool {
	if color.NoColor {
		return true
	}
	if f, ok := pp.out().(*os.File); ok {
		return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return pp.Out != nil
}

// Agenda prints each day as a 24 hour bar followed by its events. Working
// hours are shaded and any event in a conflict segment is highlighted.
func (pp *PrettyPrint) Agenda(days []Day, byUUID map[string]task.Task, workStartMin, workEndMin int) {
	st := newAgendaStyles(pp.Plain())
	for _, d := range days {
		_, _ = fmt.Fprintln(pp.out(), st.day.Render(d.Date.Format("Mon Jan 2 2006")))
		_, _ = fmt.Fprintln(pp.out(), st.label.Render(ruler()))

		conflicted := map[string]bool{}
		for _, s := range d.Conflicts {
			for _, u := range s.UUIDs {
				conflicted[u] = true
			}
		}

		if len(d.Events) == 0 {
			_, _ = fmt.Fprintln(pp.out(), bar(d.Date, nil, workStartMin, workEndMin, st, false))
			_, _ = fmt.Fprintln(pp.out(), st.label.Render("  none"))
		}
		for _, e := range d.Events {
			line := bar(d.Date, &e, workStartMin, workEndMin, st, conflicted[e.UUID])
			desc := byUUID[e.UUID].Description
			if desc == "" {
				desc = shortID(e.UUID)
			}
			when := fmt.Sprintf("%s-%s", clock(e.StartMs, d.Date.Location()), clock(e.DueMs, d.Date.Location()))
			_, _ = fmt.Fprintf(pp.out(), "%s %s %s\n", line, st.label.Render(when), desc)
		}
		pp.NewLine()
	}
}

func ruler() string {
	var b strings.Builder
	per := agendaWidth / 8
	for h := 0; h < 24; h += 3 {
		label := fmt.Sprintf("%02d", h)
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", per-len(label)))
	}
	return b.String()
}

func clock(ms int64, loc *time.Location) string {
	return timeutil.FromMillis(ms, loc).Format("15:04")
}

// bar renders one row of the day: work hours shaded, the event as a block.
func bar(day time.Time, e *planner.Event, workStartMin, workEndMin int, st agendaStyles, conflict bool) string {
	dayStart := timeutil.StartOfDay(day).UnixMilli()
	dayEnd := timeutil.StartOfDay(day.AddDate(0, 0, 1)).UnixMilli()
	colMs := (dayEnd - dayStart) / agendaWidth

	var b strings.Builder
	for col := 0; col < agendaWidth; col++ {
		from := dayStart + int64(col)*colMs
		to := from + colMs
		minute := col * minutesDay / agendaWidth
		switch {
		case e != nil && e.StartMs < to && e.DueMs > from:
			if conflict {
				b.WriteString(st.conflict.Render("█"))
			} else {
				b.WriteString(st.block.Render("█"))
			}
		case minute >= workStartMin && minute < workEndMin:
			b.WriteString(st.work.Render("·"))
		default:
			b.WriteString(st.off.Render(" "))
		}
	}
	return b.String()
}

// PrintMonth prints a month grid with days that have events in bold.
func (pp *PrettyPrint) PrintMonth(then time.Time, events []planner.Event) {
	days := DaysIn(then)
	count := make([]int, days)
	for _, e := range events {
		t := timeutil.FromMillis(e.StartMs, then.Location())
		if t.Year() == then.Year() && t.Month() == then.Month() {
			count[t.Day()-1]++
		}
	}
	pp.PrintMonthCount(then, count)
}

const width = len("11 12 13 14 15 16 17") // an example week

func (pp *PrettyPrint) PrintMonthCount(then time.Time, count []int) {
	d := StartDay(then)

	tf := color.New(color.FgWhite, color.Italic)

	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(pp.out(), "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	// Pad out the start of the month.
	for i := time.Sunday; i < d; i++ {
		_, _ = fmt.Fprint(pp.out(), "   ")
	}

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	for i := 0; i < DaysIn(then); i++ {
		if i < len(count) && count[i] > 0 {
			_, _ = l2.Fprintf(pp.out(), "%2d ", i+1)
		} else {
			_, _ = l1.Fprintf(pp.out(), "%2d ", i+1)
		}

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(pp.out(), "\n")
		}
	}
	_, _ = fmt.Fprint(pp.out(), "\n\n")
}

func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.Year(), then.Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
