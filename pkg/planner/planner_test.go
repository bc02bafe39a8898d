package planner

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/task"
)

func at(day, h, m int) int64 {
	return time.Date(2020, 1, day, h, m, 0, 0, time.UTC).UnixMilli()
}

func ptr(v int64) *int64 { return &v }

func ev(uuid string, start, due int64) Event {
	return Event{UUID: uuid, StartMs: start, DueMs: due, DurationMin: (due - start) / msPerMinute}
}

func events(es ...Event) Events {
	out := Events{}
	for _, e := range es {
		out[e.UUID] = e
	}
	return out
}

func ofKind(segs []Segment, kind Kind) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func workHours() payload.Config {
	cfg := payload.DefaultConfig()
	cfg.WorkStartMin = 9 * 60
	cfg.WorkEndMin = 17 * 60
	return cfg
}

func TestResolverPriority(t *testing.T) {
	tasks := []task.Task{
		{UUID: "pinned", DueMs: ptr(at(1, 12, 0)), StartCalcMs: ptr(at(1, 8, 0)), EndCalcMs: ptr(at(1, 9, 0))},
		{UUID: "calc", DueMs: ptr(at(1, 12, 0)), StartCalcMs: ptr(at(1, 8, 0)), EndCalcMs: ptr(at(1, 9, 30)), DurCalcMin: ptr(45)},
		{UUID: "inferred", DueMs: ptr(at(1, 12, 0)), DurationMin: ptr(30)},
		{UUID: "rejected", DueMs: ptr(at(1, 12, 0)), StartCalcMs: ptr(at(1, 8, 0)), EndCalcMs: ptr(at(1, 9, 0))},
		{UUID: "floating"},
		{UUID: "badcalc", StartCalcMs: ptr(at(1, 9, 0)), EndCalcMs: ptr(at(1, 9, 0))},
	}
	overrides := Overrides{
		"pinned":   {StartMs: at(1, 14, 0), DueMs: at(1, 15, 30)},
		"rejected": {StartMs: at(1, 14, 0), DueMs: at(1, 14, 0)},
	}

	got := ApplyOverrides(tasks, overrides, payload.DefaultConfig())

	want := Events{
		"pinned":   {UUID: "pinned", StartMs: at(1, 14, 0), DueMs: at(1, 15, 30), DurationMin: 90, Source: SourceOverride},
		"calc":     {UUID: "calc", StartMs: at(1, 8, 0), DueMs: at(1, 9, 30), DurationMin: 45, Source: SourcePrecomputed},
		"inferred": {UUID: "inferred", StartMs: at(1, 11, 30), DueMs: at(1, 12, 0), DurationMin: 30, Source: SourceInferred},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestOverrideDuration(t *testing.T) {
	tasks := []task.Task{{UUID: "u1"}}
	got := ApplyOverrides(tasks, Overrides{"u1": {StartMs: at(1, 9, 0), DueMs: at(1, 10, 0), DurationMin: ptr(25)}}, payload.DefaultConfig())
	assert.Equal(t, int64(25), got["u1"].DurationMin)

	got = ApplyOverrides(tasks, Overrides{"u1": {StartMs: at(1, 9, 0), DueMs: at(1, 10, 0), DurationMin: ptr(0)}}, payload.DefaultConfig())
	assert.Equal(t, int64(60), got["u1"].DurationMin)
}

func TestDueDominant(t *testing.T) {
	due := at(1, 12, 0)
	for _, tc := range []struct {
		name string
		req  InferRequest
		want InferResult
	}{{
		name: "explicit duration",
		req:  InferRequest{DueMs: due, DurationMin: ptr(90), ScheduledMs: ptr(at(1, 8, 0)), DefaultDurationMin: 60},
		want: InferResult{OK: true, StartMs: at(1, 10, 30), EndMs: due, DurationMin: 90},
	}, {
		name: "scheduled within limit",
		req:  InferRequest{DueMs: due, ScheduledMs: ptr(at(1, 9, 0)), DefaultDurationMin: 60, MaxInferDurationMin: 480},
		want: InferResult{OK: true, StartMs: at(1, 9, 0), EndMs: due, DurationMin: 180},
	}, {
		name: "scheduled too early",
		req:  InferRequest{DueMs: due, ScheduledMs: ptr(at(1, 1, 0)), DefaultDurationMin: 60, MaxInferDurationMin: 480},
		want: InferResult{OK: true, StartMs: at(1, 11, 0), EndMs: due, DurationMin: 60},
	}, {
		name: "scheduled after due",
		req:  InferRequest{DueMs: due, ScheduledMs: ptr(at(1, 13, 0)), DefaultDurationMin: 15},
		want: InferResult{OK: true, StartMs: at(1, 11, 45), EndMs: due, DurationMin: 15},
	}, {
		name: "no default",
		req:  InferRequest{DueMs: due},
		want: InferResult{},
	}} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DueDominant(tc.req))
		})
	}
}

func TestCustomInference(t *testing.T) {
	p := New(payload.DefaultConfig())
	p.Infer = func(req InferRequest) InferResult {
		return InferResult{OK: true, StartMs: req.DueMs - 5*msPerMinute, EndMs: req.DueMs}
	}
	got := p.ApplyOverrides([]task.Task{{UUID: "u1", DueMs: ptr(at(1, 12, 0))}}, nil)
	assert.Equal(t, at(1, 11, 55), got["u1"].StartMs)
	assert.Equal(t, int64(5), got["u1"].DurationMin)

	p.Infer = func(InferRequest) InferResult { return InferResult{OK: true, StartMs: 10, EndMs: 10} }
	assert.Empty(t, p.ApplyOverrides([]task.Task{{UUID: "u1", DueMs: ptr(at(1, 12, 0))}}, nil))
}

func TestApplyOverridesDoesNotMutate(t *testing.T) {
	tasks := []task.Task{{UUID: "u1", DueMs: ptr(at(1, 12, 0))}}
	overrides := Overrides{"u1": {StartMs: at(1, 9, 0), DueMs: at(1, 10, 0)}}
	ApplyOverrides(tasks, overrides, payload.DefaultConfig())
	assert.Equal(t, at(1, 12, 0), *tasks[0].DueMs)
	assert.Nil(t, overrides["u1"].DurationMin)
}

func TestOverlapDetection(t *testing.T) {
	es := events(
		ev("task1", at(1, 9, 0), at(1, 11, 0)),
		ev("task2", at(1, 10, 0), at(1, 12, 0)),
		ev("task3", at(1, 8, 0), at(1, 10, 0)),
	)
	got := ofKind(DetectConflicts(es, workHours()), KindOverlap)
	want := []Segment{
		{Kind: KindOverlap, StartMs: at(1, 9, 0), EndMs: at(1, 10, 0), UUIDs: []string{"task1", "task3"}, Key: "task1,task3"},
		{Kind: KindOverlap, StartMs: at(1, 10, 0), EndMs: at(1, 11, 0), UUIDs: []string{"task1", "task2"}, Key: "task1,task2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected overlaps (-want +got):\n%s", diff)
	}
}

func TestOverlapCoalescesSameKey(t *testing.T) {
	// u3 starting and ending inside the u1/u2 overlap splits it into three
	// ranges; the outer two carry the same key but are not adjacent.
	es := events(
		ev("u1", at(1, 9, 0), at(1, 12, 0)),
		ev("u2", at(1, 9, 0), at(1, 12, 0)),
		ev("u3", at(1, 10, 0), at(1, 11, 0)),
	)
	got := ofKind(DetectConflicts(es, workHours()), KindOverlap)
	require.Len(t, got, 3)
	assert.Equal(t, "u1,u2", got[0].Key)
	assert.Equal(t, "u1,u2,u3", got[1].Key)
	assert.Equal(t, "u1,u2", got[2].Key)

	// Identical boundaries from several tasks never split a range.
	es = events(
		ev("a", at(1, 9, 0), at(1, 11, 0)),
		ev("b", at(1, 9, 0), at(1, 11, 0)),
	)
	got = ofKind(DetectConflicts(es, workHours()), KindOverlap)
	require.Len(t, got, 1)
	assert.Equal(t, at(1, 9, 0), got[0].StartMs)
	assert.Equal(t, at(1, 11, 0), got[0].EndMs)
}

// Starts sort ahead of ends at the same instant, so for a moment both
// touching tasks are active. The shared instant has zero width and no
// segment is reported for it.
func TestTouchingTasksDoNotOverlap(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 10, 0), at(1, 11, 0)),
	)
	pts := sweepPoints(es.Sorted())
	require.Len(t, pts, 4)
	assert.Equal(t, sweepPoint{at(1, 10, 0), +1, "b"}, pts[1])
	assert.Equal(t, sweepPoint{at(1, 10, 0), -1, "a"}, pts[2])

	assert.Empty(t, ofKind(DetectConflicts(es, workHours()), KindOverlap))
}

func TestOutOfHours(t *testing.T) {
	es := events(
		ev("early", at(1, 8, 0), at(1, 10, 0)),
		ev("late", at(1, 16, 0), at(1, 18, 0)),
	)
	got := DetectConflicts(es, workHours())
	want := []Segment{
		{Kind: KindOutOfHours, StartMs: at(1, 8, 0), EndMs: at(1, 9, 0), UUIDs: []string{"early"}, Key: "early"},
		{Kind: KindOutOfHours, StartMs: at(1, 17, 0), EndMs: at(1, 18, 0), UUIDs: []string{"late"}, Key: "late"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected segments (-want +got):\n%s", diff)
	}
}

func TestOutOfHoursAcrossMidnight(t *testing.T) {
	es := events(ev("night", at(1, 20, 0), at(2, 10, 0)))
	got := DetectConflicts(es, workHours())
	require.Len(t, got, 1)
	assert.Equal(t, at(1, 20, 0), got[0].StartMs)
	assert.Equal(t, at(2, 9, 0), got[0].EndMs)
}

func TestOutOfHoursInLocalTime(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cfg := workHours()
	cfg.TZ = "Asia/Tokyo"
	// 09:00 to 10:00 in Tokyo is inside working hours although it is
	// midnight in UTC.
	start := time.Date(2020, 1, 1, 9, 0, 0, 0, tokyo).UnixMilli()
	es := events(ev("u1", start, start+60*msPerMinute))
	assert.Empty(t, DetectConflicts(es, cfg))
	assert.NotEmpty(t, DetectConflicts(es, workHours()))
}

func TestOutOfHoursWalkIsBounded(t *testing.T) {
	start := at(1, 0, 0)
	due := start + 5000*24*60*msPerMinute
	got := DetectConflicts(events(ev("huge", start, due)), workHours())
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), maxDayWalk+1)
	assert.Less(t, got[len(got)-1].EndMs, due)
}

func TestOutOfHoursSkippedForEmptyWorkday(t *testing.T) {
	cfg := workHours()
	cfg.WorkEndMin = cfg.WorkStartMin
	assert.Empty(t, DetectConflicts(events(ev("u1", at(1, 1, 0), at(1, 2, 0))), cfg))
}

func TestSelectionMetrics(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 12, 0), at(1, 13, 0)),
		ev("c", at(1, 14, 0), at(1, 16, 0)),
	)
	got := SelectionMetrics([]string{"c", "a", "b", "missing", "a"}, es)
	assert.Equal(t, Metrics{Count: 3, DurationMin: 240, SpanMin: 420, GapMin: 180}, got)

	assert.Equal(t, Metrics{}, SelectionMetrics(nil, es))
}

func TestSelectionMetricsIgnoresOverlapForGaps(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 12, 0)),
		ev("b", at(1, 10, 0), at(1, 11, 0)),
		ev("c", at(1, 13, 0), at(1, 14, 0)),
	)
	got := SelectionMetrics([]string{"a", "b", "c"}, es)
	assert.Equal(t, int64(60), got.GapMin)
	assert.Equal(t, int64(300), got.SpanMin)
	assert.Equal(t, int64(300), got.DurationMin)
}

func TestAlignStarts(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 7), at(1, 10, 7)),
		ev("b", at(1, 11, 0), at(1, 11, 30)),
		ev("lonely", at(2, 11, 0), at(2, 12, 0)),
	)
	got := AlignStarts([]string{"a", "b", "lonely"}, es, payload.DefaultConfig())
	require.Len(t, got, 2)
	assert.Equal(t, at(1, 9, 0), got["a"].StartMs)
	assert.Equal(t, at(1, 10, 0), got["a"].DueMs)
	assert.Equal(t, at(1, 9, 0), got["b"].StartMs)
	assert.Equal(t, at(1, 9, 30), got["b"].DueMs)
	assert.Equal(t, int64(30), *got["b"].DurationMin)
}

func TestAlignEnds(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 11, 0), at(1, 12, 0)),
	)
	got := AlignEnds([]string{"a", "b"}, es, payload.DefaultConfig())
	assert.Equal(t, Override{StartMs: at(1, 11, 0), DueMs: at(1, 12, 0), DurationMin: ptr(60)}, got["a"])
	assert.Equal(t, Override{StartMs: at(1, 11, 0), DueMs: at(1, 12, 0), DurationMin: ptr(60)}, got["b"])
}

func TestStack(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 9, 30), at(1, 11, 0)),
		ev("c", at(1, 15, 0), at(1, 15, 15)),
	)
	got := Stack([]string{"c", "b", "a"}, es, payload.DefaultConfig())
	assert.Equal(t, at(1, 9, 0), got["a"].StartMs)
	assert.Equal(t, at(1, 10, 0), got["b"].StartMs)
	assert.Equal(t, at(1, 11, 30), got["b"].DueMs)
	assert.Equal(t, at(1, 11, 30), got["c"].StartMs)
	assert.Equal(t, at(1, 11, 45), got["c"].DueMs)
}

func TestDistribute(t *testing.T) {
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 10, 0), at(1, 11, 0)),
		ev("c", at(1, 15, 0), at(1, 16, 0)),
	)
	got := Distribute([]string{"a", "b", "c"}, es, payload.DefaultConfig())
	require.Len(t, got, 3)
	assert.Equal(t, at(1, 9, 0), got["a"].StartMs)
	assert.Equal(t, at(1, 12, 0), got["b"].StartMs)
	assert.Equal(t, at(1, 15, 0), got["c"].StartMs)
	assert.LessOrEqual(t, got["c"].DueMs, at(1, 16, 0))
	assert.Equal(t, got["b"].StartMs-got["a"].DueMs, got["c"].StartMs-got["b"].DueMs)

	assert.Empty(t, Distribute([]string{"a", "b"}, es, payload.DefaultConfig()))
}

func TestDistributeOverfullWindowClampsGap(t *testing.T) {
	// Three hours of work in a two hour window: the gap clamps to zero and
	// tasks run back to back past the window.
	es := events(
		ev("a", at(1, 9, 0), at(1, 10, 0)),
		ev("b", at(1, 9, 0), at(1, 10, 0)),
		ev("c", at(1, 10, 0), at(1, 11, 0)),
	)
	got := Distribute([]string{"a", "b", "c"}, es, payload.DefaultConfig())
	assert.Equal(t, at(1, 10, 0), got["b"].StartMs)
	assert.Equal(t, at(1, 11, 0), got["c"].StartMs)
	assert.Equal(t, at(1, 12, 0), got["c"].DueMs)
}

func TestNudge(t *testing.T) {
	es := events(ev("a", at(1, 9, 0), at(1, 10, 0)))
	got := Nudge([]string{"a", "missing"}, es, -30)
	require.Len(t, got, 1)
	assert.Equal(t, at(1, 8, 30), got["a"].StartMs)
	assert.Equal(t, at(1, 9, 30), got["a"].DueMs)
	assert.Equal(t, at(1, 9, 0), es["a"].StartMs)
}

func TestTransformsRoundTripThroughPlanner(t *testing.T) {
	tasks := []task.Task{
		{UUID: "a", DueMs: ptr(at(1, 10, 0)), DurationMin: ptr(60)},
		{UUID: "b", DueMs: ptr(at(1, 13, 0)), DurationMin: ptr(30)},
	}
	p := New(payload.DefaultConfig())
	es := p.ApplyOverrides(tasks, nil)
	overrides := p.Stack([]string{"a", "b"}, es)
	got := p.ApplyOverrides(tasks, overrides)
	assert.Equal(t, at(1, 10, 0), got["b"].StartMs)
	assert.Equal(t, SourceOverride, got["b"].Source)
	assert.Empty(t, ofKind(p.DetectConflicts(got), KindOverlap))
}

func TestGenerateModifyCommands(t *testing.T) {
	es := events(
		ev("late", at(1, 14, 0), at(1, 15, 0)),
		ev("odd id", at(1, 9, 0), at(1, 9, 45)),
		Event{UUID: "empty", StartMs: at(1, 10, 0), DueMs: at(1, 10, 0)},
	)
	got := GenerateModifyCommands([]string{"late", "odd id", "empty", "missing"}, es, payload.DefaultConfig())
	require.Len(t, got, 2)

	args, err := shellquote.Split(got[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"task", "odd id", "modify", "scheduled:2020-01-01T09:00", "due:2020-01-01T09:45", "duration:45min"}, args)
	assert.Equal(t, "task late modify scheduled:2020-01-01T14:00 due:2020-01-01T15:00 duration:60min", got[1])
}

func TestGenerateModifyCommandsUsesDisplayZone(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cfg := payload.DefaultConfig()
	cfg.DisplayTZ = "America/New_York"
	got := GenerateModifyCommands([]string{"a"}, events(ev("a", at(1, 15, 0), at(1, 16, 0))), cfg)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "scheduled:2020-01-01T10:00")
}
