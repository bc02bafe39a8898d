package planner

// Metrics aggregates a selection of scheduled tasks.
type Metrics struct {
	Count       int   `json:"count"`
	DurationMin int64 `json:"duration_min"`
	SpanMin     int64 `json:"span_min"`
	GapMin      int64 `json:"gap_min"`
}

// SelectionMetrics summarizes the valid events among uuids. Gap time is the
// idle time between intervals; overlapping intervals add none.
func SelectionMetrics(uuids []string, events Events) Metrics {
	seen := map[string]bool{}
	var picked []Event
	for _, u := range uuids {
		e, ok := events[u]
		if !ok || seen[u] || !e.Valid() {
			continue
		}
		seen[u] = true
		picked = append(picked, e)
	}
	if len(picked) == 0 {
		return Metrics{}
	}
	sortEvents(picked)

	m := Metrics{Count: len(picked)}
	last := picked[0].DueMs
	var gapMs int64
	for i, e := range picked {
		m.DurationMin += e.durationMs() / msPerMinute
		if i > 0 && e.StartMs > last {
			gapMs += e.StartMs - last
		}
		last = max(last, e.DueMs)
	}
	m.SpanMin = (last - picked[0].StartMs) / msPerMinute
	m.GapMin = gapMs / msPerMinute
	return m
}
