package planner

// InferRequest carries what inference may use to place a task that has a due
// time but no precomputed interval.
type InferRequest struct {
	DueMs               int64
	ScheduledMs         *int64
	DurationMin         *int64
	DefaultDurationMin  int64
	MaxInferDurationMin int64
}

// InferResult is a proposed interval. OK is false when no interval could be
// derived.
type InferResult struct {
	OK          bool
	StartMs     int64
	EndMs       int64
	DurationMin int64
}

// InferFunc derives an interval for a task from its due time.
type InferFunc func(InferRequest) InferResult

// DueDominant anchors the interval on the due time. An explicit duration
// wins; otherwise a scheduled time before due is used as the start when the
// span stays within MaxInferDurationMin; otherwise DefaultDurationMin is
// used.
func DueDominant(req InferRequest) InferResult {
	end := req.DueMs
	if req.DurationMin != nil && *req.DurationMin > 0 {
		d := *req.DurationMin
		return InferResult{OK: true, StartMs: end - d*msPerMinute, EndMs: end, DurationMin: d}
	}
	if s := req.ScheduledMs; s != nil && *s < end {
		span := (end - *s) / msPerMinute
		if span >= 1 && (req.MaxInferDurationMin <= 0 || span <= req.MaxInferDurationMin) {
			return InferResult{OK: true, StartMs: *s, EndMs: end, DurationMin: span}
		}
	}
	d := req.DefaultDurationMin
	if d <= 0 {
		return InferResult{}
	}
	return InferResult{OK: true, StartMs: end - d*msPerMinute, EndMs: end, DurationMin: d}
}
