package task

import "github.com/google/uuid"

// Smoke fixtures seed these uuids into generated payloads so the calendar
// always has something to render. They are never real work.
var scaffoldUUIDs = map[string]struct{}{
	uuid.Nil.String():                      {},
	"00000000-0000-4000-8000-000000000001": {},
	"00000000-0000-4000-8000-000000000002": {},
	"00000000-0000-4000-8000-000000000003": {},
}

// IsScaffold reports whether t is a synthetic smoke-fixture task.
func IsScaffold(t Task) bool {
	_, ok := scaffoldUUIDs[t.UUID]
	return ok
}

// WithoutScaffold returns the tasks of ts that are not scaffolding, in order.
func WithoutScaffold(ts []Task) []Task {
	out := make([]Task, 0, len(ts))
	for _, t := range ts {
		if !IsScaffold(t) {
			out = append(out, t)
		}
	}
	return out
}
