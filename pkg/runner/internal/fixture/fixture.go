// Package fixture writes small payload files for runner tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/task"
)

// At is 2020-01-01 at h:m UTC as a compact task timestamp.
func At(h, m int) string {
	return time.Date(2020, 1, 1, h, m, 0, 0, time.UTC).Format("20060102T150405Z")
}

// Ms is 2020-01-01 at h:m UTC in epoch milliseconds.
func Ms(h, m int) int64 {
	return time.Date(2020, 1, 1, h, m, 0, 0, time.UTC).UnixMilli()
}

// Records is a working day with two overlapping meetings, a late task, an
// unscheduled task and one smoke-fixture task.
func Records() []task.Record {
	return []task.Record{
		{"uuid": "standup", "project": "work", "tags": "meeting", "description": "Standup", "due": At(9, 30), "duration": "30min"},
		{"uuid": "review", "project": "work", "tags": "meeting", "description": "Design review", "due": At(10, 0), "duration": "PT1H"},
		{"uuid": "deploy", "project": "ops", "description": "Deploy", "due": At(18, 0), "duration": "2h"},
		{"uuid": "someday", "description": "Read a book"},
		{"uuid": "00000000-0000-4000-8000-000000000001", "description": "smoke", "due": At(12, 0)},
	}
}

// Write stores the default payload in a temp dir and returns its path.
func Write(t *testing.T) string {
	t.Helper()
	p, err := payload.FromRecords(Records(), payload.DefaultConfig(), "2020-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	b, err := payload.Encode(p)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}
