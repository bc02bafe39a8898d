// Package index derives the secondary lookup maps that back query evaluation.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"tableflip.dev/taskcal/pkg/task"
)

// ErrDiverged is returned by Verify when a Set does not describe its tasks.
var ErrDiverged = errors.New("index: indices diverge from tasks")

// Set holds the primary uuid index and the four bucket indices. Bucket
// values are task positions in ascending order.
type Set struct {
	ByUUID    map[string]int   `json:"by_uuid"`
	ByStatus  map[string][]int `json:"by_status"`
	ByProject map[string][]int `json:"by_project"`
	ByTag     map[string][]int `json:"by_tag"`
	ByDay     map[string][]int `json:"by_day"`
}

// Build indexes tasks in a single pass. Tasks without a project, tags or a
// day key are simply absent from that dimension.
func Build(tasks []task.Task) *Set {
	s := &Set{
		ByUUID:    make(map[string]int, len(tasks)),
		ByStatus:  make(map[string][]int),
		ByProject: make(map[string][]int),
		ByTag:     make(map[string][]int),
		ByDay:     make(map[string][]int),
	}
	for i, t := range tasks {
		if t.UUID != "" {
			s.ByUUID[t.UUID] = i
		}
		if t.Status != "" {
			s.ByStatus[t.Status] = append(s.ByStatus[t.Status], i)
		}
		if t.Project != "" {
			s.ByProject[t.Project] = append(s.ByProject[t.Project], i)
		}
		for _, tag := range t.Tags {
			if tag == "" {
				continue
			}
			bucket := s.ByTag[tag]
			// A repeated tag must not index the same position twice.
			if n := len(bucket); n > 0 && bucket[n-1] == i {
				continue
			}
			s.ByTag[tag] = append(bucket, i)
		}
		if t.DayKey != "" {
			s.ByDay[t.DayKey] = append(s.ByDay[t.DayKey], i)
		}
	}
	return s
}

// Verify checks that s is exactly what Build would produce for tasks.
func Verify(tasks []task.Task, s *Set) error {
	if s == nil {
		return fmt.Errorf("%w: missing indices", ErrDiverged)
	}
	want := Build(tasks)
	for u, i := range s.ByUUID {
		if i < 0 || i >= len(tasks) || tasks[i].UUID != u {
			return fmt.Errorf("%w: by_uuid[%q] = %d", ErrDiverged, u, i)
		}
	}
	if len(s.ByUUID) != len(want.ByUUID) {
		return fmt.Errorf("%w: by_uuid has %d entries, want %d", ErrDiverged, len(s.ByUUID), len(want.ByUUID))
	}
	for _, dim := range []struct {
		name      string
		got, want map[string][]int
	}{
		{"by_status", s.ByStatus, want.ByStatus},
		{"by_project", s.ByProject, want.ByProject},
		{"by_tag", s.ByTag, want.ByTag},
		{"by_day", s.ByDay, want.ByDay},
	} {
		if err := sameBuckets(dim.got, dim.want); err != nil {
			return fmt.Errorf("%w: %s %v", ErrDiverged, dim.name, err)
		}
	}
	return nil
}

func sameBuckets(got, want map[string][]int) error {
	if len(got) != len(want) {
		return fmt.Errorf("has %d keys, want %d", len(got), len(want))
	}
	for key, positions := range want {
		have, ok := got[key]
		if !ok {
			return fmt.Errorf("missing key %q", key)
		}
		if len(have) != len(positions) {
			return fmt.Errorf("key %q has %d positions, want %d", key, len(have), len(positions))
		}
		for i := range positions {
			if have[i] != positions[i] {
				return fmt.Errorf("key %q position %d is %d, want %d", key, i, have[i], positions[i])
			}
		}
	}
	return nil
}

// All returns every position 0..n-1.
func All(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// UnmarshalJSON decodes leniently: entries that are not integers, and
// buckets that are not arrays, are dropped rather than failing the payload.
func (s *Set) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Set{
		ByUUID:    decodePositions(raw["by_uuid"]),
		ByStatus:  decodeBuckets(raw["by_status"]),
		ByProject: decodeBuckets(raw["by_project"]),
		ByTag:     decodeBuckets(raw["by_tag"]),
		ByDay:     decodeBuckets(raw["by_day"]),
	}
	*s = out
	return nil
}

func decodePositions(b json.RawMessage) map[string]int {
	out := make(map[string]int)
	var raw map[string]any
	if len(b) == 0 || json.Unmarshal(b, &raw) != nil {
		return out
	}
	for k, v := range raw {
		if i, ok := position(v); ok {
			out[k] = i
		}
	}
	return out
}

func decodeBuckets(b json.RawMessage) map[string][]int {
	out := make(map[string][]int)
	var raw map[string]any
	if len(b) == 0 || json.Unmarshal(b, &raw) != nil {
		return out
	}
	for k, v := range raw {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		positions := make([]int, 0, len(items))
		for _, item := range items {
			if i, ok := position(item); ok {
				positions = append(positions, i)
			}
		}
		sort.Ints(positions)
		out[k] = positions
	}
	return out
}

func position(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
