package query

import (
	"sort"
	"strings"

	"tableflip.dev/taskcal/pkg/index"
	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/task"
)

type positions map[int]struct{}

// Run returns the matching tasks in payload order.
func (q *Query) Run(p *payload.Payload) []task.Task {
	matched := q.RunIndices(p)
	out := make([]task.Task, len(matched))
	for i, pos := range matched {
		out[i] = p.Tasks[pos]
	}
	return out
}

// RunIndices returns the ascending positions of matching tasks. Index
// entries that are out of range are skipped; a payload without indices is
// indexed on the fly.
func (q *Query) RunIndices(p *payload.Payload) []int {
	n := len(p.Tasks)
	idx := p.Indices
	if idx == nil {
		idx = index.Build(p.Tasks)
	}

	var candidates positions
	narrow := func(group positions) {
		if candidates == nil {
			candidates = group
			return
		}
		candidates = intersect(candidates, group)
	}

	if len(q.UUIDs) > 0 {
		group := make(positions, len(q.UUIDs))
		for _, u := range q.UUIDs {
			if i, ok := idx.ByUUID[u]; ok && inRange(i, n) {
				group[i] = struct{}{}
			}
		}
		narrow(group)
	}
	if len(q.Statuses) > 0 {
		narrow(union(idx.ByStatus, q.Statuses, n))
	}
	if len(q.Projects) > 0 {
		narrow(union(idx.ByProject, q.Projects, n))
	}
	if len(q.Days) > 0 {
		narrow(union(idx.ByDay, q.Days, n))
	}
	if candidates == nil {
		candidates = make(positions, n)
		for _, i := range index.All(n) {
			candidates[i] = struct{}{}
		}
	}

	for _, group := range q.TagGroups {
		candidates = intersect(candidates, union(idx.ByTag, group, n))
	}
	if len(q.ExcludeTags) > 0 {
		for i := range union(idx.ByTag, q.ExcludeTags, n) {
			delete(candidates, i)
		}
	}

	if len(q.Substrings) > 0 || len(q.Matches) > 0 || len(q.NotMatches) > 0 {
		for i := range candidates {
			if !q.matchText(p.Tasks[i].Description) {
				delete(candidates, i)
			}
		}
	}

	out := make([]int, 0, len(candidates))
	for i := range candidates {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (q *Query) matchText(desc string) bool {
	if len(q.Substrings) > 0 {
		lower := strings.ToLower(desc)
		for _, needle := range q.Substrings {
			if !strings.Contains(lower, needle) {
				return false
			}
		}
	}
	for _, re := range q.Matches {
		if !re.MatchString(desc) {
			return false
		}
	}
	for _, re := range q.NotMatches {
		if re.MatchString(desc) {
			return false
		}
	}
	return true
}

func union(buckets map[string][]int, keys []string, n int) positions {
	out := make(positions)
	for _, key := range keys {
		for _, i := range buckets[key] {
			if inRange(i, n) {
				out[i] = struct{}{}
			}
		}
	}
	return out
}

func intersect(a, b positions) positions {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(positions, len(a))
	for i := range a {
		if _, ok := b[i]; ok {
			out[i] = struct{}{}
		}
	}
	return out
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
