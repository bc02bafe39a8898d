package payload

import (
	"fmt"
	"strings"
	"time"

	"tableflip.dev/taskcal/pkg/index"
	"tableflip.dev/taskcal/pkg/task"
	"tableflip.dev/taskcal/pkg/timeutil"
)

// Upgrade returns a copy of p at schema version max(p.SchemaVersion, target).
// The version never goes down. Payloads that already hold the invariants of
// the resulting version come back unchanged; otherwise tasks are normalized
// again, indices rebuilt and view_start_ms snapped to local midnight of its
// own calendar day. Records without a uuid are dropped during that repair,
// as are later records repeating an earlier uuid. p itself is never modified.
func Upgrade(p *Payload, target int) (*Payload, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrMalformed)
	}
	if target < 1 || target > LatestVersion {
		return nil, fmt.Errorf("%w: requested %d, latest is %d", ErrUnsupportedVersion, target, LatestVersion)
	}
	if p.SchemaVersion < 0 || p.SchemaVersion > LatestVersion {
		return nil, fmt.Errorf("%w: declared %d, latest is %d", ErrUnsupportedVersion, p.SchemaVersion, LatestVersion)
	}
	if strings.TrimSpace(p.GeneratedAt) == "" {
		return nil, fmt.Errorf("%w: generated_at is empty", ErrMalformed)
	}
	loc, err := p.Cfg.Location()
	if err != nil {
		return nil, err
	}

	version := max(p.SchemaVersion, target)
	out := p.Clone()
	if !holdsV1(out, loc) {
		repairV1(out, loc)
	}
	if version >= 2 && !holdsV2(out) {
		stampV2(out)
	}
	out.SchemaVersion = version
	return out, nil
}

// FromRecords builds a latest-version payload from raw task records.
func FromRecords(records []task.Record, cfg Config, generatedAt string) (*Payload, error) {
	tasks := make([]task.Task, len(records))
	for i, rec := range records {
		tasks[i] = task.Task{Raw: rec}
	}
	return Upgrade(&Payload{
		GeneratedAt: generatedAt,
		Cfg:         cfg,
		Tasks:       tasks,
	}, LatestVersion)
}

func holdsV1(p *Payload, loc *time.Location) bool {
	if !p.Cfg.ViewStartAligned(loc) {
		return false
	}
	seen := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if !t.IsNormalized() {
			return false
		}
		if _, dup := seen[t.UUID]; dup {
			return false
		}
		seen[t.UUID] = struct{}{}
	}
	return index.Verify(p.Tasks, p.Indices) == nil
}

func repairV1(p *Payload, loc *time.Location) {
	seen := make(map[string]struct{}, len(p.Tasks))
	tasks := make([]task.Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		n := task.Normalize(t.Record(), loc)
		if n.UUID == "" {
			continue
		}
		if _, dup := seen[n.UUID]; dup {
			continue
		}
		seen[n.UUID] = struct{}{}
		tasks = append(tasks, n)
	}
	p.Tasks = tasks
	p.Indices = index.Build(tasks)
	if p.Cfg.ViewStartMs != nil {
		mid := timeutil.LocalMidnight(*p.Cfg.ViewStartMs, loc)
		p.Cfg.ViewStartMs = &mid
	}
}

func holdsV2(p *Payload) bool {
	name, version, ok := p.SchemaMarker()
	return ok && name == SchemaName && version == 2 && p.SchemaVersion == 2
}

func stampV2(p *Payload) {
	if p.Meta == nil {
		p.Meta = make(map[string]any, 1)
	}
	p.Meta["schema"] = map[string]any{
		"name":    SchemaName,
		"version": 2,
	}
}
