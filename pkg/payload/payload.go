// Package payload defines the versioned envelope exchanged between the core
// and its collaborators, and the upgrade contract that keeps it consistent.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"tableflip.dev/taskcal/pkg/index"
	"tableflip.dev/taskcal/pkg/task"
)

const (
	// LatestVersion is the newest schema this module understands.
	LatestVersion = 2
	// SchemaName is stamped into meta.schema from version 2 on.
	SchemaName = "taskcal.payload"
)

var (
	// ErrUnsupportedVersion is returned for schema versions outside 1..LatestVersion.
	ErrUnsupportedVersion = errors.New("payload: unsupported schema version")
	// ErrMalformed is returned when the payload shape breaks the contract.
	ErrMalformed = errors.New("payload: malformed payload")
)

// Payload is the unit handed to the query engine and the planner.
type Payload struct {
	SchemaVersion int            `json:"schema_version"`
	GeneratedAt   string         `json:"generated_at"`
	Cfg           Config         `json:"cfg"`
	Tasks         []task.Task    `json:"tasks"`
	Indices       *index.Set     `json:"indices,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// Decode parses a JSON payload.
func Decode(b []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// Encode renders p as indented JSON.
func Encode(p *Payload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Clone returns a copy of p whose slices and maps can be replaced without
// touching p. Task values are shared; nothing in this module mutates them.
func (p *Payload) Clone() *Payload {
	out := *p
	out.Tasks = append([]task.Task(nil), p.Tasks...)
	out.Meta = maps.Clone(p.Meta)
	if p.Cfg.ViewStartMs != nil {
		v := *p.Cfg.ViewStartMs
		out.Cfg.ViewStartMs = &v
	}
	return &out
}

// Position looks uuid up through by_uuid, ignoring stale or out-of-range
// entries.
func (p *Payload) Position(uuid string) (int, bool) {
	if p.Indices == nil {
		for i, t := range p.Tasks {
			if t.UUID == uuid {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := p.Indices.ByUUID[uuid]
	if !ok || i < 0 || i >= len(p.Tasks) || p.Tasks[i].UUID != uuid {
		return 0, false
	}
	return i, true
}

// SchemaMarker returns the meta.schema marker, if one is present.
func (p *Payload) SchemaMarker() (name string, version int64, ok bool) {
	m, isMap := p.Meta["schema"].(map[string]any)
	if !isMap {
		return "", 0, false
	}
	name, _ = m["name"].(string)
	version, vok := task.Int64(m["version"])
	return name, version, name != "" && vok
}

// Validate reports the first contract violation in p.
func Validate(p *Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", ErrMalformed)
	}
	if p.SchemaVersion < 1 || p.SchemaVersion > LatestVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.SchemaVersion)
	}
	if strings.TrimSpace(p.GeneratedAt) == "" {
		return fmt.Errorf("%w: generated_at is empty", ErrMalformed)
	}
	loc, err := p.Cfg.Location()
	if err != nil {
		return err
	}
	if !p.Cfg.ViewStartAligned(loc) {
		return fmt.Errorf("%w: view_start_ms %d is not local midnight in %s", ErrMalformed, *p.Cfg.ViewStartMs, loc)
	}
	seen := make(map[string]struct{}, len(p.Tasks))
	for i, t := range p.Tasks {
		if !t.IsNormalized() {
			return fmt.Errorf("%w: task %d is not normalized", ErrMalformed, i)
		}
		if _, dup := seen[t.UUID]; dup {
			return fmt.Errorf("%w: duplicate uuid %q", ErrMalformed, t.UUID)
		}
		seen[t.UUID] = struct{}{}
	}
	if err := index.Verify(p.Tasks, p.Indices); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p.SchemaVersion >= 2 {
		name, version, ok := p.SchemaMarker()
		if !ok || name != SchemaName || version != int64(p.SchemaVersion) {
			return fmt.Errorf("%w: meta.schema marker missing or stale", ErrMalformed)
		}
	}
	return nil
}
