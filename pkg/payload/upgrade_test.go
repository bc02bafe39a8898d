package payload

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/taskcal/pkg/index"
	"tableflip.dev/taskcal/pkg/task"
)

const rawPayload = `{
	"schema_version": 0,
	"generated_at": "2020-01-01T00:00:00Z",
	"cfg": {"work_start_min": 540, "work_end_min": 1020, "snap_min": 15, "tz": "UTC",
	        "view_start_ms": 1577869200000},
	"tasks": [
		{"uuid": "u1", "status": "Pending", "project": "work", "tags": "a,b", "due": "20200101T100000Z"},
		{"id": "u2", "tags": ["a"], "scheduled": "20200102T090000Z", "duration": "PT1H"}
	],
	"indices": {"by_uuid": {"u1": 5}}
}`

func decodeRaw(t *testing.T) *Payload {
	t.Helper()
	p, err := Decode([]byte(rawPayload))
	require.NoError(t, err)
	return p
}

func TestUpgradeRepairsV0(t *testing.T) {
	p := decodeRaw(t)

	got, err := Upgrade(p, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, got.SchemaVersion)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "pending", got.Tasks[0].Status)
	assert.Equal(t, "u2", got.Tasks[1].UUID)
	assert.Equal(t, "2020-01-02", got.Tasks[1].DayKey)
	assert.Equal(t, map[string]int{"u1": 0, "u2": 1}, got.Indices.ByUUID)
	assert.Equal(t, []int{0, 1}, got.Indices.ByTag["a"])
	require.NoError(t, index.Verify(got.Tasks, got.Indices))

	// 09:00 is snapped back to midnight of the same day.
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	require.NotNil(t, got.Cfg.ViewStartMs)
	assert.Equal(t, want, *got.Cfg.ViewStartMs)

	require.NoError(t, Validate(got))
}

func TestUpgradeDoesNotMutateInput(t *testing.T) {
	p := decodeRaw(t)
	before := *p.Cfg.ViewStartMs

	_, err := Upgrade(p, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, p.SchemaVersion)
	assert.Equal(t, before, *p.Cfg.ViewStartMs)
	assert.False(t, p.Tasks[0].IsNormalized())
	assert.Nil(t, p.Meta)
	assert.Equal(t, map[string]int{"u1": 5}, p.Indices.ByUUID)
}

func TestUpgradeIsIdempotent(t *testing.T) {
	for _, v := range []int{1, 2} {
		once, err := Upgrade(decodeRaw(t), v)
		require.NoError(t, err)
		twice, err := Upgrade(once, v)
		require.NoError(t, err)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("v%d not idempotent (-once +twice):\n%s", v, diff)
		}
	}
}

func TestUpgradeNeverDowngrades(t *testing.T) {
	v2, err := Upgrade(decodeRaw(t), 2)
	require.NoError(t, err)
	require.Equal(t, 2, v2.SchemaVersion)

	got, err := Upgrade(v2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SchemaVersion)
	name, version, ok := got.SchemaMarker()
	assert.True(t, ok)
	assert.Equal(t, SchemaName, name)
	assert.Equal(t, int64(2), version)
}

func TestUpgradeV2StampsMarker(t *testing.T) {
	got, err := Upgrade(decodeRaw(t), 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": SchemaName, "version": 2}, got.Meta["schema"])
	require.NoError(t, Validate(got))

	// The marker survives a JSON round trip.
	b, err := Encode(got)
	require.NoError(t, err)
	back, err := Decode(b)
	require.NoError(t, err)
	require.NoError(t, Validate(back))
	again, err := Upgrade(back, 2)
	require.NoError(t, err)
	assert.Equal(t, back.Meta, again.Meta)
}

func TestUpgradeRejectsUnsupportedVersions(t *testing.T) {
	p := decodeRaw(t)

	_, err := Upgrade(p, LatestVersion+1)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	_, err = Upgrade(p, 0)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	future := p.Clone()
	future.SchemaVersion = LatestVersion + 1
	_, err = Upgrade(future, 1)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestUpgradeRejectsMalformed(t *testing.T) {
	_, err := Upgrade(nil, 1)
	assert.True(t, errors.Is(err, ErrMalformed))

	p := decodeRaw(t)
	p.GeneratedAt = " "
	_, err = Upgrade(p, 1)
	assert.True(t, errors.Is(err, ErrMalformed))

	p = decodeRaw(t)
	p.Cfg.TZ = "Mars/Olympus"
	_, err = Upgrade(p, 1)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode([]byte(`{"tasks": 3}`))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestUpgradeKeepsConsistentPayload(t *testing.T) {
	once, err := Upgrade(decodeRaw(t), 1)
	require.NoError(t, err)

	// A stale index forces a rebuild.
	stale := once.Clone()
	stale.Indices = &index.Set{ByUUID: map[string]int{"u1": 1}}
	fixed, err := Upgrade(stale, 1)
	require.NoError(t, err)
	require.NoError(t, index.Verify(fixed.Tasks, fixed.Indices))
}

func TestTimezoneRepairKeepsDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 local on Jan 1 is already Jan 2 in UTC.
	view := time.Date(2020, 1, 1, 23, 30, 0, 0, ny).UnixMilli()
	p := &Payload{
		GeneratedAt: "now",
		Cfg:         Config{TZ: "America/New_York", ViewStartMs: &view},
		Tasks:       []task.Task{{Raw: task.Record{"uuid": "u1"}}},
	}
	got, err := Upgrade(p, 1)
	require.NoError(t, err)
	mid := time.UnixMilli(*got.Cfg.ViewStartMs).In(ny)
	assert.Equal(t, 1, mid.Day())
	assert.Equal(t, 0, mid.Hour())
}

func TestFromRecords(t *testing.T) {
	got, err := FromRecords([]task.Record{
		{"uuid": "u1", "tags": []any{"x"}},
		{"uuid": "u2", "status": "completed"},
	}, DefaultConfig(), "2020-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, LatestVersion, got.SchemaVersion)
	assert.Equal(t, []int{1}, got.Indices.ByStatus["completed"])
	require.NoError(t, Validate(got))
}

func TestFromRecordsDropsRecordsWithoutUUID(t *testing.T) {
	got, err := FromRecords([]task.Record{
		{"description": "no id", "tags": []any{"x"}},
		{"uuid": "u2"},
	}, DefaultConfig(), "2020-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "u2", got.Tasks[0].UUID)
	assert.Equal(t, map[string]int{"u2": 0}, got.Indices.ByUUID)
	require.NoError(t, Validate(got))

	again, err := Upgrade(got, LatestVersion)
	require.NoError(t, err)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("second upgrade changed payload (-first +second):\n%s", diff)
	}
}

func TestFromRecordsKeepsFirstDuplicateUUID(t *testing.T) {
	got, err := FromRecords([]task.Record{
		{"uuid": "u1", "description": "first"},
		{"uuid": "u2"},
		{"uuid": "u1", "description": "second"},
	}, DefaultConfig(), "2020-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "first", got.Tasks[0].Description)
	assert.Equal(t, "u2", got.Tasks[1].UUID)
	require.NoError(t, Validate(got))
}

func TestUpgradeRepairsDuplicateNormalizedTasks(t *testing.T) {
	good, err := Upgrade(decodeRaw(t), 2)
	require.NoError(t, err)

	dup := good.Clone()
	dup.Tasks = append(dup.Tasks, dup.Tasks[0])
	dup.Indices = index.Build(dup.Tasks)
	require.Error(t, Validate(dup))

	got, err := Upgrade(dup, 2)
	require.NoError(t, err)
	if diff := cmp.Diff(good, got); diff != "" {
		t.Fatalf("duplicate not dropped (-want +got):\n%s", diff)
	}
}

func TestValidateDetectsContractViolations(t *testing.T) {
	good, err := Upgrade(decodeRaw(t), 2)
	require.NoError(t, err)

	diverged := good.Clone()
	diverged.Indices = index.Build(diverged.Tasks[:1])
	err = Validate(diverged)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.True(t, errors.Is(err, index.ErrDiverged))

	noMarker := good.Clone()
	delete(noMarker.Meta, "schema")
	assert.True(t, errors.Is(Validate(noMarker), ErrMalformed))

	dup := good.Clone()
	dup.Tasks = append(dup.Tasks, dup.Tasks[0])
	dup.Indices = index.Build(dup.Tasks)
	assert.True(t, errors.Is(Validate(dup), ErrMalformed))

	misaligned := good.Clone()
	off := *misaligned.Cfg.ViewStartMs + 1
	misaligned.Cfg.ViewStartMs = &off
	assert.True(t, errors.Is(Validate(misaligned), ErrMalformed))
}

func TestPosition(t *testing.T) {
	good, err := Upgrade(decodeRaw(t), 1)
	require.NoError(t, err)
	i, ok := good.Position("u2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	stale := good.Clone()
	stale.Indices = &index.Set{ByUUID: map[string]int{"u2": 9}}
	_, ok = stale.Position("u2")
	assert.False(t, ok)

	raw := good.Clone()
	raw.Indices = nil
	i, ok = raw.Position("u1")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestEncodeShape(t *testing.T) {
	got, err := Upgrade(decodeRaw(t), 2)
	require.NoError(t, err)
	b, err := Encode(got)
	require.NoError(t, err)

	var shape map[string]any
	require.NoError(t, json.Unmarshal(b, &shape))
	for _, key := range []string{"schema_version", "generated_at", "cfg", "tasks", "indices", "meta"} {
		assert.Contains(t, shape, key)
	}
	indices := shape["indices"].(map[string]any)
	for _, key := range []string{"by_uuid", "by_status", "by_project", "by_tag", "by_day"} {
		assert.Contains(t, indices, key)
	}
}
