package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/taskcal/pkg/payload"
)

func TestLoadPayloadUpgradesInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	raw := `{"schema_version": 0, "generated_at": "now", "cfg": {"tz": "UTC"}, "tasks": [{"uuid": "u1", "status": "Pending"}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	p, err := LoadPayload(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, payload.LatestVersion, p.SchemaVersion)
	assert.Equal(t, "pending", p.Tasks[0].Status)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, string(onDisk))
}

func TestLoadPayloadFromStdin(t *testing.T) {
	p, err := LoadPayload("-", strings.NewReader(`{"generated_at": "now", "tasks": []}`), nil)
	require.NoError(t, err)
	assert.Empty(t, p.Tasks)

	_, err = LoadPayload("-", strings.NewReader(`not json`), nil)
	assert.True(t, errors.Is(err, payload.ErrMalformed))
}

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"uuid": "a", "urgency": 4.5}, {"id": 7}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0]["uuid"])

	_, err = DecodeRecords([]byte(`{"uuid": "a"}`))
	assert.True(t, errors.Is(err, payload.ErrMalformed))
}

func TestLoadOverrides(t *testing.T) {
	o, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Nil(t, o)

	path := filepath.Join(t.TempDir(), "o.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"u1": {"start_ms": 1, "due_ms": 2, "duration_min": 5}}`), 0o644))
	o, err = LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), o["u1"].DueMs)
	assert.Equal(t, int64(5), *o["u1"].DurationMin)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteFile(path, []byte(`{}`), nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(b))

	var buf strings.Builder
	require.NoError(t, WriteFile("-", []byte(`{}`), &buf))
	assert.Equal(t, "{}\n", buf.String())
}

func TestWriteFileReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer\n"), 0o600))

	require.NoError(t, WriteFile(path, []byte(`{"v":2}`), nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"v\":2}\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestWriteFileFailureLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o600))

	err := WriteFile(target, []byte(`{}`), nil)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "taken", entries[0].Name())
}
