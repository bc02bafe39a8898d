package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tableflip.dev/taskcal/pkg/payload"
)

const export = `[
	{"uuid": "u1", "status": "pending", "project": "work", "tags": ["a"], "due": "20200101T100000Z", "duration": "PT1H"},
	{"uuid": "u2", "status": "completed", "description": "done"}
]`

func TestIngestBuildsLatestPayload(t *testing.T) {
	var out bytes.Buffer
	n := Ingest{
		Input:  "-",
		Cfg:    payload.DefaultConfig(),
		Now:    func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) },
		Stdin:  strings.NewReader(export),
		Stdout: &out,
	}
	require.NoError(t, n.Do(context.Background()))

	p, err := payload.Decode(out.Bytes())
	require.NoError(t, err)
	require.NoError(t, payload.Validate(p))
	assert.Equal(t, payload.LatestVersion, p.SchemaVersion)
	assert.Equal(t, "2020-01-01T00:00:00Z", p.GeneratedAt)
	assert.Equal(t, []int{0}, p.Indices.ByProject["work"])
	assert.Equal(t, int64(60), *p.Tasks[0].DurationMin)
}

func TestIngestRejectsNonArray(t *testing.T) {
	n := Ingest{Input: "-", Cfg: payload.DefaultConfig(), Stdin: strings.NewReader(`{}`), Stdout: &bytes.Buffer{}}
	assert.ErrorIs(t, n.Do(context.Background()), payload.ErrMalformed)
}

func TestIngestDropsRecordsWithoutUUID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var out bytes.Buffer
	n := Ingest{
		Input:  "-",
		Cfg:    payload.DefaultConfig(),
		Stdin:  strings.NewReader(`[{"description": "no id"}, {"uuid": "u1"}, {"uuid": "u1"}]`),
		Stdout: &out,
		Log:    zap.New(core),
	}
	require.NoError(t, n.Do(context.Background()))

	p, err := payload.Decode(out.Bytes())
	require.NoError(t, err)
	require.NoError(t, payload.Validate(p))
	require.Len(t, p.Tasks, 1)

	dropped := logs.FilterMessage("records without a unique uuid dropped").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, int64(2), dropped[0].ContextMap()["dropped"])
}
