package upgrade

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/taskcal/pkg/payload"
)

const v0 = `{"schema_version": 0, "generated_at": "now", "cfg": {"tz": "UTC"}, "tasks": [{"uuid": "u1", "tags": "a,b"}]}`

func TestUpgradeWritesRequestedVersion(t *testing.T) {
	for _, to := range []int{1, 2, 0} {
		var out bytes.Buffer
		n := Upgrade{Input: "-", To: to, Stdin: strings.NewReader(v0), Stdout: &out}
		require.NoError(t, n.Do(context.Background()))

		p, err := payload.Decode(out.Bytes())
		require.NoError(t, err)
		require.NoError(t, payload.Validate(p))
		want := to
		if to == 0 {
			want = payload.LatestVersion
		}
		assert.Equal(t, want, p.SchemaVersion)
	}
}

func TestUpgradeRejectsFutureVersion(t *testing.T) {
	n := Upgrade{Input: "-", To: payload.LatestVersion + 1, Stdin: strings.NewReader(v0), Stdout: &bytes.Buffer{}}
	assert.ErrorIs(t, n.Do(context.Background()), payload.ErrUnsupportedVersion)
}
