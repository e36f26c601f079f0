package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/internal/domain"
)

const demo = `
- at: 0s
  press: [left]
- at: 2s
  press: [up]
  release: [left]
- at: 1s
  press: [right]
- at: 5s
  quit: true
`

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestButtons_Replay(t *testing.T) {
	b, err := Parse([]byte(demo))
	require.NoError(t, err)
	clock := &fakeClock{t: time.Unix(100, 0)}
	b.now = clock.now
	ctx := context.Background()

	s, err := b.Read(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsPressed(domain.Left))
	assert.False(t, s.IsPressed(domain.Right))

	clock.t = clock.t.Add(1500 * time.Millisecond)
	s, _ = b.Read(ctx)
	assert.True(t, s.IsPressed(domain.Left))
	assert.True(t, s.IsPressed(domain.Right))

	clock.t = clock.t.Add(time.Second)
	s, _ = b.Read(ctx)
	assert.False(t, s.IsPressed(domain.Left))
	assert.True(t, s.IsPressed(domain.Up))
	assert.False(t, s.Quit)
	assert.False(t, b.Done())

	clock.t = clock.t.Add(10 * time.Second)
	s, _ = b.Read(ctx)
	assert.True(t, s.Quit)
	assert.True(t, b.Done())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "- at: [1"},
		{"bad direction", "- at: 0s\n  press: [north]\n"},
		{"negative offset", "- at: -1s\n  quit: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buttons.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o600))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, b.actions, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
