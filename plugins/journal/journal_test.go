package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/pkg/lifepad"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	task := uuid.New()
	base := time.Unix(1700000000, 0)

	states := []string{"Discovering", "Connecting", "Connected"}
	for i, st := range states {
		_, err := s.Append(ctx, Entry{
			Display:   "hall",
			TaskID:    task,
			Address:   "F0:9E:9E:B3:F1:A2",
			Direction: "left",
			Kind:      "slider",
			Current:   st,
			At:        base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Connected", got[0].Current)
	assert.Equal(t, "Connecting", got[1].Current)
	assert.Equal(t, task, got[0].TaskID)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.True(t, got[0].At.Equal(base.Add(2*time.Second)))
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Append(context.Background(), Entry{TaskID: uuid.New(), Current: "Failed", Error: "connect failed", At: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "connect failed", got[0].Error)
}

func TestPlugin_RecordsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	p := New(Config{Path: path})
	require.NoError(t, p.Initialize(context.Background(), lifepad.PluginConfig{ID: "hall"}))

	task := uuid.New()
	p.OnConnectionChange(lifepad.ConnectionEvent{
		TaskID: task, Address: "F0:9E:9E:B3:F8:A6", Direction: "up", Kind: "rotator",
		Previous: "Connecting", Current: "Retrying", Retries: 1,
		Err: errors.New("connect failed"), At: time.Now(),
	})
	require.NoError(t, p.Shutdown(context.Background()))

	// Events after shutdown are ignored.
	p.OnConnectionChange(lifepad.ConnectionEvent{TaskID: task, Current: "Connected"})

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hall", got[0].Display)
	assert.Equal(t, "Retrying", got[0].Current)
	assert.Equal(t, 1, got[0].Retries)
	assert.Equal(t, "connect failed", got[0].Error)
}

func TestPlugin_OpenFailure(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "missing", "dir", "journal.db")})
	err := p.Initialize(context.Background(), lifepad.PluginConfig{})
	assert.Error(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for i := 0; i < 10; i++ {
		_, err := s.Append(ctx, Entry{TaskID: uuid.New(), Retries: i, At: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	removed, err := s.Prune(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 9, got[0].Retries)
	assert.Equal(t, 6, got[3].Retries)
}

func TestPlugin_PrunesAboveHighWatermark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		_, err := s.Append(context.Background(), Entry{TaskID: uuid.New(), At: time.Unix(int64(i), 0)})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	p := New(Config{Path: path, HighWatermark: 10, LowWatermark: 5, CheckInterval: time.Hour})
	require.NoError(t, p.Initialize(context.Background(), lifepad.PluginConfig{}))

	// The first check runs on startup.
	require.Eventually(t, func() bool {
		p.mu.RLock()
		store := p.store
		p.mu.RUnlock()
		n, err := store.Count(context.Background())
		return err == nil && n == 5
	}, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Shutdown(context.Background()))
}
