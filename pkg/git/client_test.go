package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)
	ctx := context.Background()

	unlock, err := client.Lock(ctx)
	require.NoError(t, err)

	lockPath := filepath.Join(tmpDir, DefaultLockName)
	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file created")

	t.Run("Contention Respects Context", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err := client.Lock(waitCtx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	unlock()
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file removed after unlock")
}

func TestParseLog(t *testing.T) {
	out := "abc123\x1f2024-05-01T10:00:00+02:00\x1fsnapshot: 3 notes\n" +
		"def456\x1f2024-04-30T09:00:00Z\x1finitial"

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "abc123", commits[0].Hash)
	assert.Equal(t, "snapshot: 3 notes", commits[0].Subject)
	assert.True(t, commits[0].Date.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))

	_, err = parseLog("garbage")
	assert.Error(t, err)
}

func TestClient_CommitAndLog(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	require.NoError(t, client.Init(ctx))
	assert.True(t, client.IsRepo())

	commits, err := client.Log(ctx, "state.json", 0)
	require.NoError(t, err)
	assert.Empty(t, commits, "no history before the first commit")

	file := filepath.Join(tmpDir, "state.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"v":1}`), 0644))
	require.NoError(t, client.Add(ctx, "state.json"))
	require.NoError(t, client.Commit(ctx, "first"))

	require.NoError(t, client.Add(ctx, "state.json"))
	assert.ErrorIs(t, client.Commit(ctx, "unchanged"), ErrNothingToCommit)

	require.NoError(t, os.WriteFile(file, []byte(`{"v":2}`), 0644))
	require.NoError(t, client.Add(ctx, "state.json"))
	require.NoError(t, client.Commit(ctx, "second"))

	commits, err = client.Log(ctx, "state.json", 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "second", commits[0].Subject)

	old, err := client.Show(ctx, commits[1].Hash, "state.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(old))
}
