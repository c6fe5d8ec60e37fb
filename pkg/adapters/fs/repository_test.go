package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/git"
)

func newTestRepo(t *testing.T, cfg Config) *Repository {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = t.TempDir()
	}
	repo := NewRepository(cfg)
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func TestRepository_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, Config{})

	_, err := repo.Read(ctx, "markWriteState")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.Write(ctx, "markWriteState", []byte(`{"notes":[]}`)))
	_, err = os.Stat(filepath.Join(repo.Path, "markWriteState.json"))
	require.NoError(t, err, "one file per key")

	got, err := repo.Read(ctx, "markWriteState")
	require.NoError(t, err)
	assert.Equal(t, `{"notes":[]}`, string(got))

	require.NoError(t, repo.Delete(ctx, "markWriteState"))
	require.NoError(t, repo.Delete(ctx, "markWriteState"), "deleting a missing key is fine")
	_, err = repo.Read(ctx, "markWriteState")
	assert.ErrorIs(t, err, core.ErrNotFound)

	st := repo.State().(RepositoryState)
	assert.Equal(t, 1, st.Writes)
	assert.Equal(t, 0, st.IndexedKeys)
	assert.Equal(t, ".json", st.Ext)
}

func TestRepository_Ext(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, Config{Ext: "yaml"})

	require.NoError(t, repo.Write(ctx, "state", []byte("notes: []\n")))
	assert.Equal(t, "state.yaml", repo.FileName("state"))
	_, err := os.Stat(filepath.Join(repo.Path, "state.yaml"))
	assert.NoError(t, err)
}

func TestRepository_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, Config{})

	for _, key := range []string{"", ".", "..", "../escape", `a\b`, "nested/key"} {
		assert.Error(t, repo.Write(ctx, key, []byte("x")), key)
		_, err := repo.Read(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestRepository_MustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	repo := NewRepository(Config{Path: missing, MustExist: true})
	assert.Error(t, repo.Initialize(context.Background()))

	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "MustExist never creates the directory")

	created := NewRepository(Config{Path: missing})
	require.NoError(t, created.Initialize(context.Background()))
	info, err := os.Stat(missing)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRepository_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{}"), 0644))

	repo := newTestRepo(t, Config{Path: dir, ReadOnly: true})

	got, err := repo.Read(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	assert.ErrorIs(t, repo.Write(ctx, "state", []byte("x")), core.ErrReadOnly)
	assert.ErrorIs(t, repo.Delete(ctx, "state"), core.ErrReadOnly)

	repo.SetReadOnly(false)
	assert.NoError(t, repo.Write(ctx, "state", []byte("x")))
}

func TestRepository_IndexSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTestRepo(t, Config{Path: dir})
	require.NoError(t, first.Write(ctx, "state", []byte("v1")))

	second := newTestRepo(t, Config{Path: dir})
	assert.True(t, second.cache.Matches("state", []byte("v1")))

	t.Run("Corrupted Index Self-Heals", func(t *testing.T) {
		require.NoError(t, os.WriteFile(second.cache.Path, []byte("{garbage"), 0644))
		third := newTestRepo(t, Config{Path: dir})
		assert.Equal(t, 0, third.cache.Len())
	})
}

func TestRepository_Versioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	repo := newTestRepo(t, Config{Versioning: true})

	ignore, err := os.ReadFile(filepath.Join(repo.Path, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), DefaultSystemDir+"/")

	require.NoError(t, repo.Write(ctx, "state", []byte("v1")))
	require.NoError(t, repo.Write(ctx, "state", []byte("v1")), "unchanged rewrite is not an error")

	reasoned := context.WithValue(ctx, core.ChangeReasonKey, "rename note")
	require.NoError(t, repo.Write(reasoned, "state", []byte("v2")))

	history, err := repo.History(ctx, "state", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "rename note", history[0].Subject)
	assert.Equal(t, "update state", history[1].Subject)

	old, err := repo.Revision(ctx, "state", history[1].Hash)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(old))

	assert.Equal(t, 2, repo.State().(RepositoryState).Commits)
}

func TestRepository_HistoryRequiresVersioning(t *testing.T) {
	repo := newTestRepo(t, Config{})
	_, err := repo.History(context.Background(), "state", 0)
	assert.Error(t, err)
}
