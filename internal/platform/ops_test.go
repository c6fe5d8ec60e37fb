package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/markwrite/internal/config"
	"github.com/aretw0/markwrite/internal/platform"
	"github.com/aretw0/markwrite/pkg/adapters/fs"
	"github.com/aretw0/markwrite/pkg/adapters/memory"
	"github.com/aretw0/markwrite/pkg/adapters/sqlite"
	"github.com/aretw0/markwrite/pkg/core"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("FS Creates Directory", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "notes")

		storage, err := platform.Init(ctx, dataDir)
		require.NoError(t, err)

		repo, ok := storage.(*fs.Repository)
		require.True(t, ok, "expected fs repository, got %T", storage)
		assert.Equal(t, dataDir, repo.Path)

		info, err := os.Stat(dataDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		_, err = os.Stat(filepath.Join(dataDir, ".git"))
		assert.True(t, os.IsNotExist(err), "no git repository without versioning")
	})

	t.Run("FS MustExist Fails on Missing Directory", func(t *testing.T) {
		_, err := platform.Init(ctx, filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("FS YAML Format", func(t *testing.T) {
		storage, err := platform.Init(ctx, t.TempDir(), platform.WithFormat("yaml"))
		require.NoError(t, err)
		assert.Equal(t, "state.yaml", storage.(*fs.Repository).FileName("state"))
	})

	t.Run("SQLite", func(t *testing.T) {
		dataDir := t.TempDir()
		storage, err := platform.Init(ctx, dataDir, platform.WithAdapter("sqlite"))
		require.NoError(t, err)
		db, ok := storage.(*sqlite.Storage)
		require.True(t, ok)
		defer db.Close()

		_, err = os.Stat(filepath.Join(dataDir, platform.SQLiteFile))
		assert.NoError(t, err)
	})

	t.Run("SQLite Rejects Versioning", func(t *testing.T) {
		_, err := platform.Init(ctx, t.TempDir(), platform.WithAdapter("sqlite"), platform.WithVersioning(true))
		assert.Error(t, err)
	})

	t.Run("Memory", func(t *testing.T) {
		storage, err := platform.Init(ctx, "", platform.WithAdapter("memory"))
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, storage)
	})

	t.Run("Injected Storage", func(t *testing.T) {
		injected := memory.New()
		storage, err := platform.Init(ctx, "ignored", platform.WithStorage(injected), platform.WithAdapter("sqlite"))
		require.NoError(t, err)
		assert.Same(t, injected, storage)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(ctx, t.TempDir(), platform.WithAdapter("redis"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Unknown Format", func(t *testing.T) {
		_, err := platform.Init(ctx, t.TempDir(), platform.WithFormat("xml"))
		assert.Error(t, err)
	})

	t.Run("FromConfig", func(t *testing.T) {
		cfg := config.Default()
		cfg.Adapter = "memory"
		storage, err := platform.Init(ctx, "", platform.FromConfig(cfg))
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, storage)
	})
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "notes", platform.ResolvePath("notes", false))
	assert.Equal(t, ".", platform.ResolvePath("", false))

	sandboxed := platform.ResolvePath("/home/someone/notes", true)
	assert.Equal(t, filepath.Join(os.TempDir(), "markwrite-dev", "notes"), sandboxed)

	inTemp := filepath.Join(os.TempDir(), "already", "here")
	assert.Equal(t, inTemp, platform.ResolvePath(inTemp, true))

	assert.Equal(t, filepath.Join(os.TempDir(), "markwrite-dev", "default"), platform.ResolvePath("", true))
}

func TestIsDevRun(t *testing.T) {
	assert.True(t, platform.IsDevRun(), "test binaries count as development runs")
}

func TestFormatChangeReason(t *testing.T) {
	msg := platform.FormatChangeReason(platform.CommitTypeFeat, "notes", "create \"Ideas\"", "  first draft ")
	assert.Equal(t, "feat(notes): create \"Ideas\"\n\nfirst draft\n\n"+platform.Footer, msg)

	msg = platform.FormatChangeReason("", "", "tidy", "")
	assert.Equal(t, "chore: tidy\n\n"+platform.Footer, msg)
}

func TestAppendFooter(t *testing.T) {
	msg := platform.AppendFooter("manual save\n")
	assert.Equal(t, "manual save\n\n"+platform.Footer, msg)
	assert.Equal(t, msg, platform.AppendFooter(msg))
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		action  core.Action
		subject string
	}{
		{core.CreateNote{Title: "Ideas"}, `feat(notes): create "Ideas"`},
		{core.UpdateNote{ID: "n1", Title: core.StringPtr("x")}, "feat(notes): update n1"},
		{core.DeleteNote{ID: "n1"}, "feat(notes): delete n1"},
		{core.SetNotes{}, "feat(notes): replace collection (0 notes)"},
		{core.SetActiveNote{ID: "n2"}, "chore(session): select n2"},
		{core.SetTheme{Theme: core.ThemeDark}, "chore(settings): " + strings.ToLower(string(core.ActionSetTheme))},
	}
	for _, tt := range tests {
		t.Run(string(tt.action.Type()), func(t *testing.T) {
			reason := platform.ReasonFor(tt.action)
			subject, _, _ := strings.Cut(reason, "\n")
			assert.Equal(t, tt.subject, subject)
			assert.True(t, strings.HasSuffix(reason, platform.Footer))
		})
	}

	assert.Empty(t, platform.ReasonFor(nil))
}
