package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/markwrite/pkg/core"
)

func openTestStorage(t *testing.T, cfg Config) *Storage {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	s := New(cfg)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t, Config{})

	_, err := s.Read(ctx, "markWriteState")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Write(ctx, "markWriteState", []byte("v1")))
	require.NoError(t, s.Write(ctx, "markWriteState", []byte("v2")))

	got, err := s.Read(ctx, "markWriteState")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got), "upsert replaces the value")

	at, err := s.UpdatedAt(ctx, "markWriteState")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)

	st := s.State().(StorageState)
	assert.Equal(t, 1, st.Records)
	assert.Equal(t, 2, st.Writes)
	assert.True(t, st.Open)

	require.NoError(t, s.Delete(ctx, "markWriteState"))
	require.NoError(t, s.Delete(ctx, "markWriteState"))
	_, err = s.Read(ctx, "markWriteState")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "markwrite.db")

	first := New(Config{Path: path})
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.Write(ctx, "state", []byte(`{"notes":[]}`)))
	require.NoError(t, first.Close())

	second := openTestStorage(t, Config{Path: path})
	got, err := second.Read(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, `{"notes":[]}`, string(got))
}

func TestStorage_ReadOnly(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t, Config{ReadOnly: true})

	assert.ErrorIs(t, s.Write(ctx, "k", []byte("x")), core.ErrReadOnly)
	assert.ErrorIs(t, s.Delete(ctx, "k"), core.ErrReadOnly)
}

func TestStorage_Uninitialized(t *testing.T) {
	s := New(Config{Path: MemoryPath})
	_, err := s.Read(context.Background(), "k")
	assert.Error(t, err)

	assert.Error(t, New(Config{}).Initialize(context.Background()))
}

func TestUpSection(t *testing.T) {
	in := "-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (x);\n", upSection(in))
	assert.Equal(t, "CREATE TABLE b (y);", upSection("CREATE TABLE b (y);"))
}
