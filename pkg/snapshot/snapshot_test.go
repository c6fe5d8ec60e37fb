package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/markwrite/pkg/core"
)

func sampleState() core.AppState {
	created := time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.UTC)
	state := core.DefaultState()
	state.Notes = []*core.Note{
		{ID: "a", Title: "First", Content: "# First\n\nbody", CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
		{ID: "b", Title: "Second", Content: "<p>html</p>", CreatedAt: created, UpdatedAt: created},
	}
	state.ActiveNoteID = "b"
	state.Theme = core.ThemeDark
	state.ZenMode = core.ZenOn
	state.SoundType = core.SoundForest
	state.PreviewVisible = false
	state.EditorHeight = 62.5
	state.PreviewHeight = 37.5
	return state
}

func assertSameState(t *testing.T, want, got core.AppState) {
	t.Helper()
	require.Len(t, got.Notes, len(want.Notes))
	for i := range want.Notes {
		w, g := want.Notes[i], got.Notes[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Title, g.Title)
		assert.Equal(t, w.Content, g.Content)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt), "createdAt %v != %v", w.CreatedAt, g.CreatedAt)
		assert.True(t, w.UpdatedAt.Equal(g.UpdatedAt), "updatedAt %v != %v", w.UpdatedAt, g.UpdatedAt)
	}
	assert.Equal(t, want.ActiveNoteID, got.ActiveNoteID)
	assert.Equal(t, want.Theme, got.Theme)
	assert.Equal(t, want.ZenMode, got.ZenMode)
	assert.Equal(t, want.SoundType, got.SoundType)
	assert.Equal(t, want.PreviewVisible, got.PreviewVisible)
	assert.Equal(t, want.EditorHeight, got.EditorHeight)
	assert.Equal(t, want.PreviewHeight, got.PreviewHeight)
}

func TestCodec_RoundTrip(t *testing.T) {
	for name, s := range map[string]Serializer{"JSON": JSONSerializer{}, "YAML": YAMLSerializer{}} {
		t.Run(name, func(t *testing.T) {
			codec := NewCodec(s)
			state := sampleState()

			data, err := codec.Encode(state)
			require.NoError(t, err)

			got, err := codec.Decode(data)
			require.NoError(t, err)
			assertSameState(t, state, got)
		})
	}
}

func TestCodec_EncodeWritesVersionAndNullActive(t *testing.T) {
	state := sampleState()
	state.ActiveNoteID = ""

	data, err := NewCodec(nil).Encode(state)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"version": 2`)
	assert.Contains(t, string(data), `"activeNoteId": null`)
	assert.Contains(t, string(data), `"createdAt": "2024-05-01T08:30:00.123456789Z"`)
}

func TestCodec_DecodeLegacyRecord(t *testing.T) {
	// The shape written by the browser version: no version, no layout fields.
	legacy := `{
		"notes": [
			{"id": "k2j4h5", "title": "Welcome to MarkWrite", "content": "# Welcome",
			 "createdAt": "2024-02-10T09:15:00.000Z", "updatedAt": "2024-02-10T09:20:00.000Z"}
		],
		"activeNoteId": "k2j4h5",
		"theme": "dark",
		"zenMode": "on",
		"soundType": "cafe"
	}`

	state, err := NewCodec(nil).Decode([]byte(legacy))
	require.NoError(t, err)

	require.Len(t, state.Notes, 1)
	assert.Equal(t, "k2j4h5", state.ActiveNoteID)
	assert.Equal(t, core.ThemeDark, state.Theme)
	assert.Equal(t, core.ZenOn, state.ZenMode)
	assert.Equal(t, core.SoundNone, state.SoundType, "retired sound maps to none")
	assert.True(t, state.PreviewVisible)
	assert.Equal(t, core.DefaultEditorHeight, state.EditorHeight)
	assert.Equal(t, core.DefaultPreviewHeight, state.PreviewHeight)
}

func TestCodec_DecodeRepairsRecords(t *testing.T) {
	in := `{
		"version": 2,
		"notes": [
			{"id": "", "title": "no id"},
			{"id": "a", "title": "A", "createdAt": "2024-02-10T09:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"},
			{"id": "a", "title": "duplicate"},
			{"id": "b", "title": "B", "updatedAt": "2024-02-10T09:00:00Z"}
		],
		"activeNoteId": null,
		"theme": "sepia",
		"zenMode": "",
		"soundType": "whales",
		"previewVisible": false
	}`

	state, err := NewCodec(nil).Decode([]byte(in))
	require.NoError(t, err)

	require.Len(t, state.Notes, 2)
	assert.Equal(t, "A", state.Notes[0].Title)
	assert.Equal(t, state.Notes[0].CreatedAt, state.Notes[0].UpdatedAt)
	assert.Equal(t, state.Notes[1].UpdatedAt, state.Notes[1].CreatedAt)
	assert.Empty(t, state.ActiveNoteID)
	assert.Equal(t, core.ThemeLight, state.Theme)
	assert.Equal(t, core.ZenOff, state.ZenMode)
	assert.Equal(t, core.SoundNone, state.SoundType)
	assert.False(t, state.PreviewVisible, "explicit false survives defaults")
}

func TestCodec_DecodeErrors(t *testing.T) {
	codec := NewCodec(nil)

	tests := map[string]string{
		"Empty":         "",
		"Null":          "null",
		"Garbage":       "{ invalid json",
		"Missing Notes": `{"theme": "dark"}`,
		"Wrong Shape":   `{"notes": "nope"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode([]byte(in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	t.Run("Future Version", func(t *testing.T) {
		_, err := codec.Decode([]byte(`{"version": 99, "notes": []}`))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
}

func TestSerializerFor(t *testing.T) {
	s, err := SerializerFor("")
	require.NoError(t, err)
	assert.Equal(t, ".json", s.Ext())

	s, err = SerializerFor("yml")
	require.NoError(t, err)
	assert.Equal(t, ".yaml", s.Ext())

	_, err = SerializerFor("toml")
	assert.Error(t, err)
}
