package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Action
	}{
		{"Create", `{"type":"CREATE_NOTE","payload":{"title":"A","content":"x"}}`, CreateNote{Title: "A", Content: "x"}},
		{"Update Title Only", `{"type":"UPDATE_NOTE","payload":{"id":"n1","title":"T"}}`, UpdateNote{ID: "n1", Title: StringPtr("T")}},
		{"Delete", `{"type":"DELETE_NOTE","payload":"n1"}`, DeleteNote{ID: "n1"}},
		{"Select", `{"type":"SET_ACTIVE_NOTE","payload":"n2"}`, SetActiveNote{ID: "n2"}},
		{"Select Null", `{"type":"SET_ACTIVE_NOTE","payload":null}`, SetActiveNote{}},
		{"Theme", `{"type":"SET_THEME","payload":"dark"}`, SetTheme{Theme: ThemeDark}},
		{"Zen", `{"type":"SET_ZEN_MODE","payload":"on"}`, SetZenMode{Mode: ZenOn}},
		{"Sound", `{"type":"SET_SOUND","payload":"rain"}`, SetSound{Sound: SoundRain}},
		{"Toggle", `{"type":"TOGGLE_PREVIEW"}`, TogglePreview{}},
		{"Toggle Explicit", `{"type":"TOGGLE_PREVIEW","payload":false}`, TogglePreview{Visible: BoolPtr(false)}},
		{"Editor Height", `{"type":"SET_EDITOR_HEIGHT","payload":60}`, SetEditorHeight{Percent: 60}},
		{"Preview Height", `{"type":"SET_PREVIEW_HEIGHT","payload":40.5}`, SetPreviewHeight{Percent: 40.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAction([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAction_SetNotes(t *testing.T) {
	in := `{"type":"SET_NOTES","payload":[
		{"id":"a","title":"A","content":"x","createdAt":"2024-01-01T10:00:00Z","updatedAt":"2024-01-02T10:00:00Z"},
		{"id":"b","title":"B","content":"y","createdAt":"2024-01-05T10:00:00Z","updatedAt":"2024-01-01T10:00:00Z"}
	]}`

	got, err := DecodeAction([]byte(in))
	require.NoError(t, err)

	set, ok := got.(SetNotes)
	require.True(t, ok)
	require.Len(t, set.Notes, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), set.Notes[0].UpdatedAt.UTC())
	assert.Equal(t, set.Notes[1].CreatedAt, set.Notes[1].UpdatedAt, "updatedAt is raised to createdAt")
}

func TestDecodeAction_Errors(t *testing.T) {
	_, err := DecodeAction([]byte(`{"type":"EXPLODE"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DecodeAction([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeAction([]byte(`{"type":"DELETE_NOTE","payload":{"id":1}}`))
	assert.Error(t, err)

	_, err = DecodeAction([]byte(`{"type":"SET_NOTES","payload":[{"id":"a","createdAt":"yesterday"}]}`))
	assert.Error(t, err)
}
