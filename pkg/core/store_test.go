package core

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(opts ...StoreOption) *Store {
	base := []StoreOption{
		WithClock(fixedClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))),
		WithIDGenerator(sequentialIDs()),
	}
	return NewStore(append(base, opts...)...)
}

func TestStore_Dispatch(t *testing.T) {
	store := newTestStore()
	initial := store.State()

	store.Dispatch(CreateNote{Title: "A", Content: "x"})

	state := store.State()
	require.Len(t, state.Notes, 1)
	assert.Equal(t, "n1", state.ActiveNoteID)
	assert.Empty(t, initial.Notes, "previously returned state is unchanged")
	assert.Equal(t, uint64(1), store.Version())

	store.Dispatch(nil)
	store.Dispatch(bogusAction{})
	assert.Equal(t, uint64(1), store.Version(), "no-ops do not count as transitions")
}

func TestStore_Subscribe(t *testing.T) {
	store := newTestStore()

	var calls int
	var lastPrev, lastNext AppState
	unsubscribe := store.Subscribe(func(next, prev AppState) {
		calls++
		lastNext, lastPrev = next, prev
	})

	store.Dispatch(CreateNote{Title: "A"})
	assert.Equal(t, 1, calls)
	assert.Empty(t, lastPrev.Notes)
	assert.Len(t, lastNext.Notes, 1)

	t.Run("No Notification Without Change", func(t *testing.T) {
		store.Dispatch(UpdateNote{ID: "ghost", Title: StringPtr("x")})
		store.Dispatch(SetTheme{Theme: ThemeLight})
		assert.Equal(t, 1, calls)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		unsubscribe()
		unsubscribe()
		store.Dispatch(SetTheme{Theme: ThemeDark})
		assert.Equal(t, 1, calls)
	})
}

func TestStore_SubscribersRunInOrder(t *testing.T) {
	store := newTestStore()

	var order []string
	store.Subscribe(func(next, prev AppState) { order = append(order, "first") })
	unsubscribe := store.Subscribe(func(next, prev AppState) { order = append(order, "second") })
	store.Subscribe(func(next, prev AppState) { order = append(order, "third") })
	unsubscribe()

	store.Dispatch(SetTheme{Theme: ThemeDark})
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestStore_ListenerMayDispatch(t *testing.T) {
	store := newTestStore()

	// A UI collaborator reacting to a new note by inferring its title.
	store.Subscribe(func(next, prev AppState) {
		n, ok := next.ActiveNote()
		if ok && n.Title == "" {
			store.Dispatch(UpdateNote{ID: n.ID, Title: StringPtr("Inferred")})
		}
	})

	store.Dispatch(CreateNote{Content: "# Inferred"})

	n, ok := store.State().ActiveNote()
	require.True(t, ok)
	assert.Equal(t, "Inferred", n.Title)
}

func TestStore_ListenerPanicDoesNotEscape(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := newTestStore(WithStoreLogger(logger))

	var reached bool
	store.Subscribe(func(next, prev AppState) { panic("boom") })
	store.Subscribe(func(next, prev AppState) { reached = true })

	assert.NotPanics(t, func() { store.Dispatch(SetTheme{Theme: ThemeDark}) })
	assert.True(t, reached)
	assert.Contains(t, buf.String(), "listener panic")
	assert.Equal(t, ThemeDark, store.State().Theme)
}

func TestStore_WithInitialState(t *testing.T) {
	seed := DefaultState()
	seed.Notes = []*Note{{ID: "a"}, {ID: "b"}}
	seed.ActiveNoteID = "gone"

	store := NewStore(WithInitialState(seed))
	assert.Equal(t, "a", store.State().ActiveNoteID)
}

func TestDiff(t *testing.T) {
	store := newTestStore()
	store.Dispatch(CreateNote{Title: "N1"})
	store.Dispatch(CreateNote{Title: "N2"})
	prev := store.State()

	store.Dispatch(UpdateNote{ID: "n1", Title: StringPtr("changed")})
	store.Dispatch(DeleteNote{ID: "n2"})
	store.Dispatch(CreateNote{Title: "N3"})
	next := store.State()

	var got []string
	for _, e := range Diff(prev, next) {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"MODIFY n1", "CREATE n3", "DELETE n2", "SETTINGS"}, got)

	assert.Empty(t, Diff(next, next))
}
