package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/markwrite/pkg/core"
)

func TestSource_Forwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventExternal, ID: "markWriteState"}
	select {
	case e := <-src.Events():
		assert.Equal(t, "EXTERNAL markWriteState", e.String())
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes with the input")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestStoreEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := core.NewStore(core.WithIDGenerator(func() string { return "n1" }))
	events := StoreEvents(ctx, store, 8)

	store.Dispatch(core.CreateNote{Title: "A"})
	store.Dispatch(core.SetTheme{Theme: core.ThemeDark})

	var got []string
	for len(got) < 3 {
		select {
		case e := <-events:
			got = append(got, e.String())
		case <-time.After(time.Second):
			t.Fatalf("missing events, got %v", got)
		}
	}
	assert.Equal(t, []string{"CREATE n1", "SETTINGS", "SETTINGS"}, got, "creating a note also selects it")
}
