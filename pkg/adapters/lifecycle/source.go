// Package lifecycle exposes markwrite event streams as lifecycle sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/markwrite/pkg/core"
)

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source forwarding events until the channel
// closes or the context passed to Start is done.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// StoreEvents turns the transitions of store into events until ctx is done.
// The channel is never closed; slow readers drop events rather than block
// Dispatch.
func StoreEvents(ctx context.Context, store *core.Store, buffer int) <-chan core.Event {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan core.Event, buffer)
	done := make(chan struct{})

	var unsubscribe func()
	unsubscribe = store.Subscribe(func(next, prev core.AppState) {
		for _, e := range core.Diff(prev, next) {
			select {
			case <-done:
				return
			case ch <- e:
			default:
			}
		}
	})

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		unsubscribe()
		close(done)
		return nil
	})
	return ch
}
