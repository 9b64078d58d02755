package docstore

import (
	"context"
	"fmt"
)

// Subscription is a live listener on one path. Each snapshot it delivers is a
// complete replacement for the previous one.
type Subscription struct {
	path   string
	hub    *hub
	ctx    context.Context
	cancel context.CancelFunc
	dirty  chan struct{}
	done   chan struct{}
}

func newSubscription(parent context.Context, path string, h *hub) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	return &Subscription{
		path:   path,
		hub:    h,
		ctx:    ctx,
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Path returns the subscribed path.
func (s *Subscription) Path() string {
	return s.path
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery and waits for an in-flight callback to return. It must
// not be called from inside a Listener callback.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) run(read func(context.Context) (Snapshot, error), l Listener) {
	defer close(s.done)
	defer s.hub.Unregister(s)
	defer s.cancel()

	for {
		snap, err := read(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			if l.OnError != nil {
				l.OnError(fmt.Errorf("subscription %s: %w", s.path, err))
			}
			return
		}
		l.OnSnapshot(snap)

		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
		}
	}
}
