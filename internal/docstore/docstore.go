// Package docstore is a path-addressed JSON document store with live,
// full-snapshot subscriptions. Values are kept as flattened leaves by a
// pluggable Backend; the Store layers key generation, change fan-out and
// subscription lifecycle on top.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Backend persists flattened leaves.
type Backend interface {
	// Replace atomically removes every leaf at or below path, plus any scalar
	// stored at one of its ancestors, and stores leaves in their place. A nil
	// leaves slice is a delete.
	Replace(ctx context.Context, path string, leaves []Leaf) error
	// Leaves returns every leaf at or below path ordered by path.
	Leaves(ctx context.Context, path string) ([]Leaf, error)
}

// ChangeSource is implemented by backends shared between processes. The
// store publishes each local write and relays foreign changes to its
// subscribers.
type ChangeSource interface {
	Publish(ctx context.Context, path string) error
	Changes(ctx context.Context) (<-chan string, error)
}

// Listener receives subscription events. OnError is called at most once,
// after which the subscription is over.
type Listener struct {
	OnSnapshot func(Snapshot)
	OnError    func(error)
}

type Store struct {
	backend Backend
	hub     *hub
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open creates a Store over backend. When the backend is a ChangeSource the
// store starts relaying its changes until Close.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	s := &Store{
		backend: backend,
		hub:     newHub(logger),
		logger:  logger,
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if src, ok := backend.(ChangeSource); ok {
		changes, err := src.Changes(ctx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to listen for changes: %w", err)
		}
		s.wg.Add(1)
		go s.relay(changes)
	}

	return s, nil
}

func (s *Store) relay(changes <-chan string) {
	defer s.wg.Done()
	for p := range changes {
		s.hub.Notify(p)
	}
}

// Close stops every subscription and the change relay.
func (s *Store) Close() error {
	s.cancel()
	s.hub.CloseAll()
	s.wg.Wait()
	return nil
}

// GenerateKey returns a new unique key. ulid.Make draws from a process-wide
// monotonic source, so keys sort in creation order.
func (s *Store) GenerateKey() string {
	return ulid.Make().String()
}

// Write replaces the subtree at path with value. Writing nil deletes it.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	leaves, err := Flatten(path, value)
	if err != nil {
		return err
	}
	if err := s.backend.Replace(ctx, path, leaves); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.changed(ctx, path)
	return nil
}

// Remove deletes the subtree at path in a single operation.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := s.backend.Replace(ctx, path, nil); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	s.changed(ctx, path)
	return nil
}

// Get reads the current snapshot at path.
func (s *Store) Get(ctx context.Context, path string) (Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	leaves, err := s.backend.Leaves(ctx, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Build(path, leaves)
}

// Subscribe delivers the snapshot at path now and after every change that
// touches it. The returned subscription must be closed by the caller.
func (s *Store) Subscribe(ctx context.Context, path string, l Listener) (*Subscription, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if l.OnSnapshot == nil {
		return nil, fmt.Errorf("subscribe %s: OnSnapshot is required", path)
	}

	sub := newSubscription(ctx, path, s.hub)
	s.hub.Register(sub)
	go sub.run(func(ctx context.Context) (Snapshot, error) {
		return s.Get(ctx, path)
	}, l)

	s.logger.Debug("subscription started", "path", path)
	return sub, nil
}

func (s *Store) changed(ctx context.Context, path string) {
	s.hub.Notify(path)
	if src, ok := s.backend.(ChangeSource); ok {
		if err := src.Publish(ctx, path); err != nil {
			s.logger.Error("failed to publish change", "path", path, "error", err)
		}
	}
}
