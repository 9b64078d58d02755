package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/docstore/memory"
)

type call interface{}

// fakeDocs is a channel-driven documentStore. Every call is sent on Calls
// and blocks until the test answers it with one of the Assert methods.
type fakeDocs struct {
	t     *testing.T
	Calls chan call
}

func newFakeDocs(t *testing.T) *fakeDocs {
	return &fakeDocs{t, make(chan call)}
}

type generateKeyCall struct{}
type generateKeyResp struct{ key string }

func (f *fakeDocs) GenerateKey() string {
	f.Calls <- &generateKeyCall{}
	return (<-f.Calls).(*generateKeyResp).key
}

type writeCall struct {
	path  string
	value any
}
type removeCall struct{ path string }
type getCall struct{ path string }
type getResp struct {
	snap docstore.Snapshot
	err  error
}
type subscribeCall struct{ path string }
type errResp struct{ err error }

func (f *fakeDocs) Write(_ context.Context, path string, value any) error {
	f.Calls <- &writeCall{path, value}
	return (<-f.Calls).(*errResp).err
}

func (f *fakeDocs) Remove(_ context.Context, path string) error {
	f.Calls <- &removeCall{path}
	return (<-f.Calls).(*errResp).err
}

func (f *fakeDocs) Get(_ context.Context, path string) (docstore.Snapshot, error) {
	f.Calls <- &getCall{path}
	resp := (<-f.Calls).(*getResp)
	return resp.snap, resp.err
}

func (f *fakeDocs) Subscribe(_ context.Context, path string, _ docstore.Listener) (*docstore.Subscription, error) {
	f.Calls <- &subscribeCall{path}
	return nil, (<-f.Calls).(*errResp).err
}

func (f *fakeDocs) next() call {
	f.t.Helper()
	select {
	case c := <-f.Calls:
		return c
	case <-time.After(2 * time.Second):
		f.t.Fatal("timed out waiting for a document store call")
		return nil
	}
}

func (f *fakeDocs) AssertGenerateKey(key string) {
	f.t.Helper()
	if _, ok := f.next().(*generateKeyCall); !ok {
		f.t.Fatal("expected GenerateKey")
	}
	f.Calls <- &generateKeyResp{key}
}

func (f *fakeDocs) AssertWrite(path string, err error) any {
	f.t.Helper()
	c, ok := f.next().(*writeCall)
	if !ok {
		f.t.Fatal("expected Write")
	}
	if c.path != path {
		f.t.Errorf("expected write to %s but was %s", path, c.path)
	}
	f.Calls <- &errResp{err}
	return c.value
}

func (f *fakeDocs) AssertRemove(path string, err error) {
	f.t.Helper()
	c, ok := f.next().(*removeCall)
	if !ok {
		f.t.Fatal("expected Remove")
	}
	if c.path != path {
		f.t.Errorf("expected remove of %s but was %s", path, c.path)
	}
	f.Calls <- &errResp{err}
}

// AssertGet answers a Get of path with value, or with err when it is set.
func (f *fakeDocs) AssertGet(path, value string, err error) {
	f.t.Helper()
	c, ok := f.next().(*getCall)
	if !ok {
		f.t.Fatal("expected Get")
	}
	if c.path != path {
		f.t.Errorf("expected get of %s but was %s", path, c.path)
	}
	snap := docstore.Snapshot{Path: path, Value: json.RawMessage("null")}
	if value != "" {
		snap.Value = json.RawMessage(value)
	}
	f.Calls <- &getResp{snap, err}
}

// AssertNoCalls runs fn and fails if it reaches the document store.
func (f *fakeDocs) AssertNoCalls(fn func()) {
	f.t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case c := <-f.Calls:
		f.t.Fatalf("unexpected document store call %T", c)
	case <-done:
	}
}

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Upload(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "https://blobs.test/" + key, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

// flakyBackend fails reads once fail is set.
type flakyBackend struct {
	*memory.Backend
	fail atomic.Bool
}

func (b *flakyBackend) Leaves(ctx context.Context, path string) ([]docstore.Leaf, error) {
	if b.fail.Load() {
		return nil, errors.New("permission denied")
	}
	return b.Backend.Leaves(ctx, path)
}

func openDocs(t *testing.T, backend docstore.Backend) *docstore.Store {
	t.Helper()
	docs, err := docstore.Open(context.Background(), backend, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })
	return docs
}

// steppingClock returns a clock that advances one millisecond per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.UnixMilli(1700000000000)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

func collector[T any]() (func([]T), <-chan []T) {
	ch := make(chan []T, 64)
	return func(v []T) { ch <- v }, ch
}

// waitSnapshot reads snapshots until one satisfies cond.
func waitSnapshot[T any](t *testing.T, ch <-chan []T, cond func([]T) bool) []T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}
