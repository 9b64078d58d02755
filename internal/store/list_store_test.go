package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/grocerysync/internal/docstore/memory"
	"github.com/vbonduro/grocerysync/internal/domain"
)

func newListStore(t *testing.T) *ListStore {
	t.Helper()
	s := NewListStore(openDocs(t, memory.New()), slog.Default())
	s.now = steppingClock()
	return s
}

func listNames(lists []domain.GroceryList) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.Name
	}
	return out
}

func TestListStoreCreate(t *testing.T) {
	s := newListStore(t)
	ctx := context.Background()

	list, err := s.Create(ctx, "u1", "  Weekly ")
	require.NoError(t, err)
	assert.NotEmpty(t, list.ID)
	assert.Equal(t, "Weekly", list.Name)
	assert.Equal(t, int64(1700000000001), list.CreatedAt)

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := s.Subscribe(ctx, "u1", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()

	got := waitSnapshot(t, ch, func(l []domain.GroceryList) bool { return len(l) == 1 })
	assert.Equal(t, *list, got[0])
}

func TestListStoreSubscribeCreationOrder(t *testing.T) {
	s := newListStore(t)
	ctx := context.Background()

	for _, name := range []string{"Weekly", "Party", "Camping"} {
		_, err := s.Create(ctx, "u1", name)
		require.NoError(t, err)
	}

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := s.Subscribe(ctx, "u1", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()

	got := waitSnapshot(t, ch, func(l []domain.GroceryList) bool { return len(l) == 3 })
	assert.Equal(t, []string{"Weekly", "Party", "Camping"}, listNames(got))
}

func TestListStoreUsersAreIsolated(t *testing.T) {
	s := newListStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "Alice's list")
	require.NoError(t, err)

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := s.Subscribe(ctx, "bob", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()

	got := waitSnapshot(t, ch, func([]domain.GroceryList) bool { return true })
	assert.Empty(t, got)
}

func TestListStoreRename(t *testing.T) {
	docs := openDocs(t, memory.New())
	lists := NewListStore(docs, slog.Default())
	items := NewItemStore(docs, newFakeBlobs(), slog.Default())
	ctx := context.Background()

	list, err := lists.Create(ctx, "u1", "Weekly")
	require.NoError(t, err)
	_, err = items.Add(ctx, "u1", list.ID, "Milk", nil)
	require.NoError(t, err)

	require.NoError(t, lists.Rename(ctx, "u1", list.ID, "Monthly"))

	snap, err := docs.Get(ctx, domain.ListPath("u1", list.ID))
	require.NoError(t, err)
	var got domain.GroceryList
	require.NoError(t, json.Unmarshal(snap.Value, &got))
	assert.Equal(t, "Monthly", got.Name)
	assert.Equal(t, list.CreatedAt, got.CreatedAt)

	itemSnap, err := docs.Get(ctx, domain.ItemsPath("u1", list.ID))
	require.NoError(t, err)
	assert.Len(t, itemSnap.Children, 1)
}

func TestListStoreRenameRequiresExistingList(t *testing.T) {
	docs := openDocs(t, memory.New())
	lists := NewListStore(docs, slog.Default())
	ctx := context.Background()

	list, err := lists.Create(ctx, "u1", "Weekly")
	require.NoError(t, err)
	require.NoError(t, lists.Delete(ctx, "u1", list.ID))

	err = lists.Rename(ctx, "u1", list.ID, "Zombie")
	assert.True(t, IsPrecondition(err), "got %v", err)
	assert.ErrorIs(t, err, ErrListNotFound)

	err = lists.Rename(ctx, "u1", "client-chosen-id", "Phantom")
	assert.True(t, IsPrecondition(err), "got %v", err)
	assert.ErrorIs(t, err, ErrListNotFound)

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := lists.Subscribe(ctx, "u1", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, waitSnapshot(t, ch, func([]domain.GroceryList) bool { return true }))
}

func TestListStoreIgnoresNameWithoutRecord(t *testing.T) {
	docs := openDocs(t, memory.New())
	lists := NewListStore(docs, slog.Default())
	ctx := context.Background()

	list, err := lists.Create(ctx, "u1", "Weekly")
	require.NoError(t, err)
	// A rename that lost the race with a delete leaves only the name leaf.
	require.NoError(t, docs.Write(ctx, domain.ListNamePath("u1", "gone"), "Zombie"))
	require.NoError(t, docs.Write(ctx, domain.ListPath("u1", "forged"), map[string]any{"id": "other", "name": "Forged"}))

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := lists.Subscribe(ctx, "u1", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()

	got := waitSnapshot(t, ch, func([]domain.GroceryList) bool { return true })
	require.Len(t, got, 1)
	assert.Equal(t, list.ID, got[0].ID)
}

func TestListStoreDeleteCascades(t *testing.T) {
	docs := openDocs(t, memory.New())
	lists := NewListStore(docs, slog.Default())
	items := NewItemStore(docs, newFakeBlobs(), slog.Default())
	ctx := context.Background()

	list, err := lists.Create(ctx, "u1", "Weekly")
	require.NoError(t, err)
	for _, name := range []string{"Milk", "Eggs"} {
		_, err := items.Add(ctx, "u1", list.ID, name, nil)
		require.NoError(t, err)
	}

	require.NoError(t, lists.Delete(ctx, "u1", list.ID))

	onItems, itemCh := collector[domain.GroceryItem]()
	sub, err := items.Subscribe(ctx, "u1", list.ID, onItems, nil)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, waitSnapshot(t, itemCh, func([]domain.GroceryItem) bool { return true }))

	onLists, listCh := collector[domain.GroceryList]()
	listSub, err := lists.Subscribe(ctx, "u1", onLists, nil)
	require.NoError(t, err)
	defer listSub.Close()
	assert.Empty(t, waitSnapshot(t, listCh, func([]domain.GroceryList) bool { return true }))
}

func TestListStoreSkipsUndecodableRecords(t *testing.T) {
	docs := openDocs(t, memory.New())
	s := NewListStore(docs, slog.Default())
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", "Weekly")
	require.NoError(t, err)
	require.NoError(t, docs.Write(ctx, domain.ListPath("u1", "scalar"), "not a list"))
	require.NoError(t, docs.Write(ctx, domain.ListPath("u1", "nameless"), map[string]any{"createdAt": 5}))
	require.NoError(t, docs.Write(ctx, domain.ListPath("u1", "wrongtype"), map[string]any{"name": 7}))

	onSnapshot, ch := collector[domain.GroceryList]()
	sub, err := s.Subscribe(ctx, "u1", onSnapshot, nil)
	require.NoError(t, err)
	defer sub.Close()

	got := waitSnapshot(t, ch, func([]domain.GroceryList) bool { return true })
	assert.Equal(t, []string{"Weekly"}, listNames(got))
}

func TestListStorePreconditions(t *testing.T) {
	tests := []struct {
		name    string
		run     func(s *ListStore) error
		wantErr error
	}{
		{"create without user", func(s *ListStore) error {
			_, err := s.Create(context.Background(), "", "Weekly")
			return err
		}, ErrNoUser},
		{"create with blank name", func(s *ListStore) error {
			_, err := s.Create(context.Background(), "u1", "   ")
			return err
		}, ErrEmptyName},
		{"rename with blank name", func(s *ListStore) error {
			return s.Rename(context.Background(), "u1", "l1", "")
		}, ErrEmptyName},
		{"rename without id", func(s *ListStore) error {
			return s.Rename(context.Background(), "u1", "", "Weekly")
		}, ErrEmptyID},
		{"delete without user", func(s *ListStore) error {
			return s.Delete(context.Background(), "", "l1")
		}, ErrNoUser},
		{"subscribe without user", func(s *ListStore) error {
			_, err := s.Subscribe(context.Background(), "", func([]domain.GroceryList) {}, nil)
			return err
		}, ErrNoUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeDocs(t)
			s := NewListStore(fake, slog.Default())

			var err error
			fake.AssertNoCalls(func() { err = tt.run(s) })

			assert.True(t, IsPrecondition(err), "got %v", err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListStoreRejectsPathLikeIDs(t *testing.T) {
	fake := newFakeDocs(t)
	s := NewListStore(fake, slog.Default())

	var err error
	fake.AssertNoCalls(func() { err = s.Delete(context.Background(), "u1", "l1/items") })
	assert.True(t, IsPrecondition(err))

	fake.AssertNoCalls(func() { _, err = s.Create(context.Background(), "../u2", "Weekly") })
	assert.True(t, IsPrecondition(err))
}

func TestListStoreRemoteWriteFailure(t *testing.T) {
	fake := newFakeDocs(t)
	s := NewListStore(fake, slog.Default())
	down := errors.New("connection refused")

	result := make(chan error, 1)
	go func() {
		_, err := s.Create(context.Background(), "u1", "Weekly")
		result <- err
	}()

	fake.AssertGenerateKey("l1")
	written := fake.AssertWrite("users/u1/groceryLists/l1", down)
	assert.Equal(t, "Weekly", written.(*domain.GroceryList).Name)

	err := <-result
	assert.True(t, IsRemoteWrite(err), "got %v", err)
	assert.ErrorIs(t, err, down)

	go func() { result <- s.Delete(context.Background(), "u1", "l1") }()
	fake.AssertRemove("users/u1/groceryLists/l1", down)
	assert.True(t, IsRemoteWrite(<-result))

	go func() { result <- s.Rename(context.Background(), "u1", "l1", "Monthly") }()
	fake.AssertGet("users/u1/groceryLists/l1/id", `"l1"`, nil)
	fake.AssertWrite("users/u1/groceryLists/l1/name", down)
	assert.True(t, IsRemoteWrite(<-result))
}
