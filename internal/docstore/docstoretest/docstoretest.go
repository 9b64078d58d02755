// Package docstoretest holds the behaviour every docstore.Backend must share.
package docstoretest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/grocerysync/internal/docstore"
)

// RunBackendTests exercises newBackend against the Backend contract. Each
// subtest gets a fresh backend.
func RunBackendTests(t *testing.T, newBackend func(t *testing.T) docstore.Backend) {
	t.Run("ReplaceAndRead", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "users/u1/groceryLists/l1", leaves(t, "users/u1/groceryLists/l1", map[string]any{
			"id":   "l1",
			"name": "Weekly",
		})))

		got, err := b.Leaves(ctx, "users/u1/groceryLists")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "users/u1/groceryLists/l1/id", got[0].Path)
		assert.JSONEq(t, `"l1"`, string(got[0].Value))
		assert.Equal(t, "users/u1/groceryLists/l1/name", got[1].Path)
		assert.JSONEq(t, `"Weekly"`, string(got[1].Value))
	})

	t.Run("ReplaceDropsOldSubtree", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "a/b", leaves(t, "a/b", map[string]any{"x": 1, "y": 2})))
		require.NoError(t, b.Replace(ctx, "a/b", leaves(t, "a/b", map[string]any{"z": 3})))

		got, err := b.Leaves(ctx, "a/b")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a/b/z", got[0].Path)
	})

	t.Run("ReplaceScalarField", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "a/item", leaves(t, "a/item", map[string]any{"name": "Milk", "isChecked": false})))
		require.NoError(t, b.Replace(ctx, "a/item/isChecked", []docstore.Leaf{{Path: "a/item/isChecked", Value: json.RawMessage("true")}}))

		got, err := b.Leaves(ctx, "a/item")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a/item/isChecked", got[0].Path)
		assert.Equal(t, "true", string(got[0].Value))
		assert.Equal(t, "a/item/name", got[1].Path)
	})

	t.Run("ReplaceClearsAncestorScalar", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "a/b", []docstore.Leaf{{Path: "a/b", Value: json.RawMessage(`"scalar"`)}}))
		require.NoError(t, b.Replace(ctx, "a/b/c", []docstore.Leaf{{Path: "a/b/c", Value: json.RawMessage(`1`)}}))

		got, err := b.Leaves(ctx, "a")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a/b/c", got[0].Path)
	})

	t.Run("RemoveSubtree", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "u/lists/l1", leaves(t, "u/lists/l1", map[string]any{
			"name":  "Weekly",
			"items": map[string]any{"i1": map[string]any{"name": "Milk"}},
		})))
		require.NoError(t, b.Replace(ctx, "u/lists/l2", leaves(t, "u/lists/l2", map[string]any{"name": "Party"})))

		require.NoError(t, b.Replace(ctx, "u/lists/l1", nil))

		got, err := b.Leaves(ctx, "u/lists/l1")
		require.NoError(t, err)
		assert.Empty(t, got)

		rest, err := b.Leaves(ctx, "u/lists")
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "u/lists/l2/name", rest[0].Path)
	})

	t.Run("SiblingPrefixNotIncluded", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Replace(ctx, "a/b", []docstore.Leaf{{Path: "a/b/x", Value: json.RawMessage(`1`)}}))
		require.NoError(t, b.Replace(ctx, "a/b-c", []docstore.Leaf{{Path: "a/b-c/x", Value: json.RawMessage(`2`)}}))
		require.NoError(t, b.Replace(ctx, "a/bc", []docstore.Leaf{{Path: "a/bc/x", Value: json.RawMessage(`3`)}}))

		got, err := b.Leaves(ctx, "a/b")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a/b/x", got[0].Path)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		b := newBackend(t)

		got, err := b.Leaves(context.Background(), "nothing/here")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func leaves(t *testing.T, root string, v any) []docstore.Leaf {
	t.Helper()
	l, err := docstore.Flatten(root, v)
	require.NoError(t, err)
	return l
}
