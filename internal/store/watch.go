package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/vbonduro/grocerysync/internal/docstore"
)

// documentStore is the subset of docstore.Store that ListStore and ItemStore require.
type documentStore interface {
	GenerateKey() string
	Write(ctx context.Context, path string, value any) error
	Remove(ctx context.Context, path string) error
	Get(ctx context.Context, path string) (docstore.Snapshot, error)
	Subscribe(ctx context.Context, path string, l docstore.Listener) (*docstore.Subscription, error)
}

// CheckKeys rejects a missing user or an id that cannot be a path segment
// before anything reaches the document store.
func CheckKeys(op, userID string, ids ...string) error {
	if strings.TrimSpace(userID) == "" {
		return newError(op, KindPrecondition, ErrNoUser)
	}
	if err := docstore.ValidateKey(userID); err != nil {
		return newError(op, KindPrecondition, err)
	}
	for _, id := range ids {
		if id == "" {
			return newError(op, KindPrecondition, ErrEmptyID)
		}
		if err := docstore.ValidateKey(id); err != nil {
			return newError(op, KindPrecondition, err)
		}
	}
	return nil
}

// exists reports whether the record whose id leaf lives at idPath was
// created by the store under that id.
func exists(ctx context.Context, docs documentStore, idPath, id string) (bool, error) {
	snap, err := docs.Get(ctx, idPath)
	if err != nil {
		return false, err
	}
	if !snap.Exists() {
		return false, nil
	}
	var stored string
	if err := json.Unmarshal(snap.Value, &stored); err != nil {
		return false, nil
	}
	return stored == id, nil
}

// watch subscribes to path and decodes each child of every snapshot with
// decode. Children that fail to decode are logged and left out.
func watch[T any](
	ctx context.Context,
	docs documentStore,
	logger *slog.Logger,
	op, path string,
	decode func(docstore.Child) (T, error),
	onSnapshot func([]T),
	onError func(error),
) (*docstore.Subscription, error) {
	if onSnapshot == nil {
		return nil, newError(op, KindPrecondition, errors.New("snapshot callback is required"))
	}
	sub, err := docs.Subscribe(ctx, path, docstore.Listener{
		OnSnapshot: func(snap docstore.Snapshot) {
			records := make([]T, 0, len(snap.Children))
			for _, child := range snap.Children {
				rec, err := decode(child)
				if err != nil {
					logger.Warn("skipping undecodable record",
						"path", path, "key", child.Key, "error", newError(op, KindDecode, err))
					continue
				}
				records = append(records, rec)
			}
			onSnapshot(records)
		},
		OnError: func(err error) {
			logger.Error("subscription failed", "path", path, "error", err)
			if onError != nil {
				onError(newError(op, KindSubscription, err))
			}
		},
	})
	if err != nil {
		return nil, newError(op, KindSubscription, err)
	}
	return sub, nil
}
