package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/domain"
)

type ListStore struct {
	docs   documentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewListStore(docs documentStore, logger *slog.Logger) *ListStore {
	return &ListStore{docs: docs, logger: logger, now: time.Now}
}

func (s *ListStore) Create(ctx context.Context, userID, name string) (*domain.GroceryList, error) {
	const op = "create list"
	if err := CheckKeys(op, userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(op, KindPrecondition, ErrEmptyName)
	}

	list := &domain.GroceryList{
		ID:        s.docs.GenerateKey(),
		Name:      name,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.docs.Write(ctx, domain.ListPath(userID, list.ID), list); err != nil {
		return nil, newError(op, KindRemoteWrite, err)
	}
	return list, nil
}

// Rename overwrites only the name field; items are untouched. Renaming a list
// that was never created, or has been deleted, fails with ErrListNotFound.
func (s *ListStore) Rename(ctx context.Context, userID, listID, name string) error {
	const op = "rename list"
	if err := CheckKeys(op, userID, listID); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return newError(op, KindPrecondition, ErrEmptyName)
	}

	ok, err := exists(ctx, s.docs, domain.ListIDPath(userID, listID), listID)
	if err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	if !ok {
		return newError(op, KindPrecondition, ErrListNotFound)
	}

	if err := s.docs.Write(ctx, domain.ListNamePath(userID, listID), name); err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	return nil
}

// Delete removes the list and all of its items in one operation.
func (s *ListStore) Delete(ctx context.Context, userID, listID string) error {
	const op = "delete list"
	if err := CheckKeys(op, userID, listID); err != nil {
		return err
	}

	if err := s.docs.Remove(ctx, domain.ListPath(userID, listID)); err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	return nil
}

// Subscribe delivers the user's lists in creation order, now and after every
// change. onError is called at most once, when the subscription ends abnormally.
func (s *ListStore) Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.GroceryList), onError func(error)) (*docstore.Subscription, error) {
	const op = "subscribe lists"
	if err := CheckKeys(op, userID); err != nil {
		return nil, err
	}
	return watch(ctx, s.docs, s.logger, op, domain.ListsPath(userID), decodeList, onSnapshot, onError)
}

// decodeList only accepts records written by Create, which stores the key as
// id. A name leaf alone, left by a rename racing a delete, is not a list.
func decodeList(c docstore.Child) (domain.GroceryList, error) {
	var l domain.GroceryList
	if err := c.Decode(&l); err != nil {
		return l, err
	}
	if l.ID != c.Key {
		return l, fmt.Errorf("list id %q does not match key", l.ID)
	}
	if l.Name == "" {
		return l, errors.New("list has no name")
	}
	return l, nil
}
