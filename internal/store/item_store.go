package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/grocerysync/internal/blobstore"
	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/domain"
)

// ErrEmptyPhoto is returned when a photo is supplied without content.
var ErrEmptyPhoto = errors.New("photo has no content")

// blobUploader is the subset of blobstore.BlobStore that ItemStore requires.
type blobUploader interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Photo is an image to attach to a new item.
type Photo struct {
	Body        io.Reader
	ContentType string
}

type ItemStore struct {
	docs   documentStore
	blobs  blobUploader
	logger *slog.Logger
	now    func() time.Time
}

func NewItemStore(docs documentStore, blobs blobUploader, logger *slog.Logger) *ItemStore {
	return &ItemStore{docs: docs, blobs: blobs, logger: logger, now: time.Now}
}

// Add creates an item in the list. With a photo, the image is uploaded first
// and the item is only written once the upload has succeeded.
func (s *ItemStore) Add(ctx context.Context, userID, listID, name string, photo *Photo) (*domain.GroceryItem, error) {
	const op = "add item"
	if err := CheckKeys(op, userID, listID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(op, KindPrecondition, ErrEmptyName)
	}
	if photo != nil && photo.Body == nil {
		return nil, newError(op, KindPrecondition, ErrEmptyPhoto)
	}

	now := s.now().UnixMilli()
	item := &domain.GroceryItem{
		ID:        s.docs.GenerateKey(),
		Name:      name,
		Timestamp: now,
	}

	var blobKey string
	if photo != nil {
		blobKey = domain.ItemImageKey(userID, now, blobstore.ExtensionFor(photo.ContentType))
		url, err := s.blobs.Upload(ctx, blobKey, photo.ContentType, photo.Body)
		if err != nil {
			return nil, newError(op, KindUpload, err)
		}
		item.ImageURL = url
		s.logger.Debug("item photo uploaded", "user_id", userID, "key", blobKey)
	}

	if err := s.docs.Write(ctx, domain.ItemPath(userID, listID, item.ID), item); err != nil {
		if blobKey != "" {
			if derr := s.blobs.Delete(ctx, blobKey); derr != nil {
				s.logger.Error("failed to delete photo after write error", "key", blobKey, "error", derr)
			}
		}
		return nil, newError(op, KindRemoteWrite, err)
	}
	return item, nil
}

// SetChecked writes only the isChecked field of the item. The item must
// exist; otherwise it fails with ErrItemNotFound and nothing is written.
func (s *ItemStore) SetChecked(ctx context.Context, userID, listID, itemID string, checked bool) error {
	const op = "set item checked"
	if err := CheckKeys(op, userID, listID, itemID); err != nil {
		return err
	}

	ok, err := exists(ctx, s.docs, domain.ItemIDPath(userID, listID, itemID), itemID)
	if err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	if !ok {
		return newError(op, KindPrecondition, ErrItemNotFound)
	}

	if err := s.docs.Write(ctx, domain.ItemCheckedPath(userID, listID, itemID), checked); err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, userID, listID, itemID string) error {
	const op = "delete item"
	if err := CheckKeys(op, userID, listID, itemID); err != nil {
		return err
	}

	if err := s.docs.Remove(ctx, domain.ItemPath(userID, listID, itemID)); err != nil {
		return newError(op, KindRemoteWrite, err)
	}
	return nil
}

// Subscribe delivers the list's items in display order: unchecked first,
// newest first within each group.
func (s *ItemStore) Subscribe(ctx context.Context, userID, listID string, onSnapshot func([]domain.GroceryItem), onError func(error)) (*docstore.Subscription, error) {
	const op = "subscribe items"
	if err := CheckKeys(op, userID, listID); err != nil {
		return nil, err
	}
	var deliver func([]domain.GroceryItem)
	if onSnapshot != nil {
		deliver = func(items []domain.GroceryItem) {
			domain.SortItems(items)
			onSnapshot(items)
		}
	}
	return watch(ctx, s.docs, s.logger, op, domain.ItemsPath(userID, listID), decodeItem, deliver, onError)
}

// decodeItem rejects records that Add did not write, such as the
// isChecked-only remnant left by toggling an item that was concurrently
// deleted.
func decodeItem(c docstore.Child) (domain.GroceryItem, error) {
	var it domain.GroceryItem
	if err := c.Decode(&it); err != nil {
		return it, err
	}
	if it.ID != c.Key {
		return it, fmt.Errorf("item id %q does not match key", it.ID)
	}
	if it.Name == "" {
		return it, errors.New("item has no name")
	}
	return it, nil
}
