package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/domain"
	"github.com/vbonduro/grocerysync/internal/store"
	"github.com/vbonduro/grocerysync/internal/vision"
)

// ErrVisionDisabled is returned by ImportFromPhoto when no analyzer is configured.
var ErrVisionDisabled = errors.New("photo import is not configured")

// listRepository is the subset of store.ListStore that GroceryService requires.
type listRepository interface {
	Create(ctx context.Context, userID, name string) (*domain.GroceryList, error)
	Rename(ctx context.Context, userID, listID, name string) error
	Delete(ctx context.Context, userID, listID string) error
	Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.GroceryList), onError func(error)) (*docstore.Subscription, error)
}

// itemRepository is the subset of store.ItemStore that GroceryService requires.
type itemRepository interface {
	Add(ctx context.Context, userID, listID, name string, photo *store.Photo) (*domain.GroceryItem, error)
	SetChecked(ctx context.Context, userID, listID, itemID string, checked bool) error
	Delete(ctx context.Context, userID, listID, itemID string) error
	Subscribe(ctx context.Context, userID, listID string, onSnapshot func([]domain.GroceryItem), onError func(error)) (*docstore.Subscription, error)
}

// blobReader is the subset of blobstore.BlobStore that GroceryService requires.
type blobReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type GroceryService struct {
	lists     listRepository
	items     itemRepository
	visionAPI vision.VisionAnalyzer
	blobs     blobReader
	logger    *slog.Logger
}

// NewGroceryService wires the stores together. visionAPI may be nil, which
// disables ImportFromPhoto.
func NewGroceryService(
	lists listRepository,
	items itemRepository,
	visionAPI vision.VisionAnalyzer,
	blobs blobReader,
	logger *slog.Logger,
) *GroceryService {
	return &GroceryService{
		lists:     lists,
		items:     items,
		visionAPI: visionAPI,
		blobs:     blobs,
		logger:    logger,
	}
}

func (s *GroceryService) CreateList(ctx context.Context, userID, name string) (*domain.GroceryList, error) {
	list, err := s.lists.Create(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("list created", "user_id", userID, "list_id", list.ID)
	return list, nil
}

func (s *GroceryService) RenameList(ctx context.Context, userID, listID, name string) error {
	return s.lists.Rename(ctx, userID, listID, name)
}

func (s *GroceryService) DeleteList(ctx context.Context, userID, listID string) error {
	if err := s.lists.Delete(ctx, userID, listID); err != nil {
		return err
	}
	s.logger.Info("list deleted", "user_id", userID, "list_id", listID)
	return nil
}

func (s *GroceryService) AddItem(ctx context.Context, userID, listID, name string, photo *store.Photo) (*domain.GroceryItem, error) {
	item, err := s.items.Add(ctx, userID, listID, name, photo)
	if err != nil {
		return nil, err
	}
	s.logger.Info("item added", "user_id", userID, "list_id", listID, "item_id", item.ID, "has_photo", item.ImageURL != "")
	return item, nil
}

func (s *GroceryService) SetItemChecked(ctx context.Context, userID, listID, itemID string, checked bool) error {
	return s.items.SetChecked(ctx, userID, listID, itemID, checked)
}

func (s *GroceryService) DeleteItem(ctx context.Context, userID, listID, itemID string) error {
	return s.items.Delete(ctx, userID, listID, itemID)
}

func (s *GroceryService) WatchLists(ctx context.Context, userID string, onSnapshot func([]domain.GroceryList), onError func(error)) (*docstore.Subscription, error) {
	return s.lists.Subscribe(ctx, userID, onSnapshot, onError)
}

func (s *GroceryService) WatchItems(ctx context.Context, userID, listID string, onSnapshot func([]domain.GroceryItem), onError func(error)) (*docstore.Subscription, error) {
	return s.items.Subscribe(ctx, userID, listID, onSnapshot, onError)
}

// ImportFailure records a detected item that could not be added.
type ImportFailure struct {
	Name string
	Err  error
}

type ImportResult struct {
	Added  []*domain.GroceryItem
	Failed []ImportFailure
}

// ImportFromPhoto analyzes a photo of a shopping list or shelf and adds one
// item per detected line. Items that fail to add are reported in the result
// and do not stop the rest.
func (s *GroceryService) ImportFromPhoto(ctx context.Context, userID, listID string, imageData []byte, mimeType string) (*ImportResult, error) {
	if s.visionAPI == nil {
		return nil, ErrVisionDisabled
	}
	// Reject bad keys before paying for the analysis.
	if err := store.CheckKeys("import items", userID, listID); err != nil {
		return nil, err
	}

	s.logger.Info("vision analysis started", "user_id", userID, "list_id", listID, "mime_type", mimeType, "bytes", len(imageData))
	result, err := s.visionAPI.Analyze(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	s.logger.Info("vision analysis complete", "list_id", listID, "items_detected", len(result.Items))

	out := &ImportResult{Added: make([]*domain.GroceryItem, 0, len(result.Items))}
	for _, detected := range result.Items {
		item, err := s.items.Add(ctx, userID, listID, detected.Label(), nil)
		if err != nil {
			s.logger.Error("failed to add detected item", "name", detected.Name, "error", err)
			out.Failed = append(out.Failed, ImportFailure{Name: detected.Label(), Err: err})
			continue
		}
		out.Added = append(out.Added, item)
	}

	s.logger.Info("import complete", "list_id", listID, "items_added", len(out.Added), "items_failed", len(out.Failed))
	return out, nil
}

func (s *GroceryService) OpenBlob(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.blobs.Open(ctx, key)
}
