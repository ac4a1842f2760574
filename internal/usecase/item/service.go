// Package item implements reporting, browsing and resolving lost/found items.
package item

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// Photo is an uploaded image attached to a new report.
type Photo struct {
	Filename string
	Body     io.Reader
}

// Service handles item CRUD with vectorization at creation.
type Service struct {
	repo   Repository
	photos PhotoStore
	embed  Embedder
}

// New creates an item service. photos may be nil when uploads are disabled.
func New(repo Repository, photos PhotoStore, embed Embedder) *Service {
	return &Service{repo: repo, photos: photos, embed: embed}
}

// Create validates the report, stores the photo, computes the embedding once and persists.
// A photo saved before a later failure is removed again.
func (s *Service) Create(ctx context.Context, owner string, f domitem.Fields, photo *Photo) (domitem.Item, error) {
	it, err := domitem.New(owner, f)
	if err != nil {
		return domitem.Item{}, err //nolint:wrapcheck // domain validation error
	}

	if photo != nil && photo.Body != nil {
		if s.photos == nil {
			return domitem.Item{}, fmt.Errorf("photo uploads are disabled: %w", domain.ErrInvalidInput)
		}
		ref, err := s.photos.Save(ctx, photo.Filename, photo.Body)
		if err != nil {
			return domitem.Item{}, fmt.Errorf("save photo: %w", err)
		}
		it.SetPhotoRef(ref)
	}

	res, err := s.embed.Embed(ctx, it.EmbeddingText())
	if err != nil {
		s.discardPhoto(ctx, it.PhotoRef())
		return domitem.Item{}, fmt.Errorf("vectorize item: %w", err)
	}
	it.SetEmbedding(res.Embedding)

	if err := s.repo.Create(ctx, &it); err != nil {
		s.discardPhoto(ctx, it.PhotoRef())
		return domitem.Item{}, fmt.Errorf("create item: %w", err)
	}

	metrics.ItemsCreatedTotal.WithLabelValues(string(it.Type())).Inc()
	logpkg.FromContext(ctx).Info("Item reported",
		zap.Int64("item_id", it.ID()),
		zap.String("type", string(it.Type())),
		zap.Int("dimensions", len(it.Embedding())),
		zap.Bool("photo", it.PhotoRef() != ""),
	)
	return it, nil
}

// Get returns an item by ID.
func (s *Service) Get(ctx context.Context, id int64) (domitem.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// List returns items matching f, newest first.
func (s *Service) List(ctx context.Context, f domitem.Filter) ([]domitem.Item, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// UpdateStatus opens or closes a report. Only the owner may do so.
func (s *Service) UpdateStatus(ctx context.Context, caller string, id int64, status domitem.Status) (domitem.Item, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return domitem.Item{}, err
	}
	it, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("update item status: %w", err)
	}
	return it, nil
}

// Delete removes a report and, best effort, its photo. Only the owner may do so.
func (s *Service) Delete(ctx context.Context, caller string, id int64) error {
	it, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.discardPhoto(ctx, it.PhotoRef())
	return nil
}

// Count returns the number of stored items.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// owned loads the item and checks that caller owns it.
func (s *Service) owned(ctx context.Context, caller string, id int64) (domitem.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}
	if !it.OwnedBy(caller) {
		return domitem.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrForbidden)
	}
	return it, nil
}

func (s *Service) discardPhoto(ctx context.Context, ref string) {
	if ref == "" || s.photos == nil {
		return
	}
	if err := s.photos.Delete(ctx, ref); err != nil {
		logpkg.FromContext(ctx).Warn("Failed to delete photo", zap.String("photo", ref), zap.Error(err))
	}
}
