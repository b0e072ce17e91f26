package blogs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/backend/internal/logging"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/repositories"
)

// AssetStorage persists featured images for blog posts.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

// BlogStore captures the persistence operations required by the service.
type BlogStore interface {
	Create(ctx context.Context, blog models.Blog) error
	FindOwned(ctx context.Context, blogID, writerID string) (models.Blog, error)
	ListOwned(ctx context.Context, writerID string) ([]models.BlogSummary, error)
	UpdateOwned(ctx context.Context, blogID, writerID string, update repositories.BlogUpdate) error
	DeleteOwned(ctx context.Context, blogID, writerID string) (string, error)
	FindPublic(ctx context.Context, blogID string) (models.PublicBlog, error)
	ListPublic(ctx context.Context) ([]models.PublicBlog, error)
}

// PublishInput carries a new blog post into the service.
type PublishInput struct {
	WriterID string
	Title    string
	Content  string
	Status   string
	Image    *models.ImageUpload
}

// UpdateInput carries an owner-scoped blog mutation. Image is optional;
// when present the stored featured image is replaced.
type UpdateInput struct {
	BlogID   string
	WriterID string
	Title    string
	Content  string
	Status   string
	Image    *models.ImageUpload
}

// Service orchestrates blog mutations that pair a database write with an
// asset-store side effect. Each operation runs its steps sequentially
// within the request; there is no cross-request state.
//
// The upload-then-commit sequences are not transactional. When a record
// write fails after a successful upload the fresh object is deleted on a
// best-effort basis; a failed best-effort delete is logged and the
// operation's original error is returned unchanged.
type Service struct {
	store   BlogStore
	storage AssetStorage
	nowFunc func() time.Time
}

// NewService constructs a blog service over the provided collaborators.
func NewService(store BlogStore, storage AssetStorage) *Service {
	if store == nil || storage == nil {
		panic("blogs: store and storage must not be nil")
	}
	return &Service{store: store, storage: storage}
}

// Publish uploads the featured image and then creates the blog record.
// The image is mandatory; nothing is persisted when it is absent or the
// upload fails.
func (s *Service) Publish(ctx context.Context, input PublishInput) (models.Blog, error) {
	ctx, span := logging.StartSpan(ctx, "blogs.publish")
	defer span.End()

	if input.Image == nil {
		return models.Blog{}, ErrImageRequired
	}

	status := input.Status
	if status == "" {
		status = models.StatusPublic
	}

	imageURL, err := s.upload(ctx, input.Image)
	if err != nil {
		return models.Blog{}, err
	}

	now := s.now()
	blog := models.Blog{
		ID:            uuid.NewString(),
		Title:         input.Title,
		Content:       input.Content,
		FeaturedImage: imageURL,
		Status:        status,
		WriterID:      input.WriterID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, blog); err != nil {
		s.discardAsset(ctx, imageURL)
		return models.Blog{}, fmt.Errorf("create blog: %w", err)
	}

	return blog, nil
}

// Update mutates a blog scoped to its writer. When a replacement image
// is supplied the new asset is uploaded first, the record is updated to
// reference it, and only after that write succeeds is the old asset
// deleted, so the record never points at a removed object.
func (s *Service) Update(ctx context.Context, input UpdateInput) error {
	ctx, span := logging.StartSpan(ctx, "blogs.update")
	defer span.End()

	current, err := s.store.FindOwned(ctx, input.BlogID, input.WriterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find blog: %w", err)
	}

	var newImageURL string
	if input.Image != nil {
		newImageURL, err = s.upload(ctx, input.Image)
		if err != nil {
			return err
		}
	}

	update := repositories.BlogUpdate{
		Title:         input.Title,
		Content:       input.Content,
		Status:        input.Status,
		FeaturedImage: newImageURL,
	}

	if err := s.store.UpdateOwned(ctx, input.BlogID, input.WriterID, update); err != nil {
		s.discardAsset(ctx, newImageURL)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update blog: %w", err)
	}

	if newImageURL != "" && current.FeaturedImage != "" {
		s.discardAsset(ctx, current.FeaturedImage)
	}

	return nil
}

// Delete removes a blog scoped to its writer and then its featured
// image. The record delete performs the existence, ownership and removal
// check in one statement; when it matches nothing the asset is never
// touched. An asset-delete failure after a successful record delete is
// surfaced but not rolled back.
func (s *Service) Delete(ctx context.Context, blogID, writerID string) error {
	ctx, span := logging.StartSpan(ctx, "blogs.delete")
	defer span.End()

	imageURL, err := s.store.DeleteOwned(ctx, blogID, writerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blog: %w", err)
	}

	if imageURL != "" {
		if err := s.storage.Delete(ctx, imageURL); err != nil {
			logging.FromContext(ctx).Error("featured image delete failed", "blogId", blogID, "location", imageURL, "error", err)
			return ErrAssetDelete
		}
	}

	return nil
}

// GetOwned fetches a single blog owned by the writer.
func (s *Service) GetOwned(ctx context.Context, blogID, writerID string) (models.Blog, error) {
	blog, err := s.store.FindOwned(ctx, blogID, writerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Blog{}, ErrNotFound
		}
		return models.Blog{}, fmt.Errorf("find blog: %w", err)
	}
	return blog, nil
}

// ListOwned returns summaries of the writer's blogs with content omitted.
func (s *Service) ListOwned(ctx context.Context, writerID string) ([]models.BlogSummary, error) {
	summaries, err := s.store.ListOwned(ctx, writerID)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return summaries, nil
}

// GetPublic fetches a publicly visible blog with its author joined.
func (s *Service) GetPublic(ctx context.Context, blogID string) (models.PublicBlog, error) {
	blog, err := s.store.FindPublic(ctx, blogID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicBlog{}, ErrNotFound
		}
		return models.PublicBlog{}, fmt.Errorf("find public blog: %w", err)
	}
	return blog, nil
}

// ListPublic returns every publicly visible blog with authors joined.
func (s *Service) ListPublic(ctx context.Context) ([]models.PublicBlog, error) {
	blogsList, err := s.store.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public blogs: %w", err)
	}
	return blogsList, nil
}

func (s *Service) upload(ctx context.Context, image *models.ImageUpload) (string, error) {
	name := fmt.Sprintf("blogs/%s%s", uuid.NewString(), image.Ext())
	url, err := s.storage.Save(ctx, name, bytes.NewReader(image.Data))
	if err != nil {
		logging.FromContext(ctx).Error("featured image upload failed", "error", err)
		return "", ErrAssetUpload
	}
	return url, nil
}

func (s *Service) discardAsset(ctx context.Context, location string) {
	if location == "" {
		return
	}
	if err := s.storage.Delete(ctx, location); err != nil {
		logging.FromContext(ctx).Warn("orphaned image cleanup failed", "location", location, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
