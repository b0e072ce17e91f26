package repositories

import (
	"context"

	"github.com/inkwell/backend/internal/models"
)

// BlogUpdate carries the mutable fields of an owner-scoped blog update.
// Status and FeaturedImage are applied only when non-empty, so an update
// that omits them leaves the stored visibility and asset reference
// untouched.
type BlogUpdate struct {
	Title         string
	Content       string
	Status        string
	FeaturedImage string
}

// BlogRepository exposes data access for blog posts. Every owner-scoped
// operation filters on both the blog id and the writer id in a single
// statement, so a missing record and a record owned by someone else are
// indistinguishable to the caller.
type BlogRepository interface {
	Create(ctx context.Context, blog models.Blog) error
	FindOwned(ctx context.Context, blogID, writerID string) (models.Blog, error)
	ListOwned(ctx context.Context, writerID string) ([]models.BlogSummary, error)
	UpdateOwned(ctx context.Context, blogID, writerID string, update BlogUpdate) error
	DeleteOwned(ctx context.Context, blogID, writerID string) (imageURL string, err error)
	FindPublic(ctx context.Context, blogID string) (models.PublicBlog, error)
	ListPublic(ctx context.Context) ([]models.PublicBlog, error)
}
