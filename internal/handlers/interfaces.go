package handlers

import (
	"context"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/blogs"
	"github.com/inkwell/backend/internal/models"
)

// SessionManager drives the user session lifecycle for the auth handlers.
type SessionManager interface {
	Register(ctx context.Context, input auth.RegisterInput) (models.PublicUser, models.TokenPair, error)
	Login(ctx context.Context, email, password string) (models.PublicUser, models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Profile(ctx context.Context, userID string) (models.Profile, error)
}

// BlogService captures the blog operations required by the blog handlers.
type BlogService interface {
	Publish(ctx context.Context, input blogs.PublishInput) (models.Blog, error)
	Update(ctx context.Context, input blogs.UpdateInput) error
	Delete(ctx context.Context, blogID, writerID string) error
	GetOwned(ctx context.Context, blogID, writerID string) (models.Blog, error)
	ListOwned(ctx context.Context, writerID string) ([]models.BlogSummary, error)
	GetPublic(ctx context.Context, blogID string) (models.PublicBlog, error)
	ListPublic(ctx context.Context) ([]models.PublicBlog, error)
}
