package repositories

import (
	"context"

	"github.com/inkwell/backend/internal/models"
)

// BlogCounts aggregates a writer's blogs by visibility status.
type BlogCounts struct {
	Public  int
	Private int
}

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
	ClearRefreshToken(ctx context.Context, id string) error
	CountBlogsByStatus(ctx context.Context, writerID string) (BlogCounts, error)
}
