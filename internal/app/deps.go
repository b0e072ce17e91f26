package app

import (
	"context"
	"fmt"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/blogs"
	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/db"
	"github.com/inkwell/backend/internal/handlers"
	"github.com/inkwell/backend/internal/repositories"
	"github.com/inkwell/backend/internal/storage"
	"github.com/inkwell/backend/internal/token"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	assets, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	tokens, err := token.NewService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure token service: %w", err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	blogRepo := repositories.NewPostgresBlogRepository(pool)

	return handlers.Dependencies{
		Sessions:      auth.NewManager(users, tokens, assets),
		Blogs:         blogs.NewService(blogRepo, assets),
		Production:    cfg.Production(),
		MaxImageBytes: cfg.MaxImageBytes,
	}, nil
}
