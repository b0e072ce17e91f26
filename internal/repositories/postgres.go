package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inkwell/backend/internal/db"
	"github.com/inkwell/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, first_name, last_name, email, password_hash, avatar_url, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.FirstName, user.LastName, user.Email, user.Password, user.AvatarURL, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, first_name, last_name, email, password_hash, avatar_url, refresh_token, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	return scanUser(row, "select user by email")
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, first_name, last_name, email, password_hash, avatar_url, refresh_token, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row, "select user by id")
}

// SetRefreshToken stores the user's current refresh token, replacing any
// previously issued one.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2, updated_at = $3
        WHERE id = $1
    `, id, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearRefreshToken unsets the user's stored refresh token. It reports
// ErrNotFound when the user has no live token to clear, so callers can
// tell an idempotent repeat apart from a successful logout.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = '', updated_at = $2
        WHERE id = $1 AND refresh_token <> ''
    `, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountBlogsByStatus aggregates the writer's blogs by visibility.
func (r *PostgresUserRepository) CountBlogsByStatus(ctx context.Context, writerID string) (BlogCounts, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return BlogCounts{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE status = 'public'),
            COUNT(*) FILTER (WHERE status = 'private')
        FROM blogs
        WHERE writer_id = $1
    `, writerID)

	var counts BlogCounts
	if err := row.Scan(&counts.Public, &counts.Private); err != nil {
		return BlogCounts{}, fmt.Errorf("count blogs by status: %w", err)
	}

	return counts, nil
}

func scanUser(row pgx.Row, op string) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.Password, &user.AvatarURL, &user.RefreshToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// PostgresBlogRepository provides PostgreSQL-backed persistence for blogs.
type PostgresBlogRepository struct {
	pool db.Pool
}

// NewPostgresBlogRepository constructs a blog repository backed by PostgreSQL.
func NewPostgresBlogRepository(pool db.Pool) *PostgresBlogRepository {
	return &PostgresBlogRepository{pool: pool}
}

// Create stores a new blog record.
func (r *PostgresBlogRepository) Create(ctx context.Context, blog models.Blog) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO blogs (id, title, content, featured_image, status, writer_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, blog.ID, blog.Title, blog.Content, blog.FeaturedImage, blog.Status, blog.WriterID, blog.CreatedAt, blog.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

// FindOwned fetches a blog scoped to its writer.
func (r *PostgresBlogRepository) FindOwned(ctx context.Context, blogID, writerID string) (models.Blog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Blog{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, title, content, featured_image, status, writer_id, created_at, updated_at
        FROM blogs
        WHERE id = $1 AND writer_id = $2
    `, blogID, writerID)

	var blog models.Blog
	err = row.Scan(
		&blog.ID, &blog.Title, &blog.Content, &blog.FeaturedImage,
		&blog.Status, &blog.WriterID, &blog.CreatedAt, &blog.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Blog{}, ErrNotFound
		}
		return models.Blog{}, fmt.Errorf("select owned blog: %w", err)
	}

	return blog, nil
}

// ListOwned returns summaries of the writer's blogs, newest first. The
// content body is excluded from the projection.
func (r *PostgresBlogRepository) ListOwned(ctx context.Context, writerID string) ([]models.BlogSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, title, featured_image, status, created_at, updated_at
        FROM blogs
        WHERE writer_id = $1
        ORDER BY created_at DESC
    `, writerID)
	if err != nil {
		return nil, fmt.Errorf("query owned blogs: %w", err)
	}
	defer rows.Close()

	var summaries []models.BlogSummary
	for rows.Next() {
		var s models.BlogSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.FeaturedImage, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan owned blog: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned blogs: %w", err)
	}

	return summaries, nil
}

// UpdateOwned applies a conditional write scoped to the blog id and its
// writer. An empty status or featured image keeps the stored value. A
// zero-rows result maps to ErrNotFound.
func (r *PostgresBlogRepository) UpdateOwned(ctx context.Context, blogID, writerID string, update BlogUpdate) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE blogs
        SET title = $3,
            content = $4,
            status = COALESCE(NULLIF($5, ''), status),
            featured_image = COALESCE(NULLIF($6, ''), featured_image),
            updated_at = $7
        WHERE id = $1 AND writer_id = $2
    `, blogID, writerID, update.Title, update.Content, update.Status, update.FeaturedImage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteOwned removes a blog scoped to its writer in a single statement
// and returns the featured image URL of the deleted record.
func (r *PostgresBlogRepository) DeleteOwned(ctx context.Context, blogID, writerID string) (string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        DELETE FROM blogs
        WHERE id = $1 AND writer_id = $2
        RETURNING featured_image
    `, blogID, writerID)

	var imageURL string
	if err := row.Scan(&imageURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("delete blog: %w", err)
	}

	return imageURL, nil
}

// FindPublic fetches a publicly visible blog with its author's display fields.
func (r *PostgresBlogRepository) FindPublic(ctx context.Context, blogID string) (models.PublicBlog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PublicBlog{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT b.id, b.title, b.content, b.featured_image, b.status, b.created_at, b.updated_at,
               u.id, u.first_name, u.last_name, u.avatar_url
        FROM blogs b
        JOIN users u ON u.id = b.writer_id
        WHERE b.id = $1 AND b.status = 'public'
    `, blogID)

	var blog models.PublicBlog
	err = row.Scan(
		&blog.ID, &blog.Title, &blog.Content, &blog.FeaturedImage, &blog.Status,
		&blog.CreatedAt, &blog.UpdatedAt,
		&blog.Writer.ID, &blog.Writer.FirstName, &blog.Writer.LastName, &blog.Writer.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PublicBlog{}, ErrNotFound
		}
		return models.PublicBlog{}, fmt.Errorf("select public blog: %w", err)
	}

	return blog, nil
}

// ListPublic returns all publicly visible blogs with authors joined,
// newest first.
func (r *PostgresBlogRepository) ListPublic(ctx context.Context) ([]models.PublicBlog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT b.id, b.title, b.content, b.featured_image, b.status, b.created_at, b.updated_at,
               u.id, u.first_name, u.last_name, u.avatar_url
        FROM blogs b
        JOIN users u ON u.id = b.writer_id
        WHERE b.status = 'public'
        ORDER BY b.created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query public blogs: %w", err)
	}
	defer rows.Close()

	var blogs []models.PublicBlog
	for rows.Next() {
		var blog models.PublicBlog
		err := rows.Scan(
			&blog.ID, &blog.Title, &blog.Content, &blog.FeaturedImage, &blog.Status,
			&blog.CreatedAt, &blog.UpdatedAt,
			&blog.Writer.ID, &blog.Writer.FirstName, &blog.Writer.LastName, &blog.Writer.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan public blog: %w", err)
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate public blogs: %w", err)
	}

	return blogs, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ BlogRepository = (*PostgresBlogRepository)(nil)
