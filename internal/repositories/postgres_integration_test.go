package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "secret-hash",
		AvatarURL: "https://assets.example.com/avatars/ada.png",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		FirstName: "Other",
		LastName:  "Person",
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Password != user.Password || fetched.AvatarURL != user.AvatarURL {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != user.Email {
		t.Fatalf("expected same user by id, got %+v", byID)
	}

	if _, err := repo.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "ada@example.com")

	if err := repo.SetRefreshToken(ctx, user.ID, "first-token"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.RefreshToken != "first-token" {
		t.Fatalf("expected stored token, got %q", stored.RefreshToken)
	}

	// A new token replaces the old one outright.
	if err := repo.SetRefreshToken(ctx, user.ID, "second-token"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}
	stored, _ = repo.FindByID(ctx, user.ID)
	if stored.RefreshToken != "second-token" {
		t.Fatalf("expected rotated token, got %q", stored.RefreshToken)
	}

	if err := repo.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	stored, _ = repo.FindByID(ctx, user.ID)
	if stored.RefreshToken != "" {
		t.Fatalf("expected cleared token, got %q", stored.RefreshToken)
	}

	// Clearing again finds no live token.
	if err := repo.ClearRefreshToken(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound clearing twice, got %v", err)
	}

	if err := repo.SetRefreshToken(ctx, uuid.NewString(), "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound setting token for unknown user, got %v", err)
	}
}

func TestPostgresUserRepository_CountBlogsByStatus(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	blogRepo := NewPostgresBlogRepository(testPool)

	writer := createTestUser(t, userRepo, "writer@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	createTestBlog(t, blogRepo, writer.ID, models.StatusPublic)
	createTestBlog(t, blogRepo, writer.ID, models.StatusPublic)
	createTestBlog(t, blogRepo, writer.ID, models.StatusPrivate)
	createTestBlog(t, blogRepo, other.ID, models.StatusPublic)

	counts, err := userRepo.CountBlogsByStatus(ctx, writer.ID)
	if err != nil {
		t.Fatalf("count blogs: %v", err)
	}
	if counts.Public != 2 || counts.Private != 1 {
		t.Fatalf("expected 2 public / 1 private, got %+v", counts)
	}

	empty, err := userRepo.CountBlogsByStatus(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("count blogs for unknown writer: %v", err)
	}
	if empty.Public != 0 || empty.Private != 0 {
		t.Fatalf("expected zero counts, got %+v", empty)
	}
}

func TestPostgresBlogRepository_OwnedLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	repo := NewPostgresBlogRepository(testPool)

	writer := createTestUser(t, userRepo, "writer@example.com")
	intruder := createTestUser(t, userRepo, "intruder@example.com")

	blog := createTestBlog(t, repo, writer.ID, models.StatusPrivate)

	orphan := models.Blog{
		ID:            uuid.NewString(),
		Title:         "No such writer",
		Content:       "body",
		FeaturedImage: "https://assets.example.com/blogs/x.png",
		Status:        models.StatusPublic,
		WriterID:      uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown writer, got %v", err)
	}

	fetched, err := repo.FindOwned(ctx, blog.ID, writer.ID)
	if err != nil {
		t.Fatalf("find owned: %v", err)
	}
	if fetched.Title != blog.Title || fetched.WriterID != writer.ID {
		t.Fatalf("unexpected blog fetched: %+v", fetched)
	}

	if _, err := repo.FindOwned(ctx, blog.ID, intruder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign writer, got %v", err)
	}

	update := BlogUpdate{
		Title:   "Updated title",
		Content: "updated body",
		Status:  models.StatusPublic,
	}
	if err := repo.UpdateOwned(ctx, blog.ID, writer.ID, update); err != nil {
		t.Fatalf("update owned: %v", err)
	}

	fetched, err = repo.FindOwned(ctx, blog.ID, writer.ID)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if fetched.Title != update.Title || fetched.Status != models.StatusPublic {
		t.Fatalf("expected updated fields, got %+v", fetched)
	}
	if fetched.FeaturedImage != blog.FeaturedImage {
		t.Fatalf("empty image in update must keep the existing one, got %q", fetched.FeaturedImage)
	}

	update.FeaturedImage = "https://assets.example.com/blogs/replacement.png"
	if err := repo.UpdateOwned(ctx, blog.ID, writer.ID, update); err != nil {
		t.Fatalf("update with image: %v", err)
	}
	fetched, _ = repo.FindOwned(ctx, blog.ID, writer.ID)
	if fetched.FeaturedImage != update.FeaturedImage {
		t.Fatalf("expected replaced image, got %q", fetched.FeaturedImage)
	}

	metadataOnly := BlogUpdate{Title: "Title again", Content: "another body"}
	if err := repo.UpdateOwned(ctx, blog.ID, writer.ID, metadataOnly); err != nil {
		t.Fatalf("metadata-only update: %v", err)
	}
	fetched, _ = repo.FindOwned(ctx, blog.ID, writer.ID)
	if fetched.Status != models.StatusPublic {
		t.Fatalf("empty status in update must keep the stored one, got %q", fetched.Status)
	}
	if fetched.FeaturedImage != update.FeaturedImage {
		t.Fatalf("metadata-only update must keep the image, got %q", fetched.FeaturedImage)
	}

	if err := repo.UpdateOwned(ctx, blog.ID, intruder.ID, update); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating as foreign writer, got %v", err)
	}

	if _, err := repo.DeleteOwned(ctx, blog.ID, intruder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting as foreign writer, got %v", err)
	}

	imageURL, err := repo.DeleteOwned(ctx, blog.ID, writer.ID)
	if err != nil {
		t.Fatalf("delete owned: %v", err)
	}
	if imageURL != update.FeaturedImage {
		t.Fatalf("expected deleted image URL returned, got %q", imageURL)
	}

	if _, err := repo.DeleteOwned(ctx, blog.ID, writer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresBlogRepository_ListOwnedOrderAndProjection(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	repo := NewPostgresBlogRepository(testPool)
	writer := createTestUser(t, userRepo, "writer@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	older := models.Blog{
		ID:            uuid.NewString(),
		Title:         "Older post",
		Content:       "body",
		FeaturedImage: "https://assets.example.com/blogs/older.png",
		Status:        models.StatusPublic,
		WriterID:      writer.ID,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
	newer := older
	newer.ID = uuid.NewString()
	newer.Title = "Newer post"
	newer.CreatedAt = base.Add(10 * time.Minute)
	newer.UpdatedAt = newer.CreatedAt

	for _, blog := range []models.Blog{older, newer} {
		if err := repo.Create(ctx, blog); err != nil {
			t.Fatalf("create blog %s: %v", blog.Title, err)
		}
	}

	summaries, err := repo.ListOwned(ctx, writer.ID)
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != newer.ID || summaries[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", summaries)
	}

	empty, err := repo.ListOwned(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("list owned for unknown writer: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty listing, got %+v", empty)
	}
}

func TestPostgresBlogRepository_PublicVisibility(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	repo := NewPostgresBlogRepository(testPool)
	writer := createTestUser(t, userRepo, "writer@example.com")

	public := createTestBlog(t, repo, writer.ID, models.StatusPublic)
	private := createTestBlog(t, repo, writer.ID, models.StatusPrivate)

	fetched, err := repo.FindPublic(ctx, public.ID)
	if err != nil {
		t.Fatalf("find public: %v", err)
	}
	if fetched.Writer.ID != writer.ID || fetched.Writer.FirstName != writer.FirstName {
		t.Fatalf("expected author joined, got %+v", fetched.Writer)
	}
	if fetched.Status != models.StatusPublic {
		t.Fatalf("expected status carried into public read, got %q", fetched.Status)
	}

	if _, err := repo.FindPublic(ctx, private.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for private blog, got %v", err)
	}

	list, err := repo.ListPublic(ctx)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(list) != 1 || list[0].ID != public.ID {
		t.Fatalf("expected only the public blog, got %+v", list)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE blogs, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestBlog(t *testing.T, repo *PostgresBlogRepository, writerID, status string) models.Blog {
	t.Helper()
	blog := models.Blog{
		ID:            uuid.NewString(),
		Title:         "A test post",
		Content:       "body",
		FeaturedImage: "https://assets.example.com/blogs/" + uuid.NewString() + ".png",
		Status:        status,
		WriterID:      writerID,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), blog); err != nil {
		t.Fatalf("create test blog: %v", err)
	}
	return blog
}
