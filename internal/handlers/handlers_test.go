package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/blogs"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/repositories"
	"github.com/inkwell/backend/internal/token"
)

// pngHeader is enough of a PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = refreshToken
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) ClearRefreshToken(_ context.Context, id string) error {
	user, ok := s.users[id]
	if !ok || user.RefreshToken == "" {
		return repositories.ErrNotFound
	}
	user.RefreshToken = ""
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) CountBlogsByStatus(_ context.Context, writerID string) (repositories.BlogCounts, error) {
	return repositories.BlogCounts{}, nil
}

type inMemoryBlogStore struct {
	blogs map[string]models.Blog
	users *inMemoryUserStore
}

func newInMemoryBlogStore(users *inMemoryUserStore) *inMemoryBlogStore {
	return &inMemoryBlogStore{blogs: make(map[string]models.Blog), users: users}
}

func (s *inMemoryBlogStore) Create(_ context.Context, blog models.Blog) error {
	s.blogs[blog.ID] = blog
	return nil
}

func (s *inMemoryBlogStore) FindOwned(_ context.Context, blogID, writerID string) (models.Blog, error) {
	blog, ok := s.blogs[blogID]
	if !ok || blog.WriterID != writerID {
		return models.Blog{}, repositories.ErrNotFound
	}
	return blog, nil
}

func (s *inMemoryBlogStore) ListOwned(_ context.Context, writerID string) ([]models.BlogSummary, error) {
	var summaries []models.BlogSummary
	for _, blog := range s.blogs {
		if blog.WriterID != writerID {
			continue
		}
		summaries = append(summaries, models.BlogSummary{
			ID:            blog.ID,
			Title:         blog.Title,
			FeaturedImage: blog.FeaturedImage,
			Status:        blog.Status,
			CreatedAt:     blog.CreatedAt,
			UpdatedAt:     blog.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *inMemoryBlogStore) UpdateOwned(_ context.Context, blogID, writerID string, update repositories.BlogUpdate) error {
	blog, ok := s.blogs[blogID]
	if !ok || blog.WriterID != writerID {
		return repositories.ErrNotFound
	}
	blog.Title = update.Title
	blog.Content = update.Content
	if update.Status != "" {
		blog.Status = update.Status
	}
	if update.FeaturedImage != "" {
		blog.FeaturedImage = update.FeaturedImage
	}
	s.blogs[blogID] = blog
	return nil
}

func (s *inMemoryBlogStore) DeleteOwned(_ context.Context, blogID, writerID string) (string, error) {
	blog, ok := s.blogs[blogID]
	if !ok || blog.WriterID != writerID {
		return "", repositories.ErrNotFound
	}
	delete(s.blogs, blogID)
	return blog.FeaturedImage, nil
}

func (s *inMemoryBlogStore) FindPublic(_ context.Context, blogID string) (models.PublicBlog, error) {
	blog, ok := s.blogs[blogID]
	if !ok || blog.Status != models.StatusPublic {
		return models.PublicBlog{}, repositories.ErrNotFound
	}
	writer := models.Author{ID: blog.WriterID}
	if user, err := s.users.FindByID(context.Background(), blog.WriterID); err == nil {
		writer.FirstName = user.FirstName
		writer.LastName = user.LastName
		writer.AvatarURL = user.AvatarURL
	}
	return models.PublicBlog{
		ID:            blog.ID,
		Title:         blog.Title,
		Content:       blog.Content,
		FeaturedImage: blog.FeaturedImage,
		Status:        blog.Status,
		Writer:        writer,
		CreatedAt:     blog.CreatedAt,
		UpdatedAt:     blog.UpdatedAt,
	}, nil
}

func (s *inMemoryBlogStore) ListPublic(ctx context.Context) ([]models.PublicBlog, error) {
	var list []models.PublicBlog
	for id, blog := range s.blogs {
		if blog.Status != models.StatusPublic {
			continue
		}
		public, _ := s.FindPublic(ctx, id)
		list = append(list, public)
	}
	return list, nil
}

type recordingStorage struct {
	saves   []string
	deletes []string
}

func (f *recordingStorage) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	f.saves = append(f.saves, name)
	return "https://assets.example.com/" + name, nil
}

func (f *recordingStorage) Delete(_ context.Context, location string) error {
	f.deletes = append(f.deletes, location)
	return nil
}

type testEnv struct {
	mux     *http.ServeMux
	users   *inMemoryUserStore
	blogs   *inMemoryBlogStore
	storage *recordingStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := token.NewService("access-secret", "refresh-secret", 30*time.Minute, 72*time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	users := newInMemoryUserStore()
	blogStore := newInMemoryBlogStore(users)
	assets := &recordingStorage{}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Sessions:      auth.NewManager(users, tokens, assets),
		Blogs:         blogs.NewService(blogStore, assets),
		Production:    false,
		MaxImageBytes: 1 << 20,
	})

	return &testEnv{mux: mux, users: users, blogs: blogStore, storage: assets}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     []string        `json:"errors"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     email,
		"password":  "Sup3r$afe",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)
	return e.do(t, req)
}

func cookieValue(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
