package auth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/backend/internal/logging"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/repositories"
	"github.com/inkwell/backend/internal/token"
)

var (
	// ErrDuplicateEmail indicates the email address is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the referenced user record does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrLogoutFailed indicates the user had no live refresh token to clear.
	ErrLogoutFailed = errors.New("logout failed")
	// ErrInvalidRefreshToken covers every refresh failure: a malformed,
	// expired, revoked or rotated token all read the same to the client.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUnauthorized indicates the access token did not resolve to a user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAssetUpload indicates the avatar could not be stored.
	ErrAssetUpload = errors.New("asset upload failed")
)

// UserStore captures the persistence operations required by the session manager.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
	ClearRefreshToken(ctx context.Context, id string) error
	CountBlogsByStatus(ctx context.Context, writerID string) (repositories.BlogCounts, error)
}

// AssetStorage persists uploaded avatar images.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

// RegisterInput carries a registration request into the session manager.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Avatar    *models.ImageUpload
}

// Manager orchestrates the session lifecycle: registration, login,
// logout and refresh rotation. All session truth lives on the user
// record; the manager holds no in-memory state, so concurrent instances
// are safe.
type Manager struct {
	users   UserStore
	tokens  *token.Service
	storage AssetStorage
	nowFunc func() time.Time
}

// NewManager constructs a session manager over the provided collaborators.
func NewManager(users UserStore, tokens *token.Service, storage AssetStorage) *Manager {
	if users == nil || tokens == nil {
		panic("auth: user store and token service must not be nil")
	}
	return &Manager{users: users, tokens: tokens, storage: storage}
}

// Register creates a new user account and opens a session for it. An
// avatar, when supplied, is uploaded before any user record is written;
// an upload failure aborts the registration with no partial user.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (models.PublicUser, models.TokenPair, error) {
	ctx, span := logging.StartSpan(ctx, "auth.register")
	defer span.End()

	logger := logging.FromContext(ctx)

	if _, err := m.users.FindByEmail(ctx, input.Email); err == nil {
		return models.PublicUser{}, models.TokenPair{}, ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("check existing email: %w", err)
	}

	var avatarURL string
	if input.Avatar != nil {
		if m.storage == nil {
			return models.PublicUser{}, models.TokenPair{}, ErrAssetUpload
		}
		name := fmt.Sprintf("avatars/%s%s", uuid.NewString(), input.Avatar.Ext())
		url, err := m.storage.Save(ctx, name, bytes.NewReader(input.Avatar.Data))
		if err != nil {
			logger.Error("avatar upload failed", "error", err)
			return models.PublicUser{}, models.TokenPair{}, ErrAssetUpload
		}
		avatarURL = url
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		m.discardAsset(ctx, avatarURL)
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := m.now()
	user := models.User{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hashed),
		AvatarURL: avatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	pair, err := m.issuePair(user.ID, user.Email)
	if err != nil {
		m.discardAsset(ctx, avatarURL)
		return models.PublicUser{}, models.TokenPair{}, err
	}
	user.RefreshToken = pair.RefreshToken

	if err := m.users.Create(ctx, user); err != nil {
		m.discardAsset(ctx, avatarURL)
		if errors.Is(err, repositories.ErrConflict) {
			return models.PublicUser{}, models.TokenPair{}, ErrDuplicateEmail
		}
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	return user.Public(), pair, nil
}

// Login verifies the provided credentials and rotates the account's
// refresh token, implicitly invalidating any session opened elsewhere.
func (m *Manager) Login(ctx context.Context, email, password string) (models.PublicUser, models.TokenPair, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, models.TokenPair{}, ErrInvalidCredentials
		}
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.PublicUser{}, models.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := m.issuePair(user.ID, user.Email)
	if err != nil {
		return models.PublicUser{}, models.TokenPair{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return user.Public(), pair, nil
}

// Logout clears the user's stored refresh token, closing the session.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if _, err := m.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := m.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLogoutFailed
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

// Refresh exchanges a refresh token for a freshly issued pair. The
// presented token must byte-equal the one stored on the user record, so
// a rotated or revoked token is rejected even when its signature is
// still valid.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	claims, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, ErrInvalidRefreshToken
		}
		return models.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return models.TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := m.issuePair(user.ID, user.Email)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, nil
}

// Authenticate resolves an access token to the user it identifies. It is
// side-effect free and used as the guard before protected operations.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (string, error) {
	claims, err := m.tokens.VerifyAccess(accessToken)
	if err != nil {
		return "", ErrUnauthorized
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if user.Email != claims.Email {
		return "", ErrUnauthorized
	}

	return user.ID, nil
}

// Profile returns the sanitized user together with their blog counts.
func (m *Manager) Profile(ctx context.Context, userID string) (models.Profile, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Profile{}, ErrUserNotFound
		}
		return models.Profile{}, fmt.Errorf("find user: %w", err)
	}

	counts, err := m.users.CountBlogsByStatus(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("count blogs: %w", err)
	}

	return models.Profile{
		PublicUser:   user.Public(),
		PublicBlogs:  counts.Public,
		PrivateBlogs: counts.Private,
	}, nil
}

func (m *Manager) issuePair(userID, email string) (models.TokenPair, error) {
	access, accessExp, err := m.tokens.IssueAccess(userID, email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExp, err := m.tokens.IssueRefresh(userID, email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// discardAsset best-effort deletes an uploaded avatar after a later
// registration step failed, so the object store does not accumulate
// orphans. Failures are logged and swallowed.
func (m *Manager) discardAsset(ctx context.Context, location string) {
	if location == "" || m.storage == nil {
		return
	}
	if err := m.storage.Delete(ctx, location); err != nil {
		logging.FromContext(ctx).Warn("orphaned avatar cleanup failed", "location", location, "error", err)
	}
}

func (m *Manager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now().UTC()
}
