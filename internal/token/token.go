package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid indicates the token failed signature or claim validation.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the token was well formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the user identity embedded in issued tokens.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service signs and verifies access and refresh tokens. Access and
// refresh tokens are signed with distinct secrets so one kind can never
// be presented in place of the other.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewService constructs a token service for the provided secrets and TTLs.
func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token: secrets must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// IssueAccess signs a short-lived access token for the user.
func (s *Service) IssueAccess(userID, email string) (string, time.Time, error) {
	return s.issue(userID, email, s.accessSecret, s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user.
func (s *Service) IssueRefresh(userID, email string) (string, time.Time, error) {
	return s.issue(userID, email, s.refreshSecret, s.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (s *Service) VerifyAccess(raw string) (Claims, error) {
	return verify(raw, s.accessSecret, s.now)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (s *Service) VerifyRefresh(raw string) (Claims, error) {
	return verify(raw, s.refreshSecret, s.now)
}

func (s *Service) issue(userID, email string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("token: user id must be provided")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)

	// The jti makes every issued token unique, so rotation replaces the
	// stored refresh token even when two issuances share a timestamp.
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func verify(raw string, secret []byte, now func() time.Time) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return Claims{}, ErrTokenInvalid
	}

	return *claims, nil
}
