package handlers

import (
	"net/http"
	"strings"

	"github.com/inkwell/backend/internal/models"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setAuthCookies attaches both token cookies to the response. Production
// deployments get Secure + SameSite=Strict; local development falls back
// to Lax so the cookies survive cross-port frontends.
func setAuthCookies(w http.ResponseWriter, pair models.TokenPair, production bool) {
	sameSite := http.SameSiteLaxMode
	if production {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   production,
		SameSite: sameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   production,
		SameSite: sameSite,
	})
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(w http.ResponseWriter, production bool) {
	sameSite := http.SameSiteLaxMode
	if production {
		sameSite = http.SameSiteStrictMode
	}

	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   production,
			SameSite: sameSite,
		})
	}
}

// accessTokenFrom extracts the access token from the request, preferring
// the cookie over an Authorization bearer header.
func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// refreshTokenFrom extracts the refresh token from the request cookie,
// if present.
func refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
