package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/logging"
	"github.com/inkwell/backend/internal/models"
)

// UserHandler implements the registration, session and profile endpoints.
type UserHandler struct {
	Sessions      SessionManager
	Production    bool
	MaxImageBytes int64
}

// sessionData is the envelope payload returned by register, login and refresh.
type sessionData struct {
	User         *models.PublicUser `json:"user,omitempty"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

// Register handles POST /users/register (multipart, optional avatar file).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := parseMultipart(w, r, h.MaxImageBytes); err != nil {
		respondError(ctx, w, err)
		return
	}

	form := registerForm{
		FirstName: strings.TrimSpace(r.FormValue("firstname")),
		LastName:  strings.TrimSpace(r.FormValue("lastname")),
		Email:     strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Password:  strings.TrimSpace(r.FormValue("password")),
	}

	if err := validate.Struct(form); err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid user data!", validationMessages(err))
		return
	}
	if !strongPassword(form.Password) {
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid user data!", []string{
			"Password must contain an uppercase letter, a lowercase letter, a number, a special character and no spaces!",
		})
		return
	}

	avatar, err := formImage(r, "avatar", h.MaxImageBytes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, pair, err := h.Sessions.Register(ctx, auth.RegisterInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Avatar:    avatar,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logger.Info("user registered", "userId", user.ID)
	setAuthCookies(w, pair, h.Production)
	respondSuccess(ctx, w, http.StatusCreated, "User registered successfully!", sessionData{
		User:         &user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var form loginForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(ctx, w, errMalformedBody)
		return
	}

	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Password = strings.TrimSpace(form.Password)

	if err := validate.Struct(form); err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid login data!", validationMessages(err))
		return
	}

	user, pair, err := h.Sessions.Login(ctx, form.Email, form.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair, h.Production)
	respondSuccess(ctx, w, http.StatusOK, "User logged in successfully!", sessionData{
		User:         &user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /users/logout. Requires a valid access token.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.Logout(ctx, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearAuthCookies(w, h.Production)
	respondSuccess(ctx, w, http.StatusOK, "User logged out successfully!", nil)
}

// Refresh handles POST /users/refresh, reading the refresh token from
// the cookie or, failing that, the JSON body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken := refreshTokenFrom(r)
	if refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			refreshToken = strings.TrimSpace(body.RefreshToken)
		}
	}

	pair, err := h.Sessions.Refresh(ctx, refreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair, h.Production)
	respondSuccess(ctx, w, http.StatusOK, "Session refreshed successfully!", sessionData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me handles GET /users/me for the authenticated user.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.profile(w, r, userID)
}

// Profile handles GET /users/{userId}.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.profile(w, r, r.PathValue("userId"))
}

func (h UserHandler) profile(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	profile, err := h.Sessions.Profile(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Profile fetched successfully!", profile)
}
