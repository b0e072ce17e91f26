package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/blogs"
	"github.com/inkwell/backend/internal/logging"
)

// apiSuccess is the response envelope for successful requests.
type apiSuccess struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Success    bool   `json:"success"`
}

// apiFailure is the response envelope for failed requests. Errors holds
// per-field validation messages and is empty for every other failure.
type apiFailure struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func respondSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeJSON(ctx, w, status, apiSuccess{
		StatusCode: status,
		Message:    message,
		Data:       data,
		Success:    true,
	})
}

func respondFailure(ctx context.Context, w http.ResponseWriter, status int, message string, fieldErrors []string) {
	if fieldErrors == nil {
		fieldErrors = []string{}
	}
	writeJSON(ctx, w, status, apiFailure{
		StatusCode: status,
		Message:    message,
		Errors:     fieldErrors,
		Success:    false,
	})

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	default:
		logger.Warn("request returned client error", "status", status, "message", message, "errors", fieldErrors)
	}
}

// respondError is the single point translating domain errors into the
// HTTP envelope. Unknown errors collapse to a generic 500 with the
// detail kept server-side.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		respondFailure(ctx, w, http.StatusConflict, "Email is already registered!", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondFailure(ctx, w, http.StatusUnauthorized, "Invalid email or password!", nil)
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		respondFailure(ctx, w, http.StatusUnauthorized, "Invalid refresh token!", nil)
	case errors.Is(err, auth.ErrUnauthorized):
		respondFailure(ctx, w, http.StatusUnauthorized, "Unauthorised request!", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		respondFailure(ctx, w, http.StatusNotFound, "User not found!", nil)
	case errors.Is(err, auth.ErrLogoutFailed):
		respondFailure(ctx, w, http.StatusBadRequest, "Error logging out the user!", nil)
	case errors.Is(err, blogs.ErrNotFound):
		respondFailure(ctx, w, http.StatusNotFound, "Blog not found!", nil)
	case errors.Is(err, blogs.ErrImageRequired):
		respondFailure(ctx, w, http.StatusBadRequest, "Featured image is required!", nil)
	case errors.Is(err, auth.ErrAssetUpload), errors.Is(err, blogs.ErrAssetUpload):
		respondFailure(ctx, w, http.StatusInternalServerError, "Error uploading the image!", nil)
	case errors.Is(err, blogs.ErrAssetDelete):
		respondFailure(ctx, w, http.StatusInternalServerError, "Error deleting the featured image!", nil)
	case errors.Is(err, errImageTooLarge):
		respondFailure(ctx, w, http.StatusBadRequest, "Image must be at most 1 MiB!", nil)
	case errors.Is(err, errImageType):
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid file type!", nil)
	case errors.Is(err, errMalformedBody):
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid request body!", nil)
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		respondFailure(ctx, w, http.StatusInternalServerError, "Internal Server Error!", nil)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
