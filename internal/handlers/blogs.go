package handlers

import (
	"net/http"
	"strings"

	"github.com/inkwell/backend/internal/blogs"
	"github.com/inkwell/backend/internal/logging"
)

// BlogHandler implements the blog publishing and browsing endpoints.
type BlogHandler struct {
	Blogs         BlogService
	Sessions      SessionManager
	MaxImageBytes int64
}

// Publish handles POST /blogs/publish (multipart, required featuredImageFile).
func (h BlogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writerID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := parseMultipart(w, r, h.MaxImageBytes); err != nil {
		respondError(ctx, w, err)
		return
	}

	form := blogForm{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Status:  strings.TrimSpace(r.FormValue("status")),
	}
	if err := validate.Struct(form); err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid input data!", validationMessages(err))
		return
	}

	image, err := formImage(r, "featuredImageFile", h.MaxImageBytes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	blog, err := h.Blogs.Publish(ctx, blogs.PublishInput{
		WriterID: writerID,
		Title:    form.Title,
		Content:  form.Content,
		Status:   form.Status,
		Image:    image,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("blog published", "blogId", blog.ID, "writerId", writerID)
	respondSuccess(ctx, w, http.StatusCreated, "Blog published successfully!", blog)
}

// Update handles POST /blogs/blogger/{blogId} (multipart, optional new image).
func (h BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writerID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := parseMultipart(w, r, h.MaxImageBytes); err != nil {
		respondError(ctx, w, err)
		return
	}

	form := blogForm{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Status:  strings.TrimSpace(r.FormValue("status")),
	}
	if err := validate.Struct(form); err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "Invalid input data!", validationMessages(err))
		return
	}

	image, err := formImage(r, "featuredImageFile", h.MaxImageBytes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	err = h.Blogs.Update(ctx, blogs.UpdateInput{
		BlogID:   r.PathValue("blogId"),
		WriterID: writerID,
		Title:    form.Title,
		Content:  form.Content,
		Status:   form.Status,
		Image:    image,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blog updated successfully!", nil)
}

// Delete handles DELETE /blogs/blogger/{blogId}.
func (h BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writerID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Blogs.Delete(ctx, r.PathValue("blogId"), writerID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blog deleted successfully!", nil)
}

// GetOwned handles GET /blogs/blogger/{blogId}.
func (h BlogHandler) GetOwned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writerID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	blog, err := h.Blogs.GetOwned(ctx, r.PathValue("blogId"), writerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blog fetched successfully!", blog)
}

// ListOwned handles GET /blogs/blogger/.
func (h BlogHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writerID, err := h.Sessions.Authenticate(ctx, accessTokenFrom(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	summaries, err := h.Blogs.ListOwned(ctx, writerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blogs fetched successfully!", summaries)
}

// GetPublic handles GET /blogs/{blogId}.
func (h BlogHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blog, err := h.Blogs.GetPublic(ctx, r.PathValue("blogId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blog fetched successfully!", blog)
}

// ListPublic handles GET /blogs/.
func (h BlogHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.Blogs.ListPublic(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondSuccess(ctx, w, http.StatusOK, "Blogs fetched successfully!", list)
}
