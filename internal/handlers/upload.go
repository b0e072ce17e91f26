package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/inkwell/backend/internal/models"
)

// allowedImageMIMETypes is the whitelist enforced on every image upload.
var allowedImageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

var (
	errImageTooLarge = errors.New("image exceeds the size limit")
	errImageType     = errors.New("disallowed image type")
	errMalformedBody = errors.New("malformed request body")
)

// multipartOverhead leaves room for the non-file form fields and the
// multipart framing on top of the image size limit.
const multipartOverhead = 64 << 10

// parseMultipart caps the request body and parses the multipart form.
// Oversize bodies are rejected here, before any handler logic runs.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxImageBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxImageBytes + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errImageTooLarge
		}
		return errMalformedBody
	}
	return nil
}

// formImage reads the named file field into memory, enforcing the size
// limit and the MIME whitelist against the sniffed content type. A
// missing field yields (nil, nil) so callers decide whether the image is
// mandatory.
func formImage(r *http.Request, field string, maxImageBytes int64) (*models.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errMalformedBody
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return nil, errImageTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, errMalformedBody
	}
	if int64(len(data)) > maxImageBytes {
		return nil, errImageTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedImageMIMETypes[contentType]; !ok {
		return nil, errImageType
	}

	return &models.ImageUpload{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
