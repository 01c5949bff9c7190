package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/storage"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// UploadsHandler stores issue and completion photos.
type UploadsHandler struct {
	store    storage.ObjectStore
	maxBytes int64
}

// NewUploadsHandler constructs handler. A nil store disables uploads.
func NewUploadsHandler(store storage.ObjectStore, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{store: store, maxBytes: maxBytes}
}

// Upload handles POST /uploads with a multipart "photo" field and returns
// the stored photo's URL.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if h.store == nil {
		return apperrors.NewTransient(errors.New("object storage not configured"))
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return apperrors.NewValidationError("photo file required", nil)
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return apperrors.NewValidationError("photo too large", map[string]any{"max_bytes": h.maxBytes})
	}
	f, err := fh.Open()
	if err != nil {
		return apperrors.NewValidationError("photo unreadable", nil)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return apperrors.NewValidationError("photo unreadable", nil)
	}

	// The declared part type is client-controlled; sniff the bytes instead.
	contentType := http.DetectContentType(data)
	url, err := h.store.Upload(c.UserContext(), "photos/"+string(principal.Role), contentType, data)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.NewValidationError("photo must be jpeg, png or webp", map[string]any{"content_type": contentType})
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError("photo too large", map[string]any{"max_bytes": h.maxBytes})
	case err != nil:
		return apperrors.NewTransient(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UploadResponse{URL: url}})
}
