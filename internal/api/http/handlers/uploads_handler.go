package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-service/internal/media"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// UploadsHandler proxies multipart file uploads to the external media host.
type UploadsHandler struct {
	client   *media.Client
	maxBytes int64
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(client *media.Client, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{client: client, maxBytes: maxBytes}
}

// Upload handles POST /uploads (admin). The file is streamed to the
// media host; nothing is written to local disk.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	if !h.client.Configured() {
		return apperrors.NewUploadFailed(errors.New("media host is not configured"))
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field 'file' required", nil)
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return apperrors.NewValidationError(
			fmt.Sprintf("file exceeds the %d byte upload limit", h.maxBytes), nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()

	result, err := h.client.Upload(c.Context(), header.Filename, file)
	if err != nil {
		return apperrors.NewUploadFailed(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"url": result.URL}})
}
