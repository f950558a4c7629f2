package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"wastecycle/internal/infrastructure/storage"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
	"wastecycle/pkg/response"
)

type FileHandler struct {
	storageClient *storage.CloudStorageClient
	maxFileSize   int64
}

func NewFileHandler(storageClient *storage.CloudStorageClient) *FileHandler {
	return &FileHandler{
		storageClient: storageClient,
		maxFileSize:   5 * 1024 * 1024,
	}
}

// UploadListingImage accepts a multipart image and returns its public URL for
// use in a listing's images array.
func (h *FileHandler) UploadListingImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(
			fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get("Content-Type")
	if !isAllowedImageType(contentType) {
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	url, err := h.storageClient.UploadFile(c.Request().Context(), src, contentType, "listing-images")
	if err != nil {
		logger.Error("UploadListingImage: upload failed: %v", err)
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}

	return response.Created(c, map[string]string{"url": url})
}

func isAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}
