package handler

import (
	"github.com/labstack/echo/v4"

	"pairchat/internal/usecase"
	"pairchat/pkg/errors"
	"pairchat/pkg/response"
)

// FileHandler is the upload relay endpoint: a multipart file in, a publicly
// fetchable URL out. Clients attach the URL to an image message themselves.
type FileHandler struct {
	uploader usecase.FileUploader
}

func NewFileHandler(uploader usecase.FileUploader) *FileHandler {
	return &FileHandler{
		uploader: uploader,
	}
}

func (h *FileHandler) Upload(c echo.Context) error {
	if h.uploader == nil {
		return response.Error(c, errors.Upstream("Upload relay is not configured", nil))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.InvalidArgument("file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read upload", err))
	}
	defer file.Close()

	url, err := h.uploader.UploadFile(
		c.Request().Context(),
		file,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}
