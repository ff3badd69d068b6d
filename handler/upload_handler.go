package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	services "github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

const maxUploadSize = 50 << 20

type UploadHandler struct {
	fileService *services.FileService
}

func NewUploadHandler(fileService *services.FileService) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
	}
}

// UploadFileHandler accepts a multipart upload with optional form fields:
// force_ocr ("true"), ocr_language (comma separated), chat_id.
func (h *UploadHandler) UploadFileHandler(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid file",
		})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "File too large",
		})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to read file",
		})
		return
	}

	req := &types.UploadFileRequest{
		Filename:    header.Filename,
		Content:     content,
		ForceOCR:    strings.EqualFold(c.Request.FormValue("force_ocr"), "true"),
		OCRLanguage: parseLanguages(c.Request.FormValue("ocr_language")),
		ChatID:      c.Request.FormValue("chat_id"),
	}

	resp, err := h.fileService.Upload(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: resp.Success,
		Data:   resp,
	})
}

func parseLanguages(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	languages := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	return languages
}
