package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookdrop/internal/domain/upload"
	"bookdrop/internal/interfaces/httpserver/responses"
)

// SessionKeyHeader is the dedicated upload key header. Resolution priority
// is header, then query parameter, then form field.
const SessionKeyHeader = "X-Session-Key"

// UploadHandler accepts multipart batches and hands them to the upload
// pipeline.
type UploadHandler struct {
	service *upload.Service
	log     zerolog.Logger
}

func NewUploadHandler(service *upload.Service, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

// Upload processes one submission. Whatever the outcome, the multipart temp
// files are removed when the handler returns; on a rejected batch that is
// exactly the "delete everything already staged" cleanup.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid multipart form"})
		return
	}
	if form != nil {
		defer form.RemoveAll()
	}

	key := c.GetHeader(SessionKeyHeader)
	if key == "" {
		key = c.Query("key")
	}
	if key == "" {
		key = c.PostForm("key")
	}

	req := upload.Request{
		Key:           key,
		URL:           c.PostForm("url"),
		Convert:       truthy(c.PostForm("convert")),
		Transliterate: truthy(c.PostForm("transliterate")),
	}
	if form != nil {
		req.Files = form.File["file"]
	}

	result, err := h.service.Process(c.Request.Context(), req)
	if err != nil {
		responses.HandleError(c, err)
		return
	}
	c.String(http.StatusOK, result.Message())
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
