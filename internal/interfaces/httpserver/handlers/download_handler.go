package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookdrop/internal/domain/device"
	"bookdrop/internal/domain/session"
	"bookdrop/internal/interfaces/httpserver/responses"
)

// ArtifactOpener opens stored artifacts for streaming.
type ArtifactOpener interface {
	Open(name string) (*os.File, error)
}

// DownloadHandler resolves (key, display name) pairs to stored artifacts.
// It is mounted as the router's fallthrough so the filename URL space can
// coexist with anything else served at the root: unresolved lookups end in
// a plain 404 instead of claiming the path.
type DownloadHandler struct {
	registry *session.Registry
	storage  ArtifactOpener
	log      zerolog.Logger
}

func NewDownloadHandler(registry *session.Registry, storage ArtifactOpener, log zerolog.Logger) *DownloadHandler {
	return &DownloadHandler{
		registry: registry,
		storage:  storage,
		log:      log.With().Str("component", "download-gate").Logger(),
	}
}

// Resolve serves GET /{filename}?key={key}.
func (h *DownloadHandler) Resolve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}
	name := strings.TrimPrefix(c.Request.URL.Path, "/")
	if name == "" || strings.Contains(name, "/") {
		c.Status(http.StatusNotFound)
		return
	}

	key := session.NormalizeKey(c.Query("key"))
	snap, ok := h.registry.Snapshot(key)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	record, ok := h.registry.FindFile(key, name)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	if snap.DeviceIdentity != c.Request.UserAgent() {
		responses.HandleError(c, session.ErrForbidden)
		return
	}

	file, err := h.storage.Open(record.StorageName)
	if err != nil {
		h.log.Warn().Err(err).Str("artifact", record.StorageName).Msg("artifact missing from storage")
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// Delivering a file counts as activity.
	h.registry.Touch(key)

	if device.Classify(snap.DeviceIdentity).WantsAttachment() {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Name))
	} else {
		c.Header("Content-Disposition", "inline")
	}
	http.ServeContent(c.Writer, c.Request, record.Name, stat.ModTime(), file)
}
