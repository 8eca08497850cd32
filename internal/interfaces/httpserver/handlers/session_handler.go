package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookdrop/internal/domain/session"
	"bookdrop/internal/interfaces/httpserver/responses"
)

// SessionHandler exposes session creation, polling and per-file deletion.
type SessionHandler struct {
	registry *session.Registry
	hardTTL  time.Duration
	log      zerolog.Logger
}

func NewSessionHandler(registry *session.Registry, hardTTL time.Duration, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		hardTTL:  hardTTL,
		log:      log.With().Str("component", "session-handler").Logger(),
	}
}

// Generate creates a session bound to the requesting device identity and
// returns the key. The cookie is a UI convenience, never an authorization.
func (h *SessionHandler) Generate(c *gin.Context) {
	key, err := h.registry.Create(c.Request.UserAgent())
	if err != nil {
		responses.HandleError(c, err)
		return
	}
	c.SetCookie("key", key, int(h.hardTTL.Seconds()), "/", "", false, false)
	c.String(http.StatusOK, key)
}

type statusFile struct {
	Name string `json:"name"`
}

type statusResponse struct {
	Alive bool         `json:"alive"`
	Files []statusFile `json:"files"`
	URLs  []string     `json:"urls"`
}

// Status polls a session. A matching device identity renews the idle window;
// a mismatch is forbidden and renews nothing.
func (h *SessionHandler) Status(c *gin.Context) {
	snap, ok := h.registry.Snapshot(c.Param("key"))
	if !ok {
		responses.HandleError(c, session.ErrNotFound)
		return
	}
	if snap.DeviceIdentity != c.Request.UserAgent() {
		responses.HandleError(c, session.ErrForbidden)
		return
	}

	h.registry.Touch(snap.Key)

	resp := statusResponse{
		Alive: true,
		Files: make([]statusFile, 0, len(snap.Files)),
		URLs:  snap.URLs,
	}
	if resp.URLs == nil {
		resp.URLs = []string{}
	}
	for _, rec := range snap.Files {
		resp.Files = append(resp.Files, statusFile{Name: rec.Name})
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteFile removes one named file from a session. Deleting a file that is
// already gone is a no-op; an unknown key is a bad request.
func (h *SessionHandler) DeleteFile(c *gin.Context) {
	err := h.registry.DeleteFile(c.Param("key"), c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "unknown key"})
		return
	}
	c.String(http.StatusOK, "ok")
}

// Health is the liveness probe.
func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
