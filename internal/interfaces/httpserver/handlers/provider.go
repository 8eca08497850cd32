package handlers

import (
	"github.com/rs/zerolog"

	"bookdrop/internal/config"
	"bookdrop/internal/domain/session"
	"bookdrop/internal/domain/upload"
	"bookdrop/internal/infrastructure/storage"
)

// Provider wires HTTP handlers.
type Provider struct {
	Session  *SessionHandler
	Upload   *UploadHandler
	Download *DownloadHandler
}

func NewProvider(cfg *config.Config, registry *session.Registry, uploads *upload.Service, store *storage.LocalStorage, log zerolog.Logger) *Provider {
	return &Provider{
		Session:  NewSessionHandler(registry, cfg.SessionHardTTL, log),
		Upload:   NewUploadHandler(uploads, log),
		Download: NewDownloadHandler(registry, store, log),
	}
}
