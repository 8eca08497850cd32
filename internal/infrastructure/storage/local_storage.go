package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"bookdrop/internal/config"
)

// LocalStorage holds staged uploads and converter output in a single flat
// directory. Nothing in it survives a restart: Reset wipes it on startup.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
}

// New creates a local storage rooted at the configured path.
func New(cfg *config.Config, log zerolog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: cfg.StoragePath,
		log:      log.With().Str("component", "local-storage").Logger(),
	}
}

// Reset recursively deletes and recreates the storage directory.
// A failure here is fatal to process start.
func (l *LocalStorage) Reset() error {
	if err := os.RemoveAll(l.basePath); err != nil {
		return fmt.Errorf("reset storage directory: %w", err)
	}
	if err := os.MkdirAll(l.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	l.log.Info().Str("path", l.basePath).Msg("storage directory reset")
	return nil
}

// Save streams data into a new file under the given opaque name and returns
// the number of bytes written. Names must not contain path separators.
func (l *LocalStorage) Save(name string, data io.Reader) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	file, err := os.Create(l.Path(name))
	if err != nil {
		return 0, fmt.Errorf("create artifact: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		os.Remove(file.Name())
		return 0, fmt.Errorf("write artifact: %w", err)
	}
	return written, nil
}

// Open opens a stored artifact for reading.
func (l *LocalStorage) Open(name string) (*os.File, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return os.Open(l.Path(name))
}

// Remove deletes a stored artifact. A missing file is not an error.
func (l *LocalStorage) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(l.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the absolute-ish filesystem path of an artifact name.
func (l *LocalStorage) Path(name string) string {
	return filepath.Join(l.basePath, name)
}

// Dir returns the storage directory; converters run inside it.
func (l *LocalStorage) Dir() string {
	return l.basePath
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
