package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"bookdrop/internal/domain/device"
	"bookdrop/internal/domain/session"
	"bookdrop/internal/infrastructure/metrics"
	"bookdrop/internal/utils/artifactid"
)

// Converter is an external conversion tool operating on staged files inside
// the storage directory.
type Converter interface {
	Kind() session.Conversion
	DisplayExt() string
	Convert(ctx context.Context, dir, inputName string) (outputName, diag string, err error)
}

// Storage is the slice of blob storage the upload pipeline needs.
type Storage interface {
	Save(name string, data io.Reader) (int64, error)
	Remove(name string) error
	Path(name string) string
	Dir() string
}

// Service validates uploaded items, dispatches conversions and appends the
// surviving artifacts to their session. Items in one request are processed
// sequentially to bound concurrent converter processes.
type Service struct {
	registry   *session.Registry
	storage    Storage
	converters map[device.Class]Converter
	maxBytes   int64
	maxFiles   int
	log        zerolog.Logger
}

// NewService creates the upload service. converters maps device classes to
// the tool that produces their native format; absent classes pass through.
func NewService(registry *session.Registry, storage Storage, converters map[device.Class]Converter, maxBytes int64, maxFiles int, log zerolog.Logger) *Service {
	return &Service{
		registry:   registry,
		storage:    storage,
		converters: converters,
		maxBytes:   maxBytes,
		maxFiles:   maxFiles,
		log:        log.With().Str("component", "upload-service").Logger(),
	}
}

// Request is one upload submission: a batch of files and/or one URL.
type Request struct {
	Key           string
	Files         []*multipart.FileHeader
	URL           string
	Convert       bool
	Transliterate bool
}

// Result aggregates per-item outcome lines in submission order.
type Result struct {
	Lines []string
}

// Message renders the aggregate as the response body.
func (r *Result) Message() string {
	return strings.Join(r.Lines, "\n")
}

// Process runs the full ingestion pipeline for one request. A missing or
// unknown key rejects the whole batch; individual item failures only produce
// failure lines and never abort their siblings.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	key := session.NormalizeKey(req.Key)
	if key == "" {
		return nil, &ValidationError{Reason: "missing session key"}
	}
	snap, ok := s.registry.Snapshot(key)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown or expired key %q", key)}
	}
	if len(req.Files) > s.maxFiles {
		return nil, &ValidationError{Reason: fmt.Sprintf("too many files: at most %d per upload", s.maxFiles)}
	}

	class := device.Classify(snap.DeviceIdentity)

	var lines []string
	for _, header := range req.Files {
		line := s.processFile(ctx, key, class, header, req)
		if line == "" {
			continue // zero-byte item, discarded silently
		}
		lines = append(lines, line)
	}

	if trimmed := strings.TrimSpace(req.URL); trimmed != "" {
		lines = append(lines, s.processURL(key, trimmed))
	}

	if len(lines) == 0 {
		return nil, &ValidationError{Reason: "nothing selected"}
	}

	s.registry.Touch(key)
	return &Result{Lines: lines}, nil
}

func (s *Service) processFile(ctx context.Context, key string, class device.Class, header *multipart.FileHeader, req Request) string {
	name := SanitizeFilename(header.Filename)
	if req.Transliterate {
		name = Transliterate(name)
	}

	if header.Size == 0 {
		s.log.Debug().Str("file", header.Filename).Msg("discarding empty upload item")
		return ""
	}
	if header.Size > s.maxBytes {
		metrics.RecordUpload("", "failure", 0)
		return failLine(name, fmt.Sprintf("exceeds the %d byte limit", s.maxBytes))
	}

	src, err := header.Open()
	if err != nil {
		metrics.RecordUpload("", "failure", 0)
		return failLine(name, "could not read upload")
	}
	defer src.Close()

	stagedName := artifactid.New() + strings.ToLower(filepath.Ext(name))
	written, err := s.storage.Save(stagedName, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("staging failed")
		metrics.RecordUpload("", "failure", 0)
		return failLine(name, "could not store upload")
	}
	if written > s.maxBytes {
		s.removeStaged(stagedName)
		metrics.RecordUpload("", "failure", 0)
		return failLine(name, fmt.Sprintf("exceeds the %d byte limit", s.maxBytes))
	}

	declared := NormalizeContentType(header.Header.Get("Content-Type"))
	sniffed := ""
	if mt, err := mimetype.DetectFile(s.storage.Path(stagedName)); err == nil {
		sniffed = NormalizeContentType(mt.String())
	}
	effective := declared
	if declared == "" || declared == octetStream {
		effective = sniffed
	}

	if !AllowedType(declared) && !AllowedType(sniffed) {
		s.removeStaged(stagedName)
		metrics.RecordUpload(sniffed, "failure", 0)
		return failLine(name, fmt.Sprintf("unsupported file type %s", detectedType(declared, sniffed)))
	}
	if !AllowedExtension(name) {
		s.removeStaged(stagedName)
		metrics.RecordUpload(effective, "failure", 0)
		return failLine(name, fmt.Sprintf("extension %s is not allowed", strings.ToLower(filepath.Ext(name))))
	}

	conversion := session.ConversionNone
	finalName := name
	finalStorage := stagedName
	if req.Convert && effective == "application/epub+zip" {
		if conv, ok := s.converters[class]; ok {
			outputName, diag, err := conv.Convert(ctx, s.storage.Dir(), stagedName)
			if err != nil {
				// The converter already cleaned its work files.
				metrics.RecordUpload(effective, "failure", 0)
				return failLine(name, fmt.Sprintf("conversion failed: %v", err))
			}
			if diag != "" {
				s.log.Debug().Str("file", name).Str("diag", diag).Msg("converter diagnostics")
			}
			conversion = conv.Kind()
			finalName = retargetExtension(name, conv.DisplayExt())
			finalStorage = outputName
		}
	}

	record := session.FileRecord{
		Name:        finalName,
		StorageName: finalStorage,
		ContentType: effective,
		Conversion:  conversion,
		UploadedAt:  time.Now(),
	}
	if err := s.registry.AppendFile(key, record); err != nil {
		// The session expired while this item was in flight; the artifact is
		// orphaned and cleaned up here, not by session-expiry logic.
		s.removeStaged(finalStorage)
		metrics.RecordUpload(effective, "failure", 0)
		return failLine(name, "session expired during upload")
	}

	metrics.RecordUpload(effective, "success", written)
	if conversion != session.ConversionNone {
		return fmt.Sprintf("✓ %s (%s)", finalName, conversion)
	}
	return "✓ " + finalName
}

func (s *Service) processURL(key, raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return failLine(raw, "not a valid URL")
	}
	if err := s.registry.AppendURL(key, raw); err != nil {
		return failLine(raw, "session expired during upload")
	}
	return "✓ " + raw
}

func (s *Service) removeStaged(name string) {
	if err := s.storage.Remove(name); err != nil {
		s.log.Warn().Err(err).Str("artifact", name).Msg("failed to delete staged artifact")
	}
}

func failLine(name, reason string) string {
	return fmt.Sprintf("✗ %s: %s", name, reason)
}

func detectedType(declared, sniffed string) string {
	if sniffed != "" {
		return sniffed
	}
	if declared != "" {
		return declared
	}
	return octetStream
}
