package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bookdrop/internal/infrastructure/metrics"
)

// ArtifactStore is the slice of blob storage the registry needs to cascade
// file deletion when a session dies.
type ArtifactStore interface {
	Remove(name string) error
}

// capacityRetryFloor is the minimum number of key generation attempts.
// The retry budget grows with registry size; running out is a heuristic
// capacity signal, not proof that the keyspace is full. Known limitation.
const capacityRetryFloor = 16

const (
	expireReasonIdle    = "idle"
	expireReasonHardCap = "hard_cap"
)

// Registry is the process-wide map from session key to live session. It owns
// both expiry timers per session and the cascading deletion of artifacts.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	artifacts ArtifactStore
	idleTTL   time.Duration
	hardTTL   time.Duration
	log       zerolog.Logger

	// generate is swappable for tests.
	generate func() (string, error)
}

// NewRegistry creates an empty registry. idleTTL is the renewable inactivity
// window; hardTTL is the absolute lifetime cap measured from creation.
func NewRegistry(artifacts ArtifactStore, idleTTL, hardTTL time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		artifacts: artifacts,
		idleTTL:   idleTTL,
		hardTTL:   hardTTL,
		log:       log.With().Str("component", "session-registry").Logger(),
		generate:  GenerateKey,
	}
}

// Create generates a fresh key, registers a session for the device identity
// and arms both expiry timers. Returns ErrCapacity when the retry budget
// derived from the current registry size is exhausted.
func (r *Registry) Create(deviceIdentity string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempts := len(r.sessions) + capacityRetryFloor
	for i := 0; i < attempts; i++ {
		key, err := r.generate()
		if err != nil {
			return "", err
		}
		if _, live := r.sessions[key]; live {
			continue
		}

		now := time.Now()
		sess := &Session{
			Key:            key,
			DeviceIdentity: deviceIdentity,
			CreatedAt:      now,
			LastActive:     now,
			urlSeen:        make(map[string]struct{}),
		}
		// Timers carry the key plus the session pointer; expire re-resolves
		// the key and verifies the pointer before acting, so a timer that
		// outlives its session (and a later reuse of the key) is a no-op.
		sess.idleTimer = time.AfterFunc(r.idleTTL, func() {
			r.expire(key, sess, expireReasonIdle)
		})
		sess.hardTimer = time.AfterFunc(r.hardTTL, func() {
			r.expire(key, sess, expireReasonHardCap)
		})
		r.sessions[key] = sess

		metrics.SessionsCreatedTotal.Inc()
		metrics.SessionsActive.Set(float64(len(r.sessions)))
		r.log.Info().Str("key", key).Str("device", deviceIdentity).Msg("session created")
		return key, nil
	}

	r.log.Warn().Int("attempts", attempts).Msg("key generation retry budget exhausted")
	return "", ErrCapacity
}

// Touch restarts the renewable expiry timer and records activity. Unknown
// keys are a no-op. The hard-cap timer is deliberately left alone.
func (r *Registry) Touch(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		return
	}
	sess.LastActive = time.Now()
	sess.idleTimer.Reset(r.idleTTL)
}

// Snapshot returns a read-only copy of the session state for a key.
func (r *Registry) Snapshot(key string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Key:            sess.Key,
		DeviceIdentity: sess.DeviceIdentity,
		CreatedAt:      sess.CreatedAt,
		Files:          make([]FileRecord, len(sess.files)),
		URLs:           make([]string, len(sess.urls)),
	}
	copy(snap.Files, sess.files)
	copy(snap.URLs, sess.urls)
	return snap, true
}

// AppendFile adds a file record to the session's ordered list.
func (r *Registry) AppendFile(key string, record FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		return ErrNotFound
	}
	sess.files = append(sess.files, record)
	return nil
}

// AppendURL adds a URL to the session's ordered set. Duplicates are
// suppressed; re-adding an existing URL is not an error.
func (r *Registry) AppendURL(key, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		return ErrNotFound
	}
	if _, seen := sess.urlSeen[url]; seen {
		return nil
	}
	sess.urlSeen[url] = struct{}{}
	sess.urls = append(sess.urls, url)
	return nil
}

// FindFile looks up a file record by display name.
func (r *Registry) FindFile(key, name string) (FileRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		return FileRecord{}, false
	}
	for _, rec := range sess.files {
		if rec.Name == name {
			return rec, true
		}
	}
	return FileRecord{}, false
}

// DeleteFile removes exactly one file record by display name and deletes its
// artifact. A missing file is a no-op, not an error; an unknown key is
// ErrNotFound. Session TTL is unaffected.
func (r *Registry) DeleteFile(key, name string) error {
	r.mu.Lock()
	sess, ok := r.sessions[NormalizeKey(key)]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	var removed *FileRecord
	for i, rec := range sess.files {
		if rec.Name == name {
			removed = &rec
			sess.files = append(sess.files[:i], sess.files[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if removed != nil {
		r.removeArtifact(removed.StorageName)
		r.log.Info().Str("key", sess.Key).Str("file", name).Msg("file deleted")
	}
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// expire is the shared timer callback. It must tolerate firing after the
// session was already removed, and after the key was re-issued to a
// different session: the pointer comparison guards both cases. An idle
// expiry that raced a Touch reschedules itself instead of killing a session
// that just showed activity.
func (r *Registry) expire(key string, sess *Session, reason string) {
	r.mu.Lock()
	current, ok := r.sessions[key]
	if !ok || current != sess {
		r.mu.Unlock()
		return
	}
	if reason == expireReasonIdle {
		if remaining := r.idleTTL - time.Since(sess.LastActive); remaining > 0 {
			sess.idleTimer.Reset(remaining)
			r.mu.Unlock()
			return
		}
	}

	sess.idleTimer.Stop()
	sess.hardTimer.Stop()
	delete(r.sessions, key)
	files := sess.files
	sess.files = nil
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, rec := range files {
		r.removeArtifact(rec.StorageName)
	}
	metrics.SessionExpiriesTotal.WithLabelValues(reason).Inc()
	r.log.Info().Str("key", key).Str("reason", reason).Int("files", len(files)).Msg("session expired")
}

// removeArtifact deletes a backing file best-effort: failures are logged and
// swallowed, never propagated.
func (r *Registry) removeArtifact(name string) {
	if name == "" {
		return
	}
	if err := r.artifacts.Remove(name); err != nil {
		r.log.Warn().Err(err).Str("artifact", name).Msg("failed to delete artifact")
	}
}
