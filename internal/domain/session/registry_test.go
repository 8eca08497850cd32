package session

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArtifacts struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeArtifacts) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeArtifacts) removedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.removed))
	copy(out, f.removed)
	return out
}

func newTestRegistry(idle, hard time.Duration) (*Registry, *fakeArtifacts) {
	artifacts := &fakeArtifacts{}
	return NewRegistry(artifacts, idle, hard, zerolog.Nop()), artifacts
}

func TestCreateAndSnapshot(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)

	key, err := r.Create("Mozilla/5.0 Kobo Touch")
	require.NoError(t, err)
	require.True(t, ValidKey(key))
	assert.Equal(t, 1, r.Len())

	snap, ok := r.Snapshot(key)
	require.True(t, ok)
	assert.Equal(t, key, snap.Key)
	assert.Equal(t, "Mozilla/5.0 Kobo Touch", snap.DeviceIdentity)
	assert.Empty(t, snap.Files)
	assert.Empty(t, snap.URLs)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	r.generate = func() (string, error) { return "AB3X", nil }

	key, err := r.Create("device")
	require.NoError(t, err)
	require.Equal(t, "AB3X", key)

	_, ok := r.Snapshot("  ab3x ")
	assert.True(t, ok)
	require.NoError(t, r.AppendURL("ab3X", "https://example.com"))
}

func TestCreateCapacityExhausted(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	r.generate = func() (string, error) { return "AB3X", nil }

	_, err := r.Create("first")
	require.NoError(t, err)

	_, err = r.Create("second")
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 1, r.Len())
}

func TestAppendFileAndFind(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	rec := FileRecord{Name: "book.epub", StorageName: "01hq.epub", ContentType: "application/epub+zip"}
	require.NoError(t, r.AppendFile(key, rec))

	got, ok := r.FindFile(key, "book.epub")
	require.True(t, ok)
	assert.Equal(t, "01hq.epub", got.StorageName)

	_, ok = r.FindFile(key, "other.epub")
	assert.False(t, ok)

	assert.ErrorIs(t, r.AppendFile("ZZZZ", rec), ErrNotFound)
}

func TestAppendURLDeduplicates(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	require.NoError(t, r.AppendURL(key, "https://example.com/a"))
	require.NoError(t, r.AppendURL(key, "https://example.com/b"))
	require.NoError(t, r.AppendURL(key, "https://example.com/a"))

	snap, _ := r.Snapshot(key)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, snap.URLs)

	assert.ErrorIs(t, r.AppendURL("ZZZZ", "https://example.com"), ErrNotFound)
}

func TestDeleteFile(t *testing.T) {
	r, artifacts := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	require.NoError(t, r.AppendFile(key, FileRecord{Name: "a.epub", StorageName: "s1.epub"}))
	require.NoError(t, r.AppendFile(key, FileRecord{Name: "b.epub", StorageName: "s2.epub"}))

	require.NoError(t, r.DeleteFile(key, "a.epub"))
	snap, _ := r.Snapshot(key)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "b.epub", snap.Files[0].Name)
	assert.Equal(t, []string{"s1.epub"}, artifacts.removedNames())

	// Deleting a name that no longer exists is a no-op.
	require.NoError(t, r.DeleteFile(key, "a.epub"))
	assert.Equal(t, []string{"s1.epub"}, artifacts.removedNames())

	assert.ErrorIs(t, r.DeleteFile("ZZZZ", "a.epub"), ErrNotFound)
}

func TestExpireCascadesArtifacts(t *testing.T) {
	r, artifacts := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)
	require.NoError(t, r.AppendFile(key, FileRecord{Name: "a.epub", StorageName: "s1.epub"}))
	require.NoError(t, r.AppendFile(key, FileRecord{Name: "b.mobi", StorageName: "s2.mobi"}))

	r.mu.Lock()
	sess := r.sessions[key]
	sess.LastActive = time.Now().Add(-2 * r.idleTTL)
	r.mu.Unlock()

	r.expire(key, sess, expireReasonIdle)

	assert.Equal(t, 0, r.Len())
	assert.ElementsMatch(t, []string{"s1.epub", "s2.mobi"}, artifacts.removedNames())
}

func TestExpireIgnoresStaleTimer(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	// A callback armed for a dead predecessor must not touch the live
	// session that now owns the same key.
	stale := &Session{Key: key}
	r.expire(key, stale, expireReasonHardCap)

	_, ok := r.Snapshot(key)
	assert.True(t, ok)
}

func TestIdleExpireReschedulesAfterActivity(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	r.mu.Lock()
	sess := r.sessions[key]
	r.mu.Unlock()

	r.Touch(key)
	r.expire(key, sess, expireReasonIdle)

	_, ok := r.Snapshot(key)
	assert.True(t, ok, "idle expiry racing recent activity must not kill the session")
}

func TestHardCapIgnoresActivity(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 2*time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	r.mu.Lock()
	sess := r.sessions[key]
	r.mu.Unlock()

	r.Touch(key)
	r.expire(key, sess, expireReasonHardCap)

	_, ok := r.Snapshot(key)
	assert.False(t, ok, "hard cap expiry fires regardless of activity")
}

func TestIdleTimerExpiresSession(t *testing.T) {
	r, _ := newTestRegistry(30*time.Millisecond, time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := r.Snapshot(key)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTouchRenewsIdleWindow(t *testing.T) {
	r, _ := newTestRegistry(80*time.Millisecond, time.Hour)
	key, err := r.Create("device")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		r.Touch(key)
	}
	_, ok := r.Snapshot(key)
	assert.True(t, ok, "session renewed past several idle windows must survive")
}

func TestHardTimerExpiresDespiteTouches(t *testing.T) {
	r, _ := newTestRegistry(time.Hour, 60*time.Millisecond)
	key, err := r.Create("device")
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.Touch(key)
		if _, ok := r.Snapshot(key); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session outlived its hard cap despite constant activity")
}
