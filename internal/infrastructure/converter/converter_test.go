package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub installs a fake converter binary so the exit-code contract can be
// exercised without the real tools.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func stageInput(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("epub bytes"), 0o644))
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func TestKindlegenSuccess(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	// kindlegen is invoked as: kindlegen <input> -o <output>
	k := NewKindlegen(writeStub(t, `cp "$1" "$3"; cp "$1" "${3%.mobi}.mobi8"`), time.Minute, zerolog.Nop())

	output, _, err := k.Convert(context.Background(), dir, "in.epub")
	require.NoError(t, err)
	assert.Equal(t, "in.mobi", output)
	assert.True(t, fileExists(dir, "in.mobi"))
	assert.False(t, fileExists(dir, "in.epub"), "input must be removed")
	assert.False(t, fileExists(dir, "in.mobi8"), "intermediate must be removed")
}

func TestKindlegenTreatsExitOneAsWarnings(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	k := NewKindlegen(writeStub(t, `cp "$1" "$3"; echo "W14016: cover scaled"; exit 1`), time.Minute, zerolog.Nop())

	output, diag, err := k.Convert(context.Background(), dir, "in.epub")
	require.NoError(t, err)
	assert.Equal(t, "in.mobi", output)
	assert.Contains(t, diag, "W14016")
	assert.True(t, fileExists(dir, "in.mobi"))
	assert.False(t, fileExists(dir, "in.epub"))
}

func TestKindlegenFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	k := NewKindlegen(writeStub(t, `cp "$1" "$3"; echo "E23006: invalid epub"; exit 2`), time.Minute, zerolog.Nop())

	_, _, err := k.Convert(context.Background(), dir, "in.epub")
	require.Error(t, err)

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 2, convErr.ExitCode)
	assert.Contains(t, convErr.Output, "E23006")

	assert.False(t, fileExists(dir, "in.epub"), "input must be removed even on failure")
	assert.False(t, fileExists(dir, "in.mobi"), "partial output must be removed on failure")
}

func TestKepubifySuccess(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	// kepubify is invoked as: kepubify -o <output> <input>
	k := NewKepubify(writeStub(t, `cp "$3" "$2"`), time.Minute, zerolog.Nop())

	output, _, err := k.Convert(context.Background(), dir, "in.epub")
	require.NoError(t, err)
	assert.Equal(t, "in.kepub.epub", output)
	assert.True(t, fileExists(dir, "in.kepub.epub"))
	assert.False(t, fileExists(dir, "in.epub"), "input must be removed")
}

func TestKepubifyRejectsNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	k := NewKepubify(writeStub(t, `cp "$3" "$2"; echo "could not parse epub"; exit 1`), time.Minute, zerolog.Nop())

	_, _, err := k.Convert(context.Background(), dir, "in.epub")
	require.Error(t, err)

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, convErr.ExitCode)

	assert.False(t, fileExists(dir, "in.epub"))
	assert.False(t, fileExists(dir, "in.kepub.epub"))
}

func TestConvertHonorsContext(t *testing.T) {
	dir := t.TempDir()
	stageInput(t, dir, "in.epub")
	k := NewKepubify(writeStub(t, `sleep 10`), time.Minute, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := k.Convert(ctx, dir, "in.epub")
	require.Error(t, err)
	assert.False(t, fileExists(dir, "in.epub"))
}

func TestOutputNaming(t *testing.T) {
	tests := []struct {
		in   string
		ext  string
		want string
	}{
		{"abc123.epub", ".mobi", "abc123.mobi"},
		{"abc123.epub", ".kepub.epub", "abc123.kepub.epub"},
		{"noext", ".mobi", "noext.mobi"},
	}
	for _, tt := range tests {
		if got := outputFor(tt.in, tt.ext); got != tt.want {
			t.Errorf("outputFor(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}
