package converter

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookdrop/internal/domain/session"
	"bookdrop/internal/infrastructure/metrics"
)

// Kepubify runs the kepubify tool to turn an EPUB into a Kobo-flavored
// kepub.epub. Unlike kindlegen, only exit code 0 is a success. The input
// EPUB is removed after every run, successful or not.
type Kepubify struct {
	path    string
	timeout time.Duration
	log     zerolog.Logger
}

func NewKepubify(path string, timeout time.Duration, log zerolog.Logger) *Kepubify {
	return &Kepubify{
		path:    path,
		timeout: timeout,
		log:     log.With().Str("component", "kepubify").Logger(),
	}
}

func (k *Kepubify) Kind() session.Conversion {
	return session.ConversionKepubify
}

// DisplayExt is the extension the display filename takes after conversion.
func (k *Kepubify) DisplayExt() string {
	return ".kepub.epub"
}

// Convert runs kepubify on dir/inputName and returns the output filename
// and the captured diagnostic text.
func (k *Kepubify) Convert(ctx context.Context, dir, inputName string) (string, string, error) {
	outputName := outputFor(inputName, ".kepub.epub")

	runCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, k.path, "-o", outputName, inputName)
	cmd.Dir = dir
	out, runErr := cmd.CombinedOutput()
	diag := strings.TrimSpace(string(out))

	removeQuiet(dir, inputName)

	if runErr != nil {
		removeQuiet(dir, outputName)
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		metrics.RecordConversion(string(k.Kind()), "failure", time.Since(start).Seconds())
		k.log.Error().Err(runErr).Str("input", inputName).Str("diag", diag).Msg("kepubify failed")
		return "", diag, &Error{Converter: k.Kind(), ExitCode: exitCode, Output: diag, Err: runErr}
	}

	metrics.RecordConversion(string(k.Kind()), "success", time.Since(start).Seconds())
	return outputName, diag, nil
}
