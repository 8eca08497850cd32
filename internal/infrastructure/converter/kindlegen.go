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

// Kindlegen runs Amazon's kindlegen tool to turn an EPUB into a MOBI.
// kindlegen exits 1 when the build succeeded with warnings, so both 0 and 1
// count as success. The input EPUB and the .mobi8 intermediate kindlegen can
// leave behind are removed after every run, successful or not.
type Kindlegen struct {
	path    string
	timeout time.Duration
	log     zerolog.Logger
}

func NewKindlegen(path string, timeout time.Duration, log zerolog.Logger) *Kindlegen {
	return &Kindlegen{
		path:    path,
		timeout: timeout,
		log:     log.With().Str("component", "kindlegen").Logger(),
	}
}

func (k *Kindlegen) Kind() session.Conversion {
	return session.ConversionKindlegen
}

// DisplayExt is the extension the display filename takes after conversion.
func (k *Kindlegen) DisplayExt() string {
	return ".mobi"
}

// Convert runs kindlegen on dir/inputName and returns the output filename
// and the captured diagnostic text.
func (k *Kindlegen) Convert(ctx context.Context, dir, inputName string) (string, string, error) {
	outputName := outputFor(inputName, ".mobi")
	intermediate := outputFor(inputName, ".mobi8")

	runCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, k.path, inputName, "-o", outputName)
	cmd.Dir = dir
	out, runErr := cmd.CombinedOutput()
	diag := strings.TrimSpace(string(out))

	removeQuiet(dir, inputName)
	removeQuiet(dir, intermediate)

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && exitErr.ExitCode() == 1 {
			// Warnings only; the output is usable.
			metrics.RecordConversion(string(k.Kind()), "success", time.Since(start).Seconds())
			k.log.Debug().Str("input", inputName).Str("diag", diag).Msg("kindlegen finished with warnings")
			return outputName, diag, nil
		}

		removeQuiet(dir, outputName)
		exitCode := -1
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		metrics.RecordConversion(string(k.Kind()), "failure", time.Since(start).Seconds())
		k.log.Error().Err(runErr).Str("input", inputName).Str("diag", diag).Msg("kindlegen failed")
		return "", diag, &Error{Converter: k.Kind(), ExitCode: exitCode, Output: diag, Err: runErr}
	}

	metrics.RecordConversion(string(k.Kind()), "success", time.Since(start).Seconds())
	return outputName, diag, nil
}
