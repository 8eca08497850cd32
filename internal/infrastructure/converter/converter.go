package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bookdrop/internal/domain/session"
)

// Error describes a failed external converter run: a nonzero exit status the
// converter does not tolerate, or a launch failure.
type Error struct {
	Converter session.Conversion
	ExitCode  int
	Output    string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Converter, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Converter, e.ExitCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// outputFor derives the converter output filename from the input: same base
// name, new extension, same working directory.
func outputFor(inputName, ext string) string {
	return strings.TrimSuffix(inputName, filepath.Ext(inputName)) + ext
}

// removeQuiet deletes a work file best-effort.
func removeQuiet(dir, name string) {
	if name == "" {
		return
	}
	_ = os.Remove(filepath.Join(dir, name))
}
