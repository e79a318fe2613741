// Package pdf extracts text and page images from PDF files using the
// poppler command line tools (pdfinfo, pdftotext, pdftoppm).
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrPDFToolNotFound indicates the poppler tools are not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can substitute the poppler tools.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s", name, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// CheckAvailable reports whether the poppler tools are installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns guidance for installing the poppler tools.
func InstallInstructions() string {
	return `PDF support requires the poppler tools (pdftotext, pdfinfo, pdftoppm):
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}
