package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Rasterizer implements the interface.
var _ driven.Rasterizer = (*Rasterizer)(nil)

// DefaultScaleTo bounds the longer side of rendered pages in pixels.
const DefaultScaleTo = 1024

// Rasterizer renders PDF pages to PNG files using pdftoppm.
type Rasterizer struct {
	runner  CommandRunner
	scaleTo int
}

// NewRasterizer creates a rasterizer using the system poppler tools.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{runner: execRunner{}, scaleTo: DefaultScaleTo}
}

// NewRasterizerWithRunner creates a rasterizer with a custom command runner.
func NewRasterizerWithRunner(runner CommandRunner) *Rasterizer {
	return &Rasterizer{runner: runner, scaleTo: DefaultScaleTo}
}

// Rasterize renders every page of the PDF at path into outDir as PNG
// files and returns their paths in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, path, outDir string) ([]string, error) {
	prefix := filepath.Join(outDir, "page")

	if _, err := r.runner.Run(ctx, "pdftoppm",
		"-png",
		"-scale-to", strconv.Itoa(r.scaleTo),
		path, prefix); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	// pdftoppm names output page-1.png, page-2.png (zero padded when
	// the document has many pages); padding is uniform so a string
	// sort yields page order.
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("listing rendered pages: %w", err)
	}
	sort.Strings(pages)
	return pages, nil
}
