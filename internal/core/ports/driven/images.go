package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// ImagePipeline renders and normalises images for visual analysis.
//
// For PDFs it rasterises every page into a scratch directory; for
// standalone image files it normalises the image in place. Either way
// it emits one descriptor per image carrying the text that stands in
// for the image in the chunk table.
type ImagePipeline interface {
	// ProcessPDF renders each page of the PDF at path and returns one
	// descriptor per page, in page order.
	ProcessPDF(ctx context.Context, path string) ([]domain.ImageDescriptor, error)

	// ProcessImage normalises the standalone image at path and returns
	// a single descriptor for it.
	ProcessImage(ctx context.Context, path string) (domain.ImageDescriptor, error)

	// Close removes scratch files created during processing.
	// Cleanup is best-effort; Close never fails the run.
	Close() error
}

// Rasterizer renders PDF pages to image files.
type Rasterizer interface {
	// Rasterize renders every page of the PDF at path into outDir as
	// PNG files and returns their paths in page order.
	Rasterize(ctx context.Context, path, outDir string) ([]string, error)
}
