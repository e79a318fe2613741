// Package images renders and normalises images for ingestion.
//
// PDF pages are rasterised into a scratch directory; standalone image
// files are normalised into it. Normalisation bounds images to a
// maximum dimension (never upscaling) and re-encodes them as PNG.
// Each image yields a text descriptor that stands in for the image in
// the chunk table until visual analysis is wired up.
package images

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp" // BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.ImagePipeline = (*Pipeline)(nil)

// DefaultMaxDim bounds the longer side of normalised images in pixels.
const DefaultMaxDim = 1024

// Pipeline implements image rendering and normalisation.
type Pipeline struct {
	rasterizer driven.Rasterizer
	scratch    string
	maxDim     int
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithMaxDim sets the maximum image dimension in pixels.
func WithMaxDim(dim int) Option {
	return func(p *Pipeline) {
		if dim > 0 {
			p.maxDim = dim
		}
	}
}

// New creates an image pipeline with a scratch directory for rendered
// and normalised files. Call Close to remove the scratch directory.
func New(rasterizer driven.Rasterizer, opts ...Option) (*Pipeline, error) {
	scratch, err := os.MkdirTemp("", "corpus-images-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	p := &Pipeline{
		rasterizer: rasterizer,
		scratch:    scratch,
		maxDim:     DefaultMaxDim,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// ProcessPDF renders each page of the PDF at path and returns one
// descriptor per page, in page order.
func (p *Pipeline) ProcessPDF(ctx context.Context, path string) ([]domain.ImageDescriptor, error) {
	if p.rasterizer == nil {
		return nil, fmt.Errorf("no rasterizer configured")
	}

	pageDir, err := os.MkdirTemp(p.scratch, "pdf-")
	if err != nil {
		return nil, fmt.Errorf("creating page directory: %w", err)
	}

	pages, err := p.rasterizer.Rasterize(ctx, path, pageDir)
	if err != nil {
		return nil, fmt.Errorf("rasterising %s: %w", filepath.Base(path), err)
	}

	descs := make([]domain.ImageDescriptor, 0, len(pages))
	for n, pagePath := range pages {
		pageNumber := n + 1
		normalised := p.normalise(pagePath)
		descs = append(descs, domain.ImageDescriptor{
			Source:     path,
			ImagePath:  normalised,
			PageNumber: &pageNumber,
			Description: fmt.Sprintf(
				"Image rendered from page %d of %s%s. Visual content analysis is not yet available.",
				pageNumber, filepath.Base(path), imageInfo(normalised)),
		})
	}
	return descs, nil
}

// ProcessImage normalises the standalone image at path and returns a
// single descriptor for it.
func (p *Pipeline) ProcessImage(_ context.Context, path string) (domain.ImageDescriptor, error) {
	normalised := p.normalise(path)

	return domain.ImageDescriptor{
		Source:    path,
		ImagePath: normalised,
		Description: fmt.Sprintf(
			"Standalone image file %s%s. Visual content analysis is not yet available.",
			filepath.Base(path), imageInfo(normalised)),
	}, nil
}

// imageInfo returns a short " (WxH format)" suffix for the descriptor,
// or an empty string when the file cannot be decoded.
func imageInfo(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%dx%d %s)", cfg.Width, cfg.Height, format)
}

// Close removes the scratch directory. Cleanup is best-effort.
func (p *Pipeline) Close() error {
	if err := os.RemoveAll(p.scratch); err != nil {
		logger.Warn("Failed to remove scratch directory %s: %v", p.scratch, err)
	}
	return nil
}

// normalise bounds the image at path to maxDim pixels and re-encodes
// it as PNG in the scratch directory. Images already within bounds are
// never upscaled, only re-encoded. On any failure the original path is
// returned so processing can continue with the file as-is.
func (p *Pipeline) normalise(path string) string {
	out, err := p.normaliseFile(path)
	if err != nil {
		logger.Debug("Normalising %s failed, keeping original: %v", path, err)
		return path
	}
	return out
}

func (p *Pipeline) normaliseFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	dst := src
	if width > p.maxDim || height > p.maxDim {
		scaledW, scaledH := scaleWithin(width, height, p.maxDim)
		scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		dst = scaled
	}

	out, err := os.CreateTemp(p.scratch, "norm-*.png")
	if err != nil {
		return "", fmt.Errorf("creating normalised file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, dst); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return out.Name(), nil
}

// scaleWithin fits width x height inside a maxDim square preserving
// aspect ratio.
func scaleWithin(width, height, maxDim int) (int, int) {
	if width >= height {
		scaled := height * maxDim / width
		if scaled < 1 {
			scaled = 1
		}
		return maxDim, scaled
	}
	scaled := width * maxDim / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxDim
}
