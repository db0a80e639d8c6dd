package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuanying/epub2pdf/internal/epub"
	"github.com/yuanying/epub2pdf/internal/render"
)

// ErrInvalidEPUB wraps every failure to read the input container.
var ErrInvalidEPUB = errors.New("invalid EPUB")

// Renderer turns a combined HTML document into a PDF file at dest.
type Renderer interface {
	Render(ctx context.Context, html, dest string) (*render.Result, error)
}

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	Extract ExtractOptions
	Logger  *slog.Logger
}

// Result describes a finished conversion.
type Result struct {
	OutputPath string
	Title      string
	Authors    []string
	Pages      int
	Stats      Stats
}

// Pipeline runs EPUB loading, content extraction and PDF rendering.
type Pipeline struct {
	renderer Renderer
	opts     ConvertOptions
	logger   *slog.Logger
}

// NewPipeline creates a pipeline rendering through r.
func NewPipeline(r Renderer, opts ConvertOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{renderer: r, opts: opts, logger: logger}
}

// OutputPath derives the PDF path for an EPUB path by replacing its extension.
func OutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
}

// Convert converts inputPath to OutputPath(inputPath).
func (p *Pipeline) Convert(ctx context.Context, inputPath string) (*Result, error) {
	return p.ConvertTo(ctx, inputPath, OutputPath(inputPath))
}

// ConvertTo converts inputPath into a PDF at outputPath. When rendering
// fails, any partially written output is removed before the error is
// returned. Failures before rendering leave outputPath untouched.
func (p *Pipeline) ConvertTo(ctx context.Context, inputPath, outputPath string) (res *Result, err error) {
	rendering := false
	defer func() {
		if err == nil || !rendering {
			return
		}
		if rmErr := os.Remove(outputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logger.Warn("failed to remove partial output", "path", outputPath, "error", rmErr)
		}
	}()

	book, err := epub.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEPUB, err)
	}
	for _, w := range book.Warnings {
		p.logger.Warn("epub: "+w, "input", inputPath)
	}

	html, stats := Extract(book, p.opts.Extract)
	p.logger.Debug("extracted content",
		"input", inputPath,
		"documents", stats.Documents,
		"images_inlined", stats.Inlined,
		"images_basename", stats.Basename,
		"images_unresolved", stats.Unresolved,
		"images_downscaled", stats.Downscaled,
		"html_bytes", len(html),
	)

	rendering = true
	rendered, err := p.renderer.Render(ctx, html, outputPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputPath: outputPath,
		Title:      book.Metadata.Title,
		Authors:    book.Metadata.Creators,
		Pages:      rendered.Pages,
		Stats:      stats,
	}, nil
}
