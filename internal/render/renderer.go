package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Result describes a written PDF.
type Result struct {
	Path  string
	Pages int
	Size  int64
}

// Renderer prints HTML to PDF through a headless Chrome. The browser is
// started once and shared; each render opens its own tab, so a Renderer is
// safe for concurrent use. Call Close to stop the browser.
type Renderer struct {
	cfg           rendererConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRenderer starts the browser. Start-up errors surface here rather than
// on the first render.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	execPath, err := resolveBrowser(cfg)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		// Chapters reference each other's files; let file:// pages read them.
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	logger := cfg.logger
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Error("chrome: " + fmt.Sprintf(format, args...))
		}),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("render: starting browser: %w", err)
	}
	logger.Debug("browser started", "exec_path", execPath)

	return &Renderer{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser. It is safe to call more than once.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.browserCancel()
	r.allocCancel()
	return nil
}

// Render prints html into a PDF file at dest. The parent directory of dest
// must exist. Engine failures and invalid output are reported as
// *ConversionError; a partial file may remain at dest in that case.
func (r *Renderer) Render(ctx context.Context, html, dest string) (*Result, error) {
	if err := r.checkClosed(); err != nil {
		return nil, err
	}

	src, cleanup, err := writeSource(html)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	data, err := r.print(ctx, "file://"+filepath.ToSlash(src))
	if err != nil {
		return nil, &ConversionError{Dest: dest, Err: err}
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	pages, err := inspect(dest)
	if err != nil {
		return nil, &ConversionError{Dest: dest, Err: err}
	}

	return &Result{Path: dest, Pages: pages, Size: int64(len(data))}, nil
}

// print loads targetURL in a new tab and returns the printed PDF bytes.
func (r *Renderer) print(ctx context.Context, targetURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	pg := r.cfg.page.withDefaults()
	width, height := pg.paperInches()
	top, right, bottom, left := pg.marginInches()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(top).
				WithMarginRight(right).
				WithMarginBottom(bottom).
				WithMarginLeft(left).
				WithScale(pg.Scale).
				WithLandscape(pg.Orientation == Landscape).
				WithPrintBackground(pg.PrintBackground).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(ctxErr, err)
		}
		return nil, err
	}
	return buf, nil
}

func (r *Renderer) checkClosed() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// writeSource stores html in a temporary file for the browser to load.
func writeSource(html string) (string, func(), error) {
	f, err := os.CreateTemp("", "epub2pdf-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp HTML: %w", err)
	}
	name := f.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp HTML: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp HTML: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to resolve temp HTML path: %w", err)
	}
	return abs, cleanup, nil
}
