package render

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// resolveBrowser picks the executable to drive. An explicit path wins; then
// an installed Chrome or Chromium; then, when allowed, a Chromium downloaded
// into the rod cache (~/.cache/rod/browser). An empty result lets chromedp
// search on its own.
func resolveBrowser(cfg rendererConfig) (string, error) {
	if cfg.chromePath != "" {
		return cfg.chromePath, nil
	}
	if p, ok := launcher.LookPath(); ok {
		return p, nil
	}
	if !cfg.downloadBrowser {
		return "", nil
	}
	p, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("render: downloading browser: %w", err)
	}
	return p, nil
}
