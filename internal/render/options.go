package render

import "log/slog"

type rendererConfig struct {
	chromePath      string
	noSandbox       bool
	downloadBrowser bool
	page            PageConfig
	logger          *slog.Logger
}

func defaultConfig() rendererConfig {
	return rendererConfig{
		page:   DefaultPageConfig(),
		logger: slog.Default(),
	}
}

// Option configures a Renderer.
type Option func(*rendererConfig)

// WithChromePath sets the Chrome or Chromium executable.
func WithChromePath(path string) Option {
	return func(c *rendererConfig) {
		c.chromePath = path
	}
}

// WithNoSandbox disables the Chrome sandbox, required when running as root
// inside containers.
func WithNoSandbox() Option {
	return func(c *rendererConfig) {
		c.noSandbox = true
	}
}

// WithDownloadBrowser fetches a Chromium build into the local cache when no
// executable is configured or installed.
func WithDownloadBrowser() Option {
	return func(c *rendererConfig) {
		c.downloadBrowser = true
	}
}

// WithPage sets the paper layout used for every render.
func WithPage(p PageConfig) Option {
	return func(c *rendererConfig) {
		c.page = p
	}
}

// WithLogger routes browser errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *rendererConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
