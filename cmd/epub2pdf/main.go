package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/yuanying/epub2pdf/internal/bot"
	"github.com/yuanying/epub2pdf/internal/config"
	"github.com/yuanying/epub2pdf/internal/converter"
	"github.com/yuanying/epub2pdf/internal/render"
)

const (
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultPaper         = "a4"
	defaultMaxImageWidth = 0
	defaultTempDir       = "temp"
	defaultWorkers       = 2
	defaultTimeout       = 2 * time.Minute
	defaultEnvFile       = ".env"
)

type globalOptions struct {
	Logger        *slog.Logger
	ChromePath    string
	NoSandbox     bool
	Download      bool
	Page          render.PageConfig
	MaxImageWidth int
}

func (o *globalOptions) renderOptions() []render.Option {
	opts := []render.Option{
		render.WithPage(o.Page),
		render.WithLogger(o.Logger),
	}
	if o.ChromePath != "" {
		opts = append(opts, render.WithChromePath(o.ChromePath))
	}
	if o.NoSandbox {
		opts = append(opts, render.WithNoSandbox())
	}
	if o.Download {
		opts = append(opts, render.WithDownloadBrowser())
	}
	return opts
}

func (o *globalOptions) pipelineOptions() converter.ConvertOptions {
	return converter.ConvertOptions{
		Extract: converter.ExtractOptions{MaxImageWidth: o.MaxImageWidth},
		Logger:  o.Logger,
	}
}

type convertOptions struct {
	globalOptions
	InputPath  string
	OutputPath string
}

type serveOptions struct {
	globalOptions
	EnvFile string
	TempDir string
	Workers int64
	Timeout time.Duration
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2pdf",
		Short: "Convert EPUB files to PDF",
		Long: `epub2pdf converts EPUB ebooks to PDF by printing their content
through headless Chrome.

It runs either as a one-shot converter or as a Telegram bot that converts
uploaded files and sends the PDF back.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("log-level", defaultLogLevel, "Log level (debug|info|warn|error)")
	flags.String("log-format", defaultLogFormat, "Log format (text|json)")
	flags.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")
	flags.String("chrome-path", "", "Chrome or Chromium executable (default: search PATH)")
	flags.Bool("no-sandbox", false, "Disable the Chrome sandbox")
	flags.Bool("download-browser", false, "Download Chromium when none is installed")
	flags.String("paper", defaultPaper, "Paper size (a3|a4|a5|letter|legal)")
	flags.Int("max-image-width", defaultMaxImageWidth, "Downscale wider images to this width in pixels (0 disables)")

	cmd.AddCommand(newConvertCmd(), newServeCmd())
	return cmd
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.epub>",
		Short: "Convert a single EPUB file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readConvertOptions(cmd, args)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input with .pdf extension)")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readServeOptions(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.String("env-file", defaultEnvFile, "Read environment variables from this file when it exists")
	flags.String("temp-dir", defaultTempDir, "Directory for in-flight uploads and PDFs")
	flags.Int64("workers", defaultWorkers, "Maximum number of concurrent conversions")
	flags.Duration("timeout", defaultTimeout, "Time limit for downloading and converting one file")
	return cmd
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Flags()
	logLevel, _ := flags.GetString("log-level")
	logFormat, _ := flags.GetString("log-format")
	verbose, _ := flags.GetBool("verbose")
	chromePath, _ := flags.GetString("chrome-path")
	noSandbox, _ := flags.GetBool("no-sandbox")
	download, _ := flags.GetBool("download-browser")
	paper, _ := flags.GetString("paper")
	maxImageWidth, _ := flags.GetInt("max-image-width")

	if _, ok := parseLogLevel(logLevel); !ok {
		return globalOptions{}, fmt.Errorf("--log-level must be one of debug, info, warn, error: %q", logLevel)
	}
	switch strings.ToLower(logFormat) {
	case "text", "json":
	default:
		return globalOptions{}, fmt.Errorf("--log-format must be text or json: %q", logFormat)
	}
	size, err := render.PageSizeByName(paper)
	if err != nil {
		return globalOptions{}, fmt.Errorf("--paper: %w", err)
	}
	if maxImageWidth < 0 {
		return globalOptions{}, fmt.Errorf("--max-image-width must be >= 0: %d", maxImageWidth)
	}

	if verbose {
		logLevel = "debug"
	}
	page := render.DefaultPageConfig()
	page.Size = size

	return globalOptions{
		Logger:        buildLogger(os.Stderr, logLevel, logFormat),
		ChromePath:    chromePath,
		NoSandbox:     noSandbox,
		Download:      download,
		Page:          page,
		MaxImageWidth: maxImageWidth,
	}, nil
}

func readConvertOptions(cmd *cobra.Command, args []string) (*convertOptions, error) {
	global, err := readGlobalOptions(cmd)
	if err != nil {
		return nil, err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = converter.OutputPath(args[0])
	}
	return &convertOptions{
		globalOptions: global,
		InputPath:     args[0],
		OutputPath:    output,
	}, nil
}

func readServeOptions(cmd *cobra.Command) (*serveOptions, error) {
	global, err := readGlobalOptions(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	tempDir, _ := flags.GetString("temp-dir")
	workers, _ := flags.GetInt64("workers")
	timeout, _ := flags.GetDuration("timeout")

	if strings.TrimSpace(tempDir) == "" {
		return nil, fmt.Errorf("--temp-dir must not be empty")
	}
	if workers < 1 {
		return nil, fmt.Errorf("--workers must be >= 1: %d", workers)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("--timeout must be positive: %s", timeout)
	}

	return &serveOptions{
		globalOptions: global,
		EnvFile:       envFile,
		TempDir:       tempDir,
		Workers:       workers,
		Timeout:       timeout,
	}, nil
}

func runConvert(ctx context.Context, opts *convertOptions) error {
	logger := opts.Logger
	logger.Info("converting", "input", opts.InputPath, "output", opts.OutputPath)

	r, err := render.NewRenderer(opts.renderOptions()...)
	if err != nil {
		return fmt.Errorf("failed to start renderer: %w", err)
	}
	defer r.Close()

	p := converter.NewPipeline(r, opts.pipelineOptions())
	res, err := p.ConvertTo(ctx, opts.InputPath, opts.OutputPath)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	logger.Info("done", "output", res.OutputPath, "pages", res.Pages, "title", res.Title)
	return nil
}

func runServe(ctx context.Context, opts *serveOptions) error {
	logger := opts.Logger

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return err
	}

	if err := tgbotapi.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)); err != nil {
		return fmt.Errorf("failed to set bot logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info("authorized", "bot", api.Self.UserName, "admins", len(cfg.AdminIDs), "max_file_size_mb", cfg.MaxFileSizeMB)

	r, err := render.NewRenderer(opts.renderOptions()...)
	if err != nil {
		return fmt.Errorf("failed to start renderer: %w", err)
	}
	defer r.Close()

	b := bot.New(api, converter.NewPipeline(r, opts.pipelineOptions()), cfg, bot.Options{
		TempDir: opts.TempDir,
		Workers: opts.Workers,
		Timeout: opts.Timeout,
		Logger:  logger,
	})
	return b.Run(ctx)
}

func parseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, _ := parseLogLevel(level)
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
