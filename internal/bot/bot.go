// Package bot serves EPUB to PDF conversions over the Telegram Bot API.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"

	"github.com/yuanying/epub2pdf/internal/config"
	"github.com/yuanying/epub2pdf/internal/converter"
	"github.com/yuanying/epub2pdf/internal/render"
)

const (
	defaultTempDir = "temp"
	defaultWorkers = 2
	defaultTimeout = 2 * time.Minute
	pollTimeout    = 60
)

// Client is the subset of *tgbotapi.BotAPI used by the bot.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Converter converts an EPUB file into a PDF at outputPath.
type Converter interface {
	ConvertTo(ctx context.Context, inputPath, outputPath string) (*converter.Result, error)
}

// Options configures a Bot. Zero values select the defaults.
type Options struct {
	TempDir    string
	Workers    int64
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Bot dispatches chat updates to the conversion pipeline.
type Bot struct {
	api    Client
	conv   Converter
	cfg    *config.Config
	opts   Options
	slots  *semaphore.Weighted
	logger *slog.Logger
}

// New creates a Bot.
func New(api Client, conv Converter, cfg *config.Config, opts Options) *Bot {
	if opts.TempDir == "" {
		opts.TempDir = defaultTempDir
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:    api,
		conv:   conv,
		cfg:    cfg,
		opts:   opts,
		slots:  semaphore.NewWeighted(opts.Workers),
		logger: logger,
	}
}

// Run long-polls for updates until ctx is cancelled or the update channel
// closes, then waits for in-flight handlers. Handlers already running keep
// going after cancellation, bounded by the conversion timeout.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	b.logger.Info("bot is polling for updates", "workers", b.opts.Workers, "timeout", b.opts.Timeout)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot is shutting down")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(handlerCtx, upd)
			}()
		}
	}
}

// HandleUpdate processes a single update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	default:
		b.logger.Debug("ignoring message", "chat_id", chatID(msg), "message_id", msg.MessageID)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	var firstName string
	if msg.From != nil {
		firstName = msg.From.FirstName
	}
	reply := tgbotapi.NewMessage(chatID(msg), welcomeMessage(firstName, b.cfg.MaxFileSizeMB))
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error("failed to send welcome message", "chat_id", chatID(msg), "error", err)
	}
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	userID := userID(msg)
	logger := b.logger.With("user_id", userID, "file_name", doc.FileName, "file_size", doc.FileSize)

	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".epub") {
		b.reply(msg, msgInvalidFile, logger)
		return
	}
	if !b.cfg.IsPrivileged(userID) && int64(doc.FileSize) > b.cfg.MaxFileSizeBytes() {
		b.reply(msg, tooLargeMessage(int64(doc.FileSize), b.cfg.MaxFileSizeMB), logger)
		return
	}

	status, err := b.api.Send(b.replyConfig(msg, msgDownloading))
	if err != nil {
		logger.Error("failed to send status message", "error", err)
		return
	}

	if err := b.process(ctx, msg, status.MessageID, logger); err != nil {
		logger.Error("failed to convert file", "error", err)
		text, parseMode := failureMessage(err)
		b.editStatus(msg, status.MessageID, text, parseMode, logger)
	}
}

// process runs the download, conversion and upload of one document.
// Temp files are removed on every return path.
func (b *Bot) process(ctx context.Context, msg *tgbotapi.Message, statusID int, logger *slog.Logger) error {
	doc := msg.Document

	ws, err := newWorkspace(b.opts.TempDir, doc.FileUniqueID, logger)
	if err != nil {
		return err
	}
	defer ws.Cleanup()

	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}
	if err := download(ctx, b.opts.HTTPClient, url, ws.Input); err != nil {
		return err
	}

	b.editStatus(msg, statusID, msgConverting, "", logger)

	res, err := b.convert(ctx, ws, logger)
	if err != nil {
		return err
	}

	b.editStatus(msg, statusID, msgUploading, "", logger)

	name := filepath.Base(converter.OutputPath(doc.FileName))
	if err := b.upload(msg, ws.Output, name, caption(name, res.Title, res.Authors, res.Pages)); err != nil {
		return err
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID(msg), statusID)); err != nil {
		logger.Warn("failed to delete status message", "error", err)
	}
	logger.Info("conversion delivered", "pages", res.Pages, "title", res.Title)
	return nil
}

func (b *Bot) convert(ctx context.Context, ws *workspace, logger *slog.Logger) (*converter.Result, error) {
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire conversion slot: %w", err)
	}
	defer b.slots.Release(1)

	start := time.Now()
	res, err := b.conv.ConvertTo(ctx, ws.Input, ws.Output)
	if err != nil {
		return nil, err
	}
	logger.Debug("conversion finished", "elapsed", time.Since(start), "pages", res.Pages)
	return res, nil
}

func (b *Bot) upload(msg *tgbotapi.Message, path, name, text string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open converted file: %w", err)
	}
	defer f.Close()

	upload := tgbotapi.NewDocument(chatID(msg), tgbotapi.FileReader{Name: name, Reader: f})
	upload.Caption = text
	upload.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(upload); err != nil {
		return fmt.Errorf("failed to upload PDF: %w", err)
	}
	return nil
}

func (b *Bot) reply(msg *tgbotapi.Message, text string, logger *slog.Logger) {
	if _, err := b.api.Send(b.replyConfig(msg, text)); err != nil {
		logger.Error("failed to send reply", "error", err)
	}
}

func (b *Bot) replyConfig(msg *tgbotapi.Message, text string) tgbotapi.MessageConfig {
	c := tgbotapi.NewMessage(chatID(msg), text)
	c.ReplyToMessageID = msg.MessageID
	return c
}

func (b *Bot) editStatus(msg *tgbotapi.Message, statusID int, text, parseMode string, logger *slog.Logger) {
	edit := tgbotapi.NewEditMessageText(chatID(msg), statusID, text)
	edit.ParseMode = parseMode
	if _, err := b.api.Send(edit); err != nil {
		logger.Warn("failed to update status message", "error", err)
	}
}

// failureMessage picks the user-facing text for err. Conversion failures
// carry their description; anything else, timeouts included, is generic.
func failureMessage(err error) (text, parseMode string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return msgUnexpected, ""
	}
	var convErr *render.ConversionError
	if errors.As(err, &convErr) || errors.Is(err, converter.ErrInvalidEPUB) {
		return conversionFailedMessage(err), tgbotapi.ModeMarkdown
	}
	return msgUnexpected, ""
}

func chatID(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}

func userID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
