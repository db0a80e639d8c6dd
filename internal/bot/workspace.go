package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yuanying/epub2pdf/internal/converter"
)

// workspace holds the temp paths of a single request.
type workspace struct {
	Input  string
	Output string
	logger *slog.Logger
}

// newWorkspace allocates unique paths under dir. Nothing is written yet.
func newWorkspace(dir, fileUniqueID string, logger *slog.Logger) (*workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	name := safeName(fileUniqueID) + "-" + uuid.NewString()
	input := filepath.Join(dir, name+".epub")
	return &workspace{
		Input:  input,
		Output: converter.OutputPath(input),
		logger: logger,
	}, nil
}

// Cleanup removes every file of the workspace that exists.
func (w *workspace) Cleanup() {
	for _, p := range []string{w.Input, w.Output} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to remove temp file", "path", p, "error", err)
		}
	}
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "upload"
	}
	return s
}
