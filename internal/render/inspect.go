package render

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// inspect validates the PDF at path and returns its page count.
func inspect(path string) (int, error) {
	// pdfcpu would otherwise create a config directory under $HOME.
	disableConfigDir.Do(api.DisableConfigDir)

	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("invalid PDF output: %w", err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("PDF output has no pages")
	}
	return n, nil
}
