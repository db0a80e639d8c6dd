package render

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a closed Renderer is used.
var ErrClosed = errors.New("render: renderer is closed")

// ConversionError reports that the rendering engine failed to produce a
// valid PDF. Any file left at Dest is partial; removing it is up to the caller.
type ConversionError struct {
	Dest string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("PDF conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
