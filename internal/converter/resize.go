package converter

import (
	"bytes"
	"image"
	"image/gif"
	"strings"

	// Register decoders for formats EPUBs commonly carry.
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/yuanying/epub2pdf/internal/epub"
)

const (
	defaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000
)

// Downscaler shrinks raster images wider than MaxWidth before they are
// inlined. A zero MaxWidth disables it and payloads pass through untouched.
type Downscaler struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // decode guard, width * height
}

// NewDownscaler returns a Downscaler for maxWidth pixels.
func NewDownscaler(maxWidth int) *Downscaler {
	return &Downscaler{
		MaxWidth:    maxWidth,
		JPEGQuality: defaultJPEGQuality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Fit returns img resized to MaxWidth, keeping the aspect ratio, and
// whether it changed. Anything that cannot be decoded or re-encoded is
// returned as is.
func (d *Downscaler) Fit(img epub.ImageItem) (epub.ImageItem, bool) {
	if d == nil || d.MaxWidth <= 0 {
		return img, false
	}
	format, ok := imagingFormat(img.MediaType)
	if !ok {
		return img, false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Width <= d.MaxWidth {
		return img, false
	}
	if d.MaxPixels > 0 && uint64(cfg.Width)*uint64(cfg.Height) > uint64(d.MaxPixels) {
		return img, false
	}
	if format == imaging.GIF && isAnimatedGIF(img.Data) {
		return img, false
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return img, false
	}
	resized := imaging.Resize(src, d.MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(d.JPEGQuality)); err != nil {
		return img, false
	}

	out := img
	out.Data = buf.Bytes()
	return out, true
}

func imagingFormat(mediaType string) (imaging.Format, bool) {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return imaging.JPEG, true
	case "image/png":
		return imaging.PNG, true
	case "image/gif":
		return imaging.GIF, true
	default:
		return 0, false
	}
}

func isAnimatedGIF(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return len(g.Image) > 1
}
