package converter

import (
	"encoding/base64"
	"path"
	"strings"

	"github.com/yuanying/epub2pdf/internal/epub"
)

// Match tells how an image reference was resolved.
type Match int

const (
	MatchNone Match = iota
	MatchExact
	MatchBasename
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchBasename:
		return "basename"
	default:
		return "none"
	}
}

// ImageIndex looks up image items by name, falling back to the bare file name.
type ImageIndex struct {
	byName map[string]epub.ImageItem
	byBase map[string]epub.ImageItem
}

// NewImageIndex indexes the images of book. When two images share a base
// name, the first one in manifest order is used for basename lookups.
func NewImageIndex(book *epub.Book) *ImageIndex {
	idx := &ImageIndex{
		byName: make(map[string]epub.ImageItem, len(book.Images)),
		byBase: make(map[string]epub.ImageItem, len(book.Images)),
	}
	for _, name := range book.ImageOrder {
		img, ok := book.Images[name]
		if !ok {
			continue
		}
		idx.add(img)
	}
	// Images not listed in ImageOrder still resolve by exact name.
	for name, img := range book.Images {
		if _, ok := idx.byName[name]; !ok {
			idx.byName[name] = img
		}
	}
	return idx
}

func (idx *ImageIndex) add(img epub.ImageItem) {
	idx.byName[img.Name] = img
	base := path.Base(img.Name)
	if _, taken := idx.byBase[base]; !taken {
		idx.byBase[base] = img
	}
}

// Len returns the number of indexed images.
func (idx *ImageIndex) Len() int {
	return len(idx.byName)
}

// Exact returns the first candidate name that matches an image exactly.
func (idx *ImageIndex) Exact(names ...string) (epub.ImageItem, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if img, ok := idx.byName[n]; ok {
			return img, true
		}
	}
	return epub.ImageItem{}, false
}

// Basename matches ref by its last path element only.
func (idx *ImageIndex) Basename(ref string) (epub.ImageItem, bool) {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return epub.ImageItem{}, false
	}
	img, ok := idx.byBase[path.Base(ref)]
	return img, ok
}

// Resolve resolves a reference found in the document at docPath. The
// container path relative to the document is tried first, then the raw
// reference, then the basename. MatchNone means the reference must be left
// as is.
func (idx *ImageIndex) Resolve(docPath, ref string) (epub.ImageItem, Match) {
	ref = strings.TrimSpace(ref)
	if ref == "" || hasURIScheme(ref) {
		return epub.ImageItem{}, MatchNone
	}

	resolved := epub.ResolveHref(docPath, ref)
	if img, ok := idx.Exact(resolved, ref); ok {
		return img, MatchExact
	}
	if img, ok := idx.Basename(resolved); ok {
		return img, MatchBasename
	}
	return epub.ImageItem{}, MatchNone
}

// DataURI encodes payload as a base64 data URI of the given media type.
func DataURI(mediaType string, payload []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(payload)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(payload))
	return b.String()
}

// hasURIScheme reports whether s starts with a scheme such as "data:",
// "http:" or "file:". Such references are never looked up in the book.
func hasURIScheme(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c = s[i]
		switch {
		case c == ':':
			// A single letter before ':' is a Windows drive, not a scheme.
			return i > 1
		case c == '+' || c == '-' || c == '.',
			c >= '0' && c <= '9',
			c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return false
}
