package epub

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNoDocuments is returned when no spine item resolves to a readable
// (X)HTML document.
var ErrNoDocuments = errors.New("no readable XHTML documents in spine")

// Load opens the EPUB at filename and reads everything a conversion needs:
// the spine documents in reading order and all image resources.
func Load(filename string) (*Book, error) {
	r, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	opfData, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF: %w", err)
	}
	opf, err := ParseOPF(opfData, path.Dir(r.OPFPath()))
	if err != nil {
		return nil, err
	}

	return loadBook(r, opf)
}

func loadBook(r *EPUBReader, opf *OPF) (*Book, error) {
	book := &Book{
		Metadata: opf.Metadata,
		Images:   make(map[string]ImageItem),
	}

	for _, ref := range opf.Spine {
		item, ok := opf.Manifest[ref.IDRef]
		if !ok {
			book.warnf("spine item %q not found in manifest", ref.IDRef)
			continue
		}
		if !IsDocument(item.MediaType) {
			continue
		}
		data, err := r.ReadFile(item.Href)
		if err != nil {
			book.warnf("skipping document %q: %v", item.Href, err)
			continue
		}
		book.Documents = append(book.Documents, DocumentItem{
			ID:        item.ID,
			Path:      item.Href,
			MediaType: item.MediaType,
			Content:   data,
		})
	}
	if len(book.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !IsImage(item.MediaType) {
			continue
		}
		if _, seen := book.Images[item.Href]; seen {
			continue
		}
		data, err := r.ReadFile(item.Href)
		if err != nil {
			book.warnf("skipping image %q: %v", item.Href, err)
			continue
		}
		book.Images[item.Href] = ImageItem{
			Name:      item.Href,
			MediaType: item.MediaType,
			Data:      data,
		}
		book.ImageOrder = append(book.ImageOrder, item.Href)
	}

	return book, nil
}

func (b *Book) warnf(format string, args ...any) {
	b.Warnings = append(b.Warnings, fmt.Sprintf(format, args...))
}

// IsDocument reports whether a manifest media type is an HTML document.
func IsDocument(mediaType string) bool {
	return strings.Contains(mediaType, "html")
}

// IsImage reports whether a manifest media type is an image.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
