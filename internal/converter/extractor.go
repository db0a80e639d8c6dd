package converter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/epub2pdf/internal/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// printStyle opens every combined document. The trailing marker is relaxed
// so the last chapter does not leave a blank page behind it.
const printStyle = `<style>
@media print {
    .page-break {
        page-break-after: always;
    }
    .page-break:last-child {
        page-break-after: auto;
    }
}
img {
    max-width: 100%;
    height: auto;
}
</style>
`

// PageBreak is the marker appended after every document.
const PageBreak = `<div class="page-break"></div>`

// ExtractOptions tunes content extraction.
type ExtractOptions struct {
	// MaxImageWidth downscales wider raster images before inlining.
	// Zero keeps every payload byte-for-byte.
	MaxImageWidth int
}

// Stats summarizes one extraction.
type Stats struct {
	Documents  int
	Inlined    int // references replaced by data URIs
	Basename   int // of which resolved by basename only
	Unresolved int // references left untouched
	Downscaled int // images resized before inlining
}

// DocumentBuilder concatenates book documents into one printable HTML string.
type DocumentBuilder struct {
	images     *ImageIndex
	downscaler *Downscaler
	uris       map[string]string // image name -> data URI
	out        strings.Builder
	stats      Stats
}

// NewDocumentBuilder creates a builder resolving images against images.
func NewDocumentBuilder(images *ImageIndex, opts ExtractOptions) *DocumentBuilder {
	b := &DocumentBuilder{
		images: images,
		uris:   make(map[string]string),
	}
	if opts.MaxImageWidth > 0 {
		b.downscaler = NewDownscaler(opts.MaxImageWidth)
	}
	b.out.WriteString(printStyle)
	return b
}

// Extract builds the combined document for book: the print style, then
// each spine document with its images inlined, each followed by PageBreak.
func Extract(book *epub.Book, opts ExtractOptions) (string, Stats) {
	b := NewDocumentBuilder(NewImageIndex(book), opts)
	for _, doc := range book.Documents {
		b.AddDocument(doc)
	}
	return b.Build(), b.Stats()
}

// AddDocument appends one document and its page-break marker.
func (b *DocumentBuilder) AddDocument(doc epub.DocumentItem) {
	text := DecodeLossy(doc.Content)
	b.out.WriteString(b.inlineImages(doc.Path, text))
	b.out.WriteString(PageBreak)
	b.stats.Documents++
}

// Build returns the combined document.
func (b *DocumentBuilder) Build() string {
	return b.out.String()
}

// Stats returns counters for the documents added so far.
func (b *DocumentBuilder) Stats() Stats {
	return b.stats
}

// inlineImages rewrites resolvable image references in text as data URIs.
// Text without any resolvable reference, or that cannot be parsed or
// rendered, is returned unchanged.
func (b *DocumentBuilder) inlineImages(docPath, text string) string {
	if b.images.Len() == 0 {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}

	rewritten := 0
	doc.Find("img, image").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		for i := range n.Attr {
			if !isImageRefAttr(n, n.Attr[i]) {
				continue
			}
			uri, ok := b.resolve(docPath, n.Attr[i].Val)
			if !ok {
				continue
			}
			n.Attr[i].Val = uri
			rewritten++
		}
	})
	if rewritten == 0 {
		return text
	}

	out, err := doc.Html()
	if err != nil {
		return text
	}
	return out
}

func (b *DocumentBuilder) resolve(docPath, ref string) (string, bool) {
	img, match := b.images.Resolve(docPath, ref)
	switch match {
	case MatchNone:
		if !hasURIScheme(strings.TrimSpace(ref)) {
			b.stats.Unresolved++
		}
		return "", false
	case MatchBasename:
		b.stats.Basename++
	}
	b.stats.Inlined++

	if uri, ok := b.uris[img.Name]; ok {
		return uri, true
	}
	if fitted, changed := b.downscaler.Fit(img); changed {
		img = fitted
		b.stats.Downscaled++
	}
	uri := DataURI(img.MediaType, img.Data)
	b.uris[img.Name] = uri
	return uri, true
}

// isImageRefAttr reports whether attr holds the image location of n:
// src on <img>, href or xlink:href on SVG <image>.
func isImageRefAttr(n *html.Node, attr html.Attribute) bool {
	switch n.DataAtom {
	case atom.Img:
		return attr.Namespace == "" && attr.Key == "src"
	case atom.Image:
		if attr.Key == "xlink:href" {
			return true
		}
		return attr.Key == "href" && (attr.Namespace == "" || attr.Namespace == "xlink")
	}
	// Inside SVG the parser keeps <image> with no atom.
	if n.Data == "image" {
		return attr.Key == "href" || attr.Key == "xlink:href"
	}
	return false
}
