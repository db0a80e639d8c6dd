// Package epubtest builds small EPUB containers for tests.
package epubtest

import (
	"archive/zip"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

// Chapter is a spine document. When Content is nil, Body is wrapped in a
// minimal XHTML page.
type Chapter struct {
	ID      string
	Href    string // relative to the OPF directory
	Title   string
	Body    string
	Content []byte
}

// Image is a manifest image resource.
type Image struct {
	ID        string
	Href      string // relative to the OPF directory
	MediaType string
	Data      []byte
}

// Book describes the container to write.
type Book struct {
	Title    string
	Creator  string
	OPFDir   string   // defaults to "OEBPS"
	Chapters []Chapter
	Images   []Image
	Spine    []string // spine idrefs; defaults to chapter order
	Extra    map[string][]byte
}

// Write writes b as an EPUB named name inside dir and returns its path.
func Write(t testing.TB, dir, name string, b Book) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create test EPUB: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	put := func(name string, method uint16, data []byte) {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	opfDir := b.OPFDir
	if opfDir == "" {
		opfDir = "OEBPS"
	}
	opfPath := path.Join(opfDir, "content.opf")

	put("mimetype", zip.Store, []byte("application/epub+zip"))
	put("META-INF/container.xml", zip.Deflate, []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`, opfPath)))
	put(opfPath, zip.Deflate, []byte(b.opf()))

	for _, ch := range b.Chapters {
		content := ch.Content
		if content == nil {
			content = []byte(XHTML(ch.Title, ch.Body))
		}
		put(path.Join(opfDir, ch.Href), zip.Deflate, content)
	}
	for _, img := range b.Images {
		put(path.Join(opfDir, img.Href), zip.Deflate, img.Data)
	}
	for name, data := range b.Extra {
		put(name, zip.Deflate, data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to finalize test EPUB: %v", err)
	}
	return p
}

// XHTML wraps body in a minimal XHTML document.
func XHTML(title, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>` + title + `</title></head>
<body>` + body + `</body>
</html>`
}

func (b Book) opf() string {
	title := b.Title
	if title == "" {
		title = "Test Book"
	}

	var manifest, spine strings.Builder
	for _, ch := range b.Chapters {
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=\"application/xhtml+xml\"/>\n", ch.ID, ch.Href)
	}
	for _, img := range b.Images {
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=%q/>\n", img.ID, img.Href, img.MediaType)
	}

	refs := b.Spine
	if refs == nil {
		for _, ch := range b.Chapters {
			refs = append(refs, ch.ID)
		}
	}
	for _, id := range refs {
		fmt.Fprintf(&spine, "    <itemref idref=%q/>\n", id)
	}

	creator := ""
	if b.Creator != "" {
		creator = "\n    <dc:creator>" + b.Creator + "</dc:creator>"
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + title + `</dc:title>` + creator + `
    <dc:language>en</dc:language>
    <dc:identifier id="uid">urn:uuid:epubtest</dc:identifier>
  </metadata>
  <manifest>
` + manifest.String() + `  </manifest>
  <spine>
` + spine.String() + `  </spine>
</package>`
}
