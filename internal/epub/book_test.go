package epub

import (
	"bytes"
	"errors"
	"testing"

	"github.com/yuanying/epub2pdf/internal/epub/epubtest"
)

func TestLoad(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	p := epubtest.Write(t, t.TempDir(), "book.epub", epubtest.Book{
		Title:   "Loaded",
		Creator: "Someone",
		Chapters: []epubtest.Chapter{
			{ID: "c1", Href: "text/c1.xhtml", Body: "<p>first</p>"},
			{ID: "c2", Href: "text/c2.xhtml", Body: "<p>second</p>"},
		},
		Images: []epubtest.Image{
			{ID: "img", Href: "images/pic.jpg", MediaType: "image/jpeg", Data: jpeg},
			{ID: "css", Href: "style.css", MediaType: "text/css", Data: []byte("p{}")},
		},
		Spine: []string{"c2", "c1"},
	})

	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if book.Metadata.Title != "Loaded" {
		t.Errorf("Title = %q", book.Metadata.Title)
	}
	if len(book.Documents) != 2 {
		t.Fatalf("Documents = %d, want 2", len(book.Documents))
	}
	if book.Documents[0].Path != "OEBPS/text/c2.xhtml" || book.Documents[1].Path != "OEBPS/text/c1.xhtml" {
		t.Errorf("documents not in spine order: %q, %q", book.Documents[0].Path, book.Documents[1].Path)
	}
	if !bytes.Contains(book.Documents[0].Content, []byte("second")) {
		t.Error("first document should hold the c2 content")
	}

	if len(book.Images) != 1 {
		t.Fatalf("Images = %d, want 1 (stylesheet excluded)", len(book.Images))
	}
	img, ok := book.Images["OEBPS/images/pic.jpg"]
	if !ok {
		t.Fatalf("image not keyed by container path: %v", book.ImageOrder)
	}
	if img.MediaType != "image/jpeg" || !bytes.Equal(img.Data, jpeg) {
		t.Errorf("image = %+v", img)
	}
}

func TestLoad_SkipsBrokenSpineEntries(t *testing.T) {
	p := epubtest.Write(t, t.TempDir(), "book.epub", epubtest.Book{
		Chapters: []epubtest.Chapter{{ID: "c1", Href: "c1.xhtml", Body: "<p>ok</p>"}},
		Spine:    []string{"ghost", "c1"},
	})

	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(book.Documents) != 1 {
		t.Fatalf("Documents = %d, want 1", len(book.Documents))
	}
	if len(book.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one entry for the missing idref", book.Warnings)
	}
}

func TestLoad_NoDocuments(t *testing.T) {
	p := epubtest.Write(t, t.TempDir(), "empty.epub", epubtest.Book{})

	if _, err := Load(p); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("Load() error = %v, want ErrNoDocuments", err)
	}
}
