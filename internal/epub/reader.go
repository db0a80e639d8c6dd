package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

const (
	epubMimetype = "application/epub+zip"
	opfMediaType = "application/oebps-package+xml"
	containerXML = "META-INF/container.xml"
)

var (
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
	ErrFileNotFound       = errors.New("file not found in EPUB")
)

// EPUBReader gives access to the files of an OCF container.
type EPUBReader struct {
	zr      *zip.ReadCloser
	files   map[string]*zip.File
	opfPath string
}

type ocfContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// Open opens the EPUB at path and validates the container layout.
func Open(filename string) (*EPUBReader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &EPUBReader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		r.files[cleanName(f.Name)] = f
	}

	if err := r.checkMimetype(); err != nil {
		zr.Close()
		return nil, err
	}
	if err := r.locateOPF(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying archive.
func (r *EPUBReader) Close() error {
	return r.zr.Close()
}

// OPFPath returns the container path of the package document.
func (r *EPUBReader) OPFPath() string {
	return r.opfPath
}

// ReadFile returns the contents of a file inside the container.
func (r *EPUBReader) ReadFile(name string) ([]byte, error) {
	name = cleanName(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (r *EPUBReader) checkMimetype() error {
	f, ok := r.files["mimetype"]
	if !ok {
		return ErrMimetypeNotFound
	}
	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	data, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if string(bytes.TrimSpace(data)) != epubMimetype {
		return ErrInvalidMimetype
	}
	return nil
}

func (r *EPUBReader) locateOPF() error {
	data, err := r.ReadFile(containerXML)
	if err != nil {
		return ErrContainerNotFound
	}

	var c ocfContainer
	if err := xml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}
	if len(c.Rootfiles) == 0 {
		return ErrOPFPathNotFound
	}

	// Prefer the rootfile declared as a package document.
	chosen := c.Rootfiles[0].FullPath
	for _, rf := range c.Rootfiles {
		if rf.MediaType == opfMediaType {
			chosen = rf.FullPath
			break
		}
	}
	if chosen == "" {
		return ErrOPFPathNotFound
	}
	r.opfPath = cleanName(chosen)
	return nil
}

// cleanName normalizes a container path: forward slashes, no leading "./" or "/".
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	return name
}

// ResolveHref resolves a reference found in the document at docPath to a
// container path. "../images/a.jpg" in "OEBPS/text/c1.xhtml" becomes
// "OEBPS/images/a.jpg".
func ResolveHref(docPath, href string) string {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if strings.HasPrefix(href, "/") {
		return cleanName(path.Clean(href))
	}
	joined := path.Join(path.Dir(cleanName(docPath)), href)
	return cleanName(joined)
}
