package epub

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"
)

type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []opfItemRef `xml:"itemref"`
	} `xml:"spine"`
}

type opfMetadata struct {
	Title   []string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// ParseOPF parses a package document. opfDir is the container directory
// holding the OPF; manifest hrefs are resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Metadata: pkg.Metadata.toMetadata(),
		Manifest: make(map[string]ManifestItem, len(pkg.Manifest.Items)),
	}

	for _, it := range pkg.Manifest.Items {
		if it.ID == "" {
			continue
		}
		if _, dup := opf.Manifest[it.ID]; dup {
			continue
		}
		opf.Manifest[it.ID] = ManifestItem{
			ID:        it.ID,
			Href:      joinOPFPath(opfDir, it.Href),
			MediaType: strings.TrimSpace(strings.ToLower(it.MediaType)),
		}
		opf.ManifestOrder = append(opf.ManifestOrder, it.ID)
	}

	for _, ref := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{IDRef: ref.IDRef})
	}

	return opf, nil
}

func (m opfMetadata) toMetadata() Metadata {
	md := Metadata{Title: firstTrimmed(m.Title)}
	for _, c := range m.Creator {
		if c = strings.TrimSpace(c); c != "" {
			md.Creators = append(md.Creators, c)
		}
	}
	return md
}

func firstTrimmed(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// joinOPFPath resolves a manifest href against the OPF directory.
func joinOPFPath(opfDir, href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if opfDir == "" || opfDir == "." {
		return cleanName(path.Clean(href))
	}
	return cleanName(path.Join(opfDir, href))
}
