package epub

// OPF is the parsed package document of an EPUB.
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
}

// Metadata holds the descriptive fields shown alongside the output.
type Metadata struct {
	Title    string
	Creators []string
}

// ManifestItem is one resource declared in the manifest.
// Href is the full path inside the container.
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
}

// SpineItem is one entry of the reading order. Non-linear items are kept;
// they are still part of the printed book.
type SpineItem struct {
	IDRef string
}

// Book is a fully loaded EPUB: its documents in reading order and every
// image resource keyed by container path.
type Book struct {
	Metadata   Metadata
	Documents  []DocumentItem
	Images     map[string]ImageItem
	ImageOrder []string // image names in manifest order
	Warnings   []string // items skipped while loading
}

// DocumentItem is an (X)HTML document referenced by the spine.
type DocumentItem struct {
	ID        string
	Path      string
	MediaType string
	Content   []byte
}

// ImageItem is an image resource with its declared media type.
type ImageItem struct {
	Name      string
	MediaType string
	Data      []byte
}
