package render

import (
	"fmt"
	"sort"
	"strings"
)

// PageSize is a paper size in centimeters.
type PageSize struct {
	Width  float64
	Height float64
}

var (
	A3     = PageSize{Width: 29.7, Height: 42.0}
	A4     = PageSize{Width: 21.0, Height: 29.7}
	A5     = PageSize{Width: 14.8, Height: 21.0}
	Letter = PageSize{Width: 21.59, Height: 27.94}
	Legal  = PageSize{Width: 21.59, Height: 35.56}
)

var pageSizes = map[string]PageSize{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"letter": Letter,
	"legal":  Legal,
}

// PageSizeByName looks up a paper size such as "a4" or "Letter".
func PageSizeByName(name string) (PageSize, error) {
	if s, ok := pageSizes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	names := make([]string, 0, len(pageSizes))
	for n := range pageSizes {
		names = append(names, n)
	}
	sort.Strings(names)
	return PageSize{}, fmt.Errorf("unknown paper size %q (want one of %s)", name, strings.Join(names, ", "))
}

// Orientation of the printed page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// Margin holds page margins in centimeters.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// UniformMargin returns the same margin on every side.
func UniformMargin(cm float64) Margin {
	return Margin{Top: cm, Right: cm, Bottom: cm, Left: cm}
}

// PageConfig controls the printed layout. Zero fields take the values of
// DefaultPageConfig, except PrintBackground which is used as given.
type PageConfig struct {
	Size            PageSize
	Orientation     Orientation
	Margin          Margin
	Scale           float64 // 0.1 to 2.0
	PrintBackground bool
}

// DefaultPageConfig is A4 portrait with 1 cm margins.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:            A4,
		Orientation:     Portrait,
		Margin:          UniformMargin(1.0),
		Scale:           1.0,
		PrintBackground: true,
	}
}

func (p PageConfig) withDefaults() PageConfig {
	d := DefaultPageConfig()
	if p.Size == (PageSize{}) {
		p.Size = d.Size
	}
	if p.Margin == (Margin{}) {
		p.Margin = d.Margin
	}
	if p.Scale <= 0 {
		p.Scale = d.Scale
	}
	if p.Scale < 0.1 {
		p.Scale = 0.1
	}
	if p.Scale > 2 {
		p.Scale = 2
	}
	return p
}

// paperInches returns width and height in inches, orientation applied.
func (p PageConfig) paperInches() (width, height float64) {
	w, h := cmToInches(p.Size.Width), cmToInches(p.Size.Height)
	if p.Orientation == Landscape {
		return h, w
	}
	return w, h
}

func (p PageConfig) marginInches() (top, right, bottom, left float64) {
	return cmToInches(p.Margin.Top), cmToInches(p.Margin.Right),
		cmToInches(p.Margin.Bottom), cmToInches(p.Margin.Left)
}

func cmToInches(cm float64) float64 {
	return cm / 2.54
}
