package render

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPageSizeByName(t *testing.T) {
	tests := []struct {
		name string
		want PageSize
	}{
		{"a4", A4},
		{"A5", A5},
		{" Letter ", Letter},
		{"legal", Legal},
	}
	for _, tt := range tests {
		got, err := PageSizeByName(tt.name)
		if err != nil {
			t.Fatalf("PageSizeByName(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("PageSizeByName(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}

	if _, err := PageSizeByName("b5"); err == nil {
		t.Fatal("PageSizeByName(b5) should fail")
	}
}

func TestPageConfig_WithDefaults(t *testing.T) {
	got := PageConfig{}.withDefaults()
	if got.Size != A4 {
		t.Errorf("Size = %+v, want A4", got.Size)
	}
	if got.Margin != UniformMargin(1.0) {
		t.Errorf("Margin = %+v, want 1cm", got.Margin)
	}
	if got.Scale != 1.0 {
		t.Errorf("Scale = %v, want 1.0", got.Scale)
	}

	if s := (PageConfig{Scale: 5}).withDefaults().Scale; s != 2 {
		t.Errorf("Scale clamp = %v, want 2", s)
	}
}

func TestPageConfig_PaperInches(t *testing.T) {
	w, h := PageConfig{Size: Letter}.paperInches()
	if !almostEqual(w, 8.5) || !almostEqual(h, 11) {
		t.Errorf("portrait letter = %vx%v, want 8.5x11", w, h)
	}

	w, h = PageConfig{Size: Letter, Orientation: Landscape}.paperInches()
	if !almostEqual(w, 11) || !almostEqual(h, 8.5) {
		t.Errorf("landscape letter = %vx%v, want 11x8.5", w, h)
	}

	top, _, _, left := PageConfig{Margin: UniformMargin(2.54)}.marginInches()
	if !almostEqual(top, 1) || !almostEqual(left, 1) {
		t.Errorf("margins = %v/%v, want 1 inch", top, left)
	}
}
