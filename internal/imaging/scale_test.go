package imaging

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
)

func TestScale_ExactSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"downscale square", 400, 400},
		{"downscale wide", 500, 120},
		{"upscale tall", 10, 40},
		{"already icon size", 92, 92},
		{"single pixel", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := FromImage(createInMemoryImage(tt.width, tt.height, gold))
			if err := w.Scale(DefaultSize, imagingFilter(t, DefaultFilter)); err != nil {
				t.Fatalf("Scale failed: %v", err)
			}
			if w.Width() != 92 || w.Height() != 92 {
				t.Errorf("dimensions: got %dx%d, want 92x92", w.Width(), w.Height())
			}
		})
	}
}

func TestScale_RejectsEmptySize(t *testing.T) {
	w := FromImage(createInMemoryImage(10, 10, gold))
	if err := w.Scale(image.Pt(0, 92), imagingFilter(t, "")); err == nil {
		t.Error("expected error for zero width")
	}
	if w.Width() != 10 {
		t.Error("failed scale should leave the image untouched")
	}
}

func TestScale_DropsSelection(t *testing.T) {
	w := FromImage(createInMemoryImage(10, 10, white))
	if !w.SelectContiguous(image.Pt(1, 1), DefaultOptions()) {
		t.Fatal("SelectContiguous: seed outside image")
	}
	if err := w.Scale(image.Pt(5, 5), imagingFilter(t, "nearest")); err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if w.Selection != nil {
		t.Error("selection should be cleared before scaling")
	}
}

func TestGhost(t *testing.T) {
	img := createInMemoryImage(4, 4, white)
	img.SetNRGBA(0, 0, gold)

	ghost := Ghost(img, 0.25)
	if ghost.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", ghost.Bounds(), img.Bounds())
	}

	if got := ghost.NRGBAAt(2, 2); got.A != 64 || got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("white at 25%%: got %v, want {255 255 255 64}", got)
	}

	g := ghost.NRGBAAt(0, 0)
	if g.A != 64 {
		t.Errorf("gold alpha: got %d, want 64", g.A)
	}
	if absDiff(g.R, gold.R) > 4 || absDiff(g.G, gold.G) > 4 || absDiff(g.B, gold.B) > 4 {
		t.Errorf("gold hue drifted: got %v, want close to %v", g, gold)
	}

	// The source must not be modified.
	if img.NRGBAAt(2, 2) != white {
		t.Error("Ghost modified its input")
	}
}

func TestGhost_KeepsTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	ghost := Ghost(img, 0.5)
	if got := ghost.NRGBAAt(1, 1); got.A != 0 {
		t.Errorf("transparent pixel alpha: got %d, want 0", got.A)
	}
}

func imagingFilter(t *testing.T, name string) imaging.ResampleFilter {
	t.Helper()
	f, err := ParseFilter(name)
	if err != nil {
		t.Fatalf("ParseFilter(%q) failed: %v", name, err)
	}
	return f
}
