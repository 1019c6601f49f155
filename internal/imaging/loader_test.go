package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
	gold  = color.NRGBA{180, 140, 60, 255}
)

// createInMemoryImage creates a solid color image.
func createInMemoryImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createCoinImage creates a filled disk of the given color centered on a
// white canvas.
func createCoinImage(width, height, radius int, coin color.NRGBA) *image.NRGBA {
	img := createInMemoryImage(width, height, white)
	cx, cy := width/2, height/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, coin)
			}
		}
	}
	return img
}

// createTestImage writes a solid color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.NRGBA) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoad_PNG(t *testing.T) {
	path := createTestImage(t, 100, 80, color.NRGBA{255, 0, 0, 255})

	w, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if w.Width() != 100 || w.Height() != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", w.Width(), w.Height())
	}
	if w.Selection != nil {
		t.Error("freshly loaded image should have no selection")
	}
	if got := w.Pix.NRGBAAt(10, 10); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel: got %v, want opaque red", got)
	}
}

func TestLoad_JPEGHasNoAlpha(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coin.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := jpeg.Encode(f, createCoinImage(64, 64, 20, gold), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	f.Close()

	w, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if w.HasAlpha {
		t.Error("JPEG source should not report an alpha channel")
	}
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load("/nonexistent/path/to/image.png", DefaultOptions())
	if err == nil {
		t.Fatal("Load should fail for non-existent file")
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		t.Error("missing file should not be reported as a decode error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestLoad_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Load(path, DefaultOptions())
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if decErr.Path != path {
		t.Errorf("DecodeError.Path: got %s, want %s", decErr.Path, path)
	}
}

func TestFromImage_AlphaDetection(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"nrgba", image.NewNRGBA(image.Rect(0, 0, 4, 4)), true},
		{"rgba", image.NewRGBA(image.Rect(0, 0, 4, 4)), true},
		{"gray", image.NewGray(image.Rect(0, 0, 4, 4)), false},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420), false},
		{"opaque palette", image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.White, color.Black}), false},
		{"transparent palette", image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Transparent, color.Black}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := FromImage(tt.img)
			if w.HasAlpha != tt.want {
				t.Errorf("HasAlpha: got %v, want %v", w.HasAlpha, tt.want)
			}
			if w.Pix.Bounds().Min != (image.Point{}) {
				t.Errorf("bounds should start at origin, got %v", w.Pix.Bounds())
			}
		})
	}
}

func TestFromImage_OffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 30, 50))
	w := FromImage(src)
	if w.Width() != 20 || w.Height() != 30 {
		t.Errorf("dimensions: got %dx%d, want 20x30", w.Width(), w.Height())
	}
	if w.Pix.Bounds().Min != (image.Point{}) {
		t.Errorf("bounds should start at origin, got %v", w.Pix.Bounds())
	}
}

func TestAddAlpha(t *testing.T) {
	w := FromImage(image.NewGray(image.Rect(0, 0, 3, 3)))
	w.AddAlpha()
	if !w.HasAlpha {
		t.Fatal("AddAlpha should set HasAlpha")
	}
	for i := 3; i < len(w.Pix.Pix); i += 4 {
		if w.Pix.Pix[i] != 0xff {
			t.Fatalf("alpha at %d: got %d, want 255", i, w.Pix.Pix[i])
		}
	}

	// Second call must not touch existing transparency.
	w.Pix.Pix[3] = 0
	w.AddAlpha()
	if w.Pix.Pix[3] != 0 {
		t.Error("AddAlpha on an image with alpha should be a no-op")
	}
}

func TestEncodePNG_Deterministic(t *testing.T) {
	img := createCoinImage(50, 50, 15, gold)

	var a, b bytes.Buffer
	if err := EncodePNG(&a, img); err != nil {
		t.Fatalf("first encode failed: %v", err)
	}
	if err := EncodePNG(&b, img); err != nil {
		t.Fatalf("second encode failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("encoding the same image twice produced different bytes")
	}

	decoded, err := png.Decode(&a)
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 50 {
		t.Errorf("decoded width: got %d, want 50", decoded.Bounds().Dx())
	}
}

func TestLoadImageInfo(t *testing.T) {
	path := createTestImage(t, 120, 90, white)

	info, err := LoadImageInfo(path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 120 || info.Height != 90 {
		t.Errorf("dimensions: got %dx%d, want 120x90", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if !info.HasAlpha {
		t.Error("NRGBA PNG should report alpha")
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d, want > 0", info.FileSizeBytes)
	}
}

func TestLoadImageInfo_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readme.md")
	if err := os.WriteFile(path, []byte("# hi"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	_, err := LoadImageInfo(path)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("expected *DecodeError, got %v", err)
	}
}
