package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// AutocropBounds finds the smallest rectangle that excludes uniform border
// rows and columns.
//
// The border color is taken from the corners: the first corner color, in the
// order top-left, top-right, bottom-left, bottom-right, that is shared by at
// least two corners. A row or column is border only if every pixel in it
// matches. When the border color is transparent, any fully transparent pixel
// matches regardless of its stored color.
//
// The second return value is false when there is nothing to crop: the corners
// disagree, no border row or column exists, or the whole image is border.
func AutocropBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	if b.Empty() {
		return b, false
	}

	corners := []color.NRGBA{
		img.NRGBAAt(b.Min.X, b.Min.Y),
		img.NRGBAAt(b.Max.X-1, b.Min.Y),
		img.NRGBAAt(b.Min.X, b.Max.Y-1),
		img.NRGBAAt(b.Max.X-1, b.Max.Y-1),
	}
	bg, ok := borderColor(corners)
	if !ok {
		return b, false
	}

	isBorder := func(x, y int) bool { return sameBorder(img.NRGBAAt(x, y), bg) }
	rowIsBorder := func(y, x0, x1 int) bool {
		for x := x0; x < x1; x++ {
			if !isBorder(x, y) {
				return false
			}
		}
		return true
	}
	colIsBorder := func(x, y0, y1 int) bool {
		for y := y0; y < y1; y++ {
			if !isBorder(x, y) {
				return false
			}
		}
		return true
	}

	top := b.Min.Y
	for top < b.Max.Y && rowIsBorder(top, b.Min.X, b.Max.X) {
		top++
	}
	if top == b.Max.Y {
		// Nothing but border: leave the image alone.
		return b, false
	}
	bottom := b.Max.Y
	for rowIsBorder(bottom-1, b.Min.X, b.Max.X) {
		bottom--
	}
	left := b.Min.X
	for colIsBorder(left, top, bottom) {
		left++
	}
	right := b.Max.X
	for colIsBorder(right-1, top, bottom) {
		right--
	}

	r := image.Rect(left, top, right, bottom)
	return r, r != b
}

// Autocrop trims uniform border rows and columns, leaving no margin around
// the content. The selection, if any, is cropped with the image.
// It reports whether the image changed.
func (w *WorkingImage) Autocrop() bool {
	r, ok := AutocropBounds(w.Pix)
	if !ok {
		return false
	}

	w.Pix = imaging.Crop(w.Pix, r)
	if w.Selection != nil {
		sel := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
		for y := 0; y < r.Dy(); y++ {
			src := w.Selection.PixOffset(r.Min.X, r.Min.Y+y)
			copy(sel.Pix[y*sel.Stride:y*sel.Stride+r.Dx()], w.Selection.Pix[src:src+r.Dx()])
		}
		w.Selection = sel
	}
	return true
}

func borderColor(corners []color.NRGBA) (color.NRGBA, bool) {
	for i, c := range corners {
		for _, other := range corners[i+1:] {
			if sameBorder(other, c) {
				return c, true
			}
		}
	}
	return color.NRGBA{}, false
}

func sameBorder(c, bg color.NRGBA) bool {
	if bg.A == 0 {
		return c.A == 0
	}
	return c == bg
}
