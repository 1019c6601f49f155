package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
)

// Scale resizes the image to exactly size in a single resampling pass.
// Each axis is scaled independently, so the aspect ratio is not preserved.
// The selection is dropped first.
func (w *WorkingImage) Scale(size image.Point, filter imaging.ResampleFilter) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("output size %dx%d must be positive", size.X, size.Y)
	}
	w.SelectNone()
	w.Pix = imaging.Resize(w.Pix, size.X, size.Y, filter)
	return nil
}

// Ghost returns a copy of img at the given opacity (0 < opacity <= 1),
// equivalent to lowering the layer opacity and merging it onto transparency.
func Ghost(img image.Image, opacity float64) *image.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	// adjust.Apply works on premultiplied RGBA, so scaling every channel
	// scales the alpha without shifting the color.
	faded := adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: scaleChannel(c.R, opacity),
			G: scaleChannel(c.G, opacity),
			B: scaleChannel(c.B, opacity),
			A: scaleChannel(c.A, opacity),
		}
	})
	return imaging.Clone(faded)
}

func scaleChannel(v uint8, f float64) uint8 {
	return uint8(float64(v)*f + 0.5)
}
