package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// WorkingImage is the mutable raster a single coin photograph passes through.
//
// Pix always has its bounds at the origin. HasAlpha records whether the
// raster carries a meaningful alpha channel; decoded JPEGs start without one.
// Selection is the transient mask used while removing the background and is
// nil when nothing is selected.
type WorkingImage struct {
	Pix       *image.NRGBA
	HasAlpha  bool
	Selection *image.Alpha
}

// FromImage copies any decoded image into a new WorkingImage.
func FromImage(img image.Image) *WorkingImage {
	return &WorkingImage{
		Pix:      imaging.Clone(img),
		HasAlpha: modelHasAlpha(img),
	}
}

// Width returns the current width in pixels.
func (w *WorkingImage) Width() int { return w.Pix.Bounds().Dx() }

// Height returns the current height in pixels.
func (w *WorkingImage) Height() int { return w.Pix.Bounds().Dy() }

// AddAlpha ensures the alpha channel exists, filling it fully opaque.
// It does nothing if the image already has alpha.
func (w *WorkingImage) AddAlpha() {
	if w.HasAlpha {
		return
	}
	for i := 3; i < len(w.Pix.Pix); i += 4 {
		w.Pix.Pix[i] = 0xff
	}
	w.HasAlpha = true
}

// SelectNone drops the current selection.
func (w *WorkingImage) SelectNone() {
	w.Selection = nil
}

// Transform runs the full icon pipeline in place: background removal,
// autocrop, selection reset and scaling to opts.Size.
func (w *WorkingImage) Transform(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	filter, err := ParseFilter(opts.Filter)
	if err != nil {
		return err
	}

	w.StripBackground(opts)
	w.Autocrop()
	w.SelectNone()
	return w.Scale(opts.Size, filter)
}

// modelHasAlpha reports whether a decoded image can hold transparency.
func modelHasAlpha(img image.Image) bool {
	switch m := img.ColorModel().(type) {
	case color.Palette:
		for _, c := range m {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	default:
		switch m {
		case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
			color.AlphaModel, color.Alpha16Model:
			return true
		}
		return false
	}
}
