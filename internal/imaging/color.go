package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit, non-premultiplied components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = fully opaque
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// SeedSample describes the pixel the background selection starts from.
//
// It is meant for a human checking a suspicious icon: if the seed color is
// not the paper the coin was photographed on, the coin touched the seed.
type SeedSample struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// SampleSeed reads the color at the seed coordinate.
//
// Returns an error if the seed lies outside the image bounds.
func SampleSeed(img image.Image, seed image.Point) (*SeedSample, error) {
	if !seed.In(img.Bounds()) {
		return nil, fmt.Errorf("seed (%d,%d) outside image bounds %v", seed.X, seed.Y, img.Bounds())
	}

	c := color.NRGBAModel.Convert(img.At(seed.X, seed.Y)).(color.NRGBA)
	cf := toColorful(c)
	h, s, l := cf.Hsl()

	return &SeedSample{
		X:    seed.X,
		Y:    seed.Y,
		Hex:  cf.Hex(),
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}, nil
}

// similarFunc reports whether c is close enough to the reference color.
type similarFunc func(c, ref color.NRGBA) bool

// newSimilarity builds the comparison used by the flood fill.
//
// A threshold of 0 means exact match. Alpha takes part in the comparison so
// that already transparent pixels only join a transparent seed.
func newSimilarity(metric Metric, threshold float64) similarFunc {
	switch metric {
	case MetricLab:
		// Alpha has no Lab counterpart; scale it to the same 0-100 range.
		alphaLimit := threshold * 255 / 100
		return func(c, ref color.NRGBA) bool {
			if c.A == 0 && ref.A == 0 {
				return true
			}
			if float64(absDiff(c.A, ref.A)) > alphaLimit {
				return false
			}
			return toColorful(c).DistanceLab(toColorful(ref))*100 <= threshold
		}
	default:
		return func(c, ref color.NRGBA) bool {
			d := absDiff(c.R, ref.R)
			if g := absDiff(c.G, ref.G); g > d {
				d = g
			}
			if b := absDiff(c.B, ref.B); b > d {
				d = b
			}
			if a := absDiff(c.A, ref.A); a > d {
				d = a
			}
			return float64(d) <= threshold
		}
	}
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
