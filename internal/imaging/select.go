package imaging

import (
	"image"
)

var (
	fourNeighbours  = []image.Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	eightNeighbours = []image.Point{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
)

// SelectContiguous replaces the selection with the region reachable from seed
// through neighbours whose color is within opts.Threshold of the seed color.
//
// The fill is iterative, so very large uniform backgrounds do not grow the
// goroutine stack. Pixels with the same color that are not connected to the
// seed, such as a hole enclosed by the coin, are not selected.
//
// A seed outside the image selects nothing: the selection is dropped and
// SelectContiguous returns false.
func (w *WorkingImage) SelectContiguous(seed image.Point, opts Options) bool {
	bounds := w.Pix.Bounds()
	if !seed.In(bounds) {
		w.Selection = nil
		return false
	}

	neighbours := fourNeighbours
	if opts.Connectivity == 8 {
		neighbours = eightNeighbours
	}
	similar := newSimilarity(opts.Metric, opts.Threshold)
	ref := w.Pix.NRGBAAt(seed.X, seed.Y)

	mask := image.NewAlpha(bounds)
	mask.Pix[mask.PixOffset(seed.X, seed.Y)] = 0xff
	stack := []image.Point{seed}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range neighbours {
			q := p.Add(d)
			if !q.In(bounds) {
				continue
			}
			i := mask.PixOffset(q.X, q.Y)
			if mask.Pix[i] != 0 {
				continue
			}
			if !similar(w.Pix.NRGBAAt(q.X, q.Y), ref) {
				continue
			}
			mask.Pix[i] = 0xff
			stack = append(stack, q)
		}
	}

	w.Selection = mask
	return true
}

// ClearSelection makes every selected pixel fully transparent and discards
// its color. It adds the alpha channel first if needed and returns the number
// of cleared pixels. Without a selection it does nothing.
func (w *WorkingImage) ClearSelection() int {
	if w.Selection == nil {
		return 0
	}
	w.AddAlpha()

	cleared := 0
	bounds := w.Pix.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		mi := w.Selection.PixOffset(bounds.Min.X, y)
		pi := w.Pix.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if w.Selection.Pix[mi] != 0 {
				px := w.Pix.Pix[pi : pi+4 : pi+4]
				px[0], px[1], px[2], px[3] = 0, 0, 0, 0
				cleared++
			}
			mi++
			pi += 4
		}
	}
	return cleared
}

// StripBackground adds alpha, selects the background contiguous with
// opts.Seed and clears it. The selection is left in place for the caller.
// It returns the number of pixels made transparent, which is zero when the
// seed lies outside the image.
func (w *WorkingImage) StripBackground(opts Options) int {
	w.AddAlpha()
	w.SelectContiguous(opts.Seed, opts)
	return w.ClearSelection()
}
