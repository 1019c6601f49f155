// Package imaging implements the per-image stages that turn a coin photograph
// into an app icon.
//
// A photograph is loaded into a WorkingImage, a mutable NRGBA raster that owns
// an optional selection mask. The stages then run strictly in order:
//
//	Loaded -> AlphaAdded -> BackgroundCleared -> Cropped -> Scaled
//
// Background removal is split in two steps so each can be tested on its own:
// SelectContiguous computes the mask by flood fill from a seed pixel, and
// ClearSelection applies it by making every selected pixel fully transparent.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. A
// WorkingImage always has its bounds at the origin, so image.Point values can
// be used directly as pixel coordinates.
//
// # Seed Pixel
//
// The default seed is (1,1), inset one pixel from the corner. The seed is
// assumed to be background. If the coin touches the seed the wrong region is
// cleared and nothing reports it; callers should spot-check output. Images
// too narrow to contain the seed keep their background and are still scaled.
//
// # Thread Safety
//
// A WorkingImage is owned by a single goroutine. Distinct images can be
// processed concurrently.
package imaging
