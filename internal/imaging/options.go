package imaging

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// Defaults for the coin icon transform.
const (
	// DefaultThreshold is the largest per-channel difference (0-255) at which
	// a neighbour still counts as background.
	DefaultThreshold = 15.0

	// DefaultFilter names the resampling filter used by Scale.
	DefaultFilter = "catmullrom"

	// DefaultConnectivity is the neighbourhood used by the flood fill.
	DefaultConnectivity = 4
)

var (
	// DefaultSeed is the pixel the background flood fill starts from.
	DefaultSeed = image.Pt(1, 1)

	// DefaultSize is the canonical icon resolution.
	DefaultSize = image.Pt(92, 92)
)

// Metric selects how two colors are compared during region selection.
type Metric int

const (
	// MetricRGB compares the largest absolute channel difference on a 0-255 scale.
	MetricRGB Metric = iota

	// MetricLab compares the CIE76 distance in L*a*b* space on a 0-100 scale.
	MetricLab
)

// String returns the configuration name of the metric.
func (m Metric) String() string {
	switch m {
	case MetricRGB:
		return "rgb"
	case MetricLab:
		return "lab"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// MaxThreshold is the largest meaningful threshold for the metric.
func (m Metric) MaxThreshold() float64 {
	if m == MetricLab {
		return 100
	}
	return 255
}

// ParseMetric converts a configuration name into a Metric.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rgb":
		return MetricRGB, nil
	case "lab":
		return MetricLab, nil
	default:
		return 0, fmt.Errorf("unknown color metric: %q (want rgb or lab)", name)
	}
}

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"hermite":    imaging.Hermite,
	"mitchell":   imaging.MitchellNetravali,
	"catmullrom": imaging.CatmullRom,
	"bspline":    imaging.BSpline,
	"gaussian":   imaging.Gaussian,
	"lanczos":    imaging.Lanczos,
}

// FilterNames lists the accepted resampling filter names in sorted order.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFilter converts a filter name into a resampling filter.
// "cubic" is accepted as an alias for "catmullrom".
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "":
		key = DefaultFilter
	case "cubic":
		key = "catmullrom"
	}
	f, ok := filters[key]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter: %q (want one of %s)",
			name, strings.Join(FilterNames(), ", "))
	}
	return f, nil
}

// Options controls the per-image transform.
type Options struct {
	// Seed is the background pixel the flood fill starts from.
	Seed image.Point

	// Threshold is the similarity limit for the flood fill, in Metric units.
	Threshold float64

	// Metric selects the color comparison.
	Metric Metric

	// Connectivity is 4 (edge neighbours) or 8 (edge and corner neighbours).
	Connectivity int

	// Size is the exact output resolution.
	Size image.Point

	// Filter names the resampling filter (see FilterNames).
	Filter string

	// AutoOrient applies the EXIF orientation tag while decoding.
	AutoOrient bool
}

// DefaultOptions returns the settings that reproduce the app's icon format.
func DefaultOptions() Options {
	return Options{
		Seed:         DefaultSeed,
		Threshold:    DefaultThreshold,
		Metric:       MetricRGB,
		Connectivity: DefaultConnectivity,
		Size:         DefaultSize,
		Filter:       DefaultFilter,
	}
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if o.Seed.X < 0 || o.Seed.Y < 0 {
		return fmt.Errorf("seed (%d,%d) must not be negative", o.Seed.X, o.Seed.Y)
	}
	if o.Threshold < 0 || o.Threshold > o.Metric.MaxThreshold() {
		return fmt.Errorf("threshold %g outside range 0-%g for %s metric",
			o.Threshold, o.Metric.MaxThreshold(), o.Metric)
	}
	if o.Connectivity != 4 && o.Connectivity != 8 {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", o.Connectivity)
	}
	if o.Size.X <= 0 || o.Size.Y <= 0 {
		return fmt.Errorf("output size %dx%d must be positive", o.Size.X, o.Size.Y)
	}
	if _, err := ParseFilter(o.Filter); err != nil {
		return err
	}
	return nil
}
