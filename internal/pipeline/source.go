package pipeline

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// SourceImage is one candidate input file found in the source directory.
type SourceImage struct {
	// Path is the full path used to open the file.
	Path string `json:"path"`

	// Name is the file name as listed in the directory.
	Name string `json:"name"`

	// BaseName is Name without its final extension.
	BaseName string `json:"base_name"`
}

func newSourceImage(dir, name string) SourceImage {
	return SourceImage{
		Path:     filepath.Join(dir, name),
		Name:     name,
		BaseName: BaseName(name),
	}
}

// BaseName strips the final extension from a file name.
//
// Leading dots do not start an extension, so ".hidden" stays ".hidden",
// while "a.tar.gz" becomes "a.tar" and "a." becomes "a".
func BaseName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name
	}
	if strings.TrimLeft(name[:i], ".") == "" {
		return name
	}
	return name[:i]
}

// OutputName returns the icon file name for a source file name.
func OutputName(name string) string {
	return BaseName(name) + ".png"
}

// GhostName returns the file name of the reduced-opacity variant, e.g.
// "penny_25.png" for "penny.jpg" at opacity 0.25.
func GhostName(name string, opacity float64) string {
	return fmt.Sprintf("%s_%d.png", BaseName(name), int(math.Round(opacity*100)))
}
