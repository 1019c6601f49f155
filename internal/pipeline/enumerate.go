package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sort"
)

// PathNotFoundError reports a source directory that is missing, unreadable
// or not a directory. Nothing has been written when it is returned.
type PathNotFoundError struct {
	Path string
	Err  error
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("source directory not found: %s: %v", e.Path, e.Err)
}

func (e *PathNotFoundError) Unwrap() error { return e.Err }

// Enumerate lists the regular files directly inside src, sorted by name.
//
// No extension filtering is done: anything that is not an image fails later
// with a decode error. Subdirectories and other non-regular entries are
// ignored; symlinks are followed.
func Enumerate(src string) ([]SourceImage, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, &PathNotFoundError{Path: src, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathNotFoundError{Path: src, Err: errors.New("not a directory")}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, &PathNotFoundError{Path: src, Err: err}
	}

	sources := make([]SourceImage, 0, len(entries))
	for _, e := range entries {
		s := newSourceImage(src, e.Name())
		if !e.Type().IsRegular() {
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			fi, err := os.Stat(s.Path)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// resolveCollisions keeps one source per icon name. Sources must be sorted by
// name; the last one for a given icon wins and the earlier ones are returned
// as shadowed, mapped to the name that replaced them.
//
// With opts.Ghost set, a kept source whose ghost name is another kept
// source's icon, as "a.jpg" ("a_25.png") against "a_25.jpg", loses only its
// ghost copy. ghostless maps it to the source owning that name.
func resolveCollisions(sources []SourceImage, opts Options) (kept []SourceImage, shadowed, ghostless map[SourceImage]string) {
	winner := make(map[string]SourceImage, len(sources))
	for _, s := range sources {
		winner[OutputName(s.Name)] = s
	}

	shadowed = make(map[SourceImage]string)
	for _, s := range sources {
		w := winner[OutputName(s.Name)]
		if w == s {
			kept = append(kept, s)
			continue
		}
		shadowed[s] = w.Name
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })

	ghostless = make(map[SourceImage]string)
	if opts.Ghost {
		for _, s := range kept {
			if owner, ok := winner[GhostName(s.Name, opts.GhostOpacity)]; ok {
				ghostless[s] = owner.Name
			}
		}
	}
	return kept, shadowed, ghostless
}
