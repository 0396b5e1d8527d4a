package freetype2

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bloeys/ntext/fontbackend"
)

// DefaultFontDirs lists the conventional system font directories across the
// desktop platforms this module targets.
var DefaultFontDirs = []string{
	"/usr/share/fonts",
	"/usr/local/share/fonts",
	"/System/Library/Fonts",
	"/Library/Fonts",
	`C:\Windows\Fonts`,
}

// SystemBackend wraps Backend with by-name system font discovery, the
// capability ntext.LoadSystemFont needs (ntext.SystemFontLocator). The
// teacher repo loads exactly one font from a hardcoded path; this widens
// that to a directory search so LoadSystemFont's name-based contract has
// somewhere real to resolve against.
type SystemBackend struct {
	Backend
	Dirs []string
}

// LocateSystemFont implements ntext.SystemFontLocator, searching Dirs (or
// DefaultFontDirs when unset) for name with a common font file extension.
func (b SystemBackend) LocateSystemFont(name string, emSize float32) (fontbackend.FontHandle, error) {

	dirs := b.Dirs
	if dirs == nil {
		dirs = DefaultFontDirs
	}

	for _, dir := range dirs {
		for _, ext := range [...]string{".ttf", ".otf", ".ttc"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return Load(path, emSize)
		}
	}

	return nil, fmt.Errorf("freetype2: system font %q not found under %v", name, dirs)
}
