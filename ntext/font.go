package ntext

import (
	"fmt"

	"github.com/bloeys/ntext/fontbackend"
)

// FontLoadFlags reserves room for future load-time knobs (style selection,
// hinting overrides); v1 defines no bits.
type FontLoadFlags uint8

const FontLoadNone FontLoadFlags = 0

// SystemFontLocator is the capability LoadSystemFont needs from a backend:
// turning a family name into a loaded FontHandle. fontbackend.Backend
// itself only knows how to query metrics/rasterize an already-loaded font
// (spec §4.F); by-name discovery is platform-specific enough that it is
// kept as a separate, optional capability a concrete backend can implement
// (see fontbackend/freetype2.SystemBackend).
type SystemFontLocator interface {
	LocateSystemFont(name string, emSize float32) (fontbackend.FontHandle, error)
}

// LoadSystemFont resolves name to a FontHandle via backend's
// SystemFontLocator capability (spec §6 load_system_font). Backends that
// only implement fontbackend.Backend — not SystemFontLocator — can still be
// driven by a FontHandle the caller loaded some other way.
func LoadSystemFont(name string, emSize float32, flags FontLoadFlags, backend fontbackend.Backend) (fontbackend.FontHandle, error) {

	locator, ok := backend.(SystemFontLocator)
	if !ok {
		return nil, fmt.Errorf("ntext: backend %T does not support system font discovery", backend)
	}

	return locator.LocateSystemFont(name, emSize)
}
