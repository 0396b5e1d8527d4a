// Package fontbackend declares the narrow capability the shaping core
// requires from a platform font stack (spec §4.F): turning a codepoint
// into em-scaled metrics, and turning a glyph index into a rasterized
// alpha tile. Concrete implementations (see fontbackend/freetype2) own
// everything else — font discovery, hinting, caching of font handles.
package fontbackend

import "github.com/bloeys/ntext/arena"

// GlyphMetrics is the em-scaled metric data find_glyph returns (spec §4.F).
type GlyphMetrics struct {
	GlyphIndex       uint16
	Advance          float32
	OffsetX, OffsetY float32
	SizeX, SizeY     float32
}

// RasterBuffer is a rasterized alpha (or RGBA) tile allocated out of the
// caller-supplied arena.
type RasterBuffer struct {
	Data          []byte
	Stride        int32
	Width, Height int32
	BytesPerPixel int32
}

// FontHandle is an opaque, backend-specific binding to a loaded font at a
// fixed em-size. Its concrete representation is what fingerprint owner
// keys are derived from (spec §9: fingerprints must include font+size to
// avoid cache aliasing).
type FontHandle interface {
	// OwnerKey is a stable pointer-identity for this font+size binding,
	// used as the fingerprint owner key.
	OwnerKey() uint64
	EmSize() float32
}

// Backend is the capability the orchestrator calls on cache misses.
type Backend interface {
	// FindGlyph resolves a codepoint to em-scaled glyph metrics under the
	// given font handle. A zero-dimension result (SizeX or SizeY <= 0) is
	// treated as BackendFailure by the orchestrator (spec §7).
	FindGlyph(codepoint uint32, font FontHandle) (GlyphMetrics, error)

	// Rasterize produces an alpha tile for glyphIndex into a, sized to at
	// least the dimensions FindGlyph reported. A nil Data is treated as
	// BackendFailure.
	Rasterize(glyphIndex uint16, font FontHandle, a *arena.Arena) (RasterBuffer, error)
}
