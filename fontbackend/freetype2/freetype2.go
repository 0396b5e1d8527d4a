// Package freetype2 is a concrete fontbackend.Backend built on
// github.com/golang/freetype and golang.org/x/image/font, the Go-ecosystem
// analog of the DirectWrite backend the source system used. Its glyph
// metric and rasterization logic is adapted from the teacher repo's
// glyphs/font_atlas.go, which bakes a whole-font atlas image; here the
// same face.GlyphBounds / face.Glyph calls rasterize exactly one glyph at
// a time into a caller-supplied arena instead of a pre-baked image.Image.
package freetype2

import (
	"errors"
	"image/color"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/fontbackend"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var nextOwnerKey uint64

// Font is a loaded TrueType font bound to one em-size; it implements
// fontbackend.FontHandle and is the concrete type Backend expects back
// from its methods.
type Font struct {
	ttf      *truetype.Font
	face     font.Face
	emSize   float32
	ownerKey uint64

	mu          sync.Mutex
	runeByGlyph map[uint16]rune
}

// Load parses a TTF/TTC file and rasterizes no-hinting, aliased glyphs at
// emSize (spec Non-goals: no subpixel positioning, no hinting modes other
// than aliased 1x1).
func Load(path string, emSize float32) (*Font, error) {

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return LoadBytes(raw, emSize)
}

// LoadBytes is Load for an already-read font file (e.g. an embedded system
// font located by the caller).
func LoadBytes(raw []byte, emSize float32) (*Font, error) {

	ttf, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}

	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    float64(emSize),
		DPI:     72,
		Hinting: font.HintingNone,
	})

	return &Font{
		ttf:         ttf,
		face:        face,
		emSize:      emSize,
		ownerKey:    atomic.AddUint64(&nextOwnerKey, 1),
		runeByGlyph: make(map[uint16]rune),
	}, nil
}

// OwnerKey implements fontbackend.FontHandle.
func (f *Font) OwnerKey() uint64 { return f.ownerKey }

// EmSize implements fontbackend.FontHandle.
func (f *Font) EmSize() float32 { return f.emSize }

// Backend implements fontbackend.Backend against freetype2.Font handles.
type Backend struct{}

var _ fontbackend.Backend = Backend{}

// FindGlyph implements fontbackend.Backend.
func (Backend) FindGlyph(codepoint uint32, handle fontbackend.FontHandle) (fontbackend.GlyphMetrics, error) {

	f, ok := handle.(*Font)
	if !ok {
		return fontbackend.GlyphMetrics{}, errors.New("freetype2: font handle not produced by this backend")
	}

	r := rune(codepoint)
	idx := uint16(f.ttf.Index(r))

	f.mu.Lock()
	f.runeByGlyph[idx] = r
	f.mu.Unlock()

	advanceFixed, ok := f.face.GlyphAdvance(r)
	if !ok {
		return fontbackend.GlyphMetrics{}, nil
	}

	bounds, _, ok := f.face.GlyphBounds(r)
	if !ok {
		return fontbackend.GlyphMetrics{}, nil
	}

	ascent := absFixed(bounds.Min.Y)
	descent := absFixed(bounds.Max.Y)
	bearingX := absFixed(bounds.Min.X)
	width := absFixed(bounds.Max.X - bounds.Min.X)

	return fontbackend.GlyphMetrics{
		GlyphIndex: idx,
		Advance:    fixedToF32(advanceFixed),
		OffsetX:    fixedToF32(bearingX),
		OffsetY:    fixedToF32(descent),
		SizeX:      fixedToF32(width),
		SizeY:      fixedToF32(ascent + descent),
	}, nil
}

// Rasterize implements fontbackend.Backend, drawing glyphIndex as an
// aliased single-channel coverage tile into a.
func (Backend) Rasterize(glyphIndex uint16, handle fontbackend.FontHandle, a *arena.Arena) (fontbackend.RasterBuffer, error) {

	f, ok := handle.(*Font)
	if !ok {
		return fontbackend.RasterBuffer{}, errors.New("freetype2: font handle not produced by this backend")
	}

	f.mu.Lock()
	r, known := f.runeByGlyph[glyphIndex]
	f.mu.Unlock()
	if !known {
		return fontbackend.RasterBuffer{}, errors.New("freetype2: Rasterize called before FindGlyph for this glyph")
	}

	dot := fixed.P(0, 0)
	imgRect, mask, maskp, _, ok := f.face.Glyph(dot, r)
	if !ok || imgRect.Empty() {
		return fontbackend.RasterBuffer{}, nil
	}

	w := int32(imgRect.Dx())
	h := int32(imgRect.Dy())
	if w <= 0 || h <= 0 {
		return fontbackend.RasterBuffer{}, nil
	}

	buf := a.PushBytes(int(w * h))
	if buf == nil {
		return fontbackend.RasterBuffer{}, nil
	}

	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			px := imgRect.Min.X + int(x) + maskp.X
			py := imgRect.Min.Y + int(y) + maskp.Y
			al := color.AlphaModel.Convert(mask.At(px, py)).(color.Alpha)
			buf[y*w+x] = al.A
		}
	}

	return fontbackend.RasterBuffer{
		Data:          buf,
		Stride:        w,
		Width:         w,
		Height:        h,
		BytesPerPixel: 1,
	}, nil
}

func absFixed(x fixed.Int26_6) fixed.Int26_6 {
	if x < 0 {
		return -x
	}
	return x
}

func fixedToF32(x fixed.Int26_6) float32 {
	return float32(x) / 64
}
