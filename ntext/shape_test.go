package ntext_test

import (
	"testing"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/fontbackend"
	"github.com/bloeys/ntext/glyphcache"
	"github.com/bloeys/ntext/ntext"
)

type fakeFont struct {
	owner uint64
	em    float32
}

func (f fakeFont) OwnerKey() uint64 { return f.owner }
func (f fakeFont) EmSize() float32  { return f.em }

// fakeBackend is a deterministic, in-memory fontbackend.Backend used to
// drive ShapeAndFill's cache/pack/rasterize wiring without a real font
// file, which isn't available in this environment.
type fakeBackend struct {
	sizeX, sizeY float32
	advance      float32

	failFind      map[rune]bool
	failRasterize map[rune]bool

	findCalls, rasterizeCalls int
}

func (b *fakeBackend) FindGlyph(cp uint32, font fontbackend.FontHandle) (fontbackend.GlyphMetrics, error) {

	b.findCalls++

	if b.failFind[rune(cp)] {
		return fontbackend.GlyphMetrics{}, nil
	}

	return fontbackend.GlyphMetrics{
		GlyphIndex: uint16(cp),
		Advance:    b.advance,
		SizeX:      b.sizeX,
		SizeY:      b.sizeY,
	}, nil
}

func (b *fakeBackend) Rasterize(glyphIndex uint16, font fontbackend.FontHandle, a *arena.Arena) (fontbackend.RasterBuffer, error) {

	b.rasterizeCalls++

	if b.failRasterize[rune(glyphIndex)] {
		return fontbackend.RasterBuffer{}, nil
	}

	w, h := int32(b.sizeX), int32(b.sizeY)
	buf := a.PushBytes(int(w * h))
	for i := range buf {
		buf[i] = 0xFF
	}

	return fontbackend.RasterBuffer{Data: buf, Stride: w, Width: w, Height: h, BytesPerPixel: 1}, nil
}

func newTestGenerator(t *testing.T, budget int, cacheX, cacheY int32) *ntext.Generator {
	t.Helper()

	g, err := ntext.CreateGenerator(ntext.GeneratorParams{
		TextStorage:       ntext.StorageLazyAtlas,
		FrameMemoryBudget: budget,
		CacheSizeX:        cacheX,
		CacheSizeY:        cacheY,
	})
	if err != nil {
		t.Fatalf("CreateGenerator failed: %v", err)
	}
	return g
}

func TestScenario1EmptyInput(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 8, sizeY: 8, advance: 9}
	font := fakeFont{owner: 1, em: 16}

	at := ntext.AnalyzeText(nil, ntext.FlagNone, g)
	run := ntext.ShapeAndFill(at, g, backend, font)

	Check(t, 0, len(run.ShapedGlyphs))
	if run.UpdateHead != nil {
		t.Fatal("expected empty update list")
	}
}

func TestScenario2SingleASCIIRepeatYieldsEmptySecondUpdate(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 8, sizeY: 10, advance: 9}
	font := fakeFont{owner: 1, em: 16}

	at1 := ntext.AnalyzeText([]byte("A"), ntext.FlagNone, g)
	run1 := ntext.ShapeAndFill(at1, g, backend, font)

	Check(t, 1, len(run1.ShapedGlyphs))
	if run1.UpdateHead == nil {
		t.Fatal("expected one tile on first shape")
	}
	Check(t, int32(8), run1.UpdateHead.Source.Right-run1.UpdateHead.Source.Left)

	at2 := ntext.AnalyzeText([]byte("A"), ntext.FlagNone, g)
	run2 := ntext.ShapeAndFill(at2, g, backend, font)

	Check(t, 1, len(run2.ShapedGlyphs))
	if run2.UpdateHead != nil {
		t.Fatal("expected empty update list on second identical shape")
	}
	Check(t, run1.ShapedGlyphs[0].GlyphIndex, run2.ShapedGlyphs[0].GlyphIndex)
	Check(t, run1.ShapedGlyphs[0].Source, run2.ShapedGlyphs[0].Source)
}

func TestScenario3ThreeDistinctGlyphsUpdateListInEncounterOrder(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 4, sizeY: 4, advance: 5}
	font := fakeFont{owner: 1, em: 16}

	at := ntext.AnalyzeText([]byte("abc"), ntext.FlagNone, g)
	run := ntext.ShapeAndFill(at, g, backend, font)

	Check(t, 3, len(run.ShapedGlyphs))

	var tiles []*ntext.RasterizedTile
	for tile := run.UpdateHead; tile != nil; tile = tile.Next {
		tiles = append(tiles, tile)
	}
	if len(tiles) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(tiles))
	}

	// Tile k must belong to the k-th codepoint ('a', 'b', 'c').
	for k, tile := range tiles {
		Check(t, run.ShapedGlyphs[k].Source, tile.Source)
	}
}

func TestScenario4RepeatedGlyphProducesOneTile(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 4, sizeY: 4, advance: 5}
	font := fakeFont{owner: 1, em: 16}

	at := ntext.AnalyzeText([]byte("aaaa"), ntext.FlagNone, g)
	run := ntext.ShapeAndFill(at, g, backend, font)

	Check(t, 4, len(run.ShapedGlyphs))

	count := 0
	for tile := run.UpdateHead; tile != nil; tile = tile.Next {
		count++
	}
	Check(t, 1, count)

	first := run.ShapedGlyphs[0]
	for _, gl := range run.ShapedGlyphs {
		Check(t, first.GlyphIndex, gl.GlyphIndex)
		Check(t, first.Source, gl.Source)
	}
}

func TestScenario5ComplexInputAbortsWithEmptyRun(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 4, sizeY: 4, advance: 5}
	font := fakeFont{owner: 1, em: 16}

	at := ntext.AnalyzeText([]byte("héllo"), ntext.FlagNone, g)
	Check(t, true, at.IsComplex)

	run := ntext.ShapeAndFill(at, g, backend, font)
	Check(t, 0, len(run.ShapedGlyphs))
	if run.UpdateHead != nil {
		t.Fatal("expected no cache mutation for complex text")
	}
	Check(t, 0, backend.findCalls)
}

func TestScenario6AtlasSaturationEmitsPlaceholder(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 8, 8)
	backend := &fakeBackend{sizeX: 9, sizeY: 9, advance: 10}
	font := fakeFont{owner: 1, em: 16}

	at := ntext.AnalyzeText([]byte("A"), ntext.FlagNone, g)
	run := ntext.ShapeAndFill(at, g, backend, font)

	Check(t, 1, len(run.ShapedGlyphs))
	Check(t, glyphcache.Rect{}, run.ShapedGlyphs[0].Source)
	if run.UpdateHead != nil {
		t.Fatal("expected no rasterized tile when the atlas can't fit the glyph")
	}
}

func TestFontOwnerKeySeparatesCacheEntries(t *testing.T) {

	g := newTestGenerator(t, 1<<20, 1024, 1024)
	backend := &fakeBackend{sizeX: 4, sizeY: 4, advance: 5}

	fontA := fakeFont{owner: 1, em: 16}
	fontB := fakeFont{owner: 2, em: 16}

	atA := ntext.AnalyzeText([]byte("x"), ntext.FlagNone, g)
	runA := ntext.ShapeAndFill(atA, g, backend, fontA)

	atB := ntext.AnalyzeText([]byte("x"), ntext.FlagNone, g)
	runB := ntext.ShapeAndFill(atB, g, backend, fontB)

	// Different owners must each trigger their own rasterization.
	if runA.UpdateHead == nil || runB.UpdateHead == nil {
		t.Fatal("expected both fonts to rasterize independently")
	}
}

func TestAdvanceWordSumsAdvanceOverClusterRange(t *testing.T) {

	glyphs := []ntext.ShapedGlyph{
		{ClusterStart: 0, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 3}},
		{ClusterStart: 1, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 5}},
		{ClusterStart: 2, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 7}},
	}

	total := ntext.AdvanceWord(glyphs, 0, ntext.WordSlice{Start: 0, Length: 2})
	Check(t, float32(8), total)
}

func TestAdvanceWordIsAdditiveAcrossAdjacentSlices(t *testing.T) {

	// P9: advancing over the concatenation of two adjacent word slices
	// equals the sum of advancing over each alone.
	glyphs := []ntext.ShapedGlyph{
		{ClusterStart: 0, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 2}},
		{ClusterStart: 1, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 3}},
		{ClusterStart: 2, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 4}},
		{ClusterStart: 3, ClusterCount: 1, Layout: glyphcache.Layout{Advance: 5}},
	}

	whole := ntext.AdvanceWord(glyphs, 0, ntext.WordSlice{Start: 0, Length: 4})
	left := ntext.AdvanceWord(glyphs, 0, ntext.WordSlice{Start: 0, Length: 2})
	right := ntext.AdvanceWord(glyphs, 0, ntext.WordSlice{Start: 2, Length: 2})

	Check(t, whole, left+right)
}
