package ntext

import (
	"math"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/assert"
	"github.com/bloeys/ntext/fingerprint"
	"github.com/bloeys/ntext/fontbackend"
	"github.com/bloeys/ntext/glyphcache"
	"github.com/bloeys/ntext/skyline"
)

// ShapedGlyph is one glyph in a ShapedRun (spec §3). ClusterStart/Count are
// always {i, 1} in v1's simple path — complex clustering is out of scope.
type ShapedGlyph struct {
	GlyphIndex   uint16
	Source       glyphcache.Rect
	Layout       glyphcache.Layout
	ClusterStart int
	ClusterCount int
}

// RasterizedTile is one node of the update list a ShapedRun returns for the
// caller to upload to its GPU atlas (spec §3).
type RasterizedTile struct {
	Source glyphcache.Rect
	Buffer fontbackend.RasterBuffer
	Next   *RasterizedTile
}

// ShapedRun is ShapeAndFill's result: the glyph sequence to draw plus the
// linked list of newly-rasterized tiles to upload before the next
// ClearArena (spec §3).
type ShapedRun struct {
	ShapedGlyphs []ShapedGlyph
	UpdateHead   *RasterizedTile
	UpdateTail   *RasterizedTile
}

func (r *ShapedRun) appendTile(t *RasterizedTile) {
	if r.UpdateHead == nil {
		r.UpdateHead = t
		r.UpdateTail = t
		return
	}
	r.UpdateTail.Next = t
	r.UpdateTail = t
}

// ShapeAndFill runs spec §4.G's six-step algorithm: abort on complex text,
// otherwise probe the cache per codepoint, consult backend+packer on a
// miss, and stitch a ShapedRun. font identifies which FontHandle backend's
// FindGlyph/Rasterize operate against and is folded into each glyph's
// fingerprint as the owner key (spec §9's "fingerprint input domain" note:
// omitting it would alias glyphs across fonts/sizes).
func ShapeAndFill(text AnalyzedText, g *Generator, backend fontbackend.Backend, font fontbackend.FontHandle) ShapedRun {

	if !IsValid(g) || text.Count == 0 {
		return ShapedRun{}
	}

	if text.IsComplex {
		g.logger.Debug("ntext: text requires complex shaping, not yet supported", "kind", KindUnsupportedComplexText.String())
		return ShapedRun{}
	}

	glyphs := arena.PushSlice[ShapedGlyph](g.arena, text.Count)
	if glyphs == nil {
		g.logger.Warn("ntext: arena exhausted allocating shaped glyphs", "kind", KindArenaExhausted.String())
		return ShapedRun{}
	}

	var ownerKey uint64
	if font != nil {
		ownerKey = font.OwnerKey()
	}

	var run ShapedRun
	shapedCount := 0

	for i := 0; i < text.Count; i++ {

		cp := text.Codepoints[i]
		fp := fingerprint.HashGlyph(cp, ownerKey)

		state, _ := g.table.FindOrAllocate(fp)

		if !state.IsRasterized {
			var tile *RasterizedTile
			state, tile = rasterizeMiss(g, state, cp, font, backend)
			if tile != nil {
				run.appendTile(tile)
			}
		}

		glyphs[shapedCount] = ShapedGlyph{
			GlyphIndex:   state.GlyphIndex,
			Source:       state.Source,
			Layout:       state.Layout,
			ClusterStart: i,
			ClusterCount: 1,
		}
		shapedCount++
	}

	assert.T(shapedCount == text.Count, "ntext: shapedCount (%d) must equal text.Count (%d), one ShapedGlyph per codepoint", shapedCount, text.Count)

	run.ShapedGlyphs = glyphs[:shapedCount]
	return run
}

// rasterizeMiss runs the cache-miss path of spec §4.G step 5: ask the
// backend for metrics, pack a tile, rasterize it, and write the result back
// into the cache. On any failure it logs the matching taxonomy kind and
// returns state unchanged (still !IsRasterized, eligible for retry on a
// future call) and a nil tile.
func rasterizeMiss(g *Generator, state glyphcache.Result, cp uint32, font fontbackend.FontHandle, backend fontbackend.Backend) (glyphcache.Result, *RasterizedTile) {

	metrics, err := backend.FindGlyph(cp, font)
	if err != nil || metrics.SizeX <= 0 || metrics.SizeY <= 0 {
		g.logger.Debug("ntext: font backend found no glyph", "kind", KindBackendFailure.String(), "codepoint", cp)
		return state, nil
	}

	pr := skyline.Pack(g.packer, ceilDim(metrics.SizeX), ceilDim(metrics.SizeY))
	if !pr.WasPacked {
		g.logger.Debug("ntext: atlas full", "kind", KindAtlasFull.String(), "codepoint", cp, "width", pr.Width, "height", pr.Height)
		return state, nil
	}

	buf, err := backend.Rasterize(metrics.GlyphIndex, font, g.arena)
	if err != nil || buf.Data == nil {
		g.logger.Debug("ntext: font backend failed to rasterize", "kind", KindBackendFailure.String(), "codepoint", cp)
		return state, nil
	}

	source := glyphcache.Rect{
		Left:   pr.X,
		Top:    pr.Y,
		Right:  pr.X + pr.Width,
		Bottom: pr.Y + pr.Height,
	}
	layout := glyphcache.Layout{
		Advance: metrics.Advance,
		OffsetX: metrics.OffsetX,
		OffsetY: metrics.OffsetY,
	}

	g.table.Update(state.ID, metrics.GlyphIndex, layout, source, true)

	state.GlyphIndex = metrics.GlyphIndex
	state.Layout = layout
	state.Source = source
	state.IsRasterized = true

	return state, &RasterizedTile{Source: source, Buffer: buf}
}

func ceilDim(v float32) int32 {
	return int32(math.Ceil(float64(v)))
}

// AdvanceWord sums layout.Advance over every glyph in glyphs[cursor:] whose
// cluster range overlaps word, returning the word's total pixel advance
// (spec §4.G "word-advance helper"). glyphs must be in increasing
// ClusterStart order, true of any ShapedRun this package produces.
func AdvanceWord(glyphs []ShapedGlyph, cursor int, word WordSlice) float32 {

	wordEnd := word.Start + word.Length

	var total float32
	for i := cursor; i < len(glyphs); i++ {

		gl := &glyphs[i]
		clusterEnd := gl.ClusterStart + gl.ClusterCount

		if clusterEnd <= word.Start {
			continue
		}
		if gl.ClusterStart >= wordEnd {
			break
		}

		total += gl.Layout.Advance
	}

	return total
}
