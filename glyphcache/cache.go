// Package glyphcache implements the fixed-capacity, tag-filtered
// open-addressing glyph cache from spec §4.D: 16-wide SIMD-style probe
// groups, quadratic probing across groups, and a circular doubly-linked
// LRU list addressed by slot index rather than pointer (spec §9: this
// makes the table position-independent and copyable, matching the C
// original's choice of index-based links over pointer links).
package glyphcache

import (
	"unsafe"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/fingerprint"
)

const (
	// GroupWidth is the number of slots probed together as one SIMD-style
	// vector (spec §3, §4.D).
	GroupWidth = 16

	metaEmpty byte = 0x40
	metaDead  byte = 0x80
	tagMask   byte = 0x3F
)

// Rect is an axis-aligned rectangle in atlas pixel coordinates,
// top-left-inclusive / bottom-right-exclusive (spec §6).
type Rect struct {
	Left, Top, Right, Bottom int32
}

// Layout is the em-scaled placement data for a cached glyph.
type Layout struct {
	Advance, OffsetX, OffsetY float32
}

// Entry is one cache slot's payload (spec §3 GlyphEntry).
type Entry struct {
	Fingerprint  fingerprint.Fingerprint
	PrevLRU      uint32
	NextLRU      uint32
	GlyphIndex   uint16
	Source       Rect
	Layout       Layout
	IsRasterized bool
}

// Table is the fixed-capacity glyph cache (spec §3 GlyphTable).
type Table struct {
	metadata      []byte
	entries       []Entry
	groupCount    uint64
	hashMask      uint64
	sentinelIndex uint32
	probeLimit    uint64
}

// New places a Table for groupCount probe groups (must be a power of two)
// into a, in the spec's mandated order: metadata bytes first, then entries
// including the sentinel. Returns nil if the arena cannot satisfy the
// allocation (spec §7 ArenaExhausted).
func New(a *arena.Arena, groupCount int) *Table {

	if groupCount <= 0 || groupCount&(groupCount-1) != 0 {
		panic("glyphcache: groupCount must be a power of two")
	}

	n := groupCount * GroupWidth

	metadata := arena.PushSlice[byte](a, n)
	entries := arena.PushSlice[Entry](a, n+1)
	if metadata == nil || entries == nil {
		return nil
	}

	for i := range metadata {
		metadata[i] = metaEmpty
	}

	sentinelIndex := uint32(n)
	entries[sentinelIndex].PrevLRU = sentinelIndex
	entries[sentinelIndex].NextLRU = sentinelIndex

	return &Table{
		metadata:      metadata,
		entries:       entries,
		groupCount:    uint64(groupCount),
		hashMask:      uint64(groupCount - 1),
		sentinelIndex: sentinelIndex,
		probeLimit:    uint64(groupCount),
	}
}

// Footprint returns the number of bytes New(groupCount) needs from the
// arena: metadata + entries (sentinel included). Callers sizing a frame
// budget can use this to size their backing buffer.
func Footprint(groupCount int) uintptr {
	n := uintptr(groupCount * GroupWidth)
	return n + (n+1)*unsafe.Sizeof(Entry{})
}

// Result is what FindOrAllocate / the orchestrator operate on: a view into
// one cache slot.
type Result struct {
	ID           uint32
	Fingerprint  fingerprint.Fingerprint
	GlyphIndex   uint16
	Layout       Layout
	Source       Rect
	IsRasterized bool
}

// FindOrAllocate implements spec §4.D's find_or_allocate: it returns the
// slot now bound to fp (creating or evicting one on MISS) and whether it
// was already present (hit=true) or newly (re)claimed (hit=false). Every
// call links (or relinks) the slot as most-recently-used.
func (t *Table) FindOrAllocate(fp fingerprint.Fingerprint) (res Result, hit bool) {

	tag := fp.Tag()
	group := fp.Group(t.hashMask)

	var probe uint64
	for {

		groupStart := int(group) * GroupWidth
		g16 := loadGroup16(t.metadata, groupStart)

		tagMatches := g16.matchAll(tag)
		for lane, ok := nextSetBit(tagMatches, 0); ok; lane, ok = nextSetBit(tagMatches, lane+1) {

			idx := uint32(groupStart + lane)
			if t.entries[idx].Fingerprint.Equal(fp) {
				t.unlinkLRU(idx)
				t.linkMRU(idx)
				return t.resultOf(idx), true
			}
		}

		emptyMatches := g16.matchAll(metaEmpty)
		if lane, ok := nextSetBit(emptyMatches, 0); ok {

			idx := uint32(groupStart + lane)
			t.metadata[idx] = tag
			t.entries[idx] = Entry{Fingerprint: fp}
			t.linkMRU(idx)
			return t.resultOf(idx), false
		}

		probe++
		if probe > t.probeLimit {
			idx := t.evictLRU()
			t.metadata[idx] = tag
			t.entries[idx].Fingerprint = fp
			t.entries[idx].GlyphIndex = 0
			t.entries[idx].Source = Rect{}
			t.entries[idx].Layout = Layout{}
			t.entries[idx].IsRasterized = false
			t.linkMRU(idx)
			return t.resultOf(idx), false
		}

		group = (group + probe*probe) & t.hashMask
	}
}

// Update writes back the rasterization result for a slot previously
// returned by FindOrAllocate, without touching its LRU position (spec
// §4.D).
func (t *Table) Update(id uint32, glyphIndex uint16, layout Layout, source Rect, isRasterized bool) {
	e := &t.entries[id]
	e.GlyphIndex = glyphIndex
	e.Layout = layout
	e.Source = source
	e.IsRasterized = isRasterized
}

func (t *Table) resultOf(idx uint32) Result {
	e := &t.entries[idx]
	return Result{
		ID:           idx,
		Fingerprint:  e.Fingerprint,
		GlyphIndex:   e.GlyphIndex,
		Layout:       e.Layout,
		Source:       e.Source,
		IsRasterized: e.IsRasterized,
	}
}

func (t *Table) unlinkLRU(idx uint32) {
	e := &t.entries[idx]
	prev, next := e.PrevLRU, e.NextLRU
	t.entries[prev].NextLRU = next
	t.entries[next].PrevLRU = prev
}

func (t *Table) linkMRU(idx uint32) {
	sentinel := &t.entries[t.sentinelIndex]
	oldMRU := sentinel.NextLRU

	e := &t.entries[idx]
	e.NextLRU = oldMRU
	e.PrevLRU = t.sentinelIndex

	t.entries[oldMRU].PrevLRU = idx
	sentinel.NextLRU = idx
}

// evictLRU reclaims the least-recently-used occupied slot: its metadata
// byte becomes a tombstone, it is unlinked from the LRU chain, and its
// index is returned for reuse. The caller is responsible for overwriting
// its fingerprint/payload. Per spec §9, the atlas region the evicted entry
// held is not reclaimed in v1.
func (t *Table) evictLRU() uint32 {
	sentinel := &t.entries[t.sentinelIndex]
	lru := sentinel.PrevLRU

	t.metadata[lru] = metaDead
	t.unlinkLRU(lru)

	return lru
}

// MRU returns the slots currently occupied, most-recently-used first,
// exactly as the LRU chain would be walked from the sentinel forward. Used
// by tests to verify P1.
func (t *Table) MRU() []uint32 {

	var out []uint32
	for idx := t.entries[t.sentinelIndex].NextLRU; idx != t.sentinelIndex; idx = t.entries[idx].NextLRU {
		out = append(out, idx)
	}

	return out
}
