package glyphcache_test

import (
	"testing"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/fingerprint"
	"github.com/bloeys/ntext/glyphcache"
)

func Check[T comparable](t *testing.T, expected, got T) {
	t.Helper()
	if got != expected {
		t.Fatalf("Expected %v but got %v\n", expected, got)
	}
}

func newTable(t *testing.T, groupCount int) *glyphcache.Table {
	t.Helper()

	footprint := glyphcache.Footprint(groupCount)
	buf := make([]byte, footprint+64)
	a := arena.New(buf)

	tbl := glyphcache.New(a, groupCount)
	if tbl == nil {
		t.Fatal("expected non-nil table")
	}
	return tbl
}

func TestFindOrAllocateMissThenHit(t *testing.T) {

	tbl := newTable(t, 4)
	fp := fingerprint.HashGlyph('a', 0)

	res1, hit1 := tbl.FindOrAllocate(fp)
	Check(t, false, hit1)

	res2, hit2 := tbl.FindOrAllocate(fp)
	Check(t, true, hit2)
	Check(t, res1.ID, res2.ID)
}

func TestMRUOrderAfterThreeDistinctInserts(t *testing.T) {

	// Scenario 3: 'a','b','c' -> LRU order after is c, b, a (MRU->LRU).
	tbl := newTable(t, 4)

	fpA := fingerprint.HashGlyph('a', 0)
	fpB := fingerprint.HashGlyph('b', 0)
	fpC := fingerprint.HashGlyph('c', 0)

	resA, _ := tbl.FindOrAllocate(fpA)
	resB, _ := tbl.FindOrAllocate(fpB)
	resC, _ := tbl.FindOrAllocate(fpC)

	mru := tbl.MRU()
	if len(mru) != 3 {
		t.Fatalf("expected 3 occupied slots, got %d", len(mru))
	}

	Check(t, resC.ID, mru[0])
	Check(t, resB.ID, mru[1])
	Check(t, resA.ID, mru[2])
}

func TestRepeatedLookupRelinksAsMRUWithoutDuplicating(t *testing.T) {

	// Scenario 4: "aaaa" -> one cache entry, repeated lookups keep it MRU.
	tbl := newTable(t, 4)

	fpA := fingerprint.HashGlyph('a', 0)
	fpB := fingerprint.HashGlyph('b', 0)

	resA1, _ := tbl.FindOrAllocate(fpA)
	tbl.FindOrAllocate(fpB)
	resA2, hit := tbl.FindOrAllocate(fpA)

	Check(t, true, hit)
	Check(t, resA1.ID, resA2.ID)

	mru := tbl.MRU()
	Check(t, 2, len(mru))
	Check(t, resA1.ID, mru[0]) // 'a' was just re-touched, so it's MRU again
}

func TestFindOrAllocateIsIdempotentAcrossManyKeys(t *testing.T) {

	// P2: identity is stable until eviction forces reassignment.
	tbl := newTable(t, 8)

	ids := map[rune]uint32{}
	runes := []rune("the quick brown fox jumps")

	for _, r := range runes {
		fp := fingerprint.HashGlyph(uint32(r), 0)
		res, _ := tbl.FindOrAllocate(fp)
		if existing, ok := ids[r]; ok {
			Check(t, existing, res.ID)
		} else {
			ids[r] = res.ID
		}
	}
}

func TestUpdateDoesNotChangeLRUPosition(t *testing.T) {

	tbl := newTable(t, 4)

	fpA := fingerprint.HashGlyph('a', 0)
	fpB := fingerprint.HashGlyph('b', 0)

	resA, _ := tbl.FindOrAllocate(fpA)
	tbl.FindOrAllocate(fpB)

	before := tbl.MRU()

	tbl.Update(resA.ID, 7, glyphcache.Layout{Advance: 1}, glyphcache.Rect{Right: 1, Bottom: 1}, true)

	after := tbl.MRU()
	Check(t, len(before), len(after))
	for i := range before {
		Check(t, before[i], after[i])
	}
}

func TestEvictionReclaimsLRUSlotWhenTableFull(t *testing.T) {

	// Smallest legal table: 1 group = 16 slots, forces eviction once full.
	tbl := newTable(t, 1)

	var first uint32
	for i := 0; i < 16; i++ {
		fp := fingerprint.HashGlyph(uint32('a'+i), 0)
		res, hit := tbl.FindOrAllocate(fp)
		if hit {
			t.Fatalf("unexpected hit while filling table at i=%d", i)
		}
		if i == 0 {
			first = res.ID
		}
	}

	if len(tbl.MRU()) != 16 {
		t.Fatalf("expected 16 occupied slots, got %d", len(tbl.MRU()))
	}

	// One more distinct key must evict the LRU entry (the first inserted,
	// now untouched and at the tail of the chain).
	overflowFp := fingerprint.HashGlyph('Z', 0)
	res, hit := tbl.FindOrAllocate(overflowFp)
	Check(t, false, hit)
	Check(t, first, res.ID)
}
