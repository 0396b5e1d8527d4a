package ntext

import (
	"encoding/binary"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/scriptrun"
	"github.com/bloeys/ntext/utf8table"
)

// AnalyzeFlags is the bitfield passed to AnalyzeText (spec §6).
type AnalyzeFlags uint8

const (
	FlagNone               AnalyzeFlags = 0
	FlagGenerateWordSlices AnalyzeFlags = 1 << 0
	FlagSkipComplexCheck   AnalyzeFlags = 1 << 1
	// FlagGenerateScriptRuns additionally runs the script-run analyzer
	// (component I) and uses its stronger signal for IsComplex instead of
	// the raw high-bit scan.
	FlagGenerateScriptRuns AnalyzeFlags = 1 << 2
)

// WordSlice marks a maximal run of non-space/tab codepoints (spec §3).
type WordSlice struct {
	Start, Length int
}

// AnalyzedText is the result of AnalyzeText: the decoded codepoint stream
// plus whatever optional metadata the caller's flags requested. Every
// slice here is arena-backed and invalidated by the next ClearArena.
type AnalyzedText struct {
	Codepoints []uint32
	Count      int
	IsComplex  bool
	WordSlices []WordSlice
	ScriptRuns []scriptrun.Run
}

// AnalyzeText decodes text's UTF-8 bytes into the generator's arena and
// triages it per flags (spec §4.G steps 1-3). Returns the zero AnalyzedText
// for an invalid generator, empty input, or arena exhaustion.
func AnalyzeText(text []byte, flags AnalyzeFlags, g *Generator) AnalyzedText {

	if !IsValid(g) || len(text) == 0 {
		return AnalyzedText{}
	}

	codepoints := arena.PushSlice[uint32](g.arena, len(text))
	if codepoints == nil {
		g.logger.Warn("ntext: arena exhausted decoding text", "kind", KindArenaExhausted.String(), "byteLen", len(text))
		return AnalyzedText{}
	}

	count := utf8table.DecodeAll(text, codepoints)
	codepoints = codepoints[:count]

	for _, cp := range codepoints {
		if cp == utf8table.Sentinel {
			g.logger.Debug("ntext: malformed UTF-8 sequence replaced with sentinel", "kind", KindMalformedUTF8.String())
			break
		}
	}

	at := AnalyzedText{Codepoints: codepoints, Count: count}

	switch {
	case flags&FlagGenerateScriptRuns != 0:
		runs, complex := scriptrun.Analyze(codepoints, count)
		at.ScriptRuns = runs
		at.IsComplex = complex
	case flags&FlagSkipComplexCheck == 0:
		at.IsComplex = hasHighBit(text)
	}

	if flags&FlagGenerateWordSlices != 0 {
		at.WordSlices = wordSlices(g.arena, codepoints)
	}

	return at
}

const highBitMask64 = 0x8080808080808080

// hasHighBit is the word-at-a-time version of spec §4.G step 2's "SIMD scan
// raw bytes 16 at a time, OR all bytes with 0x80", scaled to the 64-bit
// lanes a portable Go build can address without intrinsics; the teacher's
// SWAR lane-matching idiom (glyphcache/swar.go) is the same trick applied
// to a different mask.
func hasHighBit(text []byte) bool {

	i := 0
	for ; i+8 <= len(text); i += 8 {
		if binary.LittleEndian.Uint64(text[i:i+8])&highBitMask64 != 0 {
			return true
		}
	}

	for ; i < len(text); i++ {
		if text[i]&0x80 != 0 {
			return true
		}
	}

	return false
}

// wordSlices implements spec §4.G step 3: split codepoints into maximal
// runs separated by ASCII space/tab.
func wordSlices(a *arena.Arena, codepoints []uint32) []WordSlice {

	if len(codepoints) == 0 {
		return nil
	}

	slices := arena.PushSlice[WordSlice](a, len(codepoints))
	if slices == nil {
		return nil
	}

	n := 0
	start := -1

	flush := func(end int) {
		if start >= 0 {
			slices[n] = WordSlice{Start: start, Length: end - start}
			n++
			start = -1
		}
	}

	for i, cp := range codepoints {
		if cp == ' ' || cp == '\t' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(codepoints))

	return slices[:n]
}
