// Package scriptrun splits a decoded codepoint stream into runs of a
// single script plus a directionality flag, and reports whether the text
// needs complex shaping. This is a supplement spec.md does not itself ask
// for: it strengthens AnalyzeText's is_complex signal beyond the bare
// "any byte >= 0x80" scan, and gives callers enough to do word-wrap across
// script boundaries without this core performing any bidi reordering or
// OpenType feature application, both of which remain out of scope.
//
// The teacher repo (glyphs/unicode.go, glyphs.GetTextRuns) does the same
// run-splitting and directionality classification, but sources its
// category/bidi/joining data from a hand-parsed copy of the Unicode
// Character Database shipped alongside the binary. That data file is not
// part of this module, so the same split-by-script, fold-trailing-commons
// algorithm is re-grounded here on the Unicode range tables the standard
// library already ships (unicode.Scripts), which covers the same
// categories of information without an external data dependency.
package scriptrun

import "unicode"

// Script identifies the Unicode script a codepoint belongs to, collapsed
// to the handful of scripts this package distinguishes.
type Script uint8

const (
	ScriptCommon Script = iota
	ScriptLatin
	ScriptGreek
	ScriptCyrillic
	ScriptArabic
	ScriptHebrew
	ScriptHan
	ScriptHiragana
	ScriptKatakana
	ScriptOther
)

var scriptTables = []struct {
	script Script
	table  *unicode.RangeTable
}{
	{ScriptLatin, unicode.Latin},
	{ScriptGreek, unicode.Greek},
	{ScriptCyrillic, unicode.Cyrillic},
	{ScriptArabic, unicode.Arabic},
	{ScriptHebrew, unicode.Hebrew},
	{ScriptHan, unicode.Han},
	{ScriptHiragana, unicode.Hiragana},
	{ScriptKatakana, unicode.Katakana},
}

// ClassifyRune reports the Script a single codepoint belongs to.
func ClassifyRune(r rune) Script {

	if unicode.Is(unicode.Common, r) || unicode.Is(unicode.Inherited, r) {
		return ScriptCommon
	}

	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.script
		}
	}

	return ScriptOther
}

// IsRTL reports whether text in this script runs right-to-left.
func IsRTL(s Script) bool {
	return s == ScriptArabic || s == ScriptHebrew
}

// needsContextualShaping reports whether a rune participates in
// position-dependent glyph selection (Arabic-style joining); this core
// does not implement that shaping, but uses it to widen the is_complex
// signal.
func needsContextualShaping(r rune) bool {
	return unicode.Is(unicode.Arabic, r) && !unicode.Is(unicode.Common, r)
}

// Run is one maximal same-script span of the codepoint stream (spec
// ScriptRun in SPEC_FULL.md §3).
type Run struct {
	CodepointStart int
	CodepointCount int
	Script         Script
	IsRTL          bool
}

// Analyze splits codepoints[:count] into script runs the same way the
// teacher's GetTextRuns does: a run continues through ScriptCommon
// codepoints, but trailing Common codepoints at a script boundary are
// peeled off into their own run so punctuation/space doesn't inherit the
// wrong script. It also reports whether the text should be treated as
// complex: more than one non-Common script present, or any rune needing
// Arabic-style contextual shaping.
func Analyze(codepoints []uint32, count int) (runs []Run, isComplex bool) {

	if count == 0 {
		return nil, false
	}

	scriptOf := make([]Script, count)
	var distinctScripts [ScriptOther + 1]bool
	distinctCount := 0

	for i := 0; i < count; i++ {
		r := rune(codepoints[i])
		scriptOf[i] = ClassifyRune(r)

		if needsContextualShaping(r) {
			isComplex = true
		}
		if s := scriptOf[i]; s != ScriptCommon && !distinctScripts[s] {
			distinctScripts[s] = true
			distinctCount++
		}
	}

	if distinctCount > 1 {
		isComplex = true
	}

	currScript := scriptOf[0]
	runStart := 0

	flush := func(end int) {

		if end <= runStart {
			return
		}

		// Peel off trailing Common codepoints into their own run, unless
		// the whole span is Common (e.g. leading whitespace).
		trailing := 0
		for k := end - 1; k >= runStart && scriptOf[k] == ScriptCommon; k-- {
			trailing++
		}

		if trailing == 0 || trailing == end-runStart {
			runs = append(runs, newRun(runStart, end-runStart, resolveScript(scriptOf[runStart:end])))
			return
		}

		runs = append(runs, newRun(runStart, end-runStart-trailing, resolveScript(scriptOf[runStart:end-trailing])))
		runs = append(runs, newRun(end-trailing, trailing, ScriptCommon))
	}

	for i := 1; i < count; i++ {

		s := scriptOf[i]
		if s == currScript || s == ScriptCommon {
			continue
		}

		flush(i)
		runStart = i
		currScript = s
	}

	flush(count)

	return runs, isComplex
}

func newRun(start, length int, script Script) Run {
	return Run{
		CodepointStart: start,
		CodepointCount: length,
		Script:         script,
		IsRTL:          IsRTL(script),
	}
}

// resolveScript picks the first non-Common script in a span, defaulting to
// Common when the whole span is Common.
func resolveScript(scripts []Script) Script {
	for _, s := range scripts {
		if s != ScriptCommon {
			return s
		}
	}
	return ScriptCommon
}
