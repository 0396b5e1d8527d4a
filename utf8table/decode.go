// Package utf8table implements the byte-class-table UTF-8 decoder from
// spec §4.B: a 32-entry table keyed by byte>>3 classifies each leading
// byte, and malformed sequences decode to a replacement sentinel while
// always making forward progress. This is deliberately not
// unicode/utf8.DecodeRune: that stdlib decoder does not expose the
// specific "increment=1, codepoint=sentinel" recovery behavior the spec
// mandates for malformed input (see DESIGN.md).
package utf8table

// Sentinel is returned as the codepoint for any malformed byte sequence.
const Sentinel = 0xFFFFFFFF

type class uint8

const (
	classContinuation class = iota
	classASCII
	class2Byte
	class3Byte
	class4Byte
	classInvalid
)

// byteClass is keyed by byte>>3, giving 32 entries covering the 256 leading
// byte patterns at 3-bit granularity, exactly as spec §4.B describes.
var byteClass = [32]class{
	0x00 >> 3: classASCII, 0x08 >> 3: classASCII, 0x10 >> 3: classASCII, 0x18 >> 3: classASCII,
	0x20 >> 3: classASCII, 0x28 >> 3: classASCII, 0x30 >> 3: classASCII, 0x38 >> 3: classASCII,
	0x40 >> 3: classASCII, 0x48 >> 3: classASCII, 0x50 >> 3: classASCII, 0x58 >> 3: classASCII,
	0x60 >> 3: classASCII, 0x68 >> 3: classASCII, 0x70 >> 3: classASCII, 0x78 >> 3: classASCII,

	0x80 >> 3: classContinuation, 0x88 >> 3: classContinuation,
	0x90 >> 3: classContinuation, 0x98 >> 3: classContinuation,
	0xA0 >> 3: classContinuation, 0xA8 >> 3: classContinuation,
	0xB0 >> 3: classContinuation, 0xB8 >> 3: classContinuation,

	0xC0 >> 3: class2Byte, 0xC8 >> 3: class2Byte,
	0xD0 >> 3: class2Byte, 0xD8 >> 3: class2Byte,

	0xE0 >> 3: class3Byte, 0xE8 >> 3: class3Byte,

	0xF0 >> 3: class4Byte,
	0xF8 >> 3: classInvalid,
}

func classify(b byte) class {
	return byteClass[b>>3]
}

func isContinuation(b byte) bool {
	return classify(b) == classContinuation
}

// Decode reads one codepoint starting at bytes[0], looking at up to max
// bytes of lookahead. It returns the number of bytes consumed (always ≥1,
// so callers always make progress) and the decoded codepoint, or
// (1, Sentinel) for any malformed sequence: truncated input, an
// out-of-range leading byte, or a bad continuation byte.
func Decode(bytes []byte, max int) (increment int, codepoint uint32) {

	if max <= 0 || len(bytes) == 0 {
		return 1, Sentinel
	}

	if max > len(bytes) {
		max = len(bytes)
	}

	lead := bytes[0]
	switch classify(lead) {

	case classASCII:
		return 1, uint32(lead)

	case class2Byte:
		if max < 2 || !isContinuation(bytes[1]) {
			return 1, Sentinel
		}
		cp := uint32(lead&0x1F)<<6 | uint32(bytes[1]&0x3F)
		if cp < 0x80 {
			return 1, Sentinel
		}
		return 2, cp

	case class3Byte:
		if max < 3 || !isContinuation(bytes[1]) || !isContinuation(bytes[2]) {
			return 1, Sentinel
		}
		cp := uint32(lead&0x0F)<<12 | uint32(bytes[1]&0x3F)<<6 | uint32(bytes[2]&0x3F)
		if cp < 0x800 || (cp >= 0xD800 && cp <= 0xDFFF) {
			return 1, Sentinel
		}
		return 3, cp

	case class4Byte:
		if max < 4 || !isContinuation(bytes[1]) || !isContinuation(bytes[2]) || !isContinuation(bytes[3]) {
			return 1, Sentinel
		}
		cp := uint32(lead&0x07)<<18 | uint32(bytes[1]&0x3F)<<12 | uint32(bytes[2]&0x3F)<<6 | uint32(bytes[3]&0x3F)
		if cp < 0x10000 || cp > 0x10FFFF {
			return 1, Sentinel
		}
		return 4, cp

	default: // classContinuation, classInvalid
		return 1, Sentinel
	}
}

// DecodeAll decodes every codepoint in bytes into dst, returning the number
// of codepoints written. len(dst) must be ≥ len(bytes); the codepoint
// stream can never be longer than the input byte count.
func DecodeAll(bytes []byte, dst []uint32) int {

	count := 0
	for i := 0; i < len(bytes); {
		inc, cp := Decode(bytes[i:], len(bytes)-i)
		dst[count] = cp
		count++
		i += inc
	}

	return count
}
