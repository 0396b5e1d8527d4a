package utf8table_test

import (
	"testing"
	"unicode/utf8"

	"github.com/bloeys/ntext/utf8table"
)

func Check[T comparable](t *testing.T, expected, got T) {
	t.Helper()
	if got != expected {
		t.Fatalf("Expected %v but got %v\n", expected, got)
	}
}

func TestDecodeASCII(t *testing.T) {
	inc, cp := utf8table.Decode([]byte("A"), 1)
	Check(t, 1, inc)
	Check(t, uint32('A'), cp)
}

func TestDecodeRoundTripsEveryScalarValue(t *testing.T) {

	// P5: decode(encode(cp)) == cp for every valid Unicode scalar value.
	var buf [utf8.UTFMax]byte
	for r := rune(0); r <= 0x10FFFF; r++ {

		if r >= 0xD800 && r <= 0xDFFF {
			continue // surrogates are not valid scalar values
		}

		n := utf8.EncodeRune(buf[:], r)
		inc, cp := utf8table.Decode(buf[:n], n)

		Check(t, n, inc)
		Check(t, uint32(r), cp)
	}
}

func TestDecodeTruncatedSequenceMakesProgress(t *testing.T) {

	// A 3-byte leader with only one byte available.
	inc, cp := utf8table.Decode([]byte{0xE2, 0x82}, 1)
	Check(t, 1, inc)
	Check(t, uint32(utf8table.Sentinel), cp)
}

func TestDecodeBadContinuationByte(t *testing.T) {

	inc, cp := utf8table.Decode([]byte{0xC2, 0x20}, 2)
	Check(t, 1, inc)
	Check(t, uint32(utf8table.Sentinel), cp)
}

func TestDecodeLoneContinuationByte(t *testing.T) {

	inc, cp := utf8table.Decode([]byte{0x80}, 1)
	Check(t, 1, inc)
	Check(t, uint32(utf8table.Sentinel), cp)
}

func TestDecodeAllNeverExceedsByteCount(t *testing.T) {

	in := []byte("h\xffello\xc2world")
	dst := make([]uint32, len(in))
	n := utf8table.DecodeAll(in, dst)

	if n > len(in) {
		t.Fatalf("decoded %d codepoints from %d bytes", n, len(in))
	}
}

func TestDecodeAllEmptyInput(t *testing.T) {
	dst := make([]uint32, 0)
	n := utf8table.DecodeAll(nil, dst)
	Check(t, 0, n)
}
