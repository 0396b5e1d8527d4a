// Package fingerprint implements the 128-bit glyph-identity hash from
// spec §4.C: an AES-round mixing hash over (codepoint count, owner key,
// raw codepoint bytes) seeded with a fixed 16-byte constant. Identical
// codepoint sequences under different fonts/sizes must hash to different
// fingerprints, which is why OwnerKey (a pointer-identity binding a font +
// em-size) is folded into the accumulator before any codepoint bytes are
// mixed in.
package fingerprint

import "encoding/binary"

// Seed is the fixed 16-byte mixing constant from spec §4.C.
var Seed = [16]byte{178, 201, 95, 240, 40, 41, 143, 216, 2, 209, 178, 114, 232, 4, 176, 188}

// Fingerprint is the opaque 128-bit cache key. Lo holds the low 64 bits
// used for group/tag extraction (spec §3: group = Lo & hash_mask,
// tag = Lo & 0x3F); equality is bytewise over all 128 bits.
type Fingerprint struct {
	Lo uint64
	Hi uint64
}

// Equal reports whether two fingerprints are bit-identical.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Lo == o.Lo && f.Hi == o.Hi
}

// Tag extracts the 6-bit probe filter from the low bits of the
// fingerprint (spec §3).
func (f Fingerprint) Tag() byte {
	return byte(f.Lo) & 0x3F
}

// Group computes the bucket index for a table with the given hash mask
// (group_count-1, group_count a power of two).
func (f Fingerprint) Group(hashMask uint64) uint64 {
	return f.Lo & hashMask
}

// overhangMask[n] has its first n bytes set to 0xFF and the rest zero, used
// to mask a zero-padded final partial chunk to exactly n meaningful bytes.
var overhangMask = buildOverhangMasks()

func buildOverhangMasks() [16][16]byte {
	var masks [16][16]byte
	for n := 0; n < 16; n++ {
		for i := 0; i < n; i++ {
			masks[n][i] = 0xFF
		}
	}
	return masks
}

// Hash computes the fingerprint of count codepoints starting at
// codepoints[0], bound to ownerKey (a pointer-identity distinguishing the
// font+size this fingerprint is scoped to; pass 0 for none).
func Hash(codepoints []uint32, count int, ownerKey uint64) Fingerprint {

	var acc [16]byte

	combined := ownerKey ^ uint64(count)
	binary.LittleEndian.PutUint64(acc[0:8], combined)
	binary.LittleEndian.PutUint64(acc[8:16], combined)
	for i := range acc {
		acc[i] ^= Seed[i]
	}

	// codepoints are consumed 4 at a time (4 bytes each = one 16-byte
	// chunk) without ever materializing an intermediate byte buffer, so
	// Hash makes zero heap allocations on the per-glyph hot path.
	fullChunks := count / 4
	for c := 0; c < fullChunks; c++ {

		var chunk [16]byte
		for w := 0; w < 4; w++ {
			binary.LittleEndian.PutUint32(chunk[w*4:w*4+4], codepoints[c*4+w])
		}

		for i := 0; i < 16; i++ {
			acc[i] ^= chunk[i]
		}
		for r := 0; r < 4; r++ {
			aesDecRoundZeroKey(&acc)
		}
	}

	if remCodepoints := count - fullChunks*4; remCodepoints > 0 {

		var tail [16]byte
		for w := 0; w < remCodepoints; w++ {
			binary.LittleEndian.PutUint32(tail[w*4:w*4+4], codepoints[fullChunks*4+w])
		}

		remBytes := remCodepoints * 4
		mask := overhangMask[remBytes]
		for i := 0; i < 16; i++ {
			acc[i] ^= tail[i] & mask[i]
		}
		for r := 0; r < 4; r++ {
			aesDecRoundZeroKey(&acc)
		}
	}

	return Fingerprint{
		Lo: binary.LittleEndian.Uint64(acc[0:8]),
		Hi: binary.LittleEndian.Uint64(acc[8:16]),
	}
}

// HashGlyph is the single-codepoint convenience wrapper the simple shaping
// path (spec §4.G step 5) calls once per codepoint.
func HashGlyph(cp uint32, ownerKey uint64) Fingerprint {
	var one [1]uint32
	one[0] = cp
	return Hash(one[:], 1, ownerKey)
}
