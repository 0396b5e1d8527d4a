// Package arena implements the bump-allocator frame-memory discipline that
// every other ntext component allocates out of. Callers own a single
// contiguous []byte; the arena never grows it and never falls back to the
// heap. This mirrors the ring.Buffer idiom in the teacher repo (raw index
// arithmetic over a caller-owned slice) generalized into a scoped allocator.
//
// The C original places the arena header inside the first bytes of the
// region it manages. A Go []byte header carries a pointer, length, and
// capacity that the garbage collector must be able to find, so embedding
// the Arena struct itself inside the byte slice it describes (via
// unsafe.Pointer) would hide that bookkeeping from the GC. Instead Arena is
// an ordinary Go value and headerReserve bytes at the front of buf are left
// permanently unavailable, preserving the "first bytes of the region are
// spoken for" contract without unsafe self-reference.
package arena

import (
	"unsafe"

	"github.com/bloeys/ntext/assert"
)

// headerReserve is the notional size of the arena header, carved out of the
// front of every backing buffer so that Reserved()/Used() accounting lines
// up with the C original's "position starts at sizeof(header)" behavior.
const headerReserve = 16

// Arena is a bump allocator over a single caller-provided region.
type Arena struct {
	buf      []byte
	position uintptr
}

// Region is an opaque save point produced by Save and consumed by Restore.
type Region struct {
	position uintptr
}

// New places an Arena over buf. The returned Arena's usable capacity is
// len(buf) minus the reserved header space.
func New(buf []byte) *Arena {

	assert.T(len(buf) > headerReserve, "arena: backing buffer too small for header")

	return &Arena{
		buf:      buf,
		position: headerReserve,
	}
}

// Reserved returns the total size in bytes of the region backing this arena,
// header included.
func (a *Arena) Reserved() uintptr {
	return uintptr(len(a.buf))
}

// Used returns the number of bytes currently allocated, header included.
func (a *Arena) Used() uintptr {
	return a.position
}

// Push bumps the arena by size bytes aligned to align (which must be a
// power of two) and returns a pointer to the start of the allocation, or
// nil if the arena is exhausted. Push never partially allocates: on
// failure the arena's position is left unchanged.
func (a *Arena) Push(size, align uintptr) unsafe.Pointer {

	assert.T(align != 0 && align&(align-1) == 0, "arena: align must be a power of two")

	if len(a.buf) == 0 {
		return nil
	}

	base := uintptr(unsafe.Pointer(&a.buf[0]))
	aligned := alignUp(base+a.position, align) - base

	newPosition := aligned + size
	if newPosition > uintptr(len(a.buf)) {
		return nil
	}

	a.position = newPosition
	return unsafe.Pointer(&a.buf[aligned])
}

// PushBytes is PushSlice[byte]; the returned slice aliases the arena's
// backing storage and is invalidated by the next Clear.
func (a *Arena) PushBytes(size int) []byte {
	return PushSlice[byte](a, size)
}

// Clear resets the arena to just past its header. Every pointer previously
// returned by Push is invalidated.
func (a *Arena) Clear() {
	a.position = headerReserve
}

// Save captures the current bump position so a later Restore can roll back
// every allocation made since.
func (a *Arena) Save() Region {
	return Region{position: a.position}
}

// Restore rolls the arena back to a previously saved Region. Restores must
// be used in LIFO order relative to the pushes made after the matching
// Save, exactly like the C arena's save/restore discipline.
func (a *Arena) Restore(r Region) {
	assert.T(r.position <= a.position, "arena: restore target is ahead of current position")
	a.position = r.position
}

func alignUp(p, align uintptr) uintptr {
	return (p + align - 1) &^ (align - 1)
}

// PushSlice allocates an array of n T values from the arena, zero-initialized.
func PushSlice[T any](a *Arena, n int) []T {

	if n <= 0 {
		return nil
	}

	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)

	ptr := a.Push(size*uintptr(n), align)
	if ptr == nil {
		return nil
	}

	s := unsafe.Slice((*T)(ptr), n)
	for i := range s {
		s[i] = zero
	}

	return s
}

// PushStruct allocates a single zero-initialized T from the arena.
func PushStruct[T any](a *Arena) *T {

	var zero T
	ptr := a.Push(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if ptr == nil {
		return nil
	}

	v := (*T)(ptr)
	*v = zero
	return v
}
