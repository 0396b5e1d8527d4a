package arena_test

import (
	"testing"
	"unsafe"

	"github.com/bloeys/ntext/arena"
)

func Check[T comparable](t *testing.T, expected, got T) {
	t.Helper()
	if got != expected {
		t.Fatalf("Expected %v but got %v\n", expected, got)
	}
}

func TestPushRespectsAlignment(t *testing.T) {

	buf := make([]byte, 256)
	a := arena.New(buf)

	p1 := a.Push(1, 1)
	if p1 == nil {
		t.Fatal("expected non-nil pointer")
	}

	p8 := a.Push(8, 8)
	if p8 == nil {
		t.Fatal("expected non-nil pointer")
	}

	if uintptr(p8)%8 != 0 {
		t.Fatalf("expected 8-byte alignment, got addr %% 8 = %d", uintptr(p8)%8)
	}
}

func TestPushNeverExceedsReserved(t *testing.T) {

	buf := make([]byte, 64)
	a := arena.New(buf)

	reserved := a.Reserved()

	for i := 0; i < 100; i++ {
		a.Push(7, 1)
		if a.Used() > reserved {
			t.Fatalf("arena position %d exceeded reserved %d", a.Used(), reserved)
		}
	}
}

func TestPushFailsCleanlyOnExhaustion(t *testing.T) {

	buf := make([]byte, 32)
	a := arena.New(buf)

	before := a.Used()
	p := a.Push(1<<20, 1)
	if p != nil {
		t.Fatal("expected nil on exhaustion")
	}

	Check(t, before, a.Used())
}

func TestClearResetsPosition(t *testing.T) {

	buf := make([]byte, 128)
	a := arena.New(buf)

	a.Push(16, 1)
	used := a.Used()
	if used == 0 {
		t.Fatal("expected non-zero usage after push")
	}

	a.Clear()
	if a.Used() >= used {
		t.Fatalf("expected Clear to roll back usage, got %d (was %d)", a.Used(), used)
	}
}

func TestSaveRestoreIsLIFO(t *testing.T) {

	buf := make([]byte, 128)
	a := arena.New(buf)

	a.Push(8, 1)
	region := a.Save()

	a.Push(8, 1)
	a.Push(8, 1)

	a.Restore(region)
	Check(t, region, a.Save())
}

func TestPushStructZeroesMemory(t *testing.T) {

	type payload struct {
		A uint64
		B uint32
	}

	buf := make([]byte, 256)
	a := arena.New(buf)

	p1 := arena.PushStruct[payload](a)
	p1.A = 0xdeadbeef
	p1.B = 0xcafe

	// A fresh allocation over the same reused backing buffer must not see
	// the previous allocation's bytes.
	a2 := arena.New(buf)
	p2 := arena.PushStruct[payload](a2)

	Check(t, uint64(0), p2.A)
	Check(t, uint32(0), p2.B)
}

func TestPushSliceLength(t *testing.T) {

	buf := make([]byte, 4096)
	a := arena.New(buf)

	s := arena.PushSlice[int32](a, 10)
	Check(t, 10, len(s))

	for _, v := range s {
		Check(t, int32(0), v)
	}
}

func TestAlignedPointerUsable(t *testing.T) {

	buf := make([]byte, 64)
	a := arena.New(buf)

	ptr := a.Push(8, 8)
	val := (*uint64)(ptr)
	*val = 42

	Check(t, uint64(42), *(*uint64)(unsafe.Pointer(val)))
}
