// Package skyline implements the "bottom-left-with-tie-break" rectangle
// allocator over a 2D atlas texture from spec §4.E.
package skyline

import "github.com/bloeys/ntext/arena"

// Segment is one horizontal run of the skyline's current top outline: the
// region starting at X (up to the next segment's X, or the packer width
// for the last one) currently sits at height Y.
type Segment struct {
	X, Y int32
}

// Packer is the skyline rectangle allocator (spec §3).
type Packer struct {
	segments []Segment // capacity == width; count tracks the live prefix
	count    int
	width    int32
	height   int32
}

// New places a Packer with the given atlas dimensions into a. Returns nil
// if the arena cannot satisfy the allocation.
func New(a *arena.Arena, width, height int32) *Packer {

	segs := arena.PushSlice[Segment](a, int(width))
	if segs == nil {
		return nil
	}

	segs[0] = Segment{X: 0, Y: 0}

	return &Packer{
		segments: segs,
		count:    1,
		width:    width,
		height:   height,
	}
}

// Width and Height report the packer's fixed atlas dimensions.
func (p *Packer) Width() int32  { return p.width }
func (p *Packer) Height() int32 { return p.height }

// PackedRect is the result of a Pack call (spec §3 PackedRectangle).
type PackedRect struct {
	Width, Height int32
	X, Y          int32
	WasPacked     bool
}

// Pack finds the lowest, then left-most, position that fits a
// width×height rectangle and commits it into the skyline. X, Y in the
// returned PackedRect are the TOP-LEFT corner of the placed rectangle
// (spec §9's pinned convention); callers form
// source = {X, Y, X+width, Y+height}.
func Pack(p *Packer, width, height int32) PackedRect {

	if width <= 0 || height <= 0 {
		return PackedRect{}
	}

	bestFound := false
	var bestI, bestJ int
	var bestX, bestY int32

	for i := 0; i < p.count; i++ {

		segX := p.segments[i].X
		if width > p.width-segX {
			break // no remaining horizontal room fits from here on
		}

		if bestFound && p.segments[i].Y >= bestY {
			continue
		}

		// Effective base-y: the highest segment the placement's span
		// would cover, starting at i.
		y := p.segments[i].Y
		j := i + 1
		for j < p.count && p.segments[j].X < segX+width {
			if p.segments[j].Y > y {
				y = p.segments[j].Y
			}
			j++
		}

		if (!bestFound || y < bestY) && height <= p.height-y {
			bestFound = true
			bestI, bestJ = i, j
			bestX, bestY = segX, y
		}
	}

	if !bestFound {
		return PackedRect{}
	}

	p.commit(bestI, bestJ, bestX, bestY, width, height)

	return PackedRect{
		Width:     width,
		Height:    height,
		X:         bestX,
		Y:         bestY,
		WasPacked: true,
	}
}

// commit replaces segments [i, j) with the new top-left segment at
// (x, y+height) and, when it would be strictly below both the packer
// width and the next surviving segment's X, a new bottom-right segment at
// (x+width, <height of segment j-1, the last one the placement covered>), preserving
// monotonic-x (spec invariant S1).
func (p *Packer) commit(i, j int, x, y, width, height int32) {

	var trailingY int32
	if j > i {
		trailingY = p.segments[j-1].Y
	} else {
		trailingY = y
	}

	newSegs := [2]Segment{{X: x, Y: y + height}}
	newCount := 1

	rightEdge := x + width
	fitsWidth := rightEdge < p.width
	fitsNext := j >= p.count || rightEdge < p.segments[j].X

	if fitsWidth && fitsNext {
		newSegs[1] = Segment{X: rightEdge, Y: trailingY}
		newCount = 2
	}

	tailLen := p.count - j
	shift := newCount - (j - i)

	if shift > 0 {
		// Growing: shift the tail right to make room.
		for k := p.count - 1; k >= j; k-- {
			p.segments[k+shift] = p.segments[k]
		}
	} else if shift < 0 {
		// Shrinking: shift the tail left to close the gap.
		for k := 0; k < tailLen; k++ {
			p.segments[j+shift+k] = p.segments[j+k]
		}
	}

	for k := 0; k < newCount; k++ {
		p.segments[i+k] = newSegs[k]
	}

	p.count += shift
}
