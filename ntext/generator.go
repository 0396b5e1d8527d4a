// Package ntext is the public surface that ties the arena, UTF-8 decoder,
// fingerprint hasher, glyph cache, skyline packer, and font backend into the
// shape-and-fill pipeline (components G and H).
package ntext

import (
	"fmt"
	"log/slog"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/glyphcache"
	"github.com/bloeys/ntext/skyline"
)

// StorageMode selects how the generator resolves cache misses.
type StorageMode uint8

const (
	// StorageNone is the invalid zero value; CreateGenerator rejects it.
	StorageNone StorageMode = iota
	// StorageLazyAtlas packs and rasterizes on demand; the update list
	// carries only newly-rasterized tiles. The only mode v1 implements —
	// eager/static atlas modes remain out of scope.
	StorageLazyAtlas
)

const (
	// DefaultGroupCount is the glyph cache group count used when
	// GeneratorParams.GroupCount is left zero (1024 slots).
	DefaultGroupCount = 64
	// DefaultCacheSize is the atlas dimension used when CacheSizeX/Y are
	// left zero.
	DefaultCacheSize = 1024
)

// GeneratorParams configures CreateGenerator (spec §6 create_generator).
type GeneratorParams struct {
	TextStorage StorageMode

	// FrameMemory is the caller-owned backing buffer for the arena. If nil,
	// FrameMemoryBudget bytes are allocated once at construction (still
	// zero further heap allocations after this point).
	FrameMemory       []byte
	FrameMemoryBudget int

	// GroupCount is the glyph cache's group count (must end up a power of
	// two; zero selects DefaultGroupCount).
	GroupCount int

	CacheSizeX int32
	CacheSizeY int32

	// Logger receives structured events for the error taxonomy in spec §7.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Generator owns the arena, glyph cache, and skyline packer for one
// shaping pipeline. Zero value is invalid; construct with CreateGenerator.
type Generator struct {
	valid bool

	arena  *arena.Arena
	table  *glyphcache.Table
	packer *skyline.Packer
	logger *slog.Logger

	// persistentMark is the arena position just after the cache and packer
	// are placed. ClearArena restores to this mark instead of the arena's
	// true zero position, so the cache and packer outlive per-call memory
	// the way spec §3's "Lifecycles" note requires.
	persistentMark arena.Region
}

// CreateGenerator validates params and constructs a Generator, placing the
// glyph cache and skyline packer into the frame arena (spec §4.H). On
// invalid params it returns a non-nil, !IsValid generator alongside an
// error — every method on it is then a no-op, matching spec §7's
// "surfaced as an invalid generator" contract.
func CreateGenerator(p GeneratorParams) (*Generator, error) {

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p.TextStorage == StorageNone {
		return invalidGenerator(logger), fmt.Errorf("ntext: %w: text storage mode is StorageNone", ErrInvalidGeneratorParams)
	}

	mem := p.FrameMemory
	if mem == nil {
		if p.FrameMemoryBudget <= 0 {
			return invalidGenerator(logger), fmt.Errorf("ntext: %w: zero frame memory budget", ErrInvalidGeneratorParams)
		}
		mem = make([]byte, p.FrameMemoryBudget)
	}
	if len(mem) == 0 {
		return invalidGenerator(logger), fmt.Errorf("ntext: %w: empty frame memory", ErrInvalidGeneratorParams)
	}

	a := arena.New(mem)

	groupCount := p.GroupCount
	if groupCount == 0 {
		groupCount = DefaultGroupCount
	}
	if groupCount < 0 || groupCount&(groupCount-1) != 0 {
		return invalidGenerator(logger), fmt.Errorf("ntext: %w: group count %d is not a power of two", ErrInvalidGeneratorParams, groupCount)
	}

	table := glyphcache.New(a, groupCount)
	if table == nil {
		logger.Warn("ntext: arena exhausted placing glyph cache", "kind", KindArenaExhausted.String())
		return invalidGenerator(logger), fmt.Errorf("ntext: %w: frame memory too small for glyph cache", ErrArenaExhausted)
	}

	cacheX, cacheY := p.CacheSizeX, p.CacheSizeY
	if cacheX == 0 {
		cacheX = DefaultCacheSize
	}
	if cacheY == 0 {
		cacheY = DefaultCacheSize
	}

	packer := skyline.New(a, cacheX, cacheY)
	if packer == nil {
		logger.Warn("ntext: arena exhausted placing skyline packer", "kind", KindArenaExhausted.String())
		return invalidGenerator(logger), fmt.Errorf("ntext: %w: frame memory too small for skyline packer", ErrArenaExhausted)
	}

	return &Generator{
		valid:          true,
		arena:          a,
		table:          table,
		packer:         packer,
		logger:         logger,
		persistentMark: a.Save(),
	}, nil
}

func invalidGenerator(logger *slog.Logger) *Generator {
	return &Generator{valid: false, logger: logger}
}

// IsValid reports whether g was constructed successfully and is safe to use
// (spec §6 is_valid). Safe to call on a nil Generator.
func IsValid(g *Generator) bool {
	return g != nil && g.valid
}

// ClearArena rolls the frame arena back to just past the glyph cache and
// skyline packer, invalidating every AnalyzedText/ShapedRun allocated since
// the generator was constructed or last cleared. Callers typically do this
// once per frame, after uploading the prior call's update list to the GPU.
func ClearArena(g *Generator) {
	if !IsValid(g) {
		return
	}
	g.arena.Restore(g.persistentMark)
}
