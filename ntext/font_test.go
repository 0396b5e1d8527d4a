package ntext_test

import (
	"testing"

	"github.com/bloeys/ntext/arena"
	"github.com/bloeys/ntext/fontbackend"
	"github.com/bloeys/ntext/ntext"
)

// plainBackend implements fontbackend.Backend but not ntext.SystemFontLocator.
type plainBackend struct{}

func (plainBackend) FindGlyph(uint32, fontbackend.FontHandle) (fontbackend.GlyphMetrics, error) {
	return fontbackend.GlyphMetrics{}, nil
}

func (plainBackend) Rasterize(uint16, fontbackend.FontHandle, *arena.Arena) (fontbackend.RasterBuffer, error) {
	return fontbackend.RasterBuffer{}, nil
}

func TestLoadSystemFontRequiresLocatorCapability(t *testing.T) {

	_, err := ntext.LoadSystemFont("Arial", 16, ntext.FontLoadNone, plainBackend{})
	if err == nil {
		t.Fatal("expected error when backend lacks SystemFontLocator")
	}
}
