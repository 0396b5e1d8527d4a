// Command ntextdemo is a minimal engine.Game that drives the shaping core
// end to end: it loads a system font, shapes a line of text every frame,
// uploads newly-rasterized tiles into an AtlasSink, and draws the result.
// It is adapted from the teacher repo's nterm struct and main(), trimmed
// down to the shaping pipeline this module actually owns (no terminal
// grid, no ANSI parsing, no command execution).
package main

import (
	"fmt"
	"time"

	"github.com/bloeys/gglm/gglm"
	"github.com/bloeys/nmage/engine"
	"github.com/bloeys/nmage/input"
	"github.com/bloeys/nmage/renderer/rend3dgl"
	nmageimgui "github.com/bloeys/nmage/ui/imgui"
	"github.com/bloeys/ntext/consts"
	"github.com/bloeys/ntext/fontbackend"
	"github.com/bloeys/ntext/fontbackend/freetype2"
	"github.com/bloeys/ntext/glsink"
	"github.com/bloeys/ntext/ntext"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	demoFontSize = 32
	demoText     = "The quick brown fox jumps over the lazy dog"

	frameArenaBudget = 1 << 20 // 1 MiB, well above the glyph cache + packer footprint.
	atlasSize        = 1024
)

var _ engine.Game = &demo{}

type demo struct {
	win       *engine.Window
	imguiInfo nmageimgui.ImguiInfo

	backend fontbackend.Backend
	font    fontbackend.FontHandle

	gen  *ntext.Generator
	sink *glsink.AtlasSink

	textPos gglm.Vec3
	color   gglm.Vec4

	frameStartTime time.Time
	maxFps         int
}

func main() {

	err := engine.Init()
	if err != nil {
		panic("Failed to init engine. Err: " + err.Error())
	}

	rend := rend3dgl.NewRend3DGL()
	win, err := engine.CreateOpenGLWindowCentered("ntextdemo", 1280, 720, engine.WindowFlags_ALLOW_HIGHDPI|engine.WindowFlags_RESIZABLE, rend)
	if err != nil {
		panic("Failed to create window. Err: " + err.Error())
	}

	engine.SetVSync(true)

	d := &demo{
		win:       win,
		imguiInfo: nmageimgui.NewImGUI(),
		maxFps:    60,
		color:     *gglm.NewVec4(1, 1, 1, 1),
	}

	d.win.EventCallbacks = append(d.win.EventCallbacks, d.handleSDLEvent)

	engine.Run(d, d.win, d.imguiInfo)
}

func (d *demo) handleSDLEvent(e sdl.Event) {
	if winEvent, ok := e.(*sdl.WindowEvent); ok && winEvent.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
		d.HandleWindowResize()
	}
}

func (d *demo) Init() {

	backend := freetype2.SystemBackend{}
	d.backend = backend

	handle, err := ntext.LoadSystemFont("DejaVuSans", demoFontSize, ntext.FontLoadNone, backend)
	if err != nil {
		panic("Failed to load a system font. Err: " + err.Error())
	}
	d.font = handle

	gen, err := ntext.CreateGenerator(ntext.GeneratorParams{
		TextStorage:       ntext.StorageLazyAtlas,
		FrameMemoryBudget: frameArenaBudget,
		CacheSizeX:        atlasSize,
		CacheSizeY:        atlasSize,
	})
	if err != nil {
		panic("Failed to create generator. Err: " + err.Error())
	}
	d.gen = gen

	w, h := d.win.SDLWin.GetSize()

	sink, err := glsink.NewAtlasSink(atlasSize, atlasSize, w, h, "./res/shaders/glyph.glsl")
	if err != nil {
		panic("Failed to create atlas sink. Err: " + err.Error())
	}
	d.sink = sink

	d.textPos = *gglm.NewVec3(40, 80, 0)
}

func (d *demo) Update() {

	d.frameStartTime = time.Now()

	if input.IsQuitClicked() || input.KeyClicked(sdl.K_ESCAPE) {
		engine.Quit()
	}

	if consts.Mode_Debug {
		d.DebugUpdate()
	}

	d.MainUpdate()
}

func (d *demo) MainUpdate() {

	at := ntext.AnalyzeText([]byte(demoText), ntext.FlagNone, d.gen)
	run := ntext.ShapeAndFill(at, d.gen, d.backend, d.font)

	d.sink.Upload(run.UpdateHead)
	d.sink.Draw(run, &d.textPos, &d.color)

	ntext.ClearArena(d.gen)
}

func (d *demo) DebugUpdate() {
	fmt.Println(d.sink)
}

func (d *demo) FrameEnd() {

	elapsed := time.Since(d.frameStartTime)
	budget := time.Second / time.Duration(d.maxFps)
	if elapsed < budget {
		time.Sleep(budget - elapsed)
	}
}

func (d *demo) DeInit() {
}

func (d *demo) HandleWindowResize() {
	w, h := d.win.SDLWin.GetSize()
	d.sink.SetScreenSize(w, h)
}
