// Package glsink is a concrete AtlasSink (spec §6) built on
// github.com/go-gl/gl, github.com/bloeys/nmage, and github.com/bloeys/gglm
// — the Go-ecosystem analog of the source system's D3D11 renderer. It is
// adapted from the teacher repo's glyphs.GlyphRend: the teacher bakes and
// re-uploads a whole font atlas image on every font change
// (updateFontAtlasTexture); this sink instead owns one persistent GPU
// texture sized to the packer's atlas dimensions and incrementally uploads
// only the tiles a ShapeAndFill call newly rasterized, exactly the update
// list contract spec §6 describes.
package glsink

import (
	"errors"
	"fmt"

	"github.com/bloeys/gglm/gglm"
	"github.com/bloeys/nmage/buffers"
	"github.com/bloeys/nmage/materials"
	"github.com/bloeys/nmage/meshes"
	"github.com/bloeys/ntext/ntext"
	"github.com/go-gl/gl/v4.1-core/gl"
)

const (
	// DefaultGlyphsPerBatch mirrors the teacher's instanced-draw batch
	// size (glyphs.DefaultGlyphsPerBatch).
	DefaultGlyphsPerBatch = 4 * 1024

	// floatsPerGlyph: UV (2) + UVSize (2) + ModelPos (3) + ModelScale (2).
	// The teacher's layout also carries a per-glyph color; this sink tints
	// every glyph uniformly instead (see Material "color" uniform), one
	// fewer instanced attribute to manage for a headless-capable core.
	floatsPerGlyph = 9
)

// AtlasSink owns the GPU-side glyph atlas texture and the instanced quad
// draw pipeline that consumes a ShapedRun.
type AtlasSink struct {
	TexID uint32
	AtlasW, AtlasH int32

	GlyphMesh    *meshes.Mesh
	InstancedBuf buffers.Buffer
	GlyphMat     *materials.Material

	glyphVBO   []float32
	glyphCount uint32

	screenW, screenH int32
}

// NewAtlasSink allocates a blank RGBA atlas texture of atlasW x atlasH and
// the instanced glyph-quad pipeline (adapted from glyphs.NewGlyphRend),
// sized for the given viewport.
func NewAtlasSink(atlasW, atlasH, screenW, screenH int32, shaderPath string) (*AtlasSink, error) {

	s := &AtlasSink{
		AtlasW:   atlasW,
		AtlasH:   atlasH,
		glyphVBO: make([]float32, floatsPerGlyph*DefaultGlyphsPerBatch),
	}

	gl.GenTextures(1, &s.TexID)
	if s.TexID == 0 {
		return nil, errors.New("glsink: failed to create atlas texture")
	}

	gl.BindTexture(gl.TEXTURE_2D, s.TexID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, atlasW, atlasH, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	s.GlyphMesh = &meshes.Mesh{
		Name: "glyphQuad",
		Buf: buffers.NewBuffer(
			buffers.Element{ElementType: buffers.DataTypeVec3},
		),
	}

	// Anchored bottom-left, matching the teacher's glyph quad convention.
	s.GlyphMesh.Buf.SetData([]float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		1, 1, 0,
	})
	s.GlyphMesh.Buf.SetIndexBufData([]uint32{
		0, 1, 2,
		1, 3, 2,
	})

	s.GlyphMat = materials.NewMaterial("ntextGlyphMat", shaderPath)

	s.InstancedBuf = buffers.Buffer{VAOID: s.GlyphMesh.Buf.VAOID}
	gl.GenBuffers(1, &s.InstancedBuf.BufID)
	if s.InstancedBuf.BufID == 0 {
		return nil, errors.New("glsink: failed to create instanced VBO")
	}

	s.InstancedBuf.SetLayout(
		buffers.Element{ElementType: buffers.DataTypeVec2}, // UV0
		buffers.Element{ElementType: buffers.DataTypeVec2}, // UVSize
		buffers.Element{ElementType: buffers.DataTypeVec3}, // ModelPos
		buffers.Element{ElementType: buffers.DataTypeVec2}, // ModelScale
	)

	s.InstancedBuf.Bind()
	gl.BindBuffer(gl.ARRAY_BUFFER, s.InstancedBuf.BufID)
	layout := s.InstancedBuf.GetLayout()

	uvEle := layout[0]
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, uvEle.ElementType.CompCount(), uvEle.ElementType.GLType(), false, s.InstancedBuf.Stride, gl.PtrOffset(uvEle.Offset))
	gl.VertexAttribDivisor(1, 1)

	uvSizeEle := layout[1]
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, uvSizeEle.ElementType.CompCount(), uvSizeEle.ElementType.GLType(), false, s.InstancedBuf.Stride, gl.PtrOffset(uvSizeEle.Offset))
	gl.VertexAttribDivisor(2, 1)

	posEle := layout[2]
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, posEle.ElementType.CompCount(), posEle.ElementType.GLType(), false, s.InstancedBuf.Stride, gl.PtrOffset(posEle.Offset))
	gl.VertexAttribDivisor(3, 1)

	scaleEle := layout[3]
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointer(4, scaleEle.ElementType.CompCount(), scaleEle.ElementType.GLType(), false, s.InstancedBuf.Stride, gl.PtrOffset(scaleEle.Offset))
	gl.VertexAttribDivisor(4, 1)

	gl.BufferData(gl.ARRAY_BUFFER, len(s.glyphVBO)*4, gl.Ptr(&s.glyphVBO[0]), buffers.BufUsage_Dynamic.ToGL())

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	s.InstancedBuf.UnBind()

	// The instanced buf's SetLayout above overwrote attribute 0; restore
	// the mesh's own vertex-position layout.
	s.GlyphMesh.Buf.SetLayout(buffers.Element{ElementType: buffers.DataTypeVec3})

	s.SetScreenSize(screenW, screenH)

	return s, nil
}

// SetScreenSize recomputes the orthographic projection the glyph material
// draws with (adapted from glyphs.GlyphRend.SetScreenSize).
func (s *AtlasSink) SetScreenSize(screenW, screenH int32) {

	s.screenW, s.screenH = screenW, screenH

	projMtx := gglm.Ortho(0, float32(screenW), float32(screenH), 0, 0.1, 20)
	viewMtx := gglm.LookAt(gglm.NewVec3(0, 0, -10), gglm.NewVec3(0, 0, 0), gglm.NewVec3(0, 1, 0))
	projViewMtx := projMtx.Mul(viewMtx)

	s.GlyphMat.SetUnifMat4("projViewMat", &projViewMtx.Mat4)
}

// Upload implements the spec §6 atlas contract: walk the update list and
// write each tile's coverage buffer into the atlas texture at
// (source.Left, source.Top), expanding the single-channel alpha value at
// each pixel to RGBA white-with-alpha, exactly as the teacher's renderer
// treats its baked atlas image.
func (s *AtlasSink) Upload(head *ntext.RasterizedTile) {

	if head == nil {
		return
	}

	gl.BindTexture(gl.TEXTURE_2D, s.TexID)
	defer gl.BindTexture(gl.TEXTURE_2D, 0)

	var scratch []byte
	for tile := head; tile != nil; tile = tile.Next {

		buf := tile.Buffer
		if buf.Data == nil || buf.Width <= 0 || buf.Height <= 0 {
			continue
		}

		n := int(buf.Width) * int(buf.Height) * 4
		if cap(scratch) < n {
			scratch = make([]byte, n)
		}
		scratch = scratch[:n]

		for y := int32(0); y < buf.Height; y++ {
			for x := int32(0); x < buf.Width; x++ {
				a := buf.Data[y*buf.Stride+x]
				o := int(y*buf.Width+x) * 4
				scratch[o+0] = 0xFF
				scratch[o+1] = 0xFF
				scratch[o+2] = 0xFF
				scratch[o+3] = a
			}
		}

		gl.TexSubImage2D(gl.TEXTURE_2D, 0, tile.Source.Left, tile.Source.Top, buf.Width, buf.Height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&scratch[0]))
	}
}

// Draw batches run's shaped glyphs into the instanced VBO and issues draw
// calls, starting at pos (top-left origin, screen pixel space) and tinting
// every glyph with color (adapted from glyphs.GlyphRend.drawRune/Draw).
func (s *AtlasSink) Draw(run ntext.ShapedRun, pos *gglm.Vec3, color *gglm.Vec4) {

	s.GlyphMat.SetUnifVec4("color", color)

	atlasWF32, atlasHF32 := float32(s.AtlasW), float32(s.AtlasH)
	drawPos := pos.Clone()
	bufIndex := s.glyphCount * floatsPerGlyph

	for i := range run.ShapedGlyphs {

		glyph := &run.ShapedGlyphs[i]
		w := float32(glyph.Source.Right - glyph.Source.Left)
		h := float32(glyph.Source.Bottom - glyph.Source.Top)

		if w > 0 && h > 0 {

			s.glyphVBO[bufIndex+0] = float32(glyph.Source.Left) / atlasWF32
			s.glyphVBO[bufIndex+1] = float32(glyph.Source.Top) / atlasHF32
			bufIndex += 2

			s.glyphVBO[bufIndex+0] = w / atlasWF32
			s.glyphVBO[bufIndex+1] = h / atlasHF32
			bufIndex += 2

			s.glyphVBO[bufIndex+0] = drawPos.X() + glyph.Layout.OffsetX
			s.glyphVBO[bufIndex+1] = drawPos.Y() - glyph.Layout.OffsetY
			s.glyphVBO[bufIndex+2] = drawPos.Z()
			bufIndex += 3

			s.glyphVBO[bufIndex+0] = w
			s.glyphVBO[bufIndex+1] = h
			bufIndex += 2

			s.glyphCount++
			if s.glyphCount == DefaultGlyphsPerBatch {
				s.flush()
				bufIndex = 0
			}
		}

		drawPos.AddX(glyph.Layout.Advance)
	}

	s.flush()
}

func (s *AtlasSink) flush() {

	if s.glyphCount == 0 {
		return
	}

	gl.BindVertexArray(s.InstancedBuf.VAOID)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.InstancedBuf.BufID)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, int(s.glyphCount*floatsPerGlyph)*4, gl.Ptr(&s.glyphVBO[:s.glyphCount*floatsPerGlyph][0]))

	gl.BindTexture(gl.TEXTURE_2D, s.TexID)
	s.GlyphMat.Bind()

	gl.Disable(gl.DEPTH_TEST)
	gl.DrawElementsInstanced(gl.TRIANGLES, s.GlyphMesh.Buf.IndexBufCount, gl.UNSIGNED_INT, gl.PtrOffset(0), int32(s.glyphCount))
	gl.Enable(gl.DEPTH_TEST)

	s.glyphCount = 0
}

func (s *AtlasSink) String() string {
	return fmt.Sprintf("AtlasSink{tex=%d, %dx%d}", s.TexID, s.AtlasW, s.AtlasH)
}
