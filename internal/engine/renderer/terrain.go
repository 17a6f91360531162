package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/material"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/tessellation"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Texture units used by the terrain program.
const (
	unitHeightmap = 0
	unitAlbedo    = 1
	unitNormal    = 2
)

// BrushHighlight is the brush outline drawn on the terrain.
type BrushHighlight struct {
	Center math.Vec2 // world XZ
	Radius float32   // 0 hides the outline
	Color  math.Vec3
}

// TerrainFrame is everything one terrain draw reads.
type TerrainFrame struct {
	View       math.Mat4
	Projection math.Mat4
	Heightmap  uint32
	Field      *terrain.Heightfield
	MaxLevel   float32
	Materials  material.Packed
	Arrays     *material.Arrays
	Brush      BrushHighlight
	LightDir   math.Vec3
}

// TerrainMesh draws the patch grid through the tessellation stages. Per
// vertex it reads the grid sample position and the edge record written by
// the tessellation pass.
type TerrainMesh struct {
	program  uint32
	uniforms *shader.Uniforms

	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	edgeBuffer uint32
}

// NewTerrainMesh compiles the terrain program.
func NewTerrainMesh() (*TerrainMesh, error) {
	program, err := shader.Compile(shader.Sources{
		Vertex:      shaders.TerrainVertexShader,
		TessControl: shaders.TerrainTessControlShader,
		TessEval:    shaders.TerrainTessEvalShader,
		Fragment:    shaders.TerrainFragmentShader,
	})
	if err != nil {
		return nil, fmt.Errorf("terrain program: %w", err)
	}

	m := &TerrainMesh{
		program:  program,
		uniforms: shader.NewUniforms(program),
	}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	return m, nil
}

// Build uploads the grid and binds edgeBuffer as the per-vertex edge
// record source.
func (m *TerrainMesh) Build(g *tessellation.Grid, edgeBuffer uint32) {
	vertices := g.Vertices()
	indices := g.Indices()

	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, nil)
	gl.EnableVertexAttribArray(0)

	// Edge records: vec4 levels + uint cull mask, 32-byte stride
	gl.BindBuffer(gl.ARRAY_BUFFER, edgeBuffer)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, tessellation.RecordSize, nil)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribIPointer(2, 1, gl.UNSIGNED_INT, tessellation.RecordSize, gl.PtrOffset(16))
	gl.EnableVertexAttribArray(2)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	m.indexCount = int32(len(indices))
	m.edgeBuffer = edgeBuffer

	logger.Debug("terrain mesh built",
		zap.Int("vertices", g.VertexCount()),
		zap.Int("patches", g.PatchCount()),
	)
}

// Draw issues the terrain draw call. The edge buffer must already hold the
// levels for f's camera.
func (m *TerrainMesh) Draw(f TerrainFrame) {
	if m.indexCount == 0 || f.Field == nil {
		return
	}
	u := m.uniforms
	hf := f.Field

	gl.UseProgram(m.program)

	gl.UniformMatrix4fv(u.Loc("uView"), 1, false, f.View.Ptr())
	gl.UniformMatrix4fv(u.Loc("uProjection"), 1, false, f.Projection.Ptr())
	gl.Uniform1f(u.Loc("uMaxLevel"), f.MaxLevel)

	gl.ActiveTexture(gl.TEXTURE0 + unitHeightmap)
	gl.BindTexture(gl.TEXTURE_2D, f.Heightmap)
	gl.Uniform1i(u.Loc("uHeightmap"), unitHeightmap)
	gl.Uniform2i(u.Loc("uSampleSize"), int32(hf.Columns), int32(hf.Rows))
	gl.Uniform3f(u.Loc("uOrigin"), hf.Position.X, hf.Position.Y, hf.Position.Z)
	gl.Uniform1f(u.Loc("uSpacing"), hf.Spacing)
	gl.Uniform1f(u.Loc("uMaxHeight"), hf.MaxHeight)

	p := f.Materials
	gl.Uniform1i(u.Loc("uLayerCount"), p.Count)
	gl.Uniform4fv(u.Loc("uLayerParams"), material.MaxLayers, &p.Params[0][0])
	gl.Uniform4fv(u.Loc("uLayerRamps"), material.MaxLayers, &p.Ramps[0][0])
	if f.Arrays != nil {
		gl.ActiveTexture(gl.TEXTURE0 + unitAlbedo)
		gl.BindTexture(gl.TEXTURE_2D_ARRAY, f.Arrays.Albedo)
		gl.ActiveTexture(gl.TEXTURE0 + unitNormal)
		gl.BindTexture(gl.TEXTURE_2D_ARRAY, f.Arrays.Normal)
	}
	gl.Uniform1i(u.Loc("uAlbedo"), unitAlbedo)
	gl.Uniform1i(u.Loc("uNormal"), unitNormal)

	gl.Uniform3f(u.Loc("uLightDir"), f.LightDir.X, f.LightDir.Y, f.LightDir.Z)
	gl.Uniform2f(u.Loc("uBrushCenter"), f.Brush.Center.X, f.Brush.Center.Y)
	gl.Uniform1f(u.Loc("uBrushRadius"), f.Brush.Radius)
	gl.Uniform3f(u.Loc("uBrushColor"), f.Brush.Color.X, f.Brush.Color.Y, f.Brush.Color.Z)

	gl.PatchParameteri(gl.PATCH_VERTICES, 4)
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.PATCHES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.UseProgram(0)
}

// Destroy releases GPU resources. The edge buffer belongs to the
// tessellation pass and is left alone.
func (m *TerrainMesh) Destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
		m.vao = 0
	}
	if m.program != 0 {
		gl.DeleteProgram(m.program)
		m.program = 0
	}
}
