package tessellation

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	gl43 "github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

const workGroupSize = 64

// Pass owns the edge buffer and fills it every frame, on the GPU when
// compute shaders are available and on the CPU otherwise.
type Pass struct {
	program  uint32
	uniforms *shader.Uniforms
	buffer   uint32
	capacity int

	cpu LevelCache // CPU path only
	log *zap.Logger
}

// NewPass creates the pass. With forceCPU, or when the context does not
// support compute shaders, levels are computed on the CPU and uploaded.
func NewPass(forceCPU bool) (*Pass, error) {
	p := &Pass{log: logger.Named("tessellation")}
	gl.GenBuffers(1, &p.buffer)

	if forceCPU {
		p.log.Info("edge levels computed on CPU", zap.String("reason", "forced"))
		return p, nil
	}
	if err := shader.InitCompute(); err != nil {
		p.log.Warn("edge levels computed on CPU", zap.Error(err))
		return p, nil
	}
	program, err := shader.CompileCompute(shaders.EdgeLevelsComputeShader)
	if err != nil {
		gl.DeleteBuffers(1, &p.buffer)
		return nil, fmt.Errorf("edge level shader: %w", err)
	}
	p.program = program
	p.uniforms = shader.NewUniforms(program)
	p.log.Info("edge levels computed on GPU")
	return p, nil
}

// UsesCompute reports whether levels are produced by the compute shader.
func (p *Pass) UsesCompute() bool {
	return p.program != 0
}

// Buffer returns the edge buffer, bound as a vertex attribute source by the
// terrain draw.
func (p *Pass) Buffer() uint32 {
	return p.buffer
}

// Resize makes room for one record per vertex of g.
func (p *Pass) Resize(g *Grid) {
	n := g.VertexCount()
	if n == p.capacity {
		return
	}
	p.capacity = n
	gl.BindBuffer(gl.ARRAY_BUFFER, p.buffer)
	gl.BufferData(gl.ARRAY_BUFFER, n*RecordSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	p.cpu.Invalidate()
}

// Run fills the edge buffer for the current camera. heightmap is the active
// heightmap texture; the CPU path reads hf instead, which mirrors it.
// When Run returns, the buffer writes are visible to vertex fetch.
func (p *Pass) Run(g *Grid, hf *terrain.Heightfield, heightmap uint32, cam Camera, params Params) {
	p.Resize(g)

	if p.program == 0 {
		if !p.cpu.Update(g, hf, cam, params) {
			return
		}
		records := p.cpu.Records
		gl.BindBuffer(gl.ARRAY_BUFFER, p.buffer)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(records)*RecordSize, gl.Ptr(records))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		return
	}

	u := p.uniforms
	gl43.UseProgram(p.program)
	gl43.BindBufferBase(gl43.SHADER_STORAGE_BUFFER, 0, p.buffer)

	gl43.ActiveTexture(gl43.TEXTURE0)
	gl43.BindTexture(gl43.TEXTURE_2D, heightmap)
	gl43.Uniform1i(u.Loc("uHeightmap"), 0)

	gl43.UniformMatrix4fv(u.Loc("uView"), 1, false, cam.View.Ptr())
	gl43.UniformMatrix4fv(u.Loc("uProjection"), 1, false, cam.Projection.Ptr())
	gl43.Uniform2f(u.Loc("uViewport"), cam.Width, cam.Height)

	gl43.Uniform2i(u.Loc("uGridSize"), int32(g.Columns), int32(g.Rows))
	gl43.Uniform2i(u.Loc("uSampleSize"), int32(hf.Columns), int32(hf.Rows))
	gl43.Uniform1i(u.Loc("uStride"), int32(g.Stride))

	gl43.Uniform3f(u.Loc("uOrigin"), hf.Position.X, hf.Position.Y, hf.Position.Z)
	gl43.Uniform1f(u.Loc("uSpacing"), hf.Spacing)
	gl43.Uniform1f(u.Loc("uMaxHeight"), hf.MaxHeight)

	gl43.Uniform1f(u.Loc("uTargetTrianglePx"), params.TargetTrianglePx)
	gl43.Uniform1f(u.Loc("uScreenTolerance"), params.ScreenTolerance)
	gl43.Uniform1f(u.Loc("uNearScreenTolerance"), params.NearScreenTolerance)
	gl43.Uniform1f(u.Loc("uNearDistance"), params.NearDistance)

	groups := (g.VertexCount() + workGroupSize - 1) / workGroupSize
	gl43.DispatchCompute(uint32(groups), 1, 1)

	// The draw reads the buffer as per-vertex attributes.
	gl43.MemoryBarrier(gl43.VERTEX_ATTRIB_ARRAY_BARRIER_BIT | gl43.SHADER_STORAGE_BARRIER_BIT)
	gl43.BindBufferBase(gl43.SHADER_STORAGE_BUFFER, 0, 0)
	gl43.UseProgram(0)
}

// Destroy releases GPU resources.
func (p *Pass) Destroy() {
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
	if p.buffer != 0 {
		gl.DeleteBuffers(1, &p.buffer)
		p.buffer = 0
	}
}
