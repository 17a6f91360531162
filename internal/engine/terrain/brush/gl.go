package brush

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// GLDevice runs the passes as render-to-texture draws on R32F framebuffers.
type GLDevice struct {
	targets map[Target]*framebuffer.Framebuffer
	next    Target

	influence *shader.Uniforms
	tool      *shader.Uniforms
	blur      *shader.Uniforms
	programs  [3]uint32

	instanceVAO uint32
	instanceVBO uint32
	instanceCap int
	emptyVAO    uint32
	packed      []float32
}

// NewGLDevice compiles the brush programs. Requires a current GL context.
func NewGLDevice() (*GLDevice, error) {
	d := &GLDevice{targets: make(map[Target]*framebuffer.Framebuffer), next: 1}

	sources := []shader.Sources{
		{Vertex: shaders.BrushInfluenceVertexShader, Fragment: shaders.BrushInfluenceFragmentShader},
		{Vertex: shaders.FullscreenVertexShader, Fragment: shaders.BrushToolFragmentShader},
		{Vertex: shaders.FullscreenVertexShader, Fragment: shaders.BrushBlurFragmentShader},
	}
	for i, src := range sources {
		program, err := shader.Compile(src)
		if err != nil {
			d.Destroy()
			return nil, fmt.Errorf("brush program %d: %w", i, err)
		}
		d.programs[i] = program
	}
	d.influence = shader.NewUniforms(d.programs[0])
	d.tool = shader.NewUniforms(d.programs[1])
	d.blur = shader.NewUniforms(d.programs[2])

	gl.GenVertexArrays(1, &d.emptyVAO)

	gl.GenVertexArrays(1, &d.instanceVAO)
	gl.GenBuffers(1, &d.instanceVBO)
	gl.BindVertexArray(d.instanceVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, 16, nil)
	gl.VertexAttribDivisor(0, 1)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return d, nil
}

// Destroy releases programs, buffers and every remaining target.
func (d *GLDevice) Destroy() {
	for t := range d.targets {
		d.Release(t)
	}
	for i, p := range d.programs {
		if p != 0 {
			gl.DeleteProgram(p)
			d.programs[i] = 0
		}
	}
	if d.instanceVBO != 0 {
		gl.DeleteBuffers(1, &d.instanceVBO)
		d.instanceVBO = 0
	}
	for _, vao := range []*uint32{&d.instanceVAO, &d.emptyVAO} {
		if *vao != 0 {
			gl.DeleteVertexArrays(1, vao)
			*vao = 0
		}
	}
}

// Texture returns the color texture backing t.
func (d *GLDevice) Texture(t Target) uint32 {
	if fb, ok := d.targets[t]; ok {
		return fb.ColorTexture()
	}
	return 0
}

func (d *GLDevice) NewTarget(width, height int) (Target, error) {
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("%w: %dx%d", ErrTargetSize, width, height)
	}
	fb, err := framebuffer.New(int32(width), int32(height))
	if err != nil {
		return 0, err
	}
	t := d.next
	d.next++
	d.targets[t] = fb
	return t, nil
}

func (d *GLDevice) Release(t Target) {
	if fb, ok := d.targets[t]; ok {
		fb.Destroy()
		delete(d.targets, t)
	}
}

func (d *GLDevice) Upload(t Target, data []float32) error {
	if err := d.targets[t].Upload(data); err != nil {
		return fmt.Errorf("%w: %v", ErrTargetSize, err)
	}
	return nil
}

func (d *GLDevice) ReadBack(t Target, out []float32) error {
	if err := d.targets[t].ReadFloats(out); err != nil {
		return fmt.Errorf("%w: %v", ErrTargetSize, err)
	}
	return nil
}

func (d *GLDevice) Copy(dst, src Target) {
	d.targets[dst].CopyFrom(d.targets[src])
}

// begin binds t with drawing restricted to r.
func (d *GLDevice) begin(t Target, r terrain.Region) {
	d.targets[t].BindRegion(int32(r.Column), int32(r.Row), int32(r.Width), int32(r.Height))
	gl.Enable(gl.SCISSOR_TEST)
	gl.Disable(gl.DEPTH_TEST)
}

func (d *GLDevice) end() {
	gl.Disable(gl.SCISSOR_TEST)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *GLDevice) Clear(t Target, r terrain.Region) {
	d.begin(t, r)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	d.end()
}

func (d *GLDevice) DrawInfluence(mask Target, r terrain.Region, view View, instances []Instance, blend Blend) {
	if len(instances) == 0 {
		return
	}
	d.uploadInstances(instances)

	// Texel centres sit on sample positions, so the region extends half a
	// texel past the first and last sample.
	half := 0.5 * view.Spacing
	left := view.Origin.X + float32(r.Column)*view.Spacing - half
	bottom := view.Origin.Y + float32(r.Row)*view.Spacing - half
	proj := math.Ortho(left, left+float32(r.Width)*view.Spacing, bottom, bottom+float32(r.Height)*view.Spacing, -1, 1)

	d.begin(mask, r)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
	if blend == BlendMax {
		gl.BlendEquation(gl.MAX)
	} else {
		gl.BlendEquation(gl.FUNC_ADD)
	}

	gl.UseProgram(d.programs[0])
	gl.UniformMatrix4fv(d.influence.Loc("uProjection"), 1, false, proj.Ptr())
	gl.BindVertexArray(d.instanceVAO)
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, int32(len(instances)))

	gl.BlendEquation(gl.FUNC_ADD)
	d.end()
}

func (d *GLDevice) uploadInstances(instances []Instance) {
	d.packed = d.packed[:0]
	for _, in := range instances {
		d.packed = append(d.packed, in.Center.X, in.Center.Y, in.Radius, in.Strength)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO)
	if len(instances) > d.instanceCap {
		d.instanceCap = max(len(instances), 2*d.instanceCap)
		gl.BufferData(gl.ARRAY_BUFFER, d.instanceCap*16, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(d.packed)*4, gl.Ptr(d.packed))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *GLDevice) bindSampler(unit uint32, t Target, loc int32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, d.targets[t].ColorTexture())
	gl.Uniform1i(loc, int32(unit))
}

func (d *GLDevice) Apply(dst, base, mask Target, r terrain.Region, tool Tool, target float32) {
	d.begin(dst, r)
	gl.UseProgram(d.programs[1])
	d.bindSampler(0, base, d.tool.Loc("uBase"))
	d.bindSampler(1, mask, d.tool.Loc("uMask"))
	gl.Uniform1i(d.tool.Loc("uTool"), int32(tool))
	gl.Uniform1f(d.tool.Loc("uTarget"), target)

	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	d.end()
}

func (d *GLDevice) Blur(dst, src, mask Target, r terrain.Region, axis Axis, radius int) {
	d.begin(dst, r)
	gl.UseProgram(d.programs[2])
	d.bindSampler(0, src, d.blur.Loc("uSource"))
	d.bindSampler(1, mask, d.blur.Loc("uMask"))
	if axis == Vertical {
		gl.Uniform2i(d.blur.Loc("uAxis"), 0, 1)
	} else {
		gl.Uniform2i(d.blur.Loc("uAxis"), 1, 0)
	}
	gl.Uniform1i(d.blur.Loc("uRadius"), int32(radius))

	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	d.end()
}
