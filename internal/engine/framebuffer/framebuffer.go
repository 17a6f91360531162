// Package framebuffer provides OpenGL framebuffer utilities for offscreen rendering.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Framebuffer is an offscreen single-channel float render target. Its color
// texture is sampled directly by later passes.
type Framebuffer struct {
	fbo          uint32
	colorTexture uint32
	width        int32
	height       int32
}

// New creates a new R32F framebuffer with the specified dimensions.
func New(width, height int32) (*Framebuffer, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	fb := &Framebuffer{
		width:  width,
		height: height,
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, fb.width, fb.height, 0, gl.RED, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// BindRegion binds the framebuffer and restricts drawing to a sub-rectangle.
func (fb *Framebuffer) BindRegion(x, y, width, height int32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(x, y, width, height)
	gl.Scissor(x, y, width, height)
}

// ColorTexture returns the color attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Upload replaces the whole color texture with row-major data.
func (fb *Framebuffer) Upload(data []float32) error {
	if len(data) != int(fb.width*fb.height) {
		return fmt.Errorf("upload of %d values into %dx%d framebuffer", len(data), fb.width, fb.height)
	}
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, fb.width, fb.height, gl.RED, gl.FLOAT, gl.Ptr(data))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// ReadFloats reads the color attachment into out, row 0 first.
func (fb *Framebuffer) ReadFloats(out []float32) error {
	if len(out) != int(fb.width*fb.height) {
		return fmt.Errorf("read of %dx%d framebuffer into %d values", fb.width, fb.height, len(out))
	}

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.RED, gl.FLOAT, gl.Ptr(out))

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	return nil
}

// CopyFrom blits src into this framebuffer. Both must have the same size.
func (fb *Framebuffer) CopyFrom(src *Framebuffer) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, fb.fbo)
	gl.BlitFramebuffer(0, 0, src.width, src.height, 0, 0, fb.width, fb.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
}
