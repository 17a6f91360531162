package material

import (
	"image"
	"image/draw"

	"github.com/go-gl/gl/v4.1-core/gl"
	xdraw "golang.org/x/image/draw"
)

// ArraySize is the edge length every layer texture is scaled to.
const ArraySize = 512

// Fit scales img to size×size RGBA.
func Fit(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if img.Bounds().Dx() == size && img.Bounds().Dy() == size {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Arrays are the GL texture arrays sampled by the terrain shader.
type Arrays struct {
	Albedo uint32
	Normal uint32
}

// Upload rebuilds the texture arrays from p. Empty lists leave a
// single-layer placeholder so the samplers stay complete.
func (a *Arrays) Upload(p Packed) {
	if a.Albedo == 0 {
		gl.GenTextures(1, &a.Albedo)
		gl.GenTextures(1, &a.Normal)
	}
	uploadArray(a.Albedo, p.Albedos, [4]byte{128, 128, 128, 255})
	uploadArray(a.Normal, p.Normals, [4]byte{128, 128, 255, 255})
}

func uploadArray(tex uint32, images []image.Image, fill [4]byte) {
	layers := max(len(images), 1)

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, tex)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.RGBA8, ArraySize, ArraySize, int32(layers), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	if len(images) == 0 {
		pix := make([]byte, ArraySize*ArraySize*4)
		for i := 0; i < len(pix); i += 4 {
			copy(pix[i:i+4], fill[:])
		}
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, 0, ArraySize, ArraySize, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	}
	for i, img := range images {
		rgba := Fit(img, ArraySize)
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, int32(i), ArraySize, ArraySize, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	}

	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.GenerateMipmap(gl.TEXTURE_2D_ARRAY)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

// Destroy releases the arrays.
func (a *Arrays) Destroy() {
	if a.Albedo != 0 {
		gl.DeleteTextures(1, &a.Albedo)
		gl.DeleteTextures(1, &a.Normal)
		a.Albedo, a.Normal = 0, 0
	}
}
