// Package texture decodes TGA images for material layers and heightmaps.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed     = 2  // Uncompressed true-color
	TGATypeGray             = 3  // Uncompressed grayscale
	TGATypeRLE              = 10 // RLE compressed true-color
	TGATypeRLEGray          = 11 // RLE compressed grayscale
	tgaHeaderSize           = 18
	tgaDescriptorTopToBotom = 0x20
)

var errTruncated = errors.New("TGA pixel data truncated")

// DecodeTGA decodes a TGA image file.
// True-color images (24/32 bpp) decode to *image.RGBA and grayscale images
// (8 bpp) to *image.Gray, both uncompressed or RLE compressed.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&tgaDescriptorTopToBotom != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	gray := imageType == TGATypeGray || imageType == TGATypeRLEGray
	switch {
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE && !gray:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	case gray && bpp != 8:
		return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d", bpp)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTruncated
	}

	pixels := width * height
	bytesPerPixel := bpp / 8
	var raw []byte
	var err error
	if imageType == TGATypeRLE || imageType == TGATypeRLEGray {
		raw, err = expandRLE(data[offset:], pixels, bytesPerPixel)
		if err != nil {
			return nil, err
		}
	} else {
		raw = data[offset:]
		if len(raw) < pixels*bytesPerPixel {
			return nil, errTruncated
		}
	}

	// Rows are stored bottom-up unless the descriptor says otherwise.
	destRow := func(y int) int {
		if topToBottom {
			return y
		}
		return height - 1 - y
	}

	if gray {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[destRow(y)*img.Stride:destRow(y)*img.Stride+width], raw[y*width:(y+1)*width])
		}
		return img, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		dy := destRow(y)
		for x := 0; x < width; x++ {
			i := (y*width + x) * bytesPerPixel
			a := uint8(255)
			if bytesPerPixel == 4 {
				a = raw[i+3]
			}
			img.SetRGBA(x, dy, color.RGBA{R: raw[i+2], G: raw[i+1], B: raw[i], A: a})
		}
	}
	return img, nil
}

// expandRLE unpacks RLE packets into pixels*bytesPerPixel bytes.
func expandRLE(src []byte, pixels, bytesPerPixel int) ([]byte, error) {
	out := make([]byte, 0, pixels*bytesPerPixel)
	i := 0
	for len(out) < cap(out) {
		if i >= len(src) {
			return nil, errTruncated
		}
		packet := src[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if i+bytesPerPixel > len(src) {
				return nil, errTruncated
			}
			px := src[i : i+bytesPerPixel]
			i += bytesPerPixel
			for n := 0; n < count && len(out) < cap(out); n++ {
				out = append(out, px...)
			}
			continue
		}

		size := count * bytesPerPixel
		if i+size > len(src) {
			return nil, errTruncated
		}
		room := cap(out) - len(out)
		out = append(out, src[i:i+min(size, room)]...)
		i += size
	}
	return out, nil
}
