package assets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // material albedo/normal maps
	"image/png"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// Heightmap is a decoded, normalized height grid.
type Heightmap struct {
	Columns int
	Rows    int
	Heights []float32 // row-major, [0,1]
}

// DecodeHeightmap decodes height data by file extension.
// sixteenBit selects full 16-bit precision for grayscale images; otherwise
// samples are reduced to 8 bits. Raw .r16/.raw files must be square and hold
// little-endian 16-bit samples.
func DecodeHeightmap(data []byte, name string, sixteenBit bool) (*Heightmap, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".r16" || ext == ".raw" {
		return decodeRaw16(data)
	}

	img, err := decodeByExt(data, ext)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap %s: %w", name, err)
	}
	return heightmapFromImage(img, sixteenBit), nil
}

// DecodeImage decodes a material texture by file extension.
func DecodeImage(data []byte, name string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpg" || ext == ".jpeg" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return img, nil
	}
	img, err := decodeByExt(data, ext)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

func decodeByExt(data []byte, ext string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch ext {
	case ".png":
		return png.Decode(r)
	case ".tif", ".tiff":
		return tiff.Decode(r)
	case ".bmp":
		return bmp.Decode(r)
	case ".tga":
		return texture.DecodeTGA(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func heightmapFromImage(img image.Image, sixteenBit bool) *Heightmap {
	b := img.Bounds()
	hm := &Heightmap{
		Columns: b.Dx(),
		Rows:    b.Dy(),
		Heights: make([]float32, b.Dx()*b.Dy()),
	}

	for y := 0; y < hm.Rows; y++ {
		for x := 0; x < hm.Columns; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
			var h float32
			if sixteenBit {
				h = float32(g) / math.MaxUint16
			} else {
				h = float32(g>>8) / math.MaxUint8
			}
			hm.Heights[y*hm.Columns+x] = h
		}
	}
	return hm
}

func decodeRaw16(data []byte) (*Heightmap, error) {
	samples := len(data) / 2
	side := int(math.Sqrt(float64(samples)))
	if len(data)%2 != 0 || side < 2 || side*side != samples {
		return nil, fmt.Errorf("%w: raw heightmap of %d bytes is not a square 16-bit grid", ErrUnsupportedFormat, len(data))
	}

	hm := &Heightmap{Columns: side, Rows: side, Heights: make([]float32, samples)}
	for i := range hm.Heights {
		hm.Heights[i] = float32(binary.LittleEndian.Uint16(data[i*2:])) / math.MaxUint16
	}
	return hm, nil
}
