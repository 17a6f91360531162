package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func gray16Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 0x8000})
	img.SetGray16(2, 0, color.Gray16{Y: 0xFFFF})
	img.SetGray16(0, 1, color.Gray16{Y: 0x0101})
	img.SetGray16(1, 1, color.Gray16{Y: 0x1234})
	img.SetGray16(2, 1, color.Gray16{Y: 0xFF00})
	return img
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestDecodeHeightmapPNG16(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray16Image()); err != nil {
		t.Fatal(err)
	}

	hm, err := DecodeHeightmap(buf.Bytes(), "terrain.PNG", true)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if hm.Columns != 3 || hm.Rows != 2 {
		t.Fatalf("size = %dx%d, want 3x2", hm.Columns, hm.Rows)
	}
	if !approx(hm.Heights[2], 1) || hm.Heights[0] != 0 {
		t.Errorf("extremes = %v, %v", hm.Heights[0], hm.Heights[2])
	}
	if !approx(hm.Heights[4], float32(0x1234)/65535) {
		t.Errorf("Heights[4] = %v, want full 16-bit precision", hm.Heights[4])
	}
}

func TestDecodeHeightmapEightBit(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray16Image()); err != nil {
		t.Fatal(err)
	}

	hm, err := DecodeHeightmap(buf.Bytes(), "terrain.png", false)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if !approx(hm.Heights[4], float32(0x12)/255) {
		t.Errorf("Heights[4] = %v, want %v", hm.Heights[4], float32(0x12)/255)
	}
}

func TestDecodeHeightmapTIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, gray16Image(), nil); err != nil {
		t.Fatal(err)
	}

	hm, err := DecodeHeightmap(buf.Bytes(), "terrain.tif", true)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if !approx(hm.Heights[1], float32(0x8000)/65535) {
		t.Errorf("Heights[1] = %v", hm.Heights[1])
	}
}

func TestDecodeHeightmapBMP(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []uint8{0, 51, 102, 255}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	hm, err := DecodeHeightmap(buf.Bytes(), "terrain.bmp", false)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	want := []float32{0, 0.2, 0.4, 1}
	for i, w := range want {
		if !approx(hm.Heights[i], w) {
			t.Errorf("Heights[%d] = %v, want %v", i, hm.Heights[i], w)
		}
	}
}

func TestDecodeHeightmapTGA(t *testing.T) {
	// 2x1 uncompressed grayscale, top-down.
	data := make([]byte, 18, 20)
	data[2] = 3
	data[12] = 2
	data[14] = 1
	data[16] = 8
	data[17] = 0x20
	data = append(data, 0, 255)

	hm, err := DecodeHeightmap(data, "terrain.tga", false)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if hm.Heights[0] != 0 || !approx(hm.Heights[1], 1) {
		t.Errorf("Heights = %v", hm.Heights)
	}
}

func TestDecodeHeightmapRaw(t *testing.T) {
	data := make([]byte, 8)
	for i, v := range []uint16{0, 1000, 0x8000, 0xFFFF} {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}

	hm, err := DecodeHeightmap(data, "terrain.r16", true)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if hm.Columns != 2 || hm.Rows != 2 {
		t.Fatalf("size = %dx%d, want 2x2", hm.Columns, hm.Rows)
	}
	if !approx(hm.Heights[1], 1000.0/65535) || !approx(hm.Heights[3], 1) {
		t.Errorf("Heights = %v", hm.Heights)
	}
}

func TestDecodeHeightmapErrors(t *testing.T) {
	if _, err := DecodeHeightmap([]byte("abc"), "terrain.exr", true); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unknown extension = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := DecodeHeightmap(make([]byte, 6), "terrain.raw", true); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("non-square raw = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := DecodeHeightmap([]byte("not a png"), "terrain.png", true); err == nil {
		t.Error("corrupt png: expected error")
	}
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeImage(buf.Bytes(), "grass.png")
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d, want 4", img.Bounds().Dx())
	}

	if _, err := DecodeImage(buf.Bytes(), "grass.dds"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DecodeImage dds = %v, want ErrUnsupportedFormat", err)
	}
}
