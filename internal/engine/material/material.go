// Package material manages the terrain shading layers.
//
// Layer 0 is the base and always covers the terrain. Every further layer is
// blended over the layers below it by slope and altitude ramps. Layers whose
// textures have not loaded are left out of shading until they arrive.
package material

import (
	"fmt"
	"image"

	"github.com/Faultbox/midgard-terrain/internal/config"
)

// MaxLayers is the size of the layer arrays in the terrain shader.
const MaxLayers = config.MaxMaterialLayers

// Layer is one shading layer and its loaded textures.
type Layer struct {
	Name             string
	AlbedoPath       string
	NormalPath       string
	TextureSizeWorld float32
	SlopeRamp        [2]float32
	AltitudeRamp     [2]float32

	Albedo image.Image
	Normal image.Image
}

// Present reports whether the layer can be shaded.
func (l *Layer) Present() bool {
	return l.Albedo != nil
}

// Table holds every configured layer.
type Table struct {
	layers []Layer
	dirty  bool
}

// NewTable builds the table from configuration.
func NewTable(cfg []config.MaterialLayer) (*Table, error) {
	if len(cfg) > MaxLayers {
		return nil, fmt.Errorf("%d material layers exceeds maximum of %d", len(cfg), MaxLayers)
	}
	t := &Table{layers: make([]Layer, len(cfg))}
	for i, c := range cfg {
		t.layers[i] = Layer{
			Name:             c.Name,
			AlbedoPath:       c.Albedo,
			NormalPath:       c.Normal,
			TextureSizeWorld: c.TextureSizeWorld,
			SlopeRamp:        c.SlopeRamp,
			AltitudeRamp:     c.AltitudeRamp,
		}
		if i == 0 {
			t.layers[i].SlopeRamp = [2]float32{}
			t.layers[i].AltitudeRamp = [2]float32{}
		}
	}
	return t, nil
}

// Len returns the number of configured layers.
func (t *Table) Len() int {
	return len(t.layers)
}

// Layer returns layer i.
func (t *Table) Layer(i int) *Layer {
	return &t.layers[i]
}

// SetAlbedo stores the loaded albedo of layer i.
func (t *Table) SetAlbedo(i int, img image.Image) {
	t.layers[i].Albedo = img
	t.dirty = true
}

// SetNormal stores the loaded normal map of layer i.
func (t *Table) SetNormal(i int, img image.Image) {
	t.layers[i].Normal = img
	t.dirty = true
}

// Dirty reports whether textures changed since the last ClearDirty.
func (t *Table) Dirty() bool {
	return t.dirty
}

// ClearDirty marks the current textures as uploaded.
func (t *Table) ClearDirty() {
	t.dirty = false
}

// Packed is the shader-side view of the present layers, in layer order.
type Packed struct {
	Count int32
	// Per layer: texture size in world units, albedo index, normal index
	// (-1 when absent), unused.
	Params [MaxLayers][4]float32
	// Per layer: slope ramp low/high, altitude ramp low/high. A zero-width
	// ramp means full coverage.
	Ramps [MaxLayers][4]float32

	Albedos []image.Image
	Normals []image.Image
}

// Pack collects the present layers and assigns texture array indices.
func (t *Table) Pack() Packed {
	var p Packed
	for i := range t.layers {
		l := &t.layers[i]
		if !l.Present() {
			continue
		}
		normal := float32(-1)
		if l.Normal != nil {
			normal = float32(len(p.Normals))
			p.Normals = append(p.Normals, l.Normal)
		}
		p.Params[p.Count] = [4]float32{l.TextureSizeWorld, float32(len(p.Albedos)), normal, 0}
		p.Ramps[p.Count] = [4]float32{l.SlopeRamp[0], l.SlopeRamp[1], l.AltitudeRamp[0], l.AltitudeRamp[1]}
		p.Albedos = append(p.Albedos, l.Albedo)
		p.Count++
	}
	return p
}
