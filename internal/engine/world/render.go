package world

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/material"
	"github.com/Faultbox/midgard-terrain/internal/engine/renderer"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/brush"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/tessellation"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Highlight colors per tool.
var toolColors = map[brush.Tool]math.Vec3{
	brush.Raise:   {X: 1, Y: 0.85, Z: 0.3},
	brush.Lower:   {X: 0.3, Y: 0.6, Z: 1},
	brush.Flatten: {X: 0.9, Y: 0.9, Z: 0.9},
	brush.Smooth:  {X: 0.5, Y: 1, Z: 0.5},
}

type gpuState struct {
	pass      *tessellation.Pass
	mesh      *renderer.TerrainMesh
	arrays    material.Arrays
	packed    material.Packed
	meshDirty bool

	// Upload destinations for devices that keep targets in CPU memory.
	heightmapTex uint32
	previewTex   uint32
}

// Initialize allocates the GPU meshes and buffers. It needs a current GL
// context and runs once.
//
// When the brush device renders into GL textures, the terrain samples those
// and both handles may be 0. Otherwise the committed/working heights are
// uploaded into heightmapTex and the preview into previewTex every frame.
func (w *World) Initialize(heightmapTex, previewTex uint32) error {
	if w.gpu != nil {
		return nil
	}

	pass, err := tessellation.NewPass(w.cfg.Tessellation.ForceCPU)
	if err != nil {
		return fmt.Errorf("tessellation pass: %w", err)
	}
	mesh, err := renderer.NewTerrainMesh()
	if err != nil {
		pass.Destroy()
		return err
	}

	g := &gpuState{
		pass:         pass,
		mesh:         mesh,
		meshDirty:    true,
		heightmapTex: heightmapTex,
		previewTex:   previewTex,
	}
	g.packed = w.materials.Pack()
	g.arrays.Upload(g.packed)
	w.materials.ClearDirty()
	w.gpu = g

	w.log.Info("world initialized",
		zap.Bool("compute_levels", pass.UsesCompute()),
		zap.Int32("material_layers", g.packed.Count),
	)
	return nil
}

// Render binds the material arrays, computes the edge levels for ctx's
// camera and draws the terrain. Missing resources skip the draw for this
// frame.
func (w *World) Render(ctx ViewContext) {
	g := w.gpu
	if g == nil {
		w.warnOnce("gpu", "terrain draw skipped: world not initialized")
		return
	}
	cam := w.cameras.Get(ctx.Camera)
	if cam == nil {
		w.warnOnce(fmt.Sprintf("camera:%d", ctx.Camera), "terrain draw skipped: no such camera")
		return
	}
	heightmap := w.heightmapTexture()
	if heightmap == 0 {
		w.warnOnce("heightmap", "terrain draw skipped: heightmap texture unavailable")
		return
	}

	if g.meshDirty {
		g.pass.Resize(w.grid)
		g.mesh.Build(w.grid, g.pass.Buffer())
		g.meshDirty = false
	}
	if w.materials.Dirty() {
		g.packed = w.materials.Pack()
		g.arrays.Upload(g.packed)
		w.materials.ClearDirty()
		w.log.Debug("material arrays uploaded", zap.Int32("layers", g.packed.Count))
	}

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(ctx.Width, ctx.Height)
	t := w.cfg.Tessellation

	g.pass.Run(w.grid, w.hf, heightmap, tessellation.Camera{
		View:       view,
		Projection: proj,
		Width:      float32(ctx.Width),
		Height:     float32(ctx.Height),
	}, tessellation.Params{
		TargetTrianglePx:    t.TargetTrianglePx,
		ScreenTolerance:     t.ScreenTolerance,
		NearScreenTolerance: t.NearScreenTolerance,
		NearDistance:        t.NearDistance,
		MaxLevel:            t.MaxLevel,
	})

	g.mesh.Draw(renderer.TerrainFrame{
		View:       view,
		Projection: proj,
		Heightmap:  heightmap,
		Field:      w.hf,
		MaxLevel:   t.MaxLevel,
		Materials:  g.packed,
		Arrays:     &g.arrays,
		Brush:      w.highlight(),
		LightDir:   w.sun.Direction(),
	})
}

func (w *World) highlight() renderer.BrushHighlight {
	if !w.session.Previewing() {
		return renderer.BrushHighlight{}
	}
	s := w.session.Settings()
	return renderer.BrushHighlight{
		Center: w.session.BrushPosition().XZ(),
		Radius: s.Radius,
		Color:  toolColors[s.Tool],
	}
}

// heightmapTexture returns the GL texture holding the active heightmap.
func (w *World) heightmapTexture() uint32 {
	target := w.session.ActiveHeightmap()
	if src, ok := w.dev.(brush.TextureSource); ok {
		return src.Texture(target)
	}

	sw, ok := w.dev.(*brush.SoftwareDevice)
	if !ok {
		return 0
	}
	tex := w.gpu.heightmapTex
	if target == w.pipeline.Preview() && w.gpu.previewTex != 0 {
		tex = w.gpu.previewTex
	}
	if tex == 0 {
		return 0
	}

	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(w.hf.Columns), int32(w.hf.Rows), 0, gl.RED, gl.FLOAT, gl.Ptr(sw.Data(target)))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Destroy releases GPU resources and the compositing targets.
func (w *World) Destroy() {
	if g := w.gpu; g != nil {
		g.pass.Destroy()
		g.mesh.Destroy()
		g.arrays.Destroy()
		w.gpu = nil
	}
	if w.pipeline != nil {
		w.pipeline.Release()
		w.pipeline = nil
	}
}
