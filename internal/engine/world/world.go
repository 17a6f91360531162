// Package world ties the editor core together: camera, picking, the edit
// session and the terrain draw.
//
// Everything here runs on the frame thread. Asset loads finish on worker
// goroutines but are applied from Update through the asset queue.
package world

import (
	"errors"
	"fmt"
	"image"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/ecs"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/material"
	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/brush"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/collision"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/edit"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/tessellation"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ErrNoAssetQueue is returned by ReloadHeightmap on a world built without
// an asset queue.
var ErrNoAssetQueue = errors.New("world: no asset queue")

// ViewContext is supplied with every draw.
type ViewContext struct {
	Width  int
	Height int
	Camera ecs.Entity
}

// World owns the edited terrain and everything needed to sculpt and draw it.
type World struct {
	cfg *config.Config

	registry ecs.Registry
	cameras  *ecs.Store[camera.OrbitCamera]
	active   ecs.Entity

	dev       brush.Device
	hf        *terrain.Heightfield
	grid      *tessellation.Grid
	collider  *collision.Collider
	pipeline  *brush.Pipeline
	session   *edit.Session
	materials *material.Table
	tool      brush.Tool // initial tool of new sessions
	sun       lighting.Sun

	queue       *assets.Queue
	heightmapID string
	reloads     int // generation of the latest heightmap request

	gpu    *gpuState
	warned map[string]bool
	log    *zap.Logger
}

// New creates a world with a flat terrain sized by cfg.Terrain. dev runs the
// brush passes. queue may be nil, in which case nothing is loaded from disk.
func New(cfg *config.Config, dev brush.Device, queue *assets.Queue) (*World, error) {
	materials, err := material.NewTable(cfg.Materials)
	if err != nil {
		return nil, err
	}
	tool, err := brush.ParseTool(cfg.Brush.Tool)
	if err != nil {
		return nil, fmt.Errorf("brush config: %w", err)
	}

	w := &World{
		cfg:       cfg,
		cameras:   ecs.NewStore[camera.OrbitCamera](),
		dev:       dev,
		hf:        terrain.NewHeightfield(cfg.Terrain.Columns, cfg.Terrain.Rows, cfg.Terrain.Spacing, cfg.Terrain.MaxHeight),
		collider:  collision.New(collision.DefaultSlices),
		materials: materials,
		tool:      tool,
		sun:       lighting.Sun{Azimuth: cfg.Graphics.SunAzimuth, Elevation: cfg.Graphics.SunElevation},
		queue:     queue,
		warned:    make(map[string]bool),
		log:       logger.Named("world"),
	}
	w.center()

	if err := w.rebuild(); err != nil {
		return nil, err
	}
	if err := w.pipeline.Reset(w.hf.Heights); err != nil {
		w.pipeline.Release()
		return nil, fmt.Errorf("uploading initial heightmap: %w", err)
	}

	w.active = w.CreateCamera()
	w.loadMaterials()

	w.log.Info("world created",
		zap.Int("columns", w.hf.Columns),
		zap.Int("rows", w.hf.Rows),
		zap.Int("patches", w.grid.PatchCount()),
		zap.Int("material_layers", materials.Len()),
	)
	return w, nil
}

// center places the field so its middle sits at the world origin.
func (w *World) center() {
	width, depth := w.hf.Size()
	w.hf.Position = math.Vec3{X: -width / 2, Z: -depth / 2}
}

// rebuild recreates every size-dependent part for the current field layout.
func (w *World) rebuild() error {
	c := w.cfg
	if w.pipeline != nil {
		w.pipeline.Release()
		w.pipeline = nil
	}

	view := brush.View{Origin: w.hf.Position.XZ(), Spacing: w.hf.Spacing}
	tuning := brush.Tuning{
		StrengthRadiusScale: c.Brush.StrengthRadiusScale,
		SmoothMultiplier:    c.Brush.SmoothMultiplier,
		SmoothIterations:    c.Brush.SmoothIterations,
		SmoothKernelRadius:  c.Brush.SmoothKernelRadius,
	}
	p, err := brush.NewPipeline(w.dev, w.hf.Columns, w.hf.Rows, c.Terrain.TileSize, view, tuning)
	if err != nil {
		return fmt.Errorf("creating brush pipeline: %w", err)
	}
	w.pipeline = p
	w.resetSession()

	w.grid = tessellation.NewGrid(w.hf.Columns, w.hf.Rows, c.Terrain.PatchSize)
	if w.gpu != nil {
		w.gpu.meshDirty = true
	}
	return nil
}

// resetSession starts a fresh edit session, keeping the brush settings.
func (w *World) resetSession() {
	settings := brush.Settings{
		Radius:   w.cfg.Brush.Radius,
		Strength: w.cfg.Brush.Strength,
		Tool:     w.tool,
	}
	if w.session != nil {
		settings = w.session.Settings()
	}
	limits := edit.Limits{MinRadius: w.cfg.Brush.MinRadius, MaxRadius: w.cfg.Brush.MaxRadius}
	w.session = edit.NewSession(w.pipeline, w.hf, settings, w.cfg.Brush.MaxInstances, limits)
}

// CreateCamera adds an orbit camera framing the terrain.
func (w *World) CreateCamera() ecs.Entity {
	g := w.cfg.Graphics
	cam := camera.NewOrbitCamera()
	cam.FovY = g.FOV * gomath.Pi / 180
	cam.Near = g.Near
	cam.Far = g.Far
	cam.FitToBounds(w.hf.Bounds())

	e := w.registry.Create()
	w.cameras.Add(e, *cam)
	return e
}

// Camera returns the camera component of e, or nil.
func (w *World) Camera(e ecs.Entity) *camera.OrbitCamera {
	return w.cameras.Get(e)
}

// ActiveCamera returns the camera driven by Update.
func (w *World) ActiveCamera() ecs.Entity {
	return w.active
}

// SetActiveCamera selects the camera driven by Update.
func (w *World) SetActiveCamera(e ecs.Entity) {
	w.active = e
}

// Update advances one frame: finished asset loads, camera, picking and the
// edit session.
func (w *World) Update(dt float32, in input.State) error {
	if w.queue != nil {
		w.queue.Poll()
	}

	if cam := w.cameras.Get(w.active); cam != nil {
		cam.Update(dt, in)
	}

	if err := w.session.Update(in, w.pick(in)); err != nil {
		return fmt.Errorf("edit session: %w", err)
	}
	return nil
}

// pick casts the cursor ray of the active camera against the field.
func (w *World) pick(in input.State) edit.Pick {
	cam := w.cameras.Get(w.active)
	if cam == nil || in.Width <= 0 || in.Height <= 0 {
		return edit.Pick{}
	}
	viewProj := cam.ProjectionMatrix(in.Width, in.Height).Mul(cam.ViewMatrix())
	ray := picking.ScreenToRay(in.Cursor, viewProj.Inverse())

	p, hit := w.collider.Intersect(w.hf, ray.Origin, ray.Direction)
	return edit.Pick{Position: p, Hit: hit}
}

// SetHeightmap replaces the committed heightmap. Working and preview are
// reset to it and any stroke in progress is dropped. A size change rebuilds
// the patch grid and compositing targets and reframes the cameras.
func (w *World) SetHeightmap(hm *assets.Heightmap) error {
	if hm.Columns < 2 || hm.Rows < 2 || len(hm.Heights) != hm.Columns*hm.Rows {
		return fmt.Errorf("%w: %dx%d heightmap with %d samples",
			terrain.ErrSizeMismatch, hm.Columns, hm.Rows, len(hm.Heights))
	}

	if hm.Columns != w.hf.Columns || hm.Rows != w.hf.Rows {
		w.hf.Resize(hm.Columns, hm.Rows)
		w.center()
		if err := w.rebuild(); err != nil {
			return err
		}
		lo, hi := w.hf.Bounds()
		w.cameras.Each(func(_ ecs.Entity, c *camera.OrbitCamera) {
			c.FitToBounds(lo, hi)
		})
	} else {
		w.resetSession()
	}

	if err := w.pipeline.Reset(hm.Heights); err != nil {
		return fmt.Errorf("uploading heightmap: %w", err)
	}
	if err := w.hf.Refresh(hm.Heights); err != nil {
		return err
	}

	w.log.Info("heightmap replaced",
		zap.Int("columns", hm.Columns),
		zap.Int("rows", hm.Rows),
	)
	return nil
}

// ReloadHeightmap loads path in the background and replaces the committed
// heightmap once it has decoded. Only the latest request is applied; a
// failed load keeps the current terrain.
func (w *World) ReloadHeightmap(id, path string, sixteenBit bool) error {
	if w.queue == nil {
		return ErrNoAssetQueue
	}
	w.reloads++
	gen := w.reloads

	w.queue.Manager().Invalidate(path)
	w.queue.Request(path, func(data []byte, p string) (any, error) {
		return assets.DecodeHeightmap(data, p, sixteenBit)
	}, func(v any, err error) {
		if gen != w.reloads {
			w.log.Debug("stale heightmap load ignored", zap.String("id", id))
			return
		}
		if err != nil {
			w.log.Warn("heightmap reload failed", zap.String("id", id), zap.Error(err))
			return
		}
		if err := w.SetHeightmap(v.(*assets.Heightmap)); err != nil {
			w.log.Warn("heightmap rejected", zap.String("id", id), zap.Error(err))
			return
		}
		w.heightmapID = id
	})

	w.log.Info("heightmap reload requested",
		zap.String("id", id),
		zap.String("path", path),
		zap.Bool("sixteen_bit", sixteenBit),
	)
	return nil
}

// loadMaterials requests every configured layer texture. Layers stay out of
// shading until their albedo arrives.
func (w *World) loadMaterials() {
	if w.queue == nil {
		return
	}
	for i := 0; i < w.materials.Len(); i++ {
		layer := w.materials.Layer(i)
		if layer.AlbedoPath != "" {
			w.queue.Request(layer.AlbedoPath, decodeImage, func(v any, err error) {
				if err == nil {
					w.materials.SetAlbedo(i, v.(image.Image))
				}
			})
		}
		if layer.NormalPath != "" {
			w.queue.Request(layer.NormalPath, decodeImage, func(v any, err error) {
				if err == nil {
					w.materials.SetNormal(i, v.(image.Image))
				}
			})
		}
	}
}

func decodeImage(data []byte, path string) (any, error) {
	return assets.DecodeImage(data, path)
}

// Status returns the edit status.
func (w *World) Status() edit.Status {
	return w.session.Status()
}

// Heightfield returns the CPU height field kept in step with the heightmap.
func (w *World) Heightfield() *terrain.Heightfield {
	return w.hf
}

// ActiveHeightmap returns the target rendered this frame.
func (w *World) ActiveHeightmap() brush.Target {
	return w.session.ActiveHeightmap()
}

// BrushPosition returns the brush position, or brush.OffField.
func (w *World) BrushPosition() math.Vec3 {
	return w.session.BrushPosition()
}

// HeightmapID returns the resource id of the last applied reload.
func (w *World) HeightmapID() string {
	return w.heightmapID
}

// Brush returns the current brush settings.
func (w *World) Brush() brush.Settings {
	return w.session.Settings()
}

// SetBrush replaces the brush settings.
func (w *World) SetBrush(s brush.Settings) {
	w.session.SetSettings(s)
}

// Pipeline returns the compositing pipeline.
func (w *World) Pipeline() *brush.Pipeline {
	return w.pipeline
}

// Materials returns the material layer table.
func (w *World) Materials() *material.Table {
	return w.materials
}

// Grid returns the tessellation patch grid.
func (w *World) Grid() *tessellation.Grid {
	return w.grid
}

// warnOnce logs a missing resource the first time it is seen.
func (w *World) warnOnce(resource, msg string) {
	if w.warned[resource] {
		return
	}
	w.warned[resource] = true
	w.log.Warn(msg, zap.String("resource", resource))
}
