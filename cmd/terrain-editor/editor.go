package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/renderer"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/brush"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/engine/world"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

const heightmapID = "terrain"

// editor owns the window and runs the frame loop.
type editor struct {
	cfg      *config.Config
	window   *window.Window
	renderer *renderer.Renderer
	input    *window.Input
	queue    *assets.Queue
	cancel   context.CancelFunc
	world    *world.World
	shots    *debug.Screenshots

	glDevice *brush.GLDevice
	uploads  []*framebuffer.Framebuffer // software brush only

	log *zap.Logger
}

func newEditor(cfg *config.Config) (*editor, error) {
	e := &editor{
		cfg:   cfg,
		shots: debug.NewScreenshots(cfg.Graphics.ScreenshotDir, "terrain"),
		log:   logger.Named("editor"),
	}

	var err error
	e.window, err = window.New(window.Config{
		Title:      "Midgard Terrain Editor",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	width, height := e.window.GetSize()
	e.renderer, err = renderer.New(renderer.Config{Width: width, Height: height, VSync: cfg.Graphics.VSync})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	if !e.window.SupportsCompute() {
		cfg.Tessellation.ForceCPU = true
	}

	e.input = window.NewInput(cfg.Graphics.Width, cfg.Graphics.Height)

	manager := assets.NewManager(cfg.Assets.Roots...)
	if cfg.Assets.Remote {
		manager.SetFetcher(assets.NewFetcher(cfg.AssetCacheDir()))
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.queue = assets.NewQueue(ctx, manager, cfg.Assets.Workers)

	dev := e.brushDevice()
	e.world, err = world.New(cfg, dev, e.queue)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("creating world: %w", err)
	}

	var heightmapTex, previewTex uint32
	if e.glDevice == nil {
		for range 2 {
			fb, err := framebuffer.New(int32(cfg.Terrain.Columns), int32(cfg.Terrain.Rows))
			if err != nil {
				e.Close()
				return nil, fmt.Errorf("creating heightmap texture: %w", err)
			}
			e.uploads = append(e.uploads, fb)
		}
		heightmapTex, previewTex = e.uploads[0].ColorTexture(), e.uploads[1].ColorTexture()
	}
	if err := e.world.Initialize(heightmapTex, previewTex); err != nil {
		e.Close()
		return nil, fmt.Errorf("initializing world: %w", err)
	}

	if cfg.Terrain.Heightmap != "" {
		if err := e.world.ReloadHeightmap(heightmapID, cfg.Terrain.Heightmap, cfg.Terrain.SixteenBit); err != nil {
			e.log.Warn("heightmap not loaded", zap.Error(err))
		}
	}
	return e, nil
}

// brushDevice picks the compositing device, falling back to the CPU when
// the GL programs do not build.
func (e *editor) brushDevice() brush.Device {
	if !e.cfg.Brush.Software {
		dev, err := brush.NewGLDevice()
		if err == nil {
			e.glDevice = dev
			return dev
		}
		e.log.Warn("GPU brush unavailable, compositing on CPU", zap.Error(err))
	}
	return brush.NewSoftwareDevice()
}

// Run drives input, update, render and present until the window closes.
func (e *editor) Run() error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	e.log.Info("starting frame loop")

	for {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 1. Input
		in := e.input.Update()
		if in.Quit {
			return nil
		}
		if in.Resized {
			e.renderer.Resize(e.window.GetSize())
		}
		if in.KeyPressed(input.KeyF5) && e.cfg.Terrain.Heightmap != "" {
			if err := e.world.ReloadHeightmap(heightmapID, e.cfg.Terrain.Heightmap, e.cfg.Terrain.SixteenBit); err != nil {
				e.log.Warn("heightmap reload failed", zap.Error(err))
			}
		}

		if in.KeyPressed(input.KeyF3) {
			e.renderer.SetWireframe(!e.renderer.Wireframe())
		}

		// 2. Update
		if err := e.world.Update(dt, in); err != nil {
			return fmt.Errorf("update: %w", err)
		}

		// 3. Render
		width, height := e.renderer.Size()
		e.renderer.Begin()
		e.world.Render(world.ViewContext{Width: width, Height: height, Camera: e.world.ActiveCamera()})
		e.renderer.End()
		if in.KeyPressed(input.KeyF12) {
			e.screenshot()
		}

		// 4. Present
		e.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			b := e.world.Brush()
			e.window.SetTitle(fmt.Sprintf("Midgard Terrain Editor - %s r=%.0f s=%.2f - %s - %d fps",
				b.Tool, b.Radius, b.Strength, e.world.Status(), frameCount))
			e.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (e *editor) screenshot() {
	pixels, w, h := e.renderer.ReadPixels()
	name, err := e.shots.Save(pixels, w, h)
	if err != nil {
		e.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	e.log.Info("screenshot saved", zap.String("file", name))
}

// Close releases everything in reverse creation order.
func (e *editor) Close() {
	if e.world != nil {
		e.world.Destroy()
	}
	for _, fb := range e.uploads {
		fb.Destroy()
	}
	if e.glDevice != nil {
		e.glDevice.Destroy()
	}
	if e.queue != nil {
		e.queue.Close()
		e.cancel()
	}
	if e.renderer != nil {
		e.renderer.Close()
	}
	if e.window != nil {
		e.window.Close()
	}
}
