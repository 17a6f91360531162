// Package config handles editor configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all editor settings.
type Config struct {
	Graphics     GraphicsConfig     `yaml:"graphics"`
	Terrain      TerrainConfig      `yaml:"terrain"`
	Tessellation TessellationConfig `yaml:"tessellation"`
	Brush        BrushConfig        `yaml:"brush"`
	Materials    []MaterialLayer    `yaml:"materials"`
	Assets       AssetsConfig       `yaml:"assets"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // Vertical field of view in degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`

	// Sun angles in degrees.
	SunAzimuth   float32 `yaml:"sun_azimuth"`
	SunElevation float32 `yaml:"sun_elevation"`
	// Directory for F12 captures. Empty writes to the working directory.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// TerrainConfig describes the height field being edited.
type TerrainConfig struct {
	Heightmap  string  `yaml:"heightmap"`   // Path or go-getter URL of the source heightmap
	SixteenBit bool    `yaml:"sixteen_bit"` // Heightmap stores 16-bit samples
	Columns    int     `yaml:"columns"`     // Used when no heightmap is configured
	Rows       int     `yaml:"rows"`
	Spacing    float32 `yaml:"spacing"`    // World units between samples
	MaxHeight  float32 `yaml:"max_height"` // World height of a normalized sample of 1.0
	PatchSize  int     `yaml:"patch_size"` // Samples per tessellation patch edge
	TileSize   int     `yaml:"tile_size"`  // Texels per compositing tile edge
}

// TessellationConfig tunes the screen-space LOD.
type TessellationConfig struct {
	TargetTrianglePx    float32 `yaml:"target_triangle_px"`
	ScreenTolerance     float32 `yaml:"screen_tolerance"`      // NDC margin before an edge counts as off-screen
	NearScreenTolerance float32 `yaml:"near_screen_tolerance"` // Margin used for edges close to the camera
	NearDistance        float32 `yaml:"near_distance"`         // Clip W below which an edge is "near"
	MaxLevel            float32 `yaml:"max_level"`
	ForceCPU            bool    `yaml:"force_cpu"` // Skip the compute shader even when available
}

// BrushConfig holds brush defaults and tool tuning constants.
type BrushConfig struct {
	Tool                string  `yaml:"tool"` // raise, lower, flatten or smooth
	Radius              float32 `yaml:"radius"`
	Strength            float32 `yaml:"strength"`
	MinRadius           float32 `yaml:"min_radius"`
	MaxRadius           float32 `yaml:"max_radius"`
	MaxInstances        int     `yaml:"max_instances"`
	StrengthRadiusScale float32 `yaml:"strength_radius_scale"`
	SmoothMultiplier    float32 `yaml:"smooth_multiplier"`
	SmoothIterations    int     `yaml:"smooth_iterations"`
	SmoothKernelRadius  int     `yaml:"smooth_kernel_radius"`
	Software            bool    `yaml:"software"` // Composite strokes on the CPU instead of render-to-texture
}

// MaterialLayer configures one terrain shading layer.
type MaterialLayer struct {
	Name             string     `yaml:"name"`
	Albedo           string     `yaml:"albedo"`
	Normal           string     `yaml:"normal"`
	TextureSizeWorld float32    `yaml:"texture_size_world"`
	SlopeRamp        [2]float32 `yaml:"slope_ramp"`    // Slope (0 flat .. 1 vertical) where the layer fades in
	AltitudeRamp     [2]float32 `yaml:"altitude_ramp"` // Normalized altitude where the layer fades in
}

// AssetsConfig holds asset locations and loader settings.
type AssetsConfig struct {
	Roots    []string `yaml:"roots"`     // Directories searched for relative asset paths
	Workers  int      `yaml:"workers"`   // Concurrent decode workers
	Remote   bool     `yaml:"remote"`    // Allow go-getter sources (URLs, s3::, git::)
	CacheDir string   `yaml:"cache_dir"` // Destination for remotely fetched assets
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  1600,
			Height: 900,
			VSync:  true,
			FOV:    60,
			Near:   0.5,
			Far:    20000,

			SunAzimuth:   225,
			SunElevation: 50,
		},
		Terrain: TerrainConfig{
			SixteenBit: true,
			Columns:    1025,
			Rows:       1025,
			Spacing:    1.0,
			MaxHeight:  256,
			PatchSize:  16,
			TileSize:   1025,
		},
		Tessellation: TessellationConfig{
			TargetTrianglePx:    8,
			ScreenTolerance:     0.1,
			NearScreenTolerance: 1.0,
			NearDistance:        64,
			MaxLevel:            64,
		},
		Brush: BrushConfig{
			Tool:                "raise",
			Radius:              24,
			Strength:            0.5,
			MinRadius:           1,
			MaxRadius:           512,
			MaxInstances:        2048,
			StrengthRadiusScale: 0.1,
			SmoothMultiplier:    4,
			SmoothIterations:    3,
			SmoothKernelRadius:  2,
		},
		Materials: []MaterialLayer{
			{Name: "base", Albedo: "textures/grass.png", TextureSizeWorld: 8},
			{Name: "rock", Albedo: "textures/rock.png", TextureSizeWorld: 16, SlopeRamp: [2]float32{0.35, 0.55}},
			{Name: "snow", Albedo: "textures/snow.png", TextureSizeWorld: 12, AltitudeRamp: [2]float32{0.7, 0.8}},
		},
		Assets: AssetsConfig{
			Roots:    []string{"."},
			Workers:  4,
			Remote:   true,
			CacheDir: "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// MaxMaterialLayers mirrors the shader's layer array size.
const MaxMaterialLayers = 32

// Validate reports settings the editor cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.Near <= 0 || c.Graphics.Far <= c.Graphics.Near {
		errs = append(errs, fmt.Errorf("graphics: invalid depth range %g..%g", c.Graphics.Near, c.Graphics.Far))
	}
	if c.Graphics.SunElevation < 0 || c.Graphics.SunElevation > 90 {
		errs = append(errs, fmt.Errorf("graphics: sun elevation %g outside 0..90", c.Graphics.SunElevation))
	}
	if c.Terrain.Spacing <= 0 {
		errs = append(errs, errors.New("terrain: spacing must be positive"))
	}
	if c.Terrain.PatchSize < 1 {
		errs = append(errs, errors.New("terrain: patch_size must be at least 1"))
	}
	if c.Terrain.TileSize < 2 {
		errs = append(errs, errors.New("terrain: tile_size must be at least 2"))
	}
	if c.Tessellation.TargetTrianglePx <= 0 {
		errs = append(errs, errors.New("tessellation: target_triangle_px must be positive"))
	}
	if c.Brush.MaxInstances < 1 {
		errs = append(errs, errors.New("brush: max_instances must be at least 1"))
	}
	if c.Brush.MinRadius <= 0 || c.Brush.MaxRadius < c.Brush.MinRadius {
		errs = append(errs, fmt.Errorf("brush: invalid radius range %g..%g", c.Brush.MinRadius, c.Brush.MaxRadius))
	}
	if len(c.Materials) > MaxMaterialLayers {
		errs = append(errs, fmt.Errorf("materials: %d layers exceeds maximum of %d", len(c.Materials), MaxMaterialLayers))
	}
	return errors.Join(errs...)
}
