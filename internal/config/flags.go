package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagHeightmap  = flag.String("heightmap", "", "Heightmap file path or URL")
	flagEightBit   = flag.Bool("8bit", false, "Heightmap stores 8-bit samples")
	flagForceCPU   = flag.Bool("force-cpu-lod", false, "Compute tessellation levels on the CPU")
	flagSoftware   = flag.Bool("software-brush", false, "Composite brush strokes on the CPU")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagHeightmap != "" {
		cfg.Terrain.Heightmap = *flagHeightmap
	}
	if *flagEightBit {
		cfg.Terrain.SixteenBit = false
	}
	if *flagForceCPU {
		cfg.Tessellation.ForceCPU = true
	}
	if *flagSoftware {
		cfg.Brush.Software = true
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
