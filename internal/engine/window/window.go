// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// glVersions are tried in order. 4.3 brings compute shaders; 4.1 is the
// newest core profile on macOS and still has tessellation.
var glVersions = [][2]int{{4, 3}, {4, 1}}

// Window wraps SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	glMajor   int
	glMinor   int
	log       *zap.Logger
}

// New creates a new window with OpenGL context.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config: cfg,
		log:    logger.Named("window"),
	}

	// Initialize SDL2
	w.log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	var lastErr error
	for _, v := range glVersions {
		if err := w.create(v[0], v[1]); err != nil {
			w.log.Warn("OpenGL context unavailable",
				zap.Int("major", v[0]), zap.Int("minor", v[1]), zap.Error(err))
			lastErr = err
			continue
		}
		w.glMajor, w.glMinor = v[0], v[1]
		break
	}
	if w.glContext == nil {
		sdl.Quit()
		return nil, lastErr
	}

	// Enable VSync
	if cfg.VSync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			w.log.Warn("failed to enable VSync", zap.Error(err))
		}
	} else {
		sdl.GLSetSwapInterval(0)
	}

	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
		zap.String("gl", fmt.Sprintf("%d.%d", w.glMajor, w.glMinor)),
	)

	return w, nil
}

// create opens the window with a core context of the given version.
func (w *Window) create(major, minor int) error {
	// Set OpenGL attributes BEFORE creating window
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, major)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, minor)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE)
	if w.config.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	win, err := sdl.CreateWindow(
		w.config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(w.config.Width),
		int32(w.config.Height),
		flags,
	)
	if err != nil {
		return fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		return fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	w.sdlWindow = win
	w.glContext = ctx
	return nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	w.log.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}

	sdl.Quit()
}

// GLVersion returns the version of the created context.
func (w *Window) GLVersion() (major, minor int) {
	return w.glMajor, w.glMinor
}

// SupportsCompute reports whether the context has compute shaders.
func (w *Window) SupportsCompute() bool {
	return w.glMajor > 4 || (w.glMajor == 4 && w.glMinor >= 3)
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetSize returns the current drawable size in pixels.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}
