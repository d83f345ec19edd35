// Package window opens the SDL2 window and the OpenGL 4.1 core context the
// viewer renders into.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// OpenGL 4.1 core is the newest profile macOS provides.
const (
	glMajor   = 4
	glMinor   = 1
	depthBits = 24
)

// Swap intervals accepted by SDL_GL_SetSwapInterval.
const (
	swapAdaptive  = -1
	swapVSync     = 1
	swapImmediate = 0
)

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Samples    int // MSAA samples, 0 disables
}

// Window owns the SDL window and its GL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

type glAttribute struct {
	attr  sdl.GLattr
	value int
}

// glAttributes lists the context attributes to set before the window is
// created.
func glAttributes(cfg Config) []glAttribute {
	attrs := []glAttribute{
		{sdl.GL_CONTEXT_MAJOR_VERSION, glMajor},
		{sdl.GL_CONTEXT_MINOR_VERSION, glMinor},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
		{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG},
		{sdl.GL_DOUBLEBUFFER, 1},
		{sdl.GL_DEPTH_SIZE, depthBits},
	}
	if cfg.Samples > 0 {
		attrs = append(attrs,
			glAttribute{sdl.GL_MULTISAMPLEBUFFERS, 1},
			glAttribute{sdl.GL_MULTISAMPLESAMPLES, cfg.Samples},
		)
	} else {
		attrs = append(attrs,
			glAttribute{sdl.GL_MULTISAMPLEBUFFERS, 0},
			glAttribute{sdl.GL_MULTISAMPLESAMPLES, 0},
		)
	}
	return attrs
}

// windowFlags always requests a high-DPI drawable; callers size the
// framebuffer from DrawableSize rather than the window size.
func windowFlags(cfg Config) uint32 {
	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	return flags
}

// openWithFallback calls open with cfg and, if that fails while multisampling
// was requested, once more with multisampling disabled. Some drivers refuse
// multisampled pixel formats outright.
func openWithFallback(cfg Config, open func(Config) error) (Config, error) {
	err := open(cfg)
	if err == nil || cfg.Samples == 0 {
		return cfg, err
	}
	logger.Warn("multisampled window failed, retrying without MSAA",
		zap.Int("samples", cfg.Samples), zap.Error(err))
	cfg.Samples = 0
	return cfg, open(cfg)
}

// applySwapInterval enables vsync, preferring adaptive vsync when the driver
// supports it, and returns the interval in effect.
func applySwapInterval(vsync bool, set func(int) error) int {
	if !vsync {
		if err := set(swapImmediate); err != nil {
			logger.Warn("failed to disable VSync", zap.Error(err))
		}
		return swapImmediate
	}
	if err := set(swapAdaptive); err == nil {
		return swapAdaptive
	}
	if err := set(swapVSync); err != nil {
		logger.Warn("failed to enable VSync", zap.Error(err))
		return swapImmediate
	}
	return swapVSync
}

// New initializes SDL video and opens a window with a current GL context.
func New(cfg Config) (*Window, error) {
	logger.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	w := &Window{}
	cfg, err := openWithFallback(cfg, w.open)
	if err != nil {
		sdl.Quit()
		return nil, err
	}
	w.config = cfg

	interval := applySwapInterval(cfg.VSync, func(i int) error {
		return sdl.GLSetSwapInterval(i)
	})

	dw, dh := w.DrawableSize()
	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("drawable_width", dw),
		zap.Int("drawable_height", dh),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Int("samples", cfg.Samples),
		zap.Int("swap_interval", interval),
	)
	return w, nil
}

// open creates the window and context for one attempt, cleaning up after
// itself on failure.
func (w *Window) open(cfg Config) error {
	for _, a := range glAttributes(cfg) {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			return fmt.Errorf("SDL_GL_SetAttribute(%d, %d) failed: %w", a.attr, a.value, err)
		}
	}

	win, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		windowFlags(cfg),
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

// Close destroys the context and window and shuts SDL down.
func (w *Window) Close() {
	logger.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}

// SwapBuffers presents the back buffer.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// DrawableSize returns the framebuffer size in pixels. On high-DPI displays
// it is larger than the window size in screen coordinates.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// Samples reports the MSAA sample count the window was opened with, which
// is 0 when multisampling had to be dropped.
func (w *Window) Samples() int {
	return w.config.Samples
}
