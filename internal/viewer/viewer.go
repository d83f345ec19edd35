// Package viewer implements the model viewer main loop.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/gpu/opengl"
	"github.com/Faultbox/meshview/internal/engine/importer"
	"github.com/Faultbox/meshview/internal/engine/importer/gltfimport"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/lighting"
	"github.com/Faultbox/meshview/internal/engine/model"
	"github.com/Faultbox/meshview/internal/engine/renderer"
	"github.com/Faultbox/meshview/internal/engine/screenshot"
	"github.com/Faultbox/meshview/internal/engine/shader"
	"github.com/Faultbox/meshview/internal/engine/texture"
	"github.com/Faultbox/meshview/internal/engine/window"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/watch"
)

// ErrNoScene is returned by New when no scene file is configured.
var ErrNoScene = errors.New("no scene file given (use -model or scene.path)")

// Viewer displays one model with an orbiting camera.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	device   *opengl.Device
	program  *shader.Program

	camera  *camera.OrbitCamera
	light   lighting.Directional
	world   Transform
	source  importer.Source
	decoder texture.Decoder
	model   *model.Model
	watcher *watch.Watcher

	screenshots    *screenshot.Capture
	wantScreenshot bool
}

// New opens the window, compiles the shader and loads the configured scene.
func New(cfg *config.Config) (*Viewer, error) {
	if cfg.Scene.Path == "" {
		return nil, ErrNoScene
	}

	logger.Info("initializing viewer",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	v := &Viewer{
		cfg:     cfg,
		input:   input.New(),
		device:  opengl.New(),
		camera:  camera.NewOrbitCamera(cfg.Camera.Distance, cfg.Camera.Height, cfg.Camera.OrbitSpeed),
		light:   LightFromConfig(cfg.Light),
		world:   TransformFromConfig(cfg.Scene),
		source:  gltfimport.Source{},
		decoder: texture.FileDecoder{},

		screenshots: screenshot.New("screenshots", "meshview"),
	}

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:       width,
		Height:      height,
		ClearColor:  cfg.Window.ClearColor,
		Multisample: v.window.Samples() > 0,
		FOV:         cfg.Camera.FOV,
		Near:        cfg.Camera.Near,
		Far:         cfg.Camera.Far,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.program, err = shader.Load(cfg.Shader.Vertex, cfg.Shader.Fragment)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	v.model = v.load()
	if len(v.model.Meshes) == 0 {
		logger.Warn("scene has no drawable meshes", zap.String("path", cfg.Scene.Path))
	}

	if cfg.Scene.Watch {
		v.watcher, err = watch.New(cfg.Scene.Path, watch.DefaultDelay)
		if err != nil {
			// The viewer still works without hot reload.
			logger.Warn("hot reload disabled", zap.Error(err))
		}
	}

	logger.Info("viewer initialized successfully")
	return v, nil
}

func (v *Viewer) load() *model.Model {
	return model.Load(v.cfg.Scene.Path, v.source, v.decoder, v.device)
}

// Run starts the main loop and returns when the window is closed or Escape
// is pressed.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleInput()

		// 2. Update state
		v.update(float32(dt))

		// 3. Render
		v.render()

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleInput() {
	if v.input.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
		v.running = false
	}
	if _, _, ok := v.input.Resize(); ok {
		v.renderer.Resize(v.window.DrawableSize())
	}
	if dx, dy := v.input.Drag(sdl.BUTTON_LEFT); dx != 0 || dy != 0 {
		v.camera.HandleDrag(float32(dx), float32(dy))
	}
	if wheel := v.input.Wheel(); wheel != 0 {
		v.camera.HandleZoom(float32(wheel))
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_R) {
		v.reload()
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
		v.wantScreenshot = true
	}
}

func (v *Viewer) update(dt float32) {
	v.camera.Update(dt)

	if v.watcher != nil && v.watcher.Changed() {
		v.reload()
	}
}

// reload runs on the render thread, between frames.
func (v *Viewer) reload() {
	logger.Info("reloading scene", zap.String("path", v.cfg.Scene.Path))
	v.model = Replace(v.model, v.load)
}

func (v *Viewer) render() {
	v.renderer.Begin()

	p := v.program
	p.Use()
	p.SetMat4("projection", v.renderer.Context.Projection)
	p.SetMat4("view", v.camera.ViewMatrix())
	p.SetMat4("model", v.world.Matrix())
	p.SetVec3("viewPosition", v.camera.Position())
	v.light.Apply(p)

	v.model.Draw(p)

	v.renderer.End()

	if v.wantScreenshot {
		v.wantScreenshot = false
		v.saveScreenshot()
	}
}

func (v *Viewer) saveScreenshot() {
	pixels, width, height := v.renderer.ReadPixels()
	path, err := v.screenshots.SaveFramebuffer(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Close releases GPU resources and closes the window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			logger.Warn("failed to close watcher", zap.Error(err))
		}
	}
	if v.model != nil {
		v.model.Release()
	}
	if v.program != nil {
		v.program.Delete()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
