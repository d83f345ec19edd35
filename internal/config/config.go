// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Scene   SceneConfig   `yaml:"scene"`
	Camera  CameraConfig  `yaml:"camera"`
	Light   LightConfig   `yaml:"light"`
	Shader  ShaderConfig  `yaml:"shader"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	Samples    int        `yaml:"samples"` // MSAA samples, 0 disables
	ClearColor [3]float32 `yaml:"clear_color"`
}

// SceneConfig selects the scene file and how it is placed in the world.
type SceneConfig struct {
	Path      string     `yaml:"path"`
	Watch     bool       `yaml:"watch"` // Reload when the file changes
	Translate [3]float32 `yaml:"translate"`
	Scale     float32    `yaml:"scale"`
}

// CameraConfig holds projection and orbit settings.
type CameraConfig struct {
	FOV        float32 `yaml:"fov"` // Degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	Distance   float32 `yaml:"distance"`
	Height     float32 `yaml:"height"`
	OrbitSpeed float32 `yaml:"orbit_speed"` // Radians per second, 0 disables auto-orbit
}

// LightConfig describes the directional light pushed to the shader.
type LightConfig struct {
	Longitude float32    `yaml:"longitude"`
	Latitude  float32    `yaml:"latitude"`
	Ambient   [3]float32 `yaml:"ambient"`
	Diffuse   [3]float32 `yaml:"diffuse"`
	Specular  [3]float32 `yaml:"specular"`
	Shininess float32    `yaml:"shininess"`
}

// ShaderConfig overrides the embedded shaders with files on disk.
type ShaderConfig struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Model Loading",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Samples:    4,
			ClearColor: [3]float32{0.15, 0.15, 0.15},
		},
		Scene: SceneConfig{
			Translate: [3]float32{0, -1.75, 0},
			Scale:     0.2,
		},
		Camera: CameraConfig{
			FOV:        50,
			Near:       0.1,
			Far:        100,
			Distance:   3,
			OrbitSpeed: 0.75,
		},
		Light: LightConfig{
			Longitude: 45,
			Latitude:  45,
			Ambient:   [3]float32{0.2, 0.2, 0.2},
			Diffuse:   [3]float32{0.5, 0.5, 0.5},
			Specular:  [3]float32{1, 1, 1},
			Shininess: 32,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
