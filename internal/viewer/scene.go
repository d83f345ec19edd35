package viewer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/engine/lighting"
	"github.com/Faultbox/meshview/internal/engine/model"
	"github.com/Faultbox/meshview/internal/logger"
)

// Transform places the model in the world.
type Transform struct {
	Translate mgl32.Vec3
	Scale     float32
}

// TransformFromConfig reads the scene placement. A zero scale means 1.
func TransformFromConfig(cfg config.SceneConfig) Transform {
	t := Transform{Translate: cfg.Translate, Scale: cfg.Scale}
	if t.Scale == 0 {
		t.Scale = 1
	}
	return t
}

// Matrix returns translate * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translate[0], t.Translate[1], t.Translate[2]).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale))
}

// LightFromConfig builds the directional light.
func LightFromConfig(cfg config.LightConfig) lighting.Directional {
	l := lighting.NewSun(cfg.Longitude, cfg.Latitude)
	l.Ambient = cfg.Ambient
	l.Diffuse = cfg.Diffuse
	l.Specular = cfg.Specular
	l.Shininess = cfg.Shininess
	return l
}

// Replace loads a new model and releases current when the new one has
// meshes. A reload that yields nothing keeps the current model on screen.
func Replace(current *model.Model, load func() *model.Model) *model.Model {
	next := load()
	if len(next.Meshes) == 0 && current != nil && len(current.Meshes) > 0 {
		logger.Warn("reload produced no meshes, keeping previous model", zap.String("path", next.Path))
		next.Release()
		return current
	}
	if current != nil {
		current.Release()
	}
	return next
}
