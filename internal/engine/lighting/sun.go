// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts longitude/latitude angles in degrees to a light
// direction vector. Longitude is rotation around the Y axis (0-360),
// latitude is elevation from the horizon (0-90).
// Returns a normalized direction vector pointing towards the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{x, y, z}
}

// Uniforms is the part of a shader program a light writes to.
type Uniforms interface {
	SetVec3(name string, v mgl32.Vec3)
	SetFloat(name string, v float32)
}

// Directional is a light infinitely far away, such as the sun.
type Directional struct {
	// Direction the light travels, from the sun towards the scene.
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3

	// Shininess is the specular exponent of the lit material.
	Shininess float32
}

// NewSun creates a directional light shining from the given sun position.
func NewSun(longitude, latitude float32) Directional {
	return Directional{
		Direction: SunDirection(longitude, latitude).Mul(-1),
		Ambient:   mgl32.Vec3{0.2, 0.2, 0.2},
		Diffuse:   mgl32.Vec3{0.5, 0.5, 0.5},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 32,
	}
}

// Apply writes the light.* and material.shininess uniforms.
func (l Directional) Apply(u Uniforms) {
	u.SetVec3("light.direction", l.Direction)
	u.SetVec3("light.ambient", l.Ambient)
	u.SetVec3("light.diffuse", l.Diffuse)
	u.SetVec3("light.specular", l.Specular)
	u.SetFloat("material.shininess", l.Shininess)
}
