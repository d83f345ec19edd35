package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"south horizon", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"east horizon", 90, 0, mgl32.Vec3{1, 0, 0}},
		{"diagonal", 45, 45, mgl32.Vec3{0.5, float32(math.Sqrt2 / 2), 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
			if l := got.Len(); math.Abs(float64(l)-1) > 1e-5 {
				t.Errorf("length = %v, want 1", l)
			}
		})
	}
}

type recorder struct {
	vec3   map[string]mgl32.Vec3
	floats map[string]float32
}

func (r *recorder) SetVec3(name string, v mgl32.Vec3) { r.vec3[name] = v }
func (r *recorder) SetFloat(name string, v float32) { r.floats[name] = v }

func TestDirectionalApply(t *testing.T) {
	sun := NewSun(0, 90)
	r := &recorder{vec3: map[string]mgl32.Vec3{}, floats: map[string]float32{}}
	sun.Apply(r)

	if got := r.vec3["light.direction"]; !got.ApproxEqual(mgl32.Vec3{0, -1, 0}) {
		t.Errorf("light.direction = %v, want straight down", got)
	}
	for _, name := range []string{"light.ambient", "light.diffuse", "light.specular"} {
		if _, ok := r.vec3[name]; !ok {
			t.Errorf("%s not set", name)
		}
	}
	if r.floats["material.shininess"] != 32 {
		t.Errorf("material.shininess = %v, want 32", r.floats["material.shininess"])
	}
}
