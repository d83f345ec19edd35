package model

import (
	"strconv"

	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/engine/texture"
)

// Draw draws every mesh in load order with p, which must be in use.
func (m *Model) Draw(p Program) {
	if m.released {
		return
	}
	for _, mesh := range m.Meshes {
		mesh.Draw(m.device, p)
	}
}

// Draw binds the mesh textures to consecutive units and issues one indexed
// draw. Texture i goes to unit i and its sampler uniform is named
// material.texture_<kind><n>, where n counts textures of that kind from 1.
func (mesh *Mesh) Draw(dev gpu.Device, p Program) {
	diffuse, specular := 1, 1
	for i, tex := range mesh.Textures {
		dev.ActiveTexture(i)
		dev.BindTexture(tex.Handle)

		var n int
		switch tex.Kind {
		case texture.Specular:
			n = specular
			specular++
		default:
			n = diffuse
			diffuse++
		}
		p.SetInt("material."+tex.Kind.UniformName()+strconv.Itoa(n), int32(i))
	}
	dev.ActiveTexture(0)

	dev.DrawIndexed(mesh.GPU.Buffers.VAO, int32(len(mesh.Indices)))
}
