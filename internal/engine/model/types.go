// Package model turns imported scenes into drawable meshes.
package model

import (
	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/engine/texture"
)

// Vertex represents a model mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds the vertices, indices and textures of one drawable mesh along
// with its GPU buffers.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Textures []texture.Texture // diffuse slots first, then specular
	GPU      GPUMesh
}

// Model is a loaded scene. All meshes share one texture cache.
type Model struct {
	Path     string
	BaseDir  string
	Meshes   []*Mesh
	Textures *texture.Cache

	device   gpu.Device
	released bool
}

// Program is the part of a shader program used while drawing.
type Program interface {
	Use()
	SetInt(name string, v int32)
}
