package model

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/importer"
	"github.com/Faultbox/meshview/internal/engine/texture"
	"github.com/Faultbox/meshview/internal/logger"
)

// BuildMesh converts an imported mesh into vertices and indices and resolves
// its material textures through cache. The result is not uploaded.
func BuildMesh(raw *importer.Mesh, scene *importer.Scene, cache *texture.Cache) *Mesh {
	mesh := &Mesh{
		Name:     raw.Name,
		Vertices: make([]Vertex, len(raw.Positions)),
	}

	for i, p := range raw.Positions {
		v := Vertex{Position: p}
		if i < len(raw.Normals) {
			v.Normal = raw.Normals[i]
		}
		if i < len(raw.TexCoords) {
			v.TexCoord = raw.TexCoords[i]
		}
		mesh.Vertices[i] = v
	}

	count := uint32(len(mesh.Vertices))
	dropped := 0
	for _, face := range raw.Faces {
		valid := true
		for _, idx := range face {
			if idx >= count {
				valid = false
				break
			}
		}
		if !valid {
			dropped++
			continue
		}
		mesh.Indices = append(mesh.Indices, face...)
	}
	if dropped > 0 {
		logger.Warn("dropped faces with out of range indices",
			zap.String("mesh", raw.Name),
			zap.Int("faces", dropped),
			zap.Int("vertices", len(mesh.Vertices)),
		)
	}

	idx, ok := raw.Material.Index()
	if !ok {
		return mesh
	}
	if idx >= len(scene.Materials) {
		logger.Warn("mesh material out of range",
			zap.String("mesh", raw.Name),
			zap.Int("material", idx),
			zap.Int("materials", len(scene.Materials)),
		)
		return mesh
	}

	mat := &scene.Materials[idx]
	for _, rel := range mat.Diffuse {
		mesh.Textures = append(mesh.Textures, cache.Resolve(rel, texture.Diffuse))
	}
	for _, rel := range mat.Specular {
		mesh.Textures = append(mesh.Textures, cache.Resolve(rel, texture.Specular))
	}
	return mesh
}
