package model

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/engine/importer"
	"github.com/Faultbox/meshview/internal/engine/texture"
	"github.com/Faultbox/meshview/internal/logger"
)

// Load imports the scene at path, builds every reachable mesh and uploads it
// through dev. Textures are resolved relative to the directory of path.
//
// Load does not fail: a scene that cannot be imported is logged and yields a
// model without meshes.
func Load(path string, src importer.Source, dec texture.Decoder, dev gpu.Device) *Model {
	baseDir := filepath.Dir(path)
	m := &Model{
		Path:     path,
		BaseDir:  baseDir,
		Textures: texture.NewCache(baseDir, dec, dev),
		device:   dev,
	}

	scene := src.Load(path)
	if err := scene.Validate(); err != nil {
		logger.Error("failed to import model", zap.String("path", path), zap.Error(err))
		return m
	}

	Traverse(scene, func(meshIndex int) {
		mesh := BuildMesh(&scene.Meshes[meshIndex], scene, m.Textures)
		mesh.GPU = UploadMesh(dev, mesh.Vertices, mesh.Indices)
		m.Meshes = append(m.Meshes, mesh)
	})

	hits, misses := m.Textures.Stats()
	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("textures", m.Textures.Len()),
		zap.Int("textureHits", hits),
		zap.Int("textureMisses", misses),
	)
	return m
}

// Release deletes every GPU object owned by the model. It is safe to call
// more than once; a released model draws nothing.
func (m *Model) Release() {
	if m.released {
		return
	}
	m.released = true
	for _, mesh := range m.Meshes {
		mesh.GPU.Release(m.device)
	}
	m.Textures.Release()
}

// Released reports whether Release has been called.
func (m *Model) Released() bool {
	return m.released
}
