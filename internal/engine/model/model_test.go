package model

import (
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/engine/gpu/gputest"
	"github.com/Faultbox/meshview/internal/engine/importer"
	"github.com/Faultbox/meshview/internal/engine/texture"
	"github.com/Faultbox/meshview/internal/logger"
)

var modelPath = filepath.FromSlash("/models/crate/crate.gltf")

func texPath(name string) string {
	return filepath.Join(filepath.Dir(modelPath), name)
}

type uniform struct {
	name  string
	value int32
}

type recordingProgram struct {
	uses     int
	uniforms []uniform
}

func (p *recordingProgram) Use() { p.uses++ }

func (p *recordingProgram) SetInt(name string, v int32) {
	p.uniforms = append(p.uniforms, uniform{name, v})
}

// memDecoder serves images by absolute path and counts decodes.
type memDecoder struct {
	images map[string]int // path -> channels
	calls  int
}

func (d *memDecoder) Decode(path string) (*texture.Image, error) {
	d.calls++
	ch, ok := d.images[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return &texture.Image{Width: 1, Height: 1, Channels: ch, Pixels: make([]byte, ch)}, nil
}

func decoderWith(names ...string) *memDecoder {
	d := &memDecoder{images: make(map[string]int)}
	for _, n := range names {
		d.images[texPath(n)] = 4
	}
	return d
}

func sourceOf(scene *importer.Scene) importer.Source {
	return importer.SourceFunc(func(string) *importer.Scene { return scene })
}

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })
	return logs
}

// cube returns a unit cube with 8 shared corners and 12 triangles.
func cube(material importer.MaterialRef) importer.Mesh {
	return importer.Mesh{
		Name: "cube",
		Positions: [][3]float32{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		},
		Faces: [][]uint32{
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{3, 7, 6}, {3, 6, 2},
			{0, 4, 7}, {0, 7, 3},
			{1, 2, 6}, {1, 6, 5},
		},
		Material: material,
	}
}

// singleNodeScene wraps meshes in a scene whose root node lists them all.
func singleNodeScene(materials []importer.Material, meshes ...importer.Mesh) *importer.Scene {
	root := importer.Node{Name: "root"}
	for i := range meshes {
		root.Meshes = append(root.Meshes, i)
	}
	return &importer.Scene{
		Nodes:     []importer.Node{root},
		Meshes:    meshes,
		Materials: materials,
	}
}

func TestTraverseOrder(t *testing.T) {
	scene := &importer.Scene{
		Nodes: []importer.Node{
			{Name: "root", Meshes: []int{0}, Children: []int{1, 2}},
			{Name: "a", Meshes: []int{1, 2}, Children: []int{3}},
			{Name: "b", Meshes: []int{4}},
			{Name: "a.child", Meshes: []int{3}},
			{Name: "orphan", Meshes: []int{5}},
		},
		Meshes: make([]importer.Mesh, 6),
	}
	require.NoError(t, scene.Validate())

	var got []int
	Traverse(scene, func(i int) { got = append(got, i) })
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestTraverseEmpty(t *testing.T) {
	visited := 0
	Traverse(nil, func(int) { visited++ })
	Traverse(&importer.Scene{Incomplete: true, Nodes: []importer.Node{{Meshes: []int{0}}}}, func(int) { visited++ })
	assert.Zero(t, visited)
}

func TestBuildMeshDefaults(t *testing.T) {
	raw := &importer.Mesh{
		Positions: [][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		Normals:   [][3]float32{{0, 1, 0}},
		Faces:     [][]uint32{{0, 1, 2}},
		Material:  importer.NoMaterial,
	}
	dec := decoderWith()
	mesh := BuildMesh(raw, &importer.Scene{}, texture.NewCache("/", dec, gputest.New()))

	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, Vertex{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 1, 0}}, mesh.Vertices[0])
	assert.Equal(t, Vertex{Position: [3]float32{4, 5, 6}}, mesh.Vertices[1])
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.Empty(t, mesh.Textures)
	assert.Zero(t, dec.calls)
}

func TestBuildMeshCopiesTexCoords(t *testing.T) {
	raw := &importer.Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Faces:     [][]uint32{{0, 1, 2}},
		Material:  importer.NoMaterial,
	}
	mesh := BuildMesh(raw, &importer.Scene{}, texture.NewCache("/", decoderWith(), gputest.New()))
	assert.Equal(t, [2]float32{1, 0}, mesh.Vertices[1].TexCoord)
	assert.Equal(t, [2]float32{0, 1}, mesh.Vertices[2].TexCoord)
}

func TestBuildMeshDropsOutOfRangeFaces(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	raw := &importer.Mesh{
		Name:      "broken",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     [][]uint32{{0, 1, 2}, {0, 1, 9}, {2, 1, 0}, {3, 0, 1}},
		Material:  importer.NoMaterial,
	}
	mesh := BuildMesh(raw, &importer.Scene{}, texture.NewCache("/", decoderWith(), gputest.New()))

	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 0}, mesh.Indices)
	for _, idx := range mesh.Indices {
		assert.Less(t, idx, uint32(len(mesh.Vertices)))
	}
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["faces"])
}

func TestBuildMeshMaterialOutOfRange(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	raw := cube(importer.MaterialAt(3))
	mesh := BuildMesh(&raw, &importer.Scene{}, texture.NewCache("/", decoderWith(), gputest.New()))

	assert.Empty(t, mesh.Textures)
	assert.Equal(t, 1, logs.FilterMessage("mesh material out of range").Len())
}

func TestBuildMeshZeroValueHasNoTextures(t *testing.T) {
	materials := []importer.Material{{Diffuse: []string{"d.png"}}}
	dec := decoderWith("d.png")
	raw := &importer.Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     [][]uint32{{0, 1, 2}},
	}
	cache := texture.NewCache(filepath.Dir(modelPath), dec, gputest.New())

	mesh := BuildMesh(raw, &importer.Scene{Materials: materials}, cache)
	assert.Empty(t, mesh.Textures)
	assert.Zero(t, dec.calls)
}

func TestBuildMeshTextureOrder(t *testing.T) {
	materials := []importer.Material{{
		Specular: []string{"spec.png"},
		Diffuse:  []string{"a.png", "b.png"},
	}}
	raw := cube(importer.MaterialAt(0))
	cache := texture.NewCache(filepath.Dir(modelPath), decoderWith("a.png", "b.png", "spec.png"), gputest.New())

	mesh := BuildMesh(&raw, &importer.Scene{Materials: materials}, cache)

	require.Len(t, mesh.Textures, 3)
	assert.Equal(t, texture.Diffuse, mesh.Textures[0].Kind)
	assert.Equal(t, texPath("a.png"), mesh.Textures[0].Path)
	assert.Equal(t, texture.Diffuse, mesh.Textures[1].Kind)
	assert.Equal(t, texPath("b.png"), mesh.Textures[1].Path)
	assert.Equal(t, texture.Specular, mesh.Textures[2].Kind)
	assert.Equal(t, texPath("spec.png"), mesh.Textures[2].Path)
}

func TestUploadMesh(t *testing.T) {
	rec := gputest.New()
	vertices := []Vertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0.5, 0.25}},
		{Position: [3]float32{4, 5, 6}},
	}
	g := UploadMesh(rec, vertices, []uint32{0, 1, 0})

	require.Len(t, rec.Meshes, 1)
	up := rec.Meshes[0]
	assert.Equal(t, g.Buffers, up.Buffers)
	assert.Equal(t, int32(3), g.IndexCount)
	assert.Equal(t, []uint32{0, 1, 0}, up.Indices)

	assert.Equal(t, int32(32), up.Layout.Stride)
	assert.Equal(t, []gpu.VertexAttrib{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 3, Offset: 12},
		{Location: 2, Components: 2, Offset: 24},
	}, up.Layout.Attribs)

	require.Len(t, up.VertexData, 64)
	float := func(off int) float32 {
		return math.Float32frombits(binary.NativeEndian.Uint32(up.VertexData[off:]))
	}
	assert.Equal(t, float32(1), float(0))
	assert.Equal(t, float32(3), float(8))
	assert.Equal(t, float32(1), float(20))
	assert.Equal(t, float32(0.25), float(28))
	assert.Equal(t, float32(4), float(32))
}

func TestGPUMeshReleaseOnce(t *testing.T) {
	rec := gputest.New()
	g := UploadMesh(rec, []Vertex{{}}, []uint32{0})

	g.Release(rec)
	g.Release(rec)
	assert.Len(t, rec.DeletedMeshes, 1)
	assert.True(t, g.Buffers.IsZero())
}

func TestLoadCubeDraw(t *testing.T) {
	rec := gputest.New()
	scene := singleNodeScene(nil, cube(importer.NoMaterial))

	m := Load(modelPath, sourceOf(scene), decoderWith(), rec)
	require.Len(t, m.Meshes, 1)
	assert.Equal(t, filepath.Dir(modelPath), m.BaseDir)

	rec.Reset()
	m.Draw(&recordingProgram{})

	draws := rec.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, int32(36), draws[0].Count)
	assert.Equal(t, m.Meshes[0].GPU.Buffers.VAO, draws[0].Handle)
}

func TestDrawSequentialTriangles(t *testing.T) {
	raw := importer.Mesh{Material: importer.NoMaterial}
	for i := uint32(0); i < 36; i += 3 {
		raw.Positions = append(raw.Positions, [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})
		raw.Faces = append(raw.Faces, []uint32{i, i + 1, i + 2})
	}
	rec := gputest.New()

	m := Load(modelPath, sourceOf(singleNodeScene(nil, raw)), decoderWith(), rec)
	require.Len(t, m.Meshes, 1)
	require.Len(t, m.Meshes[0].Vertices, 36)
	for i, idx := range m.Meshes[0].Indices {
		require.Equal(t, uint32(i), idx)
	}

	rec.Reset()
	m.Draw(&recordingProgram{})
	assert.Equal(t, []gputest.Call{
		{Op: "active", Unit: 0},
		{Op: "draw", Handle: m.Meshes[0].GPU.Buffers.VAO, Count: 36},
	}, rec.Calls)
}

func TestDrawUniformNaming(t *testing.T) {
	rec := gputest.New()
	materials := []importer.Material{{
		Diffuse:  []string{"d1.png", "d2.png"},
		Specular: []string{"s1.png"},
	}}
	scene := singleNodeScene(materials, cube(importer.MaterialAt(0)))

	m := Load(modelPath, sourceOf(scene), decoderWith("d1.png", "d2.png", "s1.png"), rec)
	require.Len(t, m.Meshes, 1)
	require.Equal(t, []uint32{1, 2, 3}, rec.TextureHandles)

	rec.Reset()
	prog := &recordingProgram{}
	m.Draw(prog)

	assert.Equal(t, []uniform{
		{"material.texture_diffuse1", 0},
		{"material.texture_diffuse2", 1},
		{"material.texture_specular1", 2},
	}, prog.uniforms)

	assert.Equal(t, []gputest.Call{
		{Op: "active", Unit: 0},
		{Op: "bind", Handle: 1},
		{Op: "active", Unit: 1},
		{Op: "bind", Handle: 2},
		{Op: "active", Unit: 2},
		{Op: "bind", Handle: 3},
		{Op: "active", Unit: 0},
		{Op: "draw", Handle: m.Meshes[0].GPU.Buffers.VAO, Count: 36},
	}, rec.Calls)
}

func TestDrawCountersResetPerMesh(t *testing.T) {
	rec := gputest.New()
	materials := []importer.Material{{Diffuse: []string{"d.png"}}}
	scene := singleNodeScene(materials, cube(importer.MaterialAt(0)), cube(importer.MaterialAt(0)))

	m := Load(modelPath, sourceOf(scene), decoderWith("d.png"), rec)
	prog := &recordingProgram{}
	m.Draw(prog)

	assert.Equal(t, []uniform{
		{"material.texture_diffuse1", 0},
		{"material.texture_diffuse1", 0},
	}, prog.uniforms)
	assert.Len(t, rec.Draws(), 2)
}

func TestLoadDeduplicatesTextures(t *testing.T) {
	rec := gputest.New()
	dec := decoderWith("shared.png", "other.png")
	materials := []importer.Material{
		{Diffuse: []string{"shared.png"}},
		{Diffuse: []string{"./shared.png", "other.png"}, Specular: []string{"shared.png"}},
	}
	scene := &importer.Scene{
		Nodes: []importer.Node{
			{Name: "root", Meshes: []int{0}, Children: []int{1}},
			{Name: "child", Meshes: []int{1, 0}},
		},
		Meshes:    []importer.Mesh{cube(importer.MaterialAt(0)), cube(importer.MaterialAt(1))},
		Materials: materials,
	}

	m := Load(modelPath, sourceOf(scene), dec, rec)
	require.Len(t, m.Meshes, 3)

	assert.Len(t, rec.Textures, 2)
	assert.Equal(t, 2, dec.calls)
	assert.Equal(t, 2, m.Textures.Len())

	shared := m.Meshes[0].Textures[0].Handle
	second := m.Meshes[1].Textures
	require.Len(t, second, 3)
	assert.Equal(t, shared, second[0].Handle)
	assert.Equal(t, shared, second[2].Handle)
	assert.Equal(t, texture.Specular, second[2].Kind)
	assert.Equal(t, shared, m.Meshes[2].Textures[0].Handle)

	hits, misses := m.Textures.Stats()
	assert.Equal(t, 3, hits)
	assert.Equal(t, 2, misses)
}

func TestLoadTextureFailure(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)
	rec := gputest.New()
	materials := []importer.Material{{Diffuse: []string{"missing.png"}}}
	scene := singleNodeScene(materials, cube(importer.MaterialAt(0)))

	m := Load(modelPath, sourceOf(scene), decoderWith(), rec)
	require.Len(t, m.Meshes, 1)
	require.Len(t, m.Meshes[0].Textures, 1)
	assert.False(t, m.Meshes[0].Textures[0].Valid())
	assert.Empty(t, rec.Textures)
	assert.Equal(t, 1, logs.FilterMessage("failed to load texture").Len())

	rec.Reset()
	m.Draw(&recordingProgram{})
	assert.Equal(t, gputest.Call{Op: "bind", Handle: 0}, rec.Calls[1])
	assert.Len(t, rec.Draws(), 1)
}

func TestLoadChannelFallback(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)
	rec := gputest.New()
	dec := &memDecoder{images: map[string]int{texPath("la.png"): 2}}
	materials := []importer.Material{{Diffuse: []string{"la.png"}}}
	scene := singleNodeScene(materials, cube(importer.MaterialAt(0)), cube(importer.MaterialAt(0)))

	m := Load(modelPath, sourceOf(scene), dec, rec)
	require.Len(t, m.Meshes, 2)
	require.Len(t, rec.Textures, 1)
	assert.Equal(t, gpu.FormatRGB, rec.Textures[0].Format)
	assert.Equal(t, 1, logs.Len())
}

func TestLoadDanglingMaterialKeepsMeshes(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)
	rec := gputest.New()
	materials := []importer.Material{{Diffuse: []string{"d.png"}}}
	scene := singleNodeScene(materials, cube(importer.NoMaterial), cube(importer.MaterialAt(7)), cube(importer.MaterialAt(0)))

	m := Load(modelPath, sourceOf(scene), decoderWith("d.png"), rec)
	require.Len(t, m.Meshes, 3)
	assert.Empty(t, m.Meshes[0].Textures)
	assert.Empty(t, m.Meshes[1].Textures)
	assert.Len(t, m.Meshes[2].Textures, 1)
	assert.Len(t, rec.Draws(), 0)

	m.Draw(&recordingProgram{})
	assert.Len(t, rec.Draws(), 3)

	warnings := logs.FilterMessage("mesh material out of range").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(7), warnings[0].ContextMap()["material"])
}

func TestLoadImportFailure(t *testing.T) {
	tests := []struct {
		name  string
		scene *importer.Scene
	}{
		{"nil scene", nil},
		{"incomplete", &importer.Scene{Incomplete: true, Nodes: []importer.Node{{}}}},
		{"no root", &importer.Scene{}},
		{"cycle", &importer.Scene{
			Nodes:  []importer.Node{{Children: []int{1}}, {Meshes: []int{0}, Children: []int{0}}},
			Meshes: []importer.Mesh{cube(importer.NoMaterial)},
		}},
		{"mesh out of range", &importer.Scene{Nodes: []importer.Node{{Meshes: []int{4}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t, zapcore.ErrorLevel)
			rec := gputest.New()

			m := Load(modelPath, sourceOf(tt.scene), decoderWith(), rec)
			assert.Empty(t, m.Meshes)
			assert.Empty(t, rec.Meshes)
			assert.Equal(t, 1, logs.FilterMessage("failed to import model").Len())

			m.Draw(&recordingProgram{})
			assert.Empty(t, rec.Calls)
			m.Release()
		})
	}
}

func TestModelRelease(t *testing.T) {
	rec := gputest.New()
	materials := []importer.Material{{Diffuse: []string{"d.png"}, Specular: []string{"s.png"}}}
	scene := singleNodeScene(materials, cube(importer.MaterialAt(0)), cube(importer.NoMaterial))

	m := Load(modelPath, sourceOf(scene), decoderWith("d.png", "s.png"), rec)
	require.Len(t, m.Meshes, 2)

	m.Release()
	m.Release()

	assert.True(t, m.Released())
	assert.Equal(t, []gpu.MeshBuffers{rec.Meshes[0].Buffers, rec.Meshes[1].Buffers}, rec.DeletedMeshes)
	assert.Equal(t, []uint32{1, 2}, rec.DeletedTextures)
	assert.Zero(t, m.Textures.Len())

	rec.Reset()
	m.Draw(&recordingProgram{})
	assert.Empty(t, rec.Calls)
}
