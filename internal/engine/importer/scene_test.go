package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree() *Scene {
	return &Scene{
		Nodes: []Node{
			{Name: "root", Children: []int{1, 2}},
			{Name: "body", Meshes: []int{0}},
			{Name: "helmet", Meshes: []int{1}, Children: []int{3}},
			{Name: "visor"},
		},
		Meshes: []Mesh{
			{Name: "body", Material: MaterialAt(0)},
			{Name: "helmet"},
		},
		Materials: []Material{{Name: "suit"}},
	}
}

func TestEmpty(t *testing.T) {
	var nilScene *Scene
	assert.True(t, nilScene.Empty())
	assert.True(t, (&Scene{}).Empty())
	assert.True(t, (&Scene{Nodes: []Node{{}}, Root: 1}).Empty())
	assert.True(t, (&Scene{Nodes: []Node{{}}, Incomplete: true}).Empty())
	assert.False(t, tree().Empty())
}

func TestValidate(t *testing.T) {
	require.NoError(t, tree().Validate())

	tests := []struct {
		name   string
		mutate func(*Scene)
	}{
		{"incomplete", func(s *Scene) { s.Incomplete = true }},
		{"child out of range", func(s *Scene) { s.Nodes[3].Children = []int{9} }},
		{"negative child", func(s *Scene) { s.Nodes[3].Children = []int{-1} }},
		{"mesh out of range", func(s *Scene) { s.Nodes[3].Meshes = []int{2} }},
		{"cycle", func(s *Scene) { s.Nodes[3].Children = []int{0} }},
		{"shared child", func(s *Scene) { s.Nodes[1].Children = []int{3} }},
		{"self loop", func(s *Scene) { s.Nodes[0].Children = append(s.Nodes[0].Children, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tree()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestValidateAllowsDanglingMaterial(t *testing.T) {
	s := tree()
	s.Meshes[0].Material = MaterialAt(4)
	assert.NoError(t, s.Validate())
}

func TestMaterialRef(t *testing.T) {
	var zero Mesh
	_, ok := zero.Material.Index()
	assert.False(t, ok, "zero-value mesh must have no material")

	tests := []struct {
		ref    MaterialRef
		want   int
		wantOK bool
	}{
		{NoMaterial, 0, false},
		{MaterialRef(-3), 0, false},
		{MaterialAt(0), 0, true},
		{MaterialAt(7), 7, true},
	}
	for _, tt := range tests {
		i, ok := tt.ref.Index()
		assert.Equal(t, tt.wantOK, ok, "ref %d", tt.ref)
		assert.Equal(t, tt.want, i, "ref %d", tt.ref)
	}
}

func TestValidateIgnoresUnreachableNodes(t *testing.T) {
	s := tree()
	// Detached node with a dangling reference is never visited.
	s.Nodes = append(s.Nodes, Node{Children: []int{42}})
	assert.NoError(t, s.Validate())
}

func TestSourceFunc(t *testing.T) {
	want := tree()
	var src Source = SourceFunc(func(path string) *Scene {
		assert.Equal(t, "scene.glb", path)
		return want
	})
	assert.Same(t, want, src.Load("scene.glb"))
}
