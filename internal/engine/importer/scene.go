// Package importer defines the in-memory form of an imported 3D scene.
//
// A Scene is a flat arena: nodes refer to their children and meshes by index,
// and meshes refer to materials by index. Sources such as gltfimport produce
// a Scene; the model package turns it into drawable meshes.
package importer

import (
	"errors"
	"fmt"
)

// MaterialRef refers to an entry of Scene.Materials. It stores the index plus
// one so that the zero value of a Mesh has no material.
type MaterialRef int

// NoMaterial marks a mesh without a material.
const NoMaterial MaterialRef = 0

// MaterialAt returns a reference to Scene.Materials[i].
func MaterialAt(i int) MaterialRef {
	return MaterialRef(i + 1)
}

// Index returns the referenced material index. ok is false for NoMaterial.
// The index is not range-checked against any scene.
func (r MaterialRef) Index() (i int, ok bool) {
	if r <= NoMaterial {
		return 0, false
	}
	return int(r) - 1, true
}

// Node is one element of the scene tree.
type Node struct {
	Name     string
	Meshes   []int // indices into Scene.Meshes
	Children []int // indices into Scene.Nodes
}

// Mesh is raw, pre-triangulated geometry as read from the scene file.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32 // may be shorter than Positions
	TexCoords [][2]float32 // first UV channel, nil when absent
	Faces     [][]uint32   // per-face vertex indices
	Material  MaterialRef
}

// Material lists texture paths per slot, relative to the scene file.
type Material struct {
	Name     string
	Diffuse  []string
	Specular []string
}

// Scene is an imported scene.
type Scene struct {
	Nodes     []Node
	Root      int
	Meshes    []Mesh
	Materials []Material

	// Incomplete is set by sources that could only partially read the file.
	Incomplete bool
}

// Source reads scene files. Load never fails loudly: an unreadable or
// incomplete file yields nil or a scene reporting Empty.
type Source interface {
	Load(path string) *Scene
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(path string) *Scene

// Load calls f(path).
func (f SourceFunc) Load(path string) *Scene {
	return f(path)
}

// Empty reports whether s is unusable as a scene: nil, incomplete, or
// without a root node.
func (s *Scene) Empty() bool {
	return s == nil || s.Incomplete || s.Root < 0 || s.Root >= len(s.Nodes)
}

// ErrEmptyScene is returned by Validate for scenes reporting Empty.
var ErrEmptyScene = errors.New("scene is empty or incomplete")

// Validate checks that the node and mesh indices reachable from Root are in
// range and that those nodes form a tree. A node reached twice (shared child
// or cycle) is rejected. Material references are not checked here; a mesh
// with a dangling material is drawn without textures.
func (s *Scene) Validate() error {
	if s.Empty() {
		return ErrEmptyScene
	}

	visited := make([]bool, len(s.Nodes))
	stack := []int{s.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[n] {
			return fmt.Errorf("node %d reached twice: scene graph is not a tree", n)
		}
		visited[n] = true

		node := &s.Nodes[n]
		for _, m := range node.Meshes {
			if m < 0 || m >= len(s.Meshes) {
				return fmt.Errorf("node %d: mesh %d out of range", n, m)
			}
		}
		for _, c := range node.Children {
			if c < 0 || c >= len(s.Nodes) {
				return fmt.Errorf("node %d: child %d out of range", n, c)
			}
			stack = append(stack, c)
		}
	}
	return nil
}
