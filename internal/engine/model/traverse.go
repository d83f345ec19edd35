package model

import "github.com/Faultbox/meshview/internal/engine/importer"

// Traverse visits the meshes of scene depth-first in pre-order: the meshes of
// a node in their listed order, then each child subtree in order. The scene
// must have passed Validate.
func Traverse(scene *importer.Scene, visit func(meshIndex int)) {
	if scene.Empty() {
		return
	}

	stack := []int{scene.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &scene.Nodes[n]
		for _, m := range node.Meshes {
			visit(m)
		}
		// Push in reverse so the first child is visited first.
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}
