// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader is the vertex shader for model rendering.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader is the fragment shader for model rendering. It lights
// the first diffuse and specular textures with one directional light.
//
//go:embed model.frag
var ModelFragmentShader string
