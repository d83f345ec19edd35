package renderer

import "github.com/go-gl/mathgl/mgl32"

// Context holds the framebuffer size and the projection derived from it.
// The viewer owns one and passes it to each frame.
type Context struct {
	Width  int
	Height int

	FOV  float32 // vertical, degrees
	Near float32
	Far  float32

	Projection mgl32.Mat4
}

// NewContext creates a context with its projection computed.
func NewContext(width, height int, fov, near, far float32) Context {
	c := Context{FOV: fov, Near: near, Far: far}
	if !c.Resize(width, height) {
		c.Projection = c.perspective(1)
	}
	return c
}

// Aspect returns width over height.
func (c *Context) Aspect() float32 {
	if c.Height <= 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// Resize records the new size and recomputes the projection. Non-positive
// sizes (a minimized window) are ignored and Resize reports false.
func (c *Context) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	c.Width, c.Height = width, height
	c.Projection = c.perspective(c.Aspect())
	return true
}

func (c *Context) perspective(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}
