// Package opengl implements gpu.Device on top of OpenGL 4.1 core.
package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/logger"
)

// Device issues pipeline GPU calls against the current GL context.
// gl.Init must have been called before any method is used.
type Device struct{}

// New returns a device bound to the current GL context.
func New() *Device {
	return &Device{}
}

var _ gpu.Device = (*Device)(nil)

// CreateTexture uploads a 2D texture with the requested sampler state.
func (d *Device) CreateTexture(desc gpu.TextureDesc) uint32 {
	if desc.Width <= 0 || desc.Height <= 0 || len(desc.Pixels) < desc.Width*desc.Height*desc.Format.Channels() {
		logger.Warn("texture upload skipped: pixel data does not cover image",
			zap.Int("width", desc.Width),
			zap.Int("height", desc.Height),
			zap.Stringer("format", desc.Format),
			zap.Int("bytes", len(desc.Pixels)),
		)
		return 0
	}

	format := glFormat(desc.Format)

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)

	// Rows of 1- and 3-channel images are not 4-byte aligned in general.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(format), int32(desc.Width), int32(desc.Height), 0,
		format, gl.UNSIGNED_BYTE, unsafe.Pointer(&desc.Pixels[0]))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	if desc.Sampler.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	wrap := glWrap(desc.Sampler.Wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(desc.Sampler.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(desc.Sampler.MagFilter))

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texID
}

// DeleteTexture releases a texture object. Zero handles are ignored.
func (d *Device) DeleteTexture(handle uint32) {
	if handle != 0 {
		gl.DeleteTextures(1, &handle)
	}
}

// CreateMeshBuffers uploads a mesh into a new VAO/VBO/EBO triple.
func (d *Device) CreateMeshBuffers(vertexData []byte, indices []uint32, layout gpu.VertexLayout) gpu.MeshBuffers {
	var b gpu.MeshBuffers

	gl.GenVertexArrays(1, &b.VAO)
	gl.BindVertexArray(b.VAO)

	gl.GenBuffers(1, &b.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertexData), ptr(vertexData), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.EBO)
	var indexPtr unsafe.Pointer
	if len(indices) > 0 {
		indexPtr = unsafe.Pointer(&indices[0])
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, indexPtr, gl.STATIC_DRAW)

	for _, a := range layout.Attribs {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, layout.Stride, a.Offset)
	}

	// Unbind the VAO first so the element buffer binding stays recorded in it.
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return b
}

// DeleteMeshBuffers releases the objects created by CreateMeshBuffers.
func (d *Device) DeleteMeshBuffers(b gpu.MeshBuffers) {
	if b.VAO != 0 {
		gl.DeleteVertexArrays(1, &b.VAO)
	}
	if b.VBO != 0 {
		gl.DeleteBuffers(1, &b.VBO)
	}
	if b.EBO != 0 {
		gl.DeleteBuffers(1, &b.EBO)
	}
}

// ActiveTexture selects texture unit GL_TEXTURE0+unit.
func (d *Device) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

// BindTexture binds a 2D texture to the active unit.
func (d *Device) BindTexture(handle uint32) {
	gl.BindTexture(gl.TEXTURE_2D, handle)
}

// DrawIndexed draws indexed triangles from the given vertex array.
func (d *Device) DrawIndexed(vao uint32, count int32) {
	gl.BindVertexArray(vao)
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

func glFormat(f gpu.PixelFormat) uint32 {
	switch f {
	case gpu.FormatRed:
		return gl.RED
	case gpu.FormatRGBA:
		return gl.RGBA
	default:
		return gl.RGB
	}
}

func glWrap(w gpu.Wrap) int32 {
	if w == gpu.WrapClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func glFilter(f gpu.Filter) int32 {
	switch f {
	case gpu.FilterNearest:
		return gl.NEAREST
	case gpu.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}
