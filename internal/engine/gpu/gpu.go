// Package gpu describes the GPU operations the asset pipeline depends on.
//
// The pipeline never calls OpenGL directly; it goes through a Device so the
// load and draw phases can run against a recording device in tests. The
// OpenGL implementation lives in package opengl. Every Device method must be
// called from the thread that owns the current rendering context.
package gpu

// PixelFormat is the channel layout of uploaded texture data.
type PixelFormat int

// Pixel formats supported by texture uploads.
const (
	FormatRed PixelFormat = iota + 1
	FormatRGB
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRed:
		return "red"
	case FormatRGB:
		return "rgb"
	case FormatRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// Channels returns the number of bytes per pixel for the format.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRed:
		return 1
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

// Wrap is a texture coordinate wrap mode.
type Wrap int

// Wrap modes.
const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

// Filter is a texture sampling filter.
type Filter int

// Sampling filters.
const (
	FilterLinear Filter = iota
	FilterNearest
	FilterLinearMipmapLinear
)

// Sampler holds the sampling state applied to a texture at creation.
type Sampler struct {
	Wrap      Wrap
	MinFilter Filter
	MagFilter Filter
	Mipmaps   bool
}

// DefaultSampler is the sampler used for model textures: repeat wrapping,
// trilinear minification and generated mipmaps.
var DefaultSampler = Sampler{
	Wrap:      WrapRepeat,
	MinFilter: FilterLinearMipmapLinear,
	MagFilter: FilterLinear,
	Mipmaps:   true,
}

// TextureDesc describes a 2D texture upload.
type TextureDesc struct {
	Width   int
	Height  int
	Format  PixelFormat
	Pixels  []byte
	Sampler Sampler
}

// VertexAttrib is one float attribute inside an interleaved vertex.
type VertexAttrib struct {
	Location   uint32
	Components int32
	Offset     uintptr
}

// VertexLayout describes an interleaved vertex buffer.
type VertexLayout struct {
	Stride  int32
	Attribs []VertexAttrib
}

// MeshBuffers names the vertex array, vertex buffer and index buffer of one
// uploaded mesh.
type MeshBuffers struct {
	VAO uint32
	VBO uint32
	EBO uint32
}

// IsZero reports whether no GPU objects are referenced.
func (b MeshBuffers) IsZero() bool {
	return b.VAO == 0 && b.VBO == 0 && b.EBO == 0
}

// Device is the set of GPU calls made by the load and draw phases.
type Device interface {
	// CreateTexture uploads a 2D texture and returns its non-zero handle.
	CreateTexture(desc TextureDesc) uint32
	DeleteTexture(handle uint32)

	// CreateMeshBuffers uploads interleaved vertex data and 32-bit indices
	// and records the attribute layout in a new vertex array.
	CreateMeshBuffers(vertexData []byte, indices []uint32, layout VertexLayout) MeshBuffers
	DeleteMeshBuffers(buffers MeshBuffers)

	// ActiveTexture selects the texture unit that BindTexture affects.
	ActiveTexture(unit int)
	BindTexture(handle uint32)

	// DrawIndexed draws count indices as triangles from the vertex array.
	DrawIndexed(vao uint32, count int32)
}
