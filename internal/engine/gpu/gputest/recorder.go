// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"

	"github.com/Faultbox/meshview/internal/engine/gpu"
)

// Call is one recorded Device call in issue order.
type Call struct {
	Op     string
	Unit   int
	Handle uint32
	Count  int32
}

func (c Call) String() string {
	switch c.Op {
	case "active":
		return fmt.Sprintf("active(%d)", c.Unit)
	case "bind":
		return fmt.Sprintf("bind(%d)", c.Handle)
	case "draw":
		return fmt.Sprintf("draw(%d,%d)", c.Handle, c.Count)
	default:
		return c.Op
	}
}

// Mesh is the data captured by one CreateMeshBuffers call.
type Mesh struct {
	Buffers    gpu.MeshBuffers
	VertexData []byte
	Indices    []uint32
	Layout     gpu.VertexLayout
}

// Recorder hands out increasing fake handles and records every call.
// It is not safe for concurrent use, matching the single render thread.
type Recorder struct {
	next uint32

	Textures        []gpu.TextureDesc
	TextureHandles  []uint32
	DeletedTextures []uint32
	Meshes          []Mesh
	DeletedMeshes   []gpu.MeshBuffers
	Calls           []Call
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

var _ gpu.Device = (*Recorder)(nil)

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) CreateTexture(desc gpu.TextureDesc) uint32 {
	h := r.handle()
	r.Textures = append(r.Textures, desc)
	r.TextureHandles = append(r.TextureHandles, h)
	return h
}

func (r *Recorder) DeleteTexture(handle uint32) {
	r.DeletedTextures = append(r.DeletedTextures, handle)
}

func (r *Recorder) CreateMeshBuffers(vertexData []byte, indices []uint32, layout gpu.VertexLayout) gpu.MeshBuffers {
	b := gpu.MeshBuffers{VAO: r.handle(), VBO: r.handle(), EBO: r.handle()}
	r.Meshes = append(r.Meshes, Mesh{
		Buffers:    b,
		VertexData: append([]byte(nil), vertexData...),
		Indices:    append([]uint32(nil), indices...),
		Layout:     layout,
	})
	return b
}

func (r *Recorder) DeleteMeshBuffers(b gpu.MeshBuffers) {
	r.DeletedMeshes = append(r.DeletedMeshes, b)
}

func (r *Recorder) ActiveTexture(unit int) {
	r.Calls = append(r.Calls, Call{Op: "active", Unit: unit})
}

func (r *Recorder) BindTexture(handle uint32) {
	r.Calls = append(r.Calls, Call{Op: "bind", Handle: handle})
}

func (r *Recorder) DrawIndexed(vao uint32, count int32) {
	r.Calls = append(r.Calls, Call{Op: "draw", Handle: vao, Count: count})
}

// Draws returns only the draw calls, in order.
func (r *Recorder) Draws() []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == "draw" {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded draw-phase calls but keeps created resources.
func (r *Recorder) Reset() {
	r.Calls = nil
}
