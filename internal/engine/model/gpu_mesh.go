package model

import (
	"unsafe"

	"github.com/Faultbox/meshview/internal/engine/gpu"
)

// Vertex attribute locations expected by the model shader.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribTexCoord = 2
)

// VertexLayout describes Vertex as interleaved attributes.
var VertexLayout = gpu.VertexLayout{
	Stride: int32(unsafe.Sizeof(Vertex{})),
	Attribs: []gpu.VertexAttrib{
		{Location: AttribPosition, Components: 3, Offset: unsafe.Offsetof(Vertex{}.Position)},
		{Location: AttribNormal, Components: 3, Offset: unsafe.Offsetof(Vertex{}.Normal)},
		{Location: AttribTexCoord, Components: 2, Offset: unsafe.Offsetof(Vertex{}.TexCoord)},
	},
}

// GPUMesh owns the vertex array and buffers of an uploaded mesh.
type GPUMesh struct {
	Buffers    gpu.MeshBuffers
	IndexCount int32
}

// UploadMesh copies vertices and indices to the GPU.
func UploadMesh(dev gpu.Device, vertices []Vertex, indices []uint32) GPUMesh {
	return GPUMesh{
		Buffers:    dev.CreateMeshBuffers(vertexBytes(vertices), indices, VertexLayout),
		IndexCount: int32(len(indices)),
	}
}

// Release deletes the GPU objects. Later calls do nothing.
func (g *GPUMesh) Release(dev gpu.Device) {
	if g.Buffers.IsZero() {
		return
	}
	dev.DeleteMeshBuffers(g.Buffers)
	g.Buffers = gpu.MeshBuffers{}
}

func vertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := len(vertices) * int(unsafe.Sizeof(Vertex{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}
