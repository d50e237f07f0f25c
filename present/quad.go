package present

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/cells/gpucore"
)

// Vertex is one corner of the full-screen quad.
type Vertex struct {
	Position [4]float32
	UV       [2]float32
}

// VertexStride is the size of one encoded Vertex in bytes.
const VertexStride = 24

// QuadIndices draws the quad as two counter-clockwise triangles.
var QuadIndices = []uint16{0, 1, 2, 2, 3, 0}

// QuadVertices covers clip space. UV (0,0) is the bottom-left corner.
func QuadVertices() []Vertex {
	return []Vertex{
		{Position: [4]float32{-1, -1, 0, 1}, UV: [2]float32{0, 0}},
		{Position: [4]float32{1, -1, 0, 1}, UV: [2]float32{1, 0}},
		{Position: [4]float32{1, 1, 0, 1}, UV: [2]float32{1, 1}},
		{Position: [4]float32{-1, 1, 0, 1}, UV: [2]float32{0, 1}},
	}
}

// VertexLayout describes Vertex to the pipeline: position at location 0,
// UV at location 1.
func VertexLayout() gpucore.VertexBufferLayout {
	return gpucore.VertexBufferLayout{
		ArrayStride: VertexStride,
		Attributes: []gpucore.VertexAttribute{
			{Format: gpucore.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			{Format: gpucore.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 1},
		},
	}
}

func encodeVertices(vs []Vertex) []byte {
	out := make([]byte, len(vs)*VertexStride)
	for i, v := range vs {
		off := i * VertexStride
		for j, f := range v.Position {
			binary.LittleEndian.PutUint32(out[off+j*4:], math.Float32bits(f))
		}
		binary.LittleEndian.PutUint32(out[off+16:], math.Float32bits(v.UV[0]))
		binary.LittleEndian.PutUint32(out[off+20:], math.Float32bits(v.UV[1]))
	}
	return out
}

// encodeIndices pads to a multiple of four bytes as buffer writes require.
func encodeIndices(idx []uint16) []byte {
	n := len(idx) * 2
	out := make([]byte, (n+3)&^3)
	for i, v := range idx {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}
