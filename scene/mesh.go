package scene

import lmath "lumon/math"

// Vertex holds the CPU-side attributes the rasterizer interpolates.
type Vertex struct {
	Position lmath.Vec3
	Normal   lmath.Vec3
	UV       lmath.Vec2
}

// AABB is an axis-aligned bounding box in the mesh's local space.
type AABB struct {
	Min lmath.Vec3
	Max lmath.Vec3
}

// Mesh holds indexed triangle geometry. Three consecutive indices form
// one triangle, counter-clockwise front faces.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Material *Material

	// Local-space bounds, computed by NewMeshFromData.
	LocalAABB AABB
}

// NewMeshFromData builds a Mesh and pre-computes its local-space AABB.
func NewMeshFromData(name string, vertices []Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		m.LocalAABB = computeLocalAABB(vertices)
	}
	return m
}

// TriangleCount returns the number of triangles described by the index
// buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func computeLocalAABB(vertices []Vertex) AABB {
	min := vertices[0].Position
	max := vertices[0].Position
	for i := 1; i < len(vertices); i++ {
		p := vertices[i].Position
		min = lmath.NewVec3(lmath.Min(min.X, p.X), lmath.Min(min.Y, p.Y), lmath.Min(min.Z, p.Z))
		max = lmath.NewVec3(lmath.Max(max.X, p.X), lmath.Max(max.Y, p.Y), lmath.Max(max.Z, p.Z))
	}
	return AABB{Min: min, Max: max}
}
