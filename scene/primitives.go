package scene

import (
	"github.com/chewxy/math32"

	lmath "lumon/math"
)

// CreateCube generates an axis-aligned cube with per-face normals.
func CreateCube(size float32) *Mesh {
	s := size / 2

	vertices := []Vertex{
		// Front face
		{Position: lmath.NewVec3(-s, -s, s), Normal: lmath.NewVec3(0, 0, 1), UV: lmath.NewVec2(0, 0)},
		{Position: lmath.NewVec3(s, -s, s), Normal: lmath.NewVec3(0, 0, 1), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(s, s, s), Normal: lmath.NewVec3(0, 0, 1), UV: lmath.NewVec2(1, 1)},
		{Position: lmath.NewVec3(-s, s, s), Normal: lmath.NewVec3(0, 0, 1), UV: lmath.NewVec2(0, 1)},
		// Back face
		{Position: lmath.NewVec3(-s, -s, -s), Normal: lmath.NewVec3(0, 0, -1), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(s, -s, -s), Normal: lmath.NewVec3(0, 0, -1), UV: lmath.NewVec2(0, 0)},
		{Position: lmath.NewVec3(s, s, -s), Normal: lmath.NewVec3(0, 0, -1), UV: lmath.NewVec2(0, 1)},
		{Position: lmath.NewVec3(-s, s, -s), Normal: lmath.NewVec3(0, 0, -1), UV: lmath.NewVec2(1, 1)},
		// Top face
		{Position: lmath.NewVec3(-s, s, -s), Normal: lmath.NewVec3(0, 1, 0), UV: lmath.NewVec2(0, 0)},
		{Position: lmath.NewVec3(s, s, -s), Normal: lmath.NewVec3(0, 1, 0), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(s, s, s), Normal: lmath.NewVec3(0, 1, 0), UV: lmath.NewVec2(1, 1)},
		{Position: lmath.NewVec3(-s, s, s), Normal: lmath.NewVec3(0, 1, 0), UV: lmath.NewVec2(0, 1)},
		// Bottom face
		{Position: lmath.NewVec3(-s, -s, -s), Normal: lmath.NewVec3(0, -1, 0), UV: lmath.NewVec2(0, 1)},
		{Position: lmath.NewVec3(s, -s, -s), Normal: lmath.NewVec3(0, -1, 0), UV: lmath.NewVec2(1, 1)},
		{Position: lmath.NewVec3(s, -s, s), Normal: lmath.NewVec3(0, -1, 0), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(-s, -s, s), Normal: lmath.NewVec3(0, -1, 0), UV: lmath.NewVec2(0, 0)},
		// Right face
		{Position: lmath.NewVec3(s, -s, -s), Normal: lmath.NewVec3(1, 0, 0), UV: lmath.NewVec2(0, 0)},
		{Position: lmath.NewVec3(s, -s, s), Normal: lmath.NewVec3(1, 0, 0), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(s, s, s), Normal: lmath.NewVec3(1, 0, 0), UV: lmath.NewVec2(1, 1)},
		{Position: lmath.NewVec3(s, s, -s), Normal: lmath.NewVec3(1, 0, 0), UV: lmath.NewVec2(0, 1)},
		// Left face
		{Position: lmath.NewVec3(-s, -s, -s), Normal: lmath.NewVec3(-1, 0, 0), UV: lmath.NewVec2(1, 0)},
		{Position: lmath.NewVec3(-s, -s, s), Normal: lmath.NewVec3(-1, 0, 0), UV: lmath.NewVec2(0, 0)},
		{Position: lmath.NewVec3(-s, s, s), Normal: lmath.NewVec3(-1, 0, 0), UV: lmath.NewVec2(0, 1)},
		{Position: lmath.NewVec3(-s, s, -s), Normal: lmath.NewVec3(-1, 0, 0), UV: lmath.NewVec2(1, 1)},
	}

	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		6, 5, 4, 4, 7, 6,
		8, 9, 10, 10, 11, 8,
		14, 13, 12, 12, 15, 14,
		16, 17, 18, 18, 19, 16,
		22, 21, 20, 20, 23, 22,
	}

	return NewMeshFromData("Cube", vertices, indices)
}

// CreatePlane generates a flat up-facing plane on the XZ axes.
func CreatePlane(width, depth float32, subdivisions int) *Mesh {
	if subdivisions < 1 {
		subdivisions = 1
	}

	var vertices []Vertex
	var indices []uint32

	halfW := width / 2
	halfD := depth / 2

	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			vertices = append(vertices, Vertex{
				Position: lmath.NewVec3(-halfW+u*width, 0, -halfD+v*depth),
				Normal:   lmath.Vec3Up,
				UV:       lmath.NewVec2(u, v),
			})
		}
	}

	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			topLeft := uint32(z*(subdivisions+1) + x)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(subdivisions+1)
			bottomRight := bottomLeft + 1

			indices = append(indices, topLeft, bottomLeft, topRight)
			indices = append(indices, topRight, bottomLeft, bottomRight)
		}
	}

	return NewMeshFromData("Plane", vertices, indices)
}

// CreateSphere generates a UV-sphere mesh.
func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var vertices []Vertex
	var indices []uint32

	for ring := 0; ring <= rings; ring++ {
		phi := float32(ring) * math32.Pi / float32(rings)
		sinPhi := math32.Sin(phi)
		cosPhi := math32.Cos(phi)

		for seg := 0; seg <= segments; seg++ {
			theta := float32(seg) * 2 * math32.Pi / float32(segments)
			normal := lmath.NewVec3(sinPhi*math32.Cos(theta), cosPhi, sinPhi*math32.Sin(theta))
			vertices = append(vertices, Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       lmath.NewVec2(float32(seg)/float32(segments), float32(ring)/float32(rings)),
			})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			indices = append(indices, current, next, current+1)
			indices = append(indices, current+1, next, next+1)
		}
	}

	return NewMeshFromData("Sphere", vertices, indices)
}
