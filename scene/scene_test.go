package scene

import (
	"testing"

	"github.com/chewxy/math32"

	lmath "lumon/math"
)

func checkMesh(t *testing.T, m *Mesh) {
	t.Helper()
	if len(m.Indices)%3 != 0 {
		t.Fatalf("%s: index count %d is not a multiple of 3", m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			t.Fatalf("%s: index %d out of range (%d vertices)", m.Name, idx, len(m.Vertices))
		}
	}
	for i, v := range m.Vertices {
		if d := math32.Abs(v.Normal.Length() - 1); d > 1e-4 {
			t.Fatalf("%s: vertex %d normal not unit length: %v", m.Name, i, v.Normal)
		}
	}
}

func TestPrimitivesWellFormed(t *testing.T) {
	checkMesh(t, CreateCube(2))
	checkMesh(t, CreatePlane(10, 10, 4))
	checkMesh(t, CreateSphere(1, 12, 8))
}

func TestCubeBounds(t *testing.T) {
	m := CreateCube(2)
	if m.LocalAABB.Min != lmath.NewVec3(-1, -1, -1) || m.LocalAABB.Max != lmath.Vec3One {
		t.Errorf("unexpected cube bounds: %+v", m.LocalAABB)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("cube should have 12 triangles, got %d", m.TriangleCount())
	}
}

func TestSphereRadius(t *testing.T) {
	m := CreateSphere(3, 8, 6)
	for i, v := range m.Vertices {
		if d := math32.Abs(v.Position.Length() - 3); d > 1e-3 {
			t.Fatalf("vertex %d not on sphere surface: %v", i, v.Position)
		}
	}
}

func TestObjectNormalMatrix(t *testing.T) {
	o := NewObject("test", CreateCube(1))
	o.SetTransform(lmath.Mat4Scale(lmath.NewVec3(2, 1, 1)).Mul(lmath.Mat4Translation(lmath.NewVec3(5, 0, 0))))

	// A +X face normal must stay +X under non-uniform scale, and the
	// normal matrix must discard translation.
	n := o.NormalMatrix.MulDir(lmath.NewVec3(1, 0, 0)).Normalize()
	if math32.Abs(n.X-1) > 1e-4 || math32.Abs(n.Y) > 1e-4 || math32.Abs(n.Z) > 1e-4 {
		t.Errorf("transformed normal should be +X, got %v", n)
	}
}

func TestOrbitCamera(t *testing.T) {
	c := NewOrbitCamera(lmath.Vec3Zero, 10, math32.Pi/3, 1)

	if d := math32.Abs(c.Position.Length() - 10); d > 1e-3 {
		t.Errorf("orbit position should sit at the configured distance, got %v", c.Position)
	}

	// The view matrix must map the target in front of the camera.
	tv := c.Target.ToVec4(1).MulMat(c.ViewMatrix())
	if tv.Z >= 0 {
		t.Errorf("target should be on -Z in view space, got %v", tv)
	}

	c.Zoom(-20)
	if c.Distance < 0.1 {
		t.Errorf("zoom should clamp distance, got %v", c.Distance)
	}

	c.Orbit(0, 5)
	if c.Pitch > 1.5 {
		t.Errorf("pitch should clamp, got %v", c.Pitch)
	}
}

func TestMaterialPacking(t *testing.T) {
	m := NewPBRMaterial("metal", lmath.NewVec3(0.9, 0.9, 0.9), 1, 0.2)
	p := m.Packed()
	if p.X != 0.2 || p.Y != 1 {
		t.Errorf("packed material should be (roughness, metallic, ...), got %v", p)
	}

	e := NewEmissiveMaterial("lamp", lmath.Vec3One, 5)
	if e.Packed().Z != 5 {
		t.Errorf("emissive factor should land in Z, got %v", e.Packed())
	}
}
