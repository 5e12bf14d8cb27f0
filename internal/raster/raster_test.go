package raster

import (
	"testing"

	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/scene"
)

func frontCamera() (lmath.Mat4, lmath.Mat4) {
	view := lmath.Mat4LookAt(lmath.Vec3Zero, lmath.NewVec3(0, 0, -1), lmath.Vec3Up)
	proj := lmath.Mat4Perspective(math32.Pi/3, 1, 0.1, 100)
	return view, proj
}

func TestRenderCube(t *testing.T) {
	sc := scene.NewScene()
	cube := scene.CreateCube(4)
	cube.Material = scene.NewMaterial("red", lmath.NewVec3(0.8, 0.1, 0.1))
	obj := sc.AddMesh("cube", cube)
	obj.SetTransform(lmath.Mat4Translation(lmath.NewVec3(0, 0, -10)))

	g := gbuffer.NewGBuffer(64, 64)
	view, proj := frontCamera()
	New(64, 64).Render(g, sc, view, proj)

	// The cube's front face covers the screen center.
	cx, cy := 32, 32
	if g.IsSky(cx, cy) {
		t.Fatal("center pixel should be covered")
	}
	d := g.Depth.At(cx, cy)
	if d <= 0 || d >= gbuffer.SkyDepthThreshold {
		t.Errorf("center depth out of range: %v", d)
	}

	n := g.WorldNormal(cx, cy)
	if n.Z < 0.99 {
		t.Errorf("front face normal should be +Z, got %v", n)
	}
	if a := g.Albedo.At(cx, cy).ToVec3(); a != lmath.NewVec3(0.8, 0.1, 0.1) {
		t.Errorf("unexpected albedo: %v", a)
	}

	// Corners see past the cube.
	if !g.IsSky(2, 2) || !g.IsSky(61, 61) {
		t.Error("corner pixels should remain sky")
	}
}

func TestDepthOrdering(t *testing.T) {
	sc := scene.NewScene()
	far := sc.AddMesh("far", scene.CreateCube(4))
	far.Mesh.Material = scene.NewMaterial("blue", lmath.NewVec3(0, 0, 1))
	far.SetTransform(lmath.Mat4Translation(lmath.NewVec3(0, 0, -20)))
	near := sc.AddMesh("near", scene.CreateCube(2))
	near.Mesh.Material = scene.NewMaterial("green", lmath.NewVec3(0, 1, 0))
	near.SetTransform(lmath.Mat4Translation(lmath.NewVec3(0, 0, -10)))

	g := gbuffer.NewGBuffer(64, 64)
	view, proj := frontCamera()
	New(64, 64).Render(g, sc, view, proj)

	if a := g.Albedo.At(32, 32).ToVec3(); a != lmath.NewVec3(0, 1, 0) {
		t.Errorf("near cube should win the depth test, got albedo %v", a)
	}
}

func TestBehindCameraDropped(t *testing.T) {
	sc := scene.NewScene()
	obj := sc.AddMesh("behind", scene.CreateCube(4))
	obj.SetTransform(lmath.Mat4Translation(lmath.NewVec3(0, 0, 10)))

	g := gbuffer.NewGBuffer(32, 32)
	view, proj := frontCamera()
	New(32, 32).Render(g, sc, view, proj)

	for _, v := range g.Depth.Pix {
		if v != 1 {
			t.Fatal("geometry behind the camera should not rasterize")
		}
	}
}

func TestShadeDirect(t *testing.T) {
	sc := scene.NewScene()
	cube := scene.CreateCube(4)
	cube.Material = scene.NewEmissiveMaterial("lamp", lmath.NewVec3(1, 1, 1), 2)
	sc.AddMesh("cube", cube).SetTransform(lmath.Mat4Translation(lmath.NewVec3(0, 0, -10)))

	g := gbuffer.NewGBuffer(64, 64)
	view, proj := frontCamera()
	New(64, 64).Render(g, sc, view, proj)

	light := Light{
		SunDir:   lmath.NewVec3(0, 0, 1),
		SunColor: lmath.NewVec3(1, 1, 1),
		Ambient:  lmath.NewVec3(0.1, 0.1, 0.1),
	}

	// Front face: full N·L plus ambient plus emissive 2.
	c := ShadeDirect(g, 32, 32, light)
	if c.X < 3 {
		t.Errorf("lit emissive face should be bright, got %v", c)
	}
	// Sky falls back to ambient.
	if s := ShadeDirect(g, 2, 2, light); s != light.Ambient {
		t.Errorf("sky should shade to ambient, got %v", s)
	}
}
