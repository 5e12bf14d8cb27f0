package gbuffer

import (
	"testing"

	"github.com/chewxy/math32"

	lmath "lumon/math"
)

func TestRGBA32SetAt(t *testing.T) {
	b := NewRGBA32(4, 3)
	v := lmath.NewVec4(0.1, 0.2, 0.3, 0.4)
	b.Set(2, 1, v)
	if b.At(2, 1) != v {
		t.Errorf("At: expected %v, got %v", v, b.At(2, 1))
	}
	if b.At(0, 0) != (lmath.Vec4{}) {
		t.Errorf("At: untouched texel should be zero, got %v", b.At(0, 0))
	}
}

func TestRGBA32SampleBilinear(t *testing.T) {
	b := NewRGBA32(2, 1)
	b.Set(0, 0, lmath.NewVec4(0, 0, 0, 0))
	b.Set(1, 0, lmath.NewVec4(1, 1, 1, 1))

	mid := b.SampleBilinear(lmath.NewVec2(0.5, 0.5))
	if math32.Abs(mid.X-0.5) > 0.001 {
		t.Errorf("bilinear midpoint: expected 0.5, got %v", mid.X)
	}

	// Clamp-to-edge outside [0,1]
	left := b.SampleBilinear(lmath.NewVec2(-1, 0.5))
	if left.X != 0 {
		t.Errorf("clamped left sample: expected 0, got %v", left.X)
	}
}

func TestNormalCodec(t *testing.T) {
	normals := []lmath.Vec3{
		lmath.Vec3Up, lmath.Vec3Down,
		lmath.NewVec3(1, 2, -3).Normalize(),
	}
	for _, n := range normals {
		back := DecodeNormal(EncodeNormal(n))
		if n.Dot(back) < 0.9999 {
			t.Errorf("normal round trip %v -> %v", n, back)
		}
	}
	enc := EncodeNormal(lmath.Vec3Up)
	if enc.X < 0 || enc.X > 1 || enc.Y < 0 || enc.Y > 1 || enc.Z < 0 || enc.Z > 1 {
		t.Errorf("encoded normal out of [0,1]: %v", enc)
	}
}

func TestGBufferSky(t *testing.T) {
	g := NewGBuffer(4, 4)
	if !g.IsSky(0, 0) {
		t.Error("fresh G-buffer should be cleared to sky depth")
	}
	g.Depth.Set(1, 1, 0.5)
	if g.IsSky(1, 1) {
		t.Error("geometry depth flagged as sky")
	}
	g.Depth.Set(2, 2, SkyDepthThreshold)
	if !g.IsSky(2, 2) {
		t.Error("depth at threshold should count as sky")
	}
}

func testFrame(t *testing.T) FrameContext {
	t.Helper()
	view := lmath.Mat4LookAt(lmath.NewVec3(0, 2, 10), lmath.NewVec3(0, 0, 0), lmath.Vec3Up)
	proj := lmath.Mat4Perspective(math32.Pi/3, 1, 0.1, 100)
	return NewFrameContext(view, proj, view.Mul(proj), 0.1, 100, 0, 8)
}

func TestFrameContextRoundTrip(t *testing.T) {
	fc := testFrame(t)

	world := lmath.NewVec3(1, 0.5, -2)
	uv, depth, ok := fc.WorldToUV(world)
	if !ok {
		t.Fatal("WorldToUV: point in front of camera reported not ok")
	}
	back, ok := fc.UVToWorld(uv, depth)
	if !ok {
		t.Fatal("UVToWorld: reconstruction reported not ok")
	}
	if world.Distance(back) > 0.01 {
		t.Errorf("round trip: expected %v, got %v", world, back)
	}
}

func TestFrameContextBehindCamera(t *testing.T) {
	fc := testFrame(t)
	// The camera looks down -Z from z=10; a point at z=20 is behind it.
	if _, _, ok := fc.WorldToUV(lmath.NewVec3(0, 0, 20)); ok {
		t.Error("WorldToUV: point behind camera reported ok")
	}
}

func TestFrameContextCameraPos(t *testing.T) {
	fc := testFrame(t)
	if fc.CameraPos.Distance(lmath.NewVec3(0, 2, 10)) > 0.001 {
		t.Errorf("CameraPos: expected (0,2,10), got %v", fc.CameraPos)
	}
}

func TestFrameContextDegenerateInput(t *testing.T) {
	bad := lmath.Mat4Zero()
	bad[0][0] = math32.NaN()
	fc := NewFrameContext(bad, bad, bad, 0.1, 100, 0, 8)
	if !fc.ViewProj.IsFinite() || !fc.InvViewProj.IsFinite() {
		t.Error("degenerate matrices must fall back to finite identity transforms")
	}
	if fc.CycleLength != 8 {
		t.Errorf("cycle length: expected 8, got %d", fc.CycleLength)
	}
}
