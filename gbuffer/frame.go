package gbuffer

import (
	lmath "lumon/math"
)

// FrameContext is the immutable per-frame camera snapshot handed to every
// pipeline stage. It is built once per frame and never mutated mid-frame;
// stages that need the previous camera read PrevViewProj from the same
// snapshot.
type FrameContext struct {
	Proj         lmath.Mat4
	InvProj      lmath.Mat4
	View         lmath.Mat4
	InvView      lmath.Mat4
	ViewProj     lmath.Mat4
	InvViewProj  lmath.Mat4
	PrevViewProj lmath.Mat4

	CameraPos lmath.Vec3
	Near, Far float32

	// FrameIndex drives the deterministic temporal texel rotation;
	// CycleLength is the rotation period in frames.
	FrameIndex  int
	CycleLength int
}

// NewFrameContext derives the full matrix set from view + projection.
// Non-finite inputs fall back to identity so degenerate host matrices can
// never push NaN into the pipeline.
func NewFrameContext(view, proj, prevViewProj lmath.Mat4, near, far float32, frameIndex, cycleLength int) FrameContext {
	if !view.IsFinite() {
		view = lmath.Mat4Identity()
	}
	if !proj.IsFinite() {
		proj = lmath.Mat4Identity()
	}
	if !prevViewProj.IsFinite() {
		prevViewProj = lmath.Mat4Identity()
	}
	if cycleLength < 1 {
		cycleLength = 1
	}

	viewProj := view.Mul(proj)
	invView := view.Inverse()

	return FrameContext{
		Proj:         proj,
		InvProj:      proj.Inverse(),
		View:         view,
		InvView:      invView,
		ViewProj:     viewProj,
		InvViewProj:  viewProj.Inverse(),
		PrevViewProj: prevViewProj,
		// The camera sits at the view-space origin; row 3 of the
		// inverse view is its world position.
		CameraPos:   lmath.Vec3{X: invView[3][0], Y: invView[3][1], Z: invView[3][2]},
		Near:        near,
		Far:         far,
		FrameIndex:  frameIndex,
		CycleLength: cycleLength,
	}
}

// UVToWorld reconstructs the world-space position of a screen UV at the
// given depth-buffer value ([0,1]). Returns Vec3Zero and false for
// non-finite results.
func (fc *FrameContext) UVToWorld(uv lmath.Vec2, depth float32) (lmath.Vec3, bool) {
	ndc := lmath.Vec4{
		X: uv.X*2 - 1,
		Y: uv.Y*2 - 1,
		Z: depth*2 - 1,
		W: 1,
	}
	world := ndc.MulMat(fc.InvViewProj).ToVec3DivW()
	if !world.IsFinite() {
		return lmath.Vec3Zero, false
	}
	return world, true
}

// WorldToUV projects a world position to screen UV + depth-buffer value.
// ok is false when the point is behind the camera or projects outside
// representable range.
func (fc *FrameContext) WorldToUV(world lmath.Vec3) (uv lmath.Vec2, depth float32, ok bool) {
	return projectWorld(world, fc.ViewProj)
}

// WorldToPrevUV projects a world position with the previous frame's
// view-projection, for temporal reprojection.
func (fc *FrameContext) WorldToPrevUV(world lmath.Vec3) (uv lmath.Vec2, depth float32, ok bool) {
	return projectWorld(world, fc.PrevViewProj)
}

// LinearViewDepth converts a depth-buffer value ([0,1]) to linear
// view-space depth (distance along the camera forward axis).
func (fc *FrameContext) LinearViewDepth(depth float32) float32 {
	ndc := depth*2 - 1
	denom := ndc + fc.Proj[2][2]
	if denom == 0 || !lmath.IsFinite(denom) {
		return fc.Far
	}
	viewZ := -fc.Proj[3][2] / denom
	return lmath.Clamp(-viewZ, 0, fc.Far)
}

// ViewDepth returns the linear view-space depth of a world position.
func (fc *FrameContext) ViewDepth(world lmath.Vec3) float32 {
	return -world.ToVec4(1).MulMat(fc.View).Z
}

func projectWorld(world lmath.Vec3, viewProj lmath.Mat4) (lmath.Vec2, float32, bool) {
	clip := world.ToVec4(1).MulMat(viewProj)
	if clip.W <= 0 || !clip.IsFinite() {
		return lmath.Vec2{}, 0, false
	}
	ndc := clip.ToVec3DivW()
	uv := lmath.Vec2{X: ndc.X*0.5 + 0.5, Y: ndc.Y*0.5 + 0.5}
	depth := ndc.Z*0.5 + 0.5
	if !uv.IsFinite() || !lmath.IsFinite(depth) {
		return lmath.Vec2{}, 0, false
	}
	return uv, depth, true
}
