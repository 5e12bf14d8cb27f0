package probe

import (
	lmath "lumon/math"

	"lumon/gbuffer"
)

// Anchors holds one world-space position + validity and one world normal
// per probe cell, regenerated from the G-buffer every frame. Validity is
// 0 on sky, 1 fully on geometry, and fractional for cells straddling a
// silhouette edge.
//
// Sky cells still receive a far-plane anchor so their tiles can trace
// sky radiance; only cells whose anchor cannot be reconstructed at all
// (degenerate depth or singular matrices) are marked untraceable, and
// those produce fully zeroed tiles downstream.
type Anchors struct {
	Grid Grid
	// Pos stores world position in RGB and validity in alpha.
	Pos *gbuffer.RGBA32
	// Normal stores the encoded world normal in RGB and the traceable
	// marker in alpha.
	Normal *gbuffer.RGBA32
}

func NewAnchors(grid Grid) *Anchors {
	return &Anchors{
		Grid:   grid,
		Pos:    gbuffer.NewRGBA32(grid.Width, grid.Height),
		Normal: gbuffer.NewRGBA32(grid.Width, grid.Height),
	}
}

func (a *Anchors) Position(px, py int) lmath.Vec3 {
	return a.Pos.At(px, py).ToVec3()
}

func (a *Anchors) Validity(px, py int) float32 {
	return a.Pos.At(px, py).W
}

func (a *Anchors) WorldNormal(px, py int) lmath.Vec3 {
	return gbuffer.DecodeNormal(a.Normal.At(px, py).ToVec3())
}

// Traceable reports whether the probe has a usable anchor. Untraceable
// probes are the pipeline's "invalid" probes: their tiles are zeroed.
func (a *Anchors) Traceable(px, py int) bool {
	return a.Normal.At(px, py).W > 0
}

// depthSpreadThreshold flags a probe cell as straddling a silhouette when
// its depth samples disagree by more than this (in depth-buffer units).
const depthSpreadThreshold = 0.01

// GenerateRow fills the anchors for one probe row. The pipeline calls
// this from its parallel-for; rows are independent.
func (a *Anchors) GenerateRow(py int, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	for px := 0; px < a.Grid.Width; px++ {
		a.generateCell(px, py, g, fc)
	}
}

func (a *Anchors) generateCell(px, py int, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	cx, cy := a.Grid.CenterPixel(px, py)
	centerDepth := g.Depth.At(cx, cy)

	if !lmath.IsFinite(centerDepth) || centerDepth < 0 {
		a.Pos.Set(px, py, lmath.Vec4{})
		a.Normal.Set(px, py, lmath.Vec4{})
		return
	}

	uv := lmath.Vec2{
		X: (float32(cx) + 0.5) / float32(a.Grid.ScreenWidth),
		Y: (float32(cy) + 0.5) / float32(a.Grid.ScreenHeight),
	}

	if centerDepth >= gbuffer.SkyDepthThreshold {
		// Sky cell: anchor on the far plane with validity 0 so the
		// tile can still gather sky radiance without contributing to
		// screen-probe interpolation.
		world, ok := fc.UVToWorld(uv, gbuffer.SkyDepthThreshold)
		if !ok {
			a.Pos.Set(px, py, lmath.Vec4{})
			a.Normal.Set(px, py, lmath.Vec4{})
			return
		}
		normal := fc.CameraPos.Sub(world).Normalize()
		if normal == lmath.Vec3Zero {
			normal = lmath.Vec3Up
		}
		a.Pos.Set(px, py, world.ToVec4(0))
		a.Normal.Set(px, py, gbuffer.EncodeNormal(normal).ToVec4(1))
		return
	}

	world, ok := fc.UVToWorld(uv, centerDepth)
	if !ok {
		a.Pos.Set(px, py, lmath.Vec4{})
		a.Normal.Set(px, py, lmath.Vec4{})
		return
	}

	// Probe the cell's quarter points to detect silhouette straddling:
	// sky samples or a large depth spread reduce validity.
	q := a.Grid.Spacing / 4
	if q < 1 {
		q = 1
	}
	offsets := [4][2]int{{-q, -q}, {q, -q}, {-q, q}, {q, q}}
	onGeometry := 1
	minDepth, maxDepth := centerDepth, centerDepth
	for _, off := range offsets {
		d := g.Depth.AtClamped(cx+off[0], cy+off[1])
		if d < gbuffer.SkyDepthThreshold && lmath.IsFinite(d) {
			onGeometry++
			if d < minDepth {
				minDepth = d
			}
			if d > maxDepth {
				maxDepth = d
			}
		}
	}

	validity := float32(onGeometry) / 5.0
	if validity == 1 && maxDepth-minDepth > depthSpreadThreshold {
		validity = 0.5
	}

	normal := g.WorldNormal(cx, cy)
	if !normal.IsFinite() {
		normal = lmath.Vec3Up
	}

	a.Pos.Set(px, py, world.ToVec4(validity))
	a.Normal.Set(px, py, gbuffer.EncodeNormal(normal).ToVec4(1))
}
