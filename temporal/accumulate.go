package temporal

import (
	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
)

// Params are the history validation and blend tunables.
type Params struct {
	// BaseAlpha is the blend weight toward the fresh trace when history
	// is accepted.
	BaseAlpha float32
	// VelocityRejectThreshold is the UV-space speed above which history
	// is considered torn.
	VelocityRejectThreshold float32
	// DistanceRejectTolerance is the relative hit-distance delta above
	// which history and trace are considered different surfaces.
	DistanceRejectTolerance float32
	// MinHistoryConfidence rejects history that never converged.
	MinHistoryConfidence float32
	// ResetConfidence is the ramp-up starting confidence after a reset.
	ResetConfidence float32
	// ConvergenceGain is added to confidence on every accepted blend.
	ConvergenceGain float32
	// UseVelocity selects velocity-field reprojection; when false the
	// accumulator back-projects anchors with the previous frame's
	// view-projection instead.
	UseVelocity bool
}

func DefaultParams() Params {
	return Params{
		BaseAlpha:               0.15,
		VelocityRejectThreshold: 0.05,
		DistanceRejectTolerance: 0.35,
		MinHistoryConfidence:    0.05,
		ResetConfidence:         0.25,
		ConvergenceGain:         0.02,
		UseVelocity:             true,
	}
}

// Accumulator blends each frame's freshly traced texels into the
// accumulated atlas and copies everything else forward from history.
type Accumulator struct {
	Params   Params
	Selector probe.BatchSelector
}

func NewAccumulator(params Params, selector probe.BatchSelector) *Accumulator {
	if params.BaseAlpha <= 0 || params.BaseAlpha > 1 {
		params.BaseAlpha = 0.15
	}
	return &Accumulator{Params: params, Selector: selector}
}

// probeHistory is the per-probe reprojection result shared by all texels
// of one tile.
type probeHistory struct {
	px, py int
	reject probe.Flags
}

// AccumulateRow processes one probe row: for every texel of every probe,
// either passes history through untouched (texel not traced this frame)
// or validates reprojected history against the fresh trace and blends.
// history and out must be distinct atlases.
func (a *Accumulator) AccumulateRow(py int, anchors *probe.Anchors, traced, history, out *probe.Atlas, vel *VelocityBuffer, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	grid := out.Grid
	for px := 0; px < grid.Width; px++ {
		hist := a.reprojectProbe(px, py, anchors, grid, vel, fc)
		ox, oy := grid.TileOrigin(px, py)
		hx, hy := grid.TileOrigin(hist.px, hist.py)

		for ty := 0; ty < grid.TileSize; ty++ {
			for tx := 0; tx < grid.TileSize; tx++ {
				if !a.Selector.Selected(tx, ty, fc.FrameIndex) {
					// Bit-exact pass-through, never a blend.
					out.Radiance.Set(ox+tx, oy+ty, history.Radiance.At(ox+tx, oy+ty))
					out.Meta.Set(ox+tx, oy+ty, history.Meta.At(ox+tx, oy+ty))
					continue
				}

				fresh := traced.Radiance.At(ox+tx, oy+ty)
				freshMeta := traced.Meta.Meta(ox+tx, oy+ty)
				histRad := history.Radiance.At(hx+tx, hy+ty)
				histMeta := history.Meta.Meta(hx+tx, hy+ty)

				rad, meta := a.resolveTexel(fresh, freshMeta, histRad, histMeta, hist.reject)
				out.Radiance.Set(ox+tx, oy+ty, rad)
				out.Meta.SetMeta(ox+tx, oy+ty, meta)
			}
		}
	}
}

// reprojectProbe finds the previous-frame probe cell whose tile holds
// this probe's history, and any probe-wide rejection reason.
func (a *Accumulator) reprojectProbe(px, py int, anchors *probe.Anchors, grid probe.Grid, vel *VelocityBuffer, fc *gbuffer.FrameContext) probeHistory {
	same := probeHistory{px: px, py: py}
	if !anchors.Traceable(px, py) {
		// Untraceable probes carry zeroed tiles; history is irrelevant.
		return same
	}

	cx, cy := grid.CenterPixel(px, py)
	uv := lmath.Vec2{
		X: (float32(cx) + 0.5) / float32(grid.ScreenWidth),
		Y: (float32(cy) + 0.5) / float32(grid.ScreenHeight),
	}

	var prevUV lmath.Vec2
	if a.Params.UseVelocity && vel != nil {
		s := vel.Sample(cx, cy)
		if !s.Flags.Usable() {
			same.reject = probe.FlagRejectVelocity
			return same
		}
		if s.UV.Length() > a.Params.VelocityRejectThreshold {
			same.reject = probe.FlagRejectVelocity
			return same
		}
		prevUV = uv.Sub(s.UV)
		if s.Flags.Has(VelOutOfBounds) {
			same.reject = probe.FlagRejectOutOfBounds
			return same
		}
	} else {
		world := anchors.Position(px, py)
		p, _, ok := fc.WorldToPrevUV(world)
		if !ok {
			same.reject = probe.FlagRejectOutOfBounds
			return same
		}
		prevUV = p
		// Depth-based reprojection applies the same tear threshold as
		// the velocity path.
		if uv.Sub(prevUV).Length() > a.Params.VelocityRejectThreshold {
			same.reject = probe.FlagRejectVelocity
			return same
		}
	}

	if prevUV.X < 0 || prevUV.X > 1 || prevUV.Y < 0 || prevUV.Y > 1 {
		same.reject = probe.FlagRejectOutOfBounds
		return same
	}

	hx, hy := grid.ProbeForPixel(
		int(prevUV.X*float32(grid.ScreenWidth)),
		int(prevUV.Y*float32(grid.ScreenHeight)),
	)
	return probeHistory{px: hx, py: hy}
}

// resolveTexel validates one texel's history against the fresh trace and
// either blends or resets.
func (a *Accumulator) resolveTexel(fresh lmath.Vec4, freshMeta probe.Meta, histRad lmath.Vec4, histMeta probe.Meta, probeReject probe.Flags) (lmath.Vec4, probe.Meta) {
	reject := probeReject
	if reject == 0 {
		switch {
		case histMeta.Confidence < a.Params.MinHistoryConfidence:
			reject = probe.FlagRejectConfidence
		case histMeta.Flags.Hit() != freshMeta.Flags.Hit():
			reject = probe.FlagRejectClass
		case a.distanceMismatch(histRad.W, fresh.W):
			reject = probe.FlagRejectDistance
		}
	}

	if reject != 0 {
		meta := probe.Meta{
			Confidence: lmath.Min(a.Params.ResetConfidence, freshMeta.Confidence),
			Flags:      freshMeta.Flags | reject,
		}
		return fresh, meta
	}

	alpha := a.Params.BaseAlpha * histMeta.Confidence
	rad := histRad.Add(fresh.Sub(histRad).Mul(alpha))
	conf := lmath.Saturate(lmath.Lerp(histMeta.Confidence, freshMeta.Confidence, alpha) + a.Params.ConvergenceGain)
	return rad, probe.Meta{Confidence: conf, Flags: freshMeta.Flags}
}

// distanceMismatch compares encoded hit distances in linear space with a
// relative tolerance.
func (a *Accumulator) distanceMismatch(histEncoded, freshEncoded float32) bool {
	h := probe.DecodeDistance(histEncoded)
	f := probe.DecodeDistance(freshEncoded)
	ref := lmath.Max(lmath.Max(h, f), 1e-3)
	return math32.Abs(h-f)/ref > a.Params.DistanceRejectTolerance
}
