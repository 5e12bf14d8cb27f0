// Package trace implements the atlas ray tracer: for the current frame's
// batch of octahedral texels it marches a ray per texel against the
// scene depth buffer and writes radiance + encoded hit distance into the
// trace atlas, with a confidence/flag record per texel.
package trace

import (
	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
)

// Confidence levels by trace outcome. The ordering is load-bearing:
// downstream blending trusts on-screen hits most and rays that left the
// screen least.
const (
	ConfidenceHit        = 0.95
	ConfidenceSky        = 0.70
	ConfidenceScreenExit = 0.30
)

// thicknessUncertainPenalty scales hit confidence when the ray passed
// behind geometry at least once before hitting.
const thicknessUncertainPenalty = 0.8

// rayNormalBias offsets ray origins along the surface normal to avoid
// immediate self-intersection with the anchor's own surface.
const rayNormalBias = 0.02

// Params are the tunables of the ray-march stage.
type Params struct {
	RaySteps        int        // maximum march iterations per ray
	RayMaxDistance  float32    // world-space reach
	RayThickness    float32    // depth band treated as solid geometry
	DistanceFalloff float32    // hit radiance attenuation per world unit
	SkyMissWeight   float32    // ambient weight for rays that miss
	AmbientColor    lmath.Vec3 // host sky/ambient color
	SunColor        lmath.Vec3
	SunDir          lmath.Vec3
	IndirectTint    lmath.Vec3 // material tint applied to hit radiance
	UseDepthPyramid bool
	PyramidFactor   int
}

func DefaultParams() Params {
	return Params{
		RaySteps:        24,
		RayMaxDistance:  50,
		RayThickness:    0.5,
		DistanceFalloff: 0.05,
		SkyMissWeight:   1.0,
		AmbientColor:    lmath.NewVec3(0.3, 0.35, 0.45),
		SunColor:        lmath.NewVec3(1.0, 0.95, 0.85),
		SunDir:          lmath.NewVec3(0.4, 0.8, 0.3),
		IndirectTint:    lmath.Vec3One,
		UseDepthPyramid: true,
		PyramidFactor:   4,
	}
}

// Tracer marches probe rays for the per-frame texel batch.
type Tracer struct {
	Params   Params
	Selector probe.BatchSelector

	pyramid *DepthPyramid
	sunDir  lmath.Vec3
}

func NewTracer(params Params, selector probe.BatchSelector) *Tracer {
	if params.RaySteps < 1 {
		params.RaySteps = 1
	}
	if params.RayMaxDistance <= 0 {
		params.RayMaxDistance = 1
	}
	return &Tracer{
		Params:   params,
		Selector: selector,
		sunDir:   params.SunDir.Normalize(),
	}
}

// Prepare rebuilds frame-constant acceleration data. Call once per frame
// before the row traces.
func (t *Tracer) Prepare(g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	if !t.Params.UseDepthPyramid {
		t.pyramid = nil
		return
	}
	factor := t.Params.PyramidFactor
	if factor < 2 {
		factor = 4
	}
	if t.pyramid == nil || t.pyramid.Factor != factor ||
		t.pyramid.Width != (g.Width()+factor-1)/factor ||
		t.pyramid.Height != (g.Height()+factor-1)/factor {
		t.pyramid = NewDepthPyramid(g.Width(), g.Height(), factor)
	}
	t.pyramid.Build(g.Depth, fc)
}

// TraceProbeRow traces the selected texels of every probe in row py into
// atlas. Rows are independent; the pipeline fans them out in parallel.
func (t *Tracer) TraceProbeRow(py int, anchors *probe.Anchors, atlas *probe.Atlas, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	grid := atlas.Grid
	for px := 0; px < grid.Width; px++ {
		if !anchors.Traceable(px, py) {
			atlas.ClearTile(px, py)
			continue
		}
		origin := anchors.Position(px, py)
		normal := anchors.WorldNormal(px, py)
		ox, oy := grid.TileOrigin(px, py)

		for ty := 0; ty < grid.TileSize; ty++ {
			for tx := 0; tx < grid.TileSize; tx++ {
				if !t.Selector.Selected(tx, ty, fc.FrameIndex) {
					continue
				}
				dir := atlas.TexelDirection(tx, ty)
				radiance, encoded, meta := t.traceRay(origin, normal, dir, g, fc)
				atlas.Radiance.Set(ox+tx, oy+ty, radiance.ToVec4(encoded))
				atlas.Meta.SetMeta(ox+tx, oy+ty, meta)
			}
		}
	}
}

// traceRay marches one ray against the depth buffer. The loop runs at
// most Params.RaySteps iterations and exits early when the ray enters
// the thickness band around scene depth (hit), leaves the screen
// (screen exit), or exhausts its reach (sky miss).
func (t *Tracer) traceRay(origin, normal, dir lmath.Vec3, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) (lmath.Vec3, float32, probe.Meta) {
	start := origin.Add(normal.Mul(rayNormalBias))
	stepLen := t.Params.RayMaxDistance / float32(t.Params.RaySteps)
	passedBehind := false

	for i := 1; i <= t.Params.RaySteps; i++ {
		traveled := stepLen * float32(i)
		p := start.Add(dir.Mul(traveled))

		uv, _, ok := fc.WorldToUV(p)
		if !ok || uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
			return t.screenExitResult(dir, passedBehind)
		}

		sx := clampPixel(int(uv.X*float32(g.Width())), g.Width())
		sy := clampPixel(int(uv.Y*float32(g.Height())), g.Height())

		rayViewDepth := fc.ViewDepth(p)
		if t.pyramid != nil && rayViewDepth+t.Params.RayThickness < t.pyramid.MinViewDepth(sx, sy) {
			// Nothing in this cell is close enough to intersect.
			continue
		}

		sceneDepth := g.Depth.At(sx, sy)
		if sceneDepth >= gbuffer.SkyDepthThreshold || !lmath.IsFinite(sceneDepth) {
			continue
		}
		sceneViewDepth := fc.LinearViewDepth(sceneDepth)

		if rayViewDepth >= sceneViewDepth {
			if rayViewDepth <= sceneViewDepth+t.Params.RayThickness {
				return t.hitResult(sx, sy, traveled, g, passedBehind)
			}
			// Stepped past the depth band: the surface here may be
			// thin, keep marching but remember the ambiguity.
			passedBehind = true
		}
	}

	return t.skyMissResult(dir, passedBehind)
}

func (t *Tracer) hitResult(sx, sy int, traveled float32, g *gbuffer.GBuffer, passedBehind bool) (lmath.Vec3, float32, probe.Meta) {
	albedo := g.Albedo.At(sx, sy).ToVec3()
	material := g.Material.At(sx, sy)
	emissive := lmath.Max(material.Z, 0)

	atten := 1.0 / (1.0 + traveled*t.Params.DistanceFalloff)
	radiance := albedo.MulVec(t.Params.IndirectTint).Mul(atten)
	radiance = radiance.Add(albedo.Mul(emissive))

	meta := probe.Meta{Confidence: ConfidenceHit, Flags: probe.FlagHit}
	if passedBehind {
		meta.Confidence *= thicknessUncertainPenalty
		meta.Flags |= probe.FlagThicknessUncertain
	}
	return sanitize(radiance), probe.EncodeDistance(traveled), meta
}

// skyColor implements the miss shading: an ambient gradient lifted
// toward the zenith plus a narrow sun lobe.
func (t *Tracer) skyColor(dir lmath.Vec3) lmath.Vec3 {
	skyFactor := lmath.Max(0, dir.Y)*0.5 + 0.5
	sky := t.Params.AmbientColor.Mul(skyFactor * t.Params.SkyMissWeight)
	sunAmount := math32.Pow(lmath.Max(0, dir.Dot(t.sunDir)), 32) * 0.5
	return sky.Add(t.Params.SunColor.Mul(sunAmount))
}

func (t *Tracer) skyMissResult(dir lmath.Vec3, passedBehind bool) (lmath.Vec3, float32, probe.Meta) {
	meta := probe.Meta{Confidence: ConfidenceSky, Flags: probe.FlagSkyMiss}
	if passedBehind {
		meta.Flags |= probe.FlagThicknessUncertain
	}
	return sanitize(t.skyColor(dir)), probe.EncodeDistance(t.Params.RayMaxDistance), meta
}

// screenExitFade dims the ambient guess for rays that left the screen
// without resolving against geometry or the full sky.
const screenExitFade = 0.75

func (t *Tracer) screenExitResult(dir lmath.Vec3, passedBehind bool) (lmath.Vec3, float32, probe.Meta) {
	skyFactor := lmath.Max(0, dir.Y)*0.5 + 0.5
	radiance := t.Params.AmbientColor.Mul(skyFactor * t.Params.SkyMissWeight * screenExitFade)
	meta := probe.Meta{
		Confidence: ConfidenceScreenExit,
		Flags:      probe.FlagScreenExit | probe.FlagEarlyTerm,
	}
	if passedBehind {
		meta.Flags |= probe.FlagThicknessUncertain
	}
	// The ray is presumed to continue unobstructed off screen, so the
	// stored distance is the full reach, not the on-screen travel.
	return sanitize(radiance), probe.EncodeDistance(t.Params.RayMaxDistance), meta
}

func sanitize(v lmath.Vec3) lmath.Vec3 {
	return lmath.Vec3{
		X: lmath.Finite(v.X, 0),
		Y: lmath.Finite(v.Y, 0),
		Z: lmath.Finite(v.Z, 0),
	}
}

func clampPixel(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
