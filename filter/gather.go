package filter

import (
	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
)

// WorldSampler supplies out-of-view irradiance for gap filling. The
// world-probe clipmap implements it; a nil sampler disables the blend.
type WorldSampler interface {
	// SampleIrradiance returns irradiance and a confidence in [0,1] for
	// a world position and shading normal.
	SampleIrradiance(pos, normal lmath.Vec3) (lmath.Vec3, float32)
}

// GatherParams are the upsample-stage tunables.
type GatherParams struct {
	// Scale divides the screen resolution for the output buffer: 1 for
	// full resolution, 2 for half.
	Scale int
	// Intensity scales the gathered indirect radiance.
	Intensity float32
}

func DefaultGatherParams() GatherParams {
	return GatherParams{Scale: 1, Intensity: 1}
}

// Gatherer interpolates the filtered atlas at every shaded pixel and
// blends in world-probe irradiance where screen probes fall short.
type Gatherer struct {
	Params GatherParams
}

func NewGatherer(params GatherParams) *Gatherer {
	if params.Scale < 1 {
		params.Scale = 1
	}
	if params.Intensity <= 0 {
		params.Intensity = 1
	}
	return &Gatherer{Params: params}
}

// OutputSize returns the gather buffer dimensions for a screen size.
func (gt *Gatherer) OutputSize(screenWidth, screenHeight int) (int, int) {
	s := gt.Params.Scale
	return (screenWidth + s - 1) / s, (screenHeight + s - 1) / s
}

// GatherRow shades one output row: RGB indirect radiance plus combined
// confidence in alpha.
func (gt *Gatherer) GatherRow(y int, out *gbuffer.RGBA32, atlas *probe.Atlas, anchors *probe.Anchors, g *gbuffer.GBuffer, fc *gbuffer.FrameContext, world WorldSampler) {
	for x := 0; x < out.Width; x++ {
		out.Set(x, y, gt.gatherPixel(x, y, atlas, anchors, g, fc, world))
	}
}

func (gt *Gatherer) gatherPixel(x, y int, atlas *probe.Atlas, anchors *probe.Anchors, g *gbuffer.GBuffer, fc *gbuffer.FrameContext, world WorldSampler) lmath.Vec4 {
	sx := x * gt.Params.Scale
	sy := y * gt.Params.Scale
	if sx >= g.Width() {
		sx = g.Width() - 1
	}
	if sy >= g.Height() {
		sy = g.Height() - 1
	}

	depth := g.Depth.At(sx, sy)
	if !lmath.IsFinite(depth) || depth >= gbuffer.SkyDepthThreshold {
		return lmath.Vec4{}
	}

	uv := lmath.Vec2{
		X: (float32(sx) + 0.5) / float32(g.Width()),
		Y: (float32(sy) + 0.5) / float32(g.Height()),
	}
	pos, ok := fc.UVToWorld(uv, depth)
	if !ok {
		return lmath.Vec4{}
	}
	normal := g.WorldNormal(sx, sy)

	screen, screenConf := gt.gatherScreen(sx, sy, normal, atlas, anchors)

	final := screen
	conf := screenConf
	if world != nil {
		wRad, wConf := world.SampleIrradiance(pos, normal)
		// Screen-probe priority: world probes only fill what the screen
		// probes could not resolve.
		fill := wConf * (1 - screenConf)
		final = final.Add(wRad.Mul(fill))
		conf = lmath.Saturate(conf + fill)
	}

	final = final.Mul(gt.Params.Intensity)
	if !final.IsFinite() {
		return lmath.Vec4{}
	}
	return final.ToVec4(conf)
}

// gatherScreen bilinearly combines the 2x2 enclosing probes, weighted by
// fractional grid position and per-probe validity.
func (gt *Gatherer) gatherScreen(sx, sy int, normal lmath.Vec3, atlas *probe.Atlas, anchors *probe.Anchors) (lmath.Vec3, float32) {
	grid := atlas.Grid
	fx := (float32(sx)+0.5)/float32(grid.Spacing) - 0.5
	fy := (float32(sy)+0.5)/float32(grid.Spacing) - 0.5
	px0 := floorInt(fx)
	py0 := floorInt(fy)
	bx := fx - float32(px0)
	by := fy - float32(py0)

	var sum lmath.Vec3
	var confSum, weight float32
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			px := clampInt(px0+dx, 0, grid.Width-1)
			py := clampInt(py0+dy, 0, grid.Height-1)

			w := bilinearWeight(bx, dx) * bilinearWeight(by, dy) * anchors.Validity(px, py)
			if w <= 0 {
				continue
			}
			rad, conf := sampleProbe(atlas, px, py, normal)
			sum = sum.Add(rad.Mul(w))
			confSum += conf * w
			weight += w
		}
	}
	if weight <= 0 {
		return lmath.Vec3Zero, 0
	}
	return sum.Mul(1 / weight), lmath.Saturate(confSum / weight)
}

// sampleProbe evaluates one probe's tile at a direction with bilinear
// filtering clamped to the tile, weighting taps by their confidence.
func sampleProbe(atlas *probe.Atlas, px, py int, dir lmath.Vec3) (lmath.Vec3, float32) {
	grid := atlas.Grid
	size := grid.TileSize
	ox, oy := grid.TileOrigin(px, py)

	e := lmath.OctEncode(dir)
	fx := e.X*float32(size) - 0.5
	fy := e.Y*float32(size) - 0.5
	tx0 := floorInt(fx)
	ty0 := floorInt(fy)
	bx := fx - float32(tx0)
	by := fy - float32(ty0)

	var sum lmath.Vec3
	var confSum, weight float32
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			tx := clampInt(tx0+dx, 0, size-1)
			ty := clampInt(ty0+dy, 0, size-1)

			conf := atlas.Meta.Meta(ox+tx, oy+ty).Confidence
			if conf <= 0 {
				continue
			}
			w := bilinearWeight(bx, dx) * bilinearWeight(by, dy) * conf
			if w <= 0 {
				continue
			}
			sum = sum.Add(atlas.Radiance.At(ox+tx, oy+ty).ToVec3().Mul(w))
			confSum += conf * w
			weight += w
		}
	}
	if weight <= 0 {
		return lmath.Vec3Zero, 0
	}
	return sum.Mul(1 / weight), lmath.Saturate(confSum / weight)
}

func bilinearWeight(frac float32, side int) float32 {
	if side == 0 {
		return 1 - frac
	}
	return frac
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}
