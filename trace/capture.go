package trace

import (
	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
)

// SphereCapture is the result of tracing a full sphere of rays from one
// point: an SH projection of the surrounding radiance plus occlusion
// statistics for world-probe relighting.
type SphereCapture struct {
	SH lmath.SH9
	// AODir is the mean unoccluded direction; AOStrength is its length
	// before normalization, i.e. how lopsided the openness is.
	AODir      lmath.Vec3
	AOStrength float32
	// SkyVis is the fraction of rays that reached the sky.
	SkyVis     float32
	Confidence float32
}

// CaptureSphere traces size*size octahedrally distributed rays from
// origin and projects the results into SH9. Call Prepare first; the
// capture reuses the frame's depth pyramid.
func (t *Tracer) CaptureSphere(origin lmath.Vec3, size int, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) SphereCapture {
	if size < 2 {
		size = 2
	}
	total := size * size
	weight := 4 * math32.Pi / float32(total)

	var out SphereCapture
	var open lmath.Vec3
	var confSum float32
	skyCount := 0

	for ty := 0; ty < size; ty++ {
		for tx := 0; tx < size; tx++ {
			dir := lmath.OctTexelDirection(tx, ty, size)
			// No surface normal at a free-floating probe; the zero
			// normal disables the origin bias.
			radiance, _, meta := t.traceRay(origin, lmath.Vec3Zero, dir, g, fc)
			out.SH.AddSample(dir, radiance, weight)
			confSum += meta.Confidence
			if !meta.Flags.Has(probe.FlagHit) {
				open = open.Add(dir)
				if meta.Flags.SkyMiss() {
					skyCount++
				}
			}
		}
	}

	out.SkyVis = float32(skyCount) / float32(total)
	out.Confidence = confSum / float32(total)
	if open != lmath.Vec3Zero {
		out.AOStrength = lmath.Saturate(open.Length() / float32(total))
		out.AODir = open.Normalize()
	}
	return out
}
