package worldprobe

import (
	"github.com/chewxy/math32"

	lmath "lumon/math"
)

// Params are the clipmap tunables.
type Params struct {
	Levels      int     // nested levels, finest first
	Resolution  int     // probes per axis per level
	BaseSpacing float32 // finest-level probe spacing in world units
	// BoundaryBlend is how many probe widths from a level's edge the
	// cross-level blend ramps over.
	BoundaryBlend float32
	// HoleConfidence forces a full blend toward the coarser level when
	// the fine sample's confidence drops below it.
	HoleConfidence float32
	// BentNormalStrength scales how far shading normals bend toward a
	// probe's unoccluded direction.
	BentNormalStrength float32
	// UpdateBudget caps probe re-captures per level per frame.
	UpdateBudget int
	// StaleFrames is the age at which a captured probe is re-queued.
	StaleFrames int
}

func DefaultParams() Params {
	return Params{
		Levels:             3,
		Resolution:         16,
		BaseSpacing:        2,
		BoundaryBlend:      1.5,
		HoleConfidence:     0.1,
		BentNormalStrength: 0.5,
		UpdateBudget:       64,
		StaleFrames:        240,
	}
}

// Clipmap is the multi-level world probe store. Levels are nested
// coarser-outward: level i has spacing BaseSpacing * 2^i.
type Clipmap struct {
	Params Params
	Levels []*Level

	cursor []int // per-level amortized update position
}

func NewClipmap(params Params) *Clipmap {
	if params.Levels < 1 {
		params.Levels = 1
	}
	if params.Resolution < 2 {
		params.Resolution = 2
	}
	if params.BaseSpacing <= 0 {
		params.BaseSpacing = 1
	}
	c := &Clipmap{
		Params: params,
		Levels: make([]*Level, params.Levels),
		cursor: make([]int, params.Levels),
	}
	for i := 0; i < params.Levels; i++ {
		spacing := params.BaseSpacing * float32(int(1)<<uint(i))
		c.Levels[i] = NewLevel(i, params.Resolution, spacing)
	}
	return c
}

// Recenter re-anchors every level on the camera. Cheap: only origin
// cells and ring offsets move.
func (c *Clipmap) Recenter(camera lmath.Vec3) {
	for _, l := range c.Levels {
		l.Recenter(camera)
	}
}

// SelectLevel returns the finest level containing pos, or -1.
func (c *Clipmap) SelectLevel(pos lmath.Vec3) int {
	for i, l := range c.Levels {
		if l.Contains(pos) {
			return i
		}
	}
	return -1
}

// levelSample is the trilinear aggregate at one level.
type levelSample struct {
	sh         lmath.SH9
	aoDir      lmath.Vec3
	aoStrength float32
	skyVis     float32
	confidence float32
	weight     float32
}

// SampleIrradiance evaluates the clipmap at a world position and shading
// normal. Returns irradiance and a confidence in [0,1]; (0,0) when no
// level covers the position or every nearby probe is a hole.
func (c *Clipmap) SampleIrradiance(pos, normal lmath.Vec3) (lmath.Vec3, float32) {
	li := c.SelectLevel(pos)
	if li < 0 {
		return lmath.Vec3Zero, 0
	}

	fine := c.sampleLevel(c.Levels[li], pos)

	blend := c.boundaryBlend(c.Levels[li], pos)
	if fine.confidence < c.Params.HoleConfidence {
		blend = 1
	}
	if blend > 0 && li+1 < len(c.Levels) {
		coarse := c.sampleLevel(c.Levels[li+1], pos)
		if coarse.weight > 0 {
			fine = lerpSample(fine, coarse, blend)
		}
	}
	if fine.weight <= 0 || fine.confidence <= 0 {
		return lmath.Vec3Zero, 0
	}

	irr := fine.sh.EvalIrradiance(c.bentNormal(normal, fine))
	return irr, lmath.Saturate(fine.confidence)
}

// SkyVisibility returns the interpolated sky openness at a position, for
// callers that modulate ambient terms. Zero when uncovered.
func (c *Clipmap) SkyVisibility(pos lmath.Vec3) float32 {
	li := c.SelectLevel(pos)
	if li < 0 {
		return 0
	}
	s := c.sampleLevel(c.Levels[li], pos)
	if s.weight <= 0 {
		return 0
	}
	return lmath.Saturate(s.skyVis)
}

// bentNormal tilts the shading normal toward the accumulated unoccluded
// direction instead of multiplying by a hard visibility dot product, so
// outdoor side faces keep sky light.
func (c *Clipmap) bentNormal(normal lmath.Vec3, s levelSample) lmath.Vec3 {
	if s.aoDir == lmath.Vec3Zero {
		return normal
	}
	bend := c.Params.BentNormalStrength * s.aoStrength
	bent := normal.Add(s.aoDir.Normalize().Mul(bend)).Normalize()
	if bent == lmath.Vec3Zero {
		return normal
	}
	return bent
}

// sampleLevel trilinearly combines the 8 probes around pos, weighting
// each corner by its own confidence so holes don't darken the result.
func (c *Clipmap) sampleLevel(l *Level, pos lmath.Vec3) levelSample {
	fx := pos.X/l.Spacing - 0.5
	fy := pos.Y/l.Spacing - 0.5
	fz := pos.Z/l.Spacing - 0.5
	cx := int(math32.Floor(fx))
	cy := int(math32.Floor(fy))
	cz := int(math32.Floor(fz))
	bx := fx - float32(cx)
	by := fy - float32(cy)
	bz := fz - float32(cz)

	var out levelSample
	for dz := 0; dz <= 1; dz++ {
		for dy := 0; dy <= 1; dy++ {
			for dx := 0; dx <= 1; dx++ {
				r := l.Probe([3]int{cx + dx, cy + dy, cz + dz})
				if r == nil || r.Confidence <= 0 {
					continue
				}
				w := axisWeight(bx, dx) * axisWeight(by, dy) * axisWeight(bz, dz) * r.Confidence
				if w <= 0 {
					continue
				}
				out.sh = out.sh.Add(r.SH.Scale(w))
				out.aoDir = out.aoDir.Add(r.AODir.Mul(w))
				out.aoStrength += r.AOStrength * w
				out.skyVis += r.SkyVis * w
				out.confidence += r.Confidence * w
				out.weight += w
			}
		}
	}
	if out.weight > 0 {
		inv := 1 / out.weight
		out.sh = out.sh.Scale(inv)
		out.aoDir = out.aoDir.Mul(inv)
		out.aoStrength *= inv
		out.skyVis *= inv
		out.confidence *= inv
	}
	return out
}

// boundaryBlend ramps from 0 deep inside a level to 1 at its edge, over
// BoundaryBlend probe widths.
func (c *Clipmap) boundaryBlend(l *Level, pos lmath.Vec3) float32 {
	if c.Params.BoundaryBlend <= 0 {
		return 0
	}
	half := float32(l.Resolution) * l.Spacing * 0.5
	center := l.MinCorner().Add(lmath.Vec3{X: half, Y: half, Z: half})
	d := pos.Sub(center).Abs()
	edge := half - d.MaxComponent()
	ramp := c.Params.BoundaryBlend * l.Spacing
	if edge >= ramp {
		return 0
	}
	return lmath.Saturate(1 - edge/ramp)
}

func lerpSample(a, b levelSample, t float32) levelSample {
	return levelSample{
		sh:         a.sh.Lerp(b.sh, t),
		aoDir:      a.aoDir.Lerp(b.aoDir, t),
		aoStrength: lmath.Lerp(a.aoStrength, b.aoStrength, t),
		skyVis:     lmath.Lerp(a.skyVis, b.skyVis, t),
		confidence: lmath.Lerp(a.confidence, b.confidence, t),
		weight:     lmath.Lerp(a.weight, b.weight, t),
	}
}

func axisWeight(frac float32, side int) float32 {
	if side == 0 {
		return 1 - frac
	}
	return frac
}
