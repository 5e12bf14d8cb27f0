package raster

import (
	"lumon/gbuffer"
	lmath "lumon/math"
)

// Light is the single directional light the software renderer shades
// with. The probe tracer carries its own copy of the sun parameters;
// keep the two in agreement so direct and indirect light match.
type Light struct {
	SunDir   lmath.Vec3
	SunColor lmath.Vec3
	Ambient  lmath.Vec3
}

// ShadeDirect returns the direct lighting term for one G-buffer pixel:
// Lambert sun plus a constant ambient floor, both modulated by albedo.
// Sky pixels shade to the ambient color so the backdrop is not black.
func ShadeDirect(g *gbuffer.GBuffer, x, y int, light Light) lmath.Vec3 {
	if g.IsSky(x, y) {
		return light.Ambient
	}

	albedo := g.Albedo.At(x, y).ToVec3()
	normal := g.WorldNormal(x, y)
	emissive := lmath.Max(g.Material.At(x, y).Z, 0)

	ndl := lmath.Max(normal.Dot(light.SunDir.Normalize()), 0)
	direct := light.SunColor.Mul(ndl).Add(light.Ambient)
	return albedo.MulVec(direct).Add(albedo.Mul(emissive))
}
