// Package composite supplies the indirect diffuse/specular split used
// by the host's composite stage. Stateless; one call per shaded pixel.
package composite

import (
	lmath "lumon/math"
)

// dielectricF0 is the normal-incidence reflectance of common
// dielectrics.
const dielectricF0 = 0.04

// Params are the split tunables.
type Params struct {
	// DiffuseAOStrength and SpecularAOStrength scale how strongly the
	// ambient-occlusion term darkens each half of the split. 0 disables
	// occlusion, 1 applies it fully.
	DiffuseAOStrength  float32
	SpecularAOStrength float32
	// SpecularIntensity scales the specular half, for matching against
	// a reference renderer.
	SpecularIntensity float32
}

func DefaultParams() Params {
	return Params{
		DiffuseAOStrength:  1,
		SpecularAOStrength: 0.6,
		SpecularIntensity:  1,
	}
}

// SplitIndirect divides gathered indirect radiance into a diffuse and a
// specular term. Metallic surfaces shift energy from the albedo-tinted
// diffuse half into the Fresnel-tinted specular half; roughness
// attenuates specular toward zero.
func SplitIndirect(indirect, albedo lmath.Vec3, metallic, roughness, ao float32, p Params) (diffuse, specular lmath.Vec3) {
	metallic = lmath.Saturate(metallic)
	roughness = lmath.Saturate(roughness)
	ao = lmath.Saturate(ao)

	f0 := lmath.NewVec3(dielectricF0, dielectricF0, dielectricF0).Lerp(albedo, metallic)
	kd := lmath.Vec3One.Sub(f0).Mul(1 - metallic)

	aoDiffuse := 1 - p.DiffuseAOStrength*(1-ao)
	aoSpecular := 1 - p.SpecularAOStrength*(1-ao)

	diffuse = indirect.MulVec(albedo).MulVec(kd).Mul(lmath.Saturate(aoDiffuse))
	specular = indirect.MulVec(f0).Mul((1 - roughness) * p.SpecularIntensity * lmath.Saturate(aoSpecular))
	return diffuse, specular
}
