package scene

import lmath "lumon/math"

// Material describes the surface attributes written into the G-buffer.
// Roughness, metallic, emissive, and reflectivity land in the material
// plane; albedo lands in the albedo plane.
type Material struct {
	Name         string
	Albedo       lmath.Vec3
	Roughness    float32 // 0 = mirror smooth, 1 = fully rough
	Metallic     float32 // 0 = dielectric, 1 = metal
	Emissive     float32 // self-emitted radiance multiplier on albedo
	Reflectivity float32 // specular occlusion hint for the composite split
}

// DefaultMaterial returns a plain white matte surface.
func DefaultMaterial() *Material {
	return &Material{
		Name:         "Default",
		Albedo:       lmath.Vec3One,
		Roughness:    0.5,
		Reflectivity: 0.5,
	}
}

// NewMaterial creates a matte material with the given albedo.
func NewMaterial(name string, albedo lmath.Vec3) *Material {
	return &Material{
		Name:         name,
		Albedo:       albedo,
		Roughness:    0.5,
		Reflectivity: 0.5,
	}
}

// NewPBRMaterial creates a material with explicit metallic and roughness.
func NewPBRMaterial(name string, albedo lmath.Vec3, metallic, roughness float32) *Material {
	return &Material{
		Name:         name,
		Albedo:       albedo,
		Metallic:     metallic,
		Roughness:    roughness,
		Reflectivity: 0.5,
	}
}

// NewEmissiveMaterial creates a light-emitting material. The emissive
// factor multiplies the albedo, so bright values give HDR glow.
func NewEmissiveMaterial(name string, albedo lmath.Vec3, emissive float32) *Material {
	m := NewMaterial(name, albedo)
	m.Emissive = emissive
	return m
}

// Packed returns the material plane texel (roughness, metallic,
// emissive, reflectivity).
func (m *Material) Packed() lmath.Vec4 {
	return lmath.NewVec4(m.Roughness, m.Metallic, m.Emissive, m.Reflectivity)
}
