package pipeline

import (
	lmath "lumon/math"
)

// Config carries every pipeline tunable and feature toggle. It is read
// once at construction and treated as immutable afterwards; changing a
// capability requires rebuilding the pipeline.
type Config struct {
	// Probe layout.
	ProbeSpacing   int // screen pixels per probe cell (default 16)
	TileSize       int // octahedral tile side length (default 8)
	TexelsPerFrame int // texels traced per probe per frame (default 8)

	// Ray march.
	RaySteps        int        // march iterations per ray (default 24)
	RayMaxDistance  float32    // world-space reach (default 50)
	RayThickness    float32    // depth band treated as solid (default 0.5)
	DistanceFalloff float32    // hit attenuation per world unit (default 0.05)
	SkyMissWeight   float32    // ambient weight on misses (default 1)
	AmbientColor    lmath.Vec3 // sky/ambient color
	SunColor        lmath.Vec3
	SunDir          lmath.Vec3
	IndirectTint    lmath.Vec3 // tint on hit radiance (default white)
	UseDepthPyramid bool
	PyramidFactor   int

	// Temporal accumulation.
	EnableTemporal          bool
	UseVelocity             bool    // velocity field vs. depth reprojection
	TemporalAlpha           float32 // blend weight toward fresh trace (default 0.15)
	VelocityRejectThreshold float32 // UV-space tear threshold (default 0.05)
	DistanceRejectTolerance float32 // relative hit-distance delta (default 0.35)
	MinHistoryConfidence    float32 // reject never-converged history (default 0.05)

	// Spatial filter and gather.
	EnableSpatialFilter bool
	HalfResGather       bool
	IndirectIntensity   float32 // output radiance scale (default 1)

	// World probes.
	EnableWorldProbes bool
	WorldLevels       int     // clipmap levels (default 3)
	WorldResolution   int     // probes per axis per level (default 16)
	WorldBaseSpacing  float32 // finest level spacing (default 2)
	WorldUpdateBudget int     // re-captures per level per frame (default 64)
	WorldCaptureSize  int     // sphere-capture tile side (default 8)

	// Composite split knobs, passed through to the host.
	DiffuseAOStrength  float32
	SpecularAOStrength float32

	// Workers caps stage parallelism; 0 means NumCPU.
	Workers int
}

// DefaultConfig returns a Config with every feature enabled.
func DefaultConfig() Config {
	return Config{
		ProbeSpacing:   16,
		TileSize:       8,
		TexelsPerFrame: 8,

		RaySteps:        24,
		RayMaxDistance:  50,
		RayThickness:    0.5,
		DistanceFalloff: 0.05,
		SkyMissWeight:   1,
		AmbientColor:    lmath.NewVec3(0.3, 0.35, 0.45),
		SunColor:        lmath.NewVec3(1.0, 0.95, 0.85),
		SunDir:          lmath.NewVec3(0.4, 0.8, 0.3),
		IndirectTint:    lmath.Vec3One,
		UseDepthPyramid: true,
		PyramidFactor:   4,

		EnableTemporal:          true,
		UseVelocity:             true,
		TemporalAlpha:           0.15,
		VelocityRejectThreshold: 0.05,
		DistanceRejectTolerance: 0.35,
		MinHistoryConfidence:    0.05,

		EnableSpatialFilter: true,
		IndirectIntensity:   1,

		EnableWorldProbes: true,
		WorldLevels:       3,
		WorldResolution:   16,
		WorldBaseSpacing:  2,
		WorldUpdateBudget: 64,
		WorldCaptureSize:  8,

		DiffuseAOStrength:  1,
		SpecularAOStrength: 0.6,
	}
}

// withDefaults fills zero-valued tunables so a partially specified
// Config still produces a working pipeline.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProbeSpacing < 1 {
		c.ProbeSpacing = d.ProbeSpacing
	}
	if c.TileSize < 2 {
		c.TileSize = d.TileSize
	}
	if c.TexelsPerFrame < 1 {
		c.TexelsPerFrame = d.TexelsPerFrame
	}
	if c.RaySteps < 1 {
		c.RaySteps = d.RaySteps
	}
	if c.RayMaxDistance <= 0 {
		c.RayMaxDistance = d.RayMaxDistance
	}
	if c.RayThickness <= 0 {
		c.RayThickness = d.RayThickness
	}
	if c.SkyMissWeight <= 0 {
		c.SkyMissWeight = d.SkyMissWeight
	}
	if c.AmbientColor == lmath.Vec3Zero {
		c.AmbientColor = d.AmbientColor
	}
	if c.SunColor == lmath.Vec3Zero {
		c.SunColor = d.SunColor
	}
	if c.SunDir == lmath.Vec3Zero {
		c.SunDir = d.SunDir
	}
	if c.IndirectTint == lmath.Vec3Zero {
		c.IndirectTint = d.IndirectTint
	}
	if c.PyramidFactor < 2 {
		c.PyramidFactor = d.PyramidFactor
	}
	if c.TemporalAlpha <= 0 || c.TemporalAlpha > 1 {
		c.TemporalAlpha = d.TemporalAlpha
	}
	if c.VelocityRejectThreshold <= 0 {
		c.VelocityRejectThreshold = d.VelocityRejectThreshold
	}
	if c.DistanceRejectTolerance <= 0 {
		c.DistanceRejectTolerance = d.DistanceRejectTolerance
	}
	if c.MinHistoryConfidence <= 0 {
		c.MinHistoryConfidence = d.MinHistoryConfidence
	}
	if c.IndirectIntensity <= 0 {
		c.IndirectIntensity = d.IndirectIntensity
	}
	if c.WorldLevels < 1 {
		c.WorldLevels = d.WorldLevels
	}
	if c.WorldResolution < 2 {
		c.WorldResolution = d.WorldResolution
	}
	if c.WorldBaseSpacing <= 0 {
		c.WorldBaseSpacing = d.WorldBaseSpacing
	}
	if c.WorldUpdateBudget < 1 {
		c.WorldUpdateBudget = d.WorldUpdateBudget
	}
	if c.WorldCaptureSize < 2 {
		c.WorldCaptureSize = d.WorldCaptureSize
	}
	if c.DiffuseAOStrength <= 0 {
		c.DiffuseAOStrength = d.DiffuseAOStrength
	}
	if c.SpecularAOStrength <= 0 {
		c.SpecularAOStrength = d.SpecularAOStrength
	}
	return c
}
