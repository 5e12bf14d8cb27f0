// Package temporal implements the history side of the atlas: a velocity
// field for reprojection, the multi-criterion history validation, and
// the exponential blend of fresh trace results into accumulated
// radiance.
package temporal

import (
	"lumon/gbuffer"
	lmath "lumon/math"
)

// VelocityFlags records why a velocity sample may be unusable. Bit
// positions are a stable storage format.
type VelocityFlags uint32

const (
	VelHistoryInvalid VelocityFlags = 1 << iota
	VelSky
	VelBehindCamera
	VelOutOfBounds
	VelNaN
)

func (f VelocityFlags) Has(flag VelocityFlags) bool { return f&flag != 0 }

// Usable reports whether the sample can drive reprojection.
func (f VelocityFlags) Usable() bool {
	return f&(VelHistoryInvalid|VelBehindCamera|VelNaN) == 0
}

// VelocitySample is one pixel's UV displacement plus validity flags.
// Velocity points backward: currentUV - previousUV.
type VelocitySample struct {
	UV    lmath.Vec2
	Flags VelocityFlags
}

// VelocityBuffer holds one sample per full-resolution pixel, split into
// a two-channel UV plane and a flag plane.
type VelocityBuffer struct {
	Width  int
	Height int
	UV     *gbuffer.RG32
	Flags  *gbuffer.R32
}

func NewVelocityBuffer(width, height int) *VelocityBuffer {
	return &VelocityBuffer{
		Width:  width,
		Height: height,
		UV:     gbuffer.NewRG32(width, height),
		Flags:  gbuffer.NewR32(width, height),
	}
}

func (b *VelocityBuffer) Sample(x, y int) VelocitySample {
	flags := VelocityFlags(0)
	if f := b.Flags.At(x, y); f > 0 && lmath.IsFinite(f) {
		flags = VelocityFlags(uint32(f))
	}
	return VelocitySample{UV: b.UV.At(x, y), Flags: flags}
}

func (b *VelocityBuffer) SetSample(x, y int, s VelocitySample) {
	b.UV.Set(x, y, s.UV)
	b.Flags.Set(x, y, float32(s.Flags))
}

// BuildRow computes one pixel row of camera-motion velocity by
// reconstructing each pixel's world position and projecting it with the
// previous frame's view-projection. Dynamic-object motion is the host's
// business; this field only captures camera movement.
func (b *VelocityBuffer) BuildRow(y int, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) {
	for x := 0; x < b.Width; x++ {
		b.SetSample(x, y, buildSample(x, y, g, fc))
	}
}

func buildSample(x, y int, g *gbuffer.GBuffer, fc *gbuffer.FrameContext) VelocitySample {
	depth := g.Depth.At(x, y)
	if !lmath.IsFinite(depth) {
		return VelocitySample{Flags: VelNaN | VelHistoryInvalid}
	}
	if depth >= gbuffer.SkyDepthThreshold {
		return VelocitySample{Flags: VelSky}
	}

	uv := lmath.Vec2{
		X: (float32(x) + 0.5) / float32(g.Width()),
		Y: (float32(y) + 0.5) / float32(g.Height()),
	}
	world, ok := fc.UVToWorld(uv, depth)
	if !ok {
		return VelocitySample{Flags: VelNaN | VelHistoryInvalid}
	}
	prevUV, _, ok := fc.WorldToPrevUV(world)
	if !ok {
		return VelocitySample{Flags: VelBehindCamera | VelHistoryInvalid}
	}

	s := VelocitySample{UV: uv.Sub(prevUV)}
	if !s.UV.IsFinite() {
		return VelocitySample{Flags: VelNaN | VelHistoryInvalid}
	}
	if prevUV.X < 0 || prevUV.X > 1 || prevUV.Y < 0 || prevUV.Y > 1 {
		s.Flags |= VelOutOfBounds
	}
	return s
}
