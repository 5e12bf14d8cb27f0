// Package gbuffer defines the fixed-layout CPU pixel buffers exchanged
// between the lighting pipeline and the host renderer: single-channel
// depth planes, two-channel velocity planes, and four-channel color
// planes, all row-major float32.
package gbuffer

import (
	lmath "lumon/math"
)

// SkyDepthThreshold marks far-plane / sky texels in the depth buffer.
// Depth values at or beyond it carry no geometry.
const SkyDepthThreshold = 0.9999

// R32 is a single-channel float32 plane (depth, sky visibility).
type R32 struct {
	Width  int
	Height int
	Pix    []float32
}

func NewR32(width, height int) *R32 {
	return &R32{Width: width, Height: height, Pix: make([]float32, width*height)}
}

func (b *R32) At(x, y int) float32 {
	return b.Pix[y*b.Width+x]
}

func (b *R32) Set(x, y int, v float32) {
	b.Pix[y*b.Width+x] = v
}

// AtClamped samples with coordinates clamped to the plane bounds.
func (b *R32) AtClamped(x, y int) float32 {
	return b.Pix[clampIndex(y, b.Height)*b.Width+clampIndex(x, b.Width)]
}

func (b *R32) Fill(v float32) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

// RG32 is a two-channel float32 plane (velocity UV).
type RG32 struct {
	Width  int
	Height int
	Pix    []float32
}

func NewRG32(width, height int) *RG32 {
	return &RG32{Width: width, Height: height, Pix: make([]float32, width*height*2)}
}

func (b *RG32) At(x, y int) lmath.Vec2 {
	i := (y*b.Width + x) * 2
	return lmath.Vec2{X: b.Pix[i], Y: b.Pix[i+1]}
}

func (b *RG32) Set(x, y int, v lmath.Vec2) {
	i := (y*b.Width + x) * 2
	b.Pix[i] = v.X
	b.Pix[i+1] = v.Y
}

// RGBA32 is a four-channel float32 plane (normals, albedo, material,
// atlas radiance + encoded distance, meta, gather output).
type RGBA32 struct {
	Width  int
	Height int
	Pix    []float32
}

func NewRGBA32(width, height int) *RGBA32 {
	return &RGBA32{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

func (b *RGBA32) At(x, y int) lmath.Vec4 {
	i := (y*b.Width + x) * 4
	return lmath.Vec4{X: b.Pix[i], Y: b.Pix[i+1], Z: b.Pix[i+2], W: b.Pix[i+3]}
}

func (b *RGBA32) Set(x, y int, v lmath.Vec4) {
	i := (y*b.Width + x) * 4
	b.Pix[i] = v.X
	b.Pix[i+1] = v.Y
	b.Pix[i+2] = v.Z
	b.Pix[i+3] = v.W
}

func (b *RGBA32) AtClamped(x, y int) lmath.Vec4 {
	return b.At(clampIndex(x, b.Width), clampIndex(y, b.Height))
}

// SampleBilinear samples the plane at a UV in [0,1]^2 with bilinear
// filtering and clamp-to-edge addressing.
func (b *RGBA32) SampleBilinear(uv lmath.Vec2) lmath.Vec4 {
	fx := uv.X*float32(b.Width) - 0.5
	fy := uv.Y*float32(b.Height) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := b.AtClamped(x0, y0)
	c10 := b.AtClamped(x0+1, y0)
	c01 := b.AtClamped(x0, y0+1)
	c11 := b.AtClamped(x0+1, y0+1)

	top := c00.Add(c10.Sub(c00).Mul(tx))
	bottom := c01.Add(c11.Sub(c01).Mul(tx))
	return top.Add(bottom.Sub(top).Mul(ty))
}

func (b *RGBA32) Fill(v lmath.Vec4) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = v.X
		b.Pix[i+1] = v.Y
		b.Pix[i+2] = v.Z
		b.Pix[i+3] = v.W
	}
}

// CopyFrom copies pix data from src; the planes must share dimensions.
func (b *RGBA32) CopyFrom(src *RGBA32) {
	copy(b.Pix, src.Pix)
}

// EncodeNormal packs a unit normal into [0,1] channel range.
func EncodeNormal(n lmath.Vec3) lmath.Vec3 {
	return n.Mul(0.5).Add(lmath.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
}

// DecodeNormal unpacks an encoded normal back to [-1,1] and normalizes.
func DecodeNormal(enc lmath.Vec3) lmath.Vec3 {
	return enc.Mul(2).Sub(lmath.Vec3One).Normalize()
}

// GBuffer bundles the per-frame scene attribute planes the host renderer
// produces. All planes share the screen resolution. Material packs
// roughness, metallic, emissive, reflectivity in RGBA order.
type GBuffer struct {
	Depth    *R32
	Normal   *RGBA32
	Albedo   *RGBA32
	Material *RGBA32
}

func NewGBuffer(width, height int) *GBuffer {
	g := &GBuffer{
		Depth:    NewR32(width, height),
		Normal:   NewRGBA32(width, height),
		Albedo:   NewRGBA32(width, height),
		Material: NewRGBA32(width, height),
	}
	g.Depth.Fill(1.0)
	return g
}

func (g *GBuffer) Width() int  { return g.Depth.Width }
func (g *GBuffer) Height() int { return g.Depth.Height }

// IsSky reports whether the depth sample at (x,y) is at or beyond the
// far/sky threshold.
func (g *GBuffer) IsSky(x, y int) bool {
	return g.Depth.At(x, y) >= SkyDepthThreshold
}

// WorldNormal decodes the stored world-space normal at (x,y).
func (g *GBuffer) WorldNormal(x, y int) lmath.Vec3 {
	return DecodeNormal(g.Normal.At(x, y).ToVec3())
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}
