// Package filter holds the spatial denoise pass over the accumulated
// atlas and the gather/upsample stage that turns probe tiles into a
// per-pixel indirect lighting buffer.
package filter

import (
	lmath "lumon/math"
	"lumon/probe"
)

// blurKernel is the 3x3 weight stencil, center-heavy.
var blurKernel = [3][3]float32{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// Blur is the tile-confined confidence-weighted denoiser. The kernel is
// clamped at tile boundaries so radiance never bleeds between probes
// with different anchors.
type Blur struct{}

// FilterRow denoises one probe row from src into dst. Meta and encoded
// distance pass through unchanged; only RGB is smoothed.
func (Blur) FilterRow(py int, src, dst *probe.Atlas) {
	grid := src.Grid
	for px := 0; px < grid.Width; px++ {
		ox, oy := grid.TileOrigin(px, py)
		for ty := 0; ty < grid.TileSize; ty++ {
			for tx := 0; tx < grid.TileSize; tx++ {
				dst.Radiance.Set(ox+tx, oy+ty, blurTexel(src, ox, oy, tx, ty))
				dst.Meta.Set(ox+tx, oy+ty, src.Meta.At(ox+tx, oy+ty))
			}
		}
	}
}

func blurTexel(src *probe.Atlas, ox, oy, tx, ty int) lmath.Vec4 {
	size := src.Grid.TileSize
	center := src.Radiance.At(ox+tx, oy+ty)

	var sum lmath.Vec3
	var weight float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := tx+dx, ty+dy
			if nx < 0 || nx >= size || ny < 0 || ny >= size {
				continue
			}
			conf := src.Meta.Meta(ox+nx, oy+ny).Confidence
			if conf <= 0 {
				continue
			}
			w := blurKernel[dy+1][dx+1] * conf
			sum = sum.Add(src.Radiance.At(ox+nx, oy+ny).ToVec3().Mul(w))
			weight += w
		}
	}
	if weight <= 0 {
		return center
	}
	return sum.Mul(1 / weight).ToVec4(center.W)
}
