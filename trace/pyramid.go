package trace

import (
	"lumon/gbuffer"
)

// DepthPyramid is a coarse min-depth mip of the scene depth buffer,
// stored as linear view depth. The ray marcher consults it to skip the
// fine depth sample over cells that contain no geometry closer than the
// ray.
type DepthPyramid struct {
	Factor int // screen pixels per pyramid cell (per axis)
	Width  int
	Height int
	Min    []float32 // closest linear view depth per cell
}

func NewDepthPyramid(screenWidth, screenHeight, factor int) *DepthPyramid {
	if factor < 2 {
		factor = 2
	}
	w := (screenWidth + factor - 1) / factor
	h := (screenHeight + factor - 1) / factor
	return &DepthPyramid{
		Factor: factor,
		Width:  w,
		Height: h,
		Min:    make([]float32, w*h),
	}
}

// Build recomputes every cell's minimum linear view depth.
func (p *DepthPyramid) Build(depth *gbuffer.R32, fc *gbuffer.FrameContext) {
	for cy := 0; cy < p.Height; cy++ {
		for cx := 0; cx < p.Width; cx++ {
			minDepth := fc.Far
			y0 := cy * p.Factor
			x0 := cx * p.Factor
			for y := y0; y < y0+p.Factor && y < depth.Height; y++ {
				for x := x0; x < x0+p.Factor && x < depth.Width; x++ {
					d := depth.At(x, y)
					if d >= gbuffer.SkyDepthThreshold {
						continue
					}
					vd := fc.LinearViewDepth(d)
					if vd < minDepth {
						minDepth = vd
					}
				}
			}
			p.Min[cy*p.Width+cx] = minDepth
		}
	}
}

// MinViewDepth returns the closest geometry depth in the cell covering
// screen pixel (x,y).
func (p *DepthPyramid) MinViewDepth(x, y int) float32 {
	cx := x / p.Factor
	cy := y / p.Factor
	if cx < 0 {
		cx = 0
	}
	if cy < 0 {
		cy = 0
	}
	if cx >= p.Width {
		cx = p.Width - 1
	}
	if cy >= p.Height {
		cy = p.Height - 1
	}
	return p.Min[cy*p.Width+cx]
}
