package raster

import (
	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/pipeline"
)

// Compose combines direct lighting with the pipeline's gathered
// indirect into a final HDR frame. dst must match the G-buffer size;
// the gathered buffer is bilinearly upsampled when it runs at half
// resolution.
func Compose(dst *gbuffer.RGBA32, g *gbuffer.GBuffer, p *pipeline.Pipeline, light Light) {
	gathered := p.Gathered()
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			direct := ShadeDirect(g, x, y, light)
			if g.IsSky(x, y) {
				dst.Set(x, y, direct.ToVec4(1))
				continue
			}

			uv := lmath.NewVec2(
				(float32(x)+0.5)/float32(dst.Width),
				(float32(y)+0.5)/float32(dst.Height),
			)
			indirect := gathered.SampleBilinear(uv)

			albedo := g.Albedo.At(x, y).ToVec3()
			mat := g.Material.At(x, y)
			diffuse, specular := p.SplitIndirect(indirect.ToVec3(), albedo, mat.Y, mat.X, 1)

			out := direct.Add(diffuse).Add(specular)
			dst.Set(x, y, out.ToVec4(1))
		}
	}
}
