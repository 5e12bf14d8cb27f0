// Package raster renders scene geometry into the G-buffer with a
// software triangle rasterizer. It exists so the pipeline can run and
// be inspected without a GPU; the interactive demo feeds the same
// G-buffer to an OpenGL blit for display.
package raster

import (
	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/scene"
)

// Rasterizer fills a G-buffer from triangle geometry. Triangles are
// shaded flat per material; depth is the standard [0,1] depth-buffer
// value, normals are world space.
type Rasterizer struct {
	width  int
	height int
}

func New(width, height int) *Rasterizer {
	return &Rasterizer{width: width, height: height}
}

// Render clears the G-buffer and rasterizes every object. Triangles
// with any vertex behind the near plane are dropped rather than
// clipped; keep the camera out of geometry.
func (r *Rasterizer) Render(g *gbuffer.GBuffer, sc *scene.Scene, view, proj lmath.Mat4) {
	g.Depth.Fill(1)
	g.Normal.Fill(lmath.Vec4{})
	g.Albedo.Fill(lmath.Vec4{})
	g.Material.Fill(lmath.Vec4{})

	viewProj := view.Mul(proj)
	for _, obj := range sc.Objects {
		if obj.Mesh == nil {
			continue
		}
		r.drawObject(g, obj, viewProj)
	}
}

// screenVertex is a projected vertex ready for interpolation. Normal is
// pre-divided by clip W for perspective-correct interpolation.
type screenVertex struct {
	x, y   float32
	ndcZ   float32
	invW   float32
	normal lmath.Vec3
}

func (r *Rasterizer) drawObject(g *gbuffer.GBuffer, obj *scene.Object, viewProj lmath.Mat4) {
	mvp := obj.Transform.Mul(viewProj)
	mat := obj.Material()
	albedo := mat.Albedo.ToVec4(1)
	packed := mat.Packed()

	mesh := obj.Mesh
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		v0, ok0 := r.project(mesh.Vertices[mesh.Indices[t]], obj, mvp)
		v1, ok1 := r.project(mesh.Vertices[mesh.Indices[t+1]], obj, mvp)
		v2, ok2 := r.project(mesh.Vertices[mesh.Indices[t+2]], obj, mvp)
		if !ok0 || !ok1 || !ok2 {
			continue
		}
		r.fillTriangle(g, v0, v1, v2, albedo, packed)
	}
}

func (r *Rasterizer) project(v scene.Vertex, obj *scene.Object, mvp lmath.Mat4) (screenVertex, bool) {
	clip := v.Position.ToVec4(1).MulMat(mvp)
	if clip.W <= 1e-5 || !clip.IsFinite() {
		return screenVertex{}, false
	}
	invW := 1 / clip.W
	ndc := clip.ToVec3().Mul(invW)

	n := obj.NormalMatrix.MulDir(v.Normal).Normalize()
	return screenVertex{
		x:      (ndc.X*0.5 + 0.5) * float32(r.width),
		y:      (ndc.Y*0.5 + 0.5) * float32(r.height),
		ndcZ:   ndc.Z,
		invW:   invW,
		normal: n.Mul(invW),
	}, true
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fillTriangle rasterizes one triangle with a depth test. Both windings
// are accepted so imported geometry never disappears over winding
// conventions.
func (r *Rasterizer) fillTriangle(g *gbuffer.GBuffer, v0, v1, v2 screenVertex, albedo, packed lmath.Vec4) {
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 || !lmath.IsFinite(area) {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	invArea := 1 / area

	minX := clampInt(floorInt(lmath.Min(v0.x, lmath.Min(v1.x, v2.x))), 0, r.width-1)
	maxX := clampInt(floorInt(lmath.Max(v0.x, lmath.Max(v1.x, v2.x))), 0, r.width-1)
	minY := clampInt(floorInt(lmath.Min(v0.y, lmath.Min(v1.y, v2.y))), 0, r.height-1)
	maxY := clampInt(floorInt(lmath.Max(v0.y, lmath.Max(v1.y, v2.y))), 0, r.height-1)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5

			w0 := edge(v1.x, v1.y, v2.x, v2.y, px, py)
			w1 := edge(v2.x, v2.y, v0.x, v0.y, px, py)
			w2 := edge(v0.x, v0.y, v1.x, v1.y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			w0 *= invArea
			w1 *= invArea
			w2 *= invArea

			ndcZ := w0*v0.ndcZ + w1*v1.ndcZ + w2*v2.ndcZ
			depth := lmath.Clamp(ndcZ*0.5+0.5, 0, 1)
			if depth >= g.Depth.At(x, y) {
				continue
			}

			invW := w0*v0.invW + w1*v1.invW + w2*v2.invW
			if invW <= 0 {
				continue
			}
			n := v0.normal.Mul(w0).Add(v1.normal.Mul(w1)).Add(v2.normal.Mul(w2)).Mul(1 / invW)
			n = n.Normalize()

			g.Depth.Set(x, y, depth)
			g.Normal.Set(x, y, gbuffer.EncodeNormal(n).ToVec4(0))
			g.Albedo.Set(x, y, albedo)
			g.Material.Set(x, y, packed)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}
