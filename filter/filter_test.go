package filter

import (
	"testing"

	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
)

func fillTile(a *probe.Atlas, px, py int, rad lmath.Vec4, meta probe.Meta) {
	ox, oy := a.Grid.TileOrigin(px, py)
	for ty := 0; ty < a.Grid.TileSize; ty++ {
		for tx := 0; tx < a.Grid.TileSize; tx++ {
			a.Radiance.Set(ox+tx, oy+ty, rad)
			a.Meta.SetMeta(ox+tx, oy+ty, meta)
		}
	}
}

func runBlur(src *probe.Atlas) *probe.Atlas {
	dst := probe.NewAtlas(src.Grid)
	var b Blur
	for py := 0; py < src.Grid.Height; py++ {
		b.FilterRow(py, src, dst)
	}
	return dst
}

func TestBlurUniformTileUnchanged(t *testing.T) {
	grid := probe.NewGrid(16, 16, 8, 8)
	src := probe.NewAtlas(grid)
	fillTile(src, 0, 0, lmath.NewVec4(0.5, 0.25, 0.125, 2), probe.Meta{Confidence: 0.9, Flags: probe.FlagHit})

	dst := runBlur(src)

	ox, oy := grid.TileOrigin(0, 0)
	for ty := 0; ty < grid.TileSize; ty++ {
		for tx := 0; tx < grid.TileSize; tx++ {
			got := dst.Radiance.At(ox+tx, oy+ty)
			if math32.Abs(got.X-0.5) > 1e-5 || math32.Abs(got.Y-0.25) > 1e-5 {
				t.Fatalf("uniform tile changed at (%d,%d): %v", tx, ty, got)
			}
			if got.W != 2 {
				t.Fatalf("encoded distance must pass through, got %v", got.W)
			}
		}
	}
}

func TestBlurZeroConfidenceExcluded(t *testing.T) {
	grid := probe.NewGrid(8, 8, 8, 8)
	src := probe.NewAtlas(grid)
	fillTile(src, 0, 0, lmath.NewVec4(1, 0, 0, 1), probe.Meta{Confidence: 1, Flags: probe.FlagHit})
	// One garbage texel that must not leak into neighbors.
	src.Radiance.Set(3, 3, lmath.NewVec4(9, 9, 9, 9))
	src.Meta.SetMeta(3, 3, probe.Meta{})

	dst := runBlur(src)

	if got := dst.Radiance.At(2, 3); math32.Abs(got.X-1) > 1e-5 || got.Y != 0 {
		t.Errorf("zero-confidence texel leaked into neighbor: %v", got)
	}
	// The garbage texel itself averages its confident neighbors.
	if got := dst.Radiance.At(3, 3); math32.Abs(got.X-1) > 1e-5 {
		t.Errorf("zero-confidence texel should take neighbor average, got %v", got)
	}
}

func TestBlurStaysInsideTile(t *testing.T) {
	grid := probe.NewGrid(16, 8, 8, 8)
	src := probe.NewAtlas(grid)
	fillTile(src, 0, 0, lmath.NewVec4(1, 0, 0, 1), probe.Meta{Confidence: 1, Flags: probe.FlagHit})
	fillTile(src, 1, 0, lmath.NewVec4(0, 0, 1, 1), probe.Meta{Confidence: 1, Flags: probe.FlagHit})

	dst := runBlur(src)

	// Texels on both sides of the tile boundary stay pure.
	if got := dst.Radiance.At(7, 4); got.Z != 0 || math32.Abs(got.X-1) > 1e-5 {
		t.Errorf("blue leaked into red tile: %v", got)
	}
	if got := dst.Radiance.At(8, 4); got.X != 0 || math32.Abs(got.Z-1) > 1e-5 {
		t.Errorf("red leaked into blue tile: %v", got)
	}
}

func TestBlurAllZeroConfidence(t *testing.T) {
	grid := probe.NewGrid(8, 8, 8, 8)
	src := probe.NewAtlas(grid)
	src.Radiance.Set(4, 4, lmath.NewVec4(3, 3, 3, 3))

	dst := runBlur(src)
	if dst.Radiance.At(4, 4) != lmath.NewVec4(3, 3, 3, 3) {
		t.Error("with no confident neighbors the center passes through")
	}
}

// ── Gather ──────────────────────────────────────────────────────────────

const wallDepth = 0.991

func gatherScene() (*gbuffer.GBuffer, gbuffer.FrameContext, probe.Grid, *probe.Anchors) {
	proj := lmath.Mat4Perspective(math32.Pi/3, 1, 0.1, 100)
	view := lmath.Mat4Identity()
	fc := gbuffer.NewFrameContext(view, proj, view.Mul(proj), 0.1, 100, 0, 8)

	g := gbuffer.NewGBuffer(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g.Depth.Set(x, y, wallDepth)
			g.Normal.Set(x, y, gbuffer.EncodeNormal(lmath.NewVec3(0, 0, 1)).ToVec4(0))
		}
	}
	grid := probe.NewGrid(16, 16, 8, 8)
	anchors := probe.NewAnchors(grid)
	for py := 0; py < grid.Height; py++ {
		anchors.GenerateRow(py, g, &fc)
	}
	return g, fc, grid, anchors
}

func uniformAtlas(grid probe.Grid, rad lmath.Vec4, conf float32) *probe.Atlas {
	a := probe.NewAtlas(grid)
	for py := 0; py < grid.Height; py++ {
		for px := 0; px < grid.Width; px++ {
			fillTile(a, px, py, rad, probe.Meta{Confidence: conf, Flags: probe.FlagHit})
		}
	}
	return a
}

type stubWorld struct {
	rad  lmath.Vec3
	conf float32
}

func (s stubWorld) SampleIrradiance(pos, normal lmath.Vec3) (lmath.Vec3, float32) {
	return s.rad, s.conf
}

func runGather(gt *Gatherer, atlas *probe.Atlas, anchors *probe.Anchors, g *gbuffer.GBuffer, fc *gbuffer.FrameContext, world WorldSampler) *gbuffer.RGBA32 {
	w, h := gt.OutputSize(g.Width(), g.Height())
	out := gbuffer.NewRGBA32(w, h)
	for y := 0; y < h; y++ {
		gt.GatherRow(y, out, atlas, anchors, g, fc, world)
	}
	return out
}

func TestGatherUniformAtlas(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	atlas := uniformAtlas(grid, lmath.NewVec4(0.5, 0.25, 0.125, 1), 0.9)

	gt := NewGatherer(DefaultGatherParams())
	out := runGather(gt, atlas, anchors, g, &fc, nil)

	got := out.At(8, 8)
	if math32.Abs(got.X-0.5) > 1e-4 || math32.Abs(got.Y-0.25) > 1e-4 || math32.Abs(got.Z-0.125) > 1e-4 {
		t.Errorf("uniform atlas should gather to its own value, got %v", got)
	}
	if math32.Abs(got.W-0.9) > 1e-4 {
		t.Errorf("combined confidence: expected 0.9, got %v", got.W)
	}
}

func TestGatherSkyPixelZero(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	g.Depth.Set(2, 2, 1.0)
	atlas := uniformAtlas(grid, lmath.NewVec4(1, 1, 1, 1), 1)

	gt := NewGatherer(DefaultGatherParams())
	out := runGather(gt, atlas, anchors, g, &fc, nil)

	if out.At(2, 2) != (lmath.Vec4{}) {
		t.Errorf("sky pixel should gather to zero, got %v", out.At(2, 2))
	}
}

func TestGatherWorldFallback(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	// Zero-confidence atlas: screen probes resolve nothing.
	atlas := probe.NewAtlas(grid)

	gt := NewGatherer(DefaultGatherParams())
	world := stubWorld{rad: lmath.NewVec3(0.2, 0.4, 0.6), conf: 1}
	out := runGather(gt, atlas, anchors, g, &fc, world)

	got := out.At(8, 8)
	if math32.Abs(got.X-0.2) > 1e-4 || math32.Abs(got.Z-0.6) > 1e-4 {
		t.Errorf("world probes should fill unresolved pixels, got %v", got)
	}
	if math32.Abs(got.W-1) > 1e-4 {
		t.Errorf("combined confidence should be 1, got %v", got.W)
	}
}

func TestGatherScreenPriority(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	atlas := uniformAtlas(grid, lmath.NewVec4(0.5, 0.5, 0.5, 1), 1)

	gt := NewGatherer(DefaultGatherParams())
	world := stubWorld{rad: lmath.NewVec3(9, 9, 9), conf: 1}
	out := runGather(gt, atlas, anchors, g, &fc, world)

	// Fully confident screen result leaves no room for the world term.
	got := out.At(8, 8)
	if math32.Abs(got.X-0.5) > 1e-4 {
		t.Errorf("world term should not displace confident screen result, got %v", got)
	}
}

func TestGatherInvalidProbesExcluded(t *testing.T) {
	g, fc, grid, _ := gatherScene()
	// All-sky anchors: validity 0 everywhere.
	skyG := gbuffer.NewGBuffer(16, 16)
	anchors := probe.NewAnchors(grid)
	for py := 0; py < grid.Height; py++ {
		anchors.GenerateRow(py, skyG, &fc)
	}
	atlas := uniformAtlas(grid, lmath.NewVec4(1, 1, 1, 1), 1)

	gt := NewGatherer(DefaultGatherParams())
	out := runGather(gt, atlas, anchors, g, &fc, nil)

	got := out.At(8, 8)
	if got.ToVec3() != lmath.Vec3Zero || got.W != 0 {
		t.Errorf("zero-validity probes must contribute nothing, got %v", got)
	}
}

func TestGatherHalfResolution(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	atlas := uniformAtlas(grid, lmath.NewVec4(0.5, 0.25, 0.125, 1), 0.8)

	gt := NewGatherer(GatherParams{Scale: 2, Intensity: 1})
	w, h := gt.OutputSize(16, 16)
	if w != 8 || h != 8 {
		t.Fatalf("half-res output: expected 8x8, got %dx%d", w, h)
	}
	out := runGather(gt, atlas, anchors, g, &fc, nil)
	got := out.At(4, 4)
	if math32.Abs(got.X-0.5) > 1e-4 {
		t.Errorf("half-res gather should match the atlas value, got %v", got)
	}
}

func TestGatherIntensity(t *testing.T) {
	g, fc, grid, anchors := gatherScene()
	atlas := uniformAtlas(grid, lmath.NewVec4(0.5, 0.5, 0.5, 1), 1)

	gt := NewGatherer(GatherParams{Scale: 1, Intensity: 2})
	out := runGather(gt, atlas, anchors, g, &fc, nil)
	if got := out.At(8, 8); math32.Abs(got.X-1.0) > 1e-4 {
		t.Errorf("intensity 2 should double gathered radiance, got %v", got)
	}
}
