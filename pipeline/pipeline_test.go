package pipeline

import (
	"testing"

	"github.com/chewxy/math32"

	"lumon/gbuffer"
	lmath "lumon/math"
)

func testScene(size int) *gbuffer.GBuffer {
	g := gbuffer.NewGBuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// Lower half wall, upper half sky.
			if y >= size/2 {
				g.Depth.Set(x, y, 0.991)
				g.Normal.Set(x, y, gbuffer.EncodeNormal(lmath.NewVec3(0, 0, 1)).ToVec4(0))
				g.Albedo.Set(x, y, lmath.NewVec4(0.7, 0.5, 0.3, 1))
				g.Material.Set(x, y, lmath.NewVec4(0.8, 0, 0, 0.5))
			}
		}
	}
	return g
}

func testCamera() (lmath.Mat4, lmath.Mat4) {
	return lmath.Mat4Identity(), lmath.Mat4Perspective(math32.Pi/3, 1, 0.1, 100)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.ProbeSpacing = 16
	cfg.WorldResolution = 4
	cfg.WorldLevels = 2
	cfg.WorldUpdateBudget = 8
	cfg.WorldCaptureSize = 4
	cfg.Workers = 2
	return cfg
}

func TestRenderStats(t *testing.T) {
	p, err := New(64, 64, smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	g := testScene(64)
	view, proj := testCamera()
	if err := p.Render(g, view, proj, 0.1, 100); err != nil {
		t.Fatal(err)
	}

	s := p.Stats()
	if s.Probes != 16 {
		t.Errorf("expected 16 probes, got %d", s.Probes)
	}
	if s.TracedTexels != 16*8 {
		t.Errorf("expected 128 traced texels, got %d", s.TracedTexels)
	}
	if s.WorldCaptures == 0 {
		t.Error("first frame should capture world probes")
	}
	if s.Frame != 0 {
		t.Errorf("first frame index should be 0, got %d", s.Frame)
	}
}

func TestRenderSizeMismatch(t *testing.T) {
	p, err := New(64, 64, smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	view, proj := testCamera()
	if err := p.Render(testScene(32), view, proj, 0.1, 100); err == nil {
		t.Error("expected error for mismatched G-buffer size")
	}
	if err := p.Render(nil, view, proj, 0.1, 100); err == nil {
		t.Error("expected error for nil G-buffer")
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New(0, 64, DefaultConfig()); err == nil {
		t.Error("expected error for zero width")
	}
}

func checkFinite(t *testing.T, name string, pix []float32) {
	t.Helper()
	for i, v := range pix {
		if !lmath.IsFinite(v) {
			t.Fatalf("%s contains non-finite value at index %d", name, i)
		}
	}
}

func TestRenderNoNaN(t *testing.T) {
	p, err := New(64, 64, smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	g := testScene(64)
	// Poisoned inputs must not leak into any output buffer.
	g.Depth.Set(10, 40, math32.NaN())
	g.Albedo.Set(20, 50, lmath.NewVec4(math32.Inf(1), 0, 0, 1))

	_, proj := testCamera()
	for frame := 0; frame < 4; frame++ {
		// Slight camera drift to exercise reprojection.
		v := lmath.Mat4LookAt(lmath.NewVec3(float32(frame)*0.01, 0, 0),
			lmath.NewVec3(float32(frame)*0.01, 0, -1), lmath.Vec3Up)
		if err := p.Render(g, v, proj, 0.1, 100); err != nil {
			t.Fatal(err)
		}
	}

	checkFinite(t, "gathered", p.Gathered().Pix)
	checkFinite(t, "atlas radiance", p.Atlas().Radiance.Pix)
	checkFinite(t, "atlas meta", p.Atlas().Meta.Pix)
	checkFinite(t, "filtered radiance", p.FilteredAtlas().Radiance.Pix)
	checkFinite(t, "velocity", p.Velocity().UV.Pix)
}

func TestRenderDeterministic(t *testing.T) {
	run := func() []float32 {
		p, err := New(64, 64, smallConfig())
		if err != nil {
			t.Fatal(err)
		}
		g := testScene(64)
		view, proj := testCamera()
		for frame := 0; frame < 3; frame++ {
			if err := p.Render(g, view, proj, 0.1, 100); err != nil {
				t.Fatal(err)
			}
		}
		out := make([]float32, len(p.Gathered().Pix))
		copy(out, p.Gathered().Pix)
		return out
	}

	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRenderConverges(t *testing.T) {
	cfg := smallConfig()
	p, err := New(64, 64, cfg)
	if err != nil {
		t.Fatal(err)
	}
	g := testScene(64)
	view, proj := testCamera()

	// One full temporal cycle traces every atlas texel at least once.
	for frame := 0; frame < 8; frame++ {
		if err := p.Render(g, view, proj, 0.1, 100); err != nil {
			t.Fatal(err)
		}
	}

	// A wall pixel gathers non-zero indirect light with confidence.
	got := p.Gathered().At(32, 48)
	if got.X <= 0 || got.Y <= 0 || got.Z <= 0 {
		t.Errorf("wall pixel should gather indirect light, got %v", got)
	}
	if got.W <= 0 {
		t.Errorf("wall pixel should carry confidence, got %v", got.W)
	}
	// Sky pixels gather nothing.
	if sky := p.Gathered().At(32, 4); sky.ToVec3() != lmath.Vec3Zero {
		t.Errorf("sky pixel should gather zero, got %v", sky)
	}
}

func TestHalfResGather(t *testing.T) {
	cfg := smallConfig()
	cfg.HalfResGather = true
	p, err := New(64, 64, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Gathered().Width != 32 || p.Gathered().Height != 32 {
		t.Errorf("half-res gather buffer: expected 32x32, got %dx%d",
			p.Gathered().Width, p.Gathered().Height)
	}
}

func TestFeatureTogglesOff(t *testing.T) {
	cfg := smallConfig()
	cfg.EnableTemporal = false
	cfg.EnableSpatialFilter = false
	cfg.EnableWorldProbes = false
	cfg.UseDepthPyramid = false

	p, err := New(64, 64, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.WorldProbes() != nil {
		t.Error("world probes should be nil when disabled")
	}
	g := testScene(64)
	view, proj := testCamera()
	for frame := 0; frame < 2; frame++ {
		if err := p.Render(g, view, proj, 0.1, 100); err != nil {
			t.Fatal(err)
		}
	}
	if p.Stats().WorldCaptures != 0 {
		t.Error("disabled world probes still captured")
	}
	checkFinite(t, "gathered", p.Gathered().Pix)
}

func TestResizeAndReset(t *testing.T) {
	p, err := New(64, 64, smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	g := testScene(64)
	view, proj := testCamera()
	if err := p.Render(g, view, proj, 0.1, 100); err != nil {
		t.Fatal(err)
	}

	if err := p.Resize(32, 32); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(testScene(32), view, proj, 0.1, 100); err != nil {
		t.Fatal(err)
	}
	if p.Stats().Frame != 0 {
		t.Errorf("resize should restart the frame counter, got %d", p.Stats().Frame)
	}
	if err := p.Resize(0, 5); err == nil {
		t.Error("expected error for invalid resize")
	}

	p.Reset()
	for _, v := range p.Atlas().Radiance.Pix {
		if v != 0 {
			t.Fatal("reset should clear accumulated radiance")
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := t.TempDir() + "/config.json"
	cfg := smallConfig()
	cfg.RayMaxDistance = 33
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != cfg {
		t.Errorf("config did not round-trip:\n got %+v\nwant %+v", loaded, cfg)
	}

	if _, err := LoadConfig(path + ".missing"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSplitIndirectKnobs(t *testing.T) {
	cfg := smallConfig()
	cfg.DiffuseAOStrength = 1
	p, err := New(8, 8, cfg)
	if err != nil {
		t.Fatal(err)
	}
	d, s := p.SplitIndirect(lmath.Vec3One, lmath.NewVec3(0.5, 0.5, 0.5), 0, 0.5, 0)
	if d != lmath.Vec3Zero {
		t.Errorf("full occlusion should zero diffuse, got %v", d)
	}
	if s == lmath.Vec3Zero {
		t.Error("specular should survive partial AO strength")
	}
}
