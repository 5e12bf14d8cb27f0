package worldprobe

import (
	"testing"

	"github.com/chewxy/math32"

	lmath "lumon/math"
)

// uniformSH builds the SH projection of a uniform radiance field, which
// must evaluate back to the same irradiance.
func uniformSH(radiance lmath.Vec3) lmath.SH9 {
	var sh lmath.SH9
	sh.Coeffs[0] = radiance.Mul(4 * math32.Pi * 0.282095)
	return sh
}

func testParams() Params {
	p := DefaultParams()
	p.Levels = 2
	p.Resolution = 8
	p.BaseSpacing = 1
	p.UpdateBudget = 16
	p.StaleFrames = 0
	return p
}

func fillLevel(l *Level, rec Record) {
	for slot := range l.probes {
		l.Store(l.cellForSlot(slot), rec)
	}
}

func TestWrapIndex(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 8, 0}, {7, 8, 7}, {8, 8, 0}, {-1, 8, 7}, {-8, 8, 0}, {-9, 8, 7}, {17, 8, 1},
	}
	for _, c := range cases {
		if got := wrapIndex(c.i, c.n); got != c.want {
			t.Errorf("wrapIndex(%d,%d) = %d, expected %d", c.i, c.n, got, c.want)
		}
	}
}

func TestSlotStableAcrossRecenter(t *testing.T) {
	l := NewLevel(0, 8, 1)
	l.Recenter(lmath.Vec3Zero)

	cell := [3]int{1, 2, -1}
	slot := l.slotIndex(cell)
	l.Store(cell, Record{Confidence: 0.7, SkyVis: 0.3})

	// One cell of camera motion: the cell stays in the window and must
	// keep both its slot and its data.
	l.Recenter(lmath.NewVec3(1.2, 0, 0))
	if got := l.slotIndex(cell); got != slot {
		t.Errorf("slot moved across recenter: %d -> %d", slot, got)
	}
	r := l.Probe(cell)
	if r == nil || r.Confidence != 0.7 {
		t.Fatalf("probe data lost across recenter: %+v", r)
	}
}

func TestScrollOutInvalidates(t *testing.T) {
	l := NewLevel(0, 8, 1)
	l.Recenter(lmath.Vec3Zero)

	cell := [3]int{-4, 0, 0} // window minimum edge
	l.Store(cell, Record{Confidence: 1})

	// A big jump scrolls the cell out entirely.
	l.Recenter(lmath.NewVec3(100, 0, 0))
	if l.Probe(cell) != nil {
		t.Error("scrolled-out cell should read as nil")
	}
	// The reused slot holds a mismatched cell and reads as a hole until
	// recaptured.
	reused := l.cellForSlot(l.slotIndex(cell))
	if l.Probe(reused) != nil {
		t.Error("reused slot should be a hole before recapture")
	}
}

func TestSlotCellRoundTrip(t *testing.T) {
	l := NewLevel(0, 8, 1)
	for _, cam := range []lmath.Vec3{lmath.Vec3Zero, lmath.NewVec3(3.7, -2.1, 9.9), lmath.NewVec3(-55, 13, 0.4)} {
		l.Recenter(cam)
		for slot := range l.probes {
			cell := l.cellForSlot(slot)
			if !l.InWindow(cell) {
				t.Fatalf("cellForSlot(%d) = %v outside window", slot, cell)
			}
			if got := l.slotIndex(cell); got != slot {
				t.Fatalf("slot round trip: %d -> %v -> %d (camera %v)", slot, cell, got, cam)
			}
		}
	}
}

func TestSelectLevelContainment(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)

	// Level 0 spans [-4,4), level 1 spans [-8,8).
	if got := c.SelectLevel(lmath.NewVec3(1, 1, 1)); got != 0 {
		t.Errorf("near position should pick level 0, got %d", got)
	}
	if got := c.SelectLevel(lmath.NewVec3(6, 0, 0)); got != 1 {
		t.Errorf("mid position should pick level 1, got %d", got)
	}
	if got := c.SelectLevel(lmath.NewVec3(50, 0, 0)); got != -1 {
		t.Errorf("far position should pick no level, got %d", got)
	}
}

func TestSampleUniformIrradiance(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)

	want := lmath.NewVec3(0.4, 0.5, 0.6)
	fillLevel(c.Levels[0], Record{SH: uniformSH(want), Confidence: 1})

	got, conf := c.SampleIrradiance(lmath.NewVec3(0.2, 0.3, 0.1), lmath.Vec3Up)
	if got.Sub(want).Abs().MaxComponent() > 0.01 {
		t.Errorf("uniform field irradiance: expected %v, got %v", want, got)
	}
	if math32.Abs(conf-1) > 1e-5 {
		t.Errorf("confidence: expected 1, got %v", conf)
	}
}

func TestHolesDoNotDarken(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)

	want := lmath.NewVec3(1, 1, 1)
	// Only one corner probe exists; its neighbors are holes.
	c.Levels[0].Store([3]int{0, 0, 0}, Record{SH: uniformSH(want), Confidence: 1})

	got, conf := c.SampleIrradiance(lmath.NewVec3(0.7, 0.5, 0.5), lmath.Vec3Up)
	if got.Sub(want).Abs().MaxComponent() > 0.01 {
		t.Errorf("single-corner sample should not be darkened by holes: %v", got)
	}
	if conf <= 0 {
		t.Error("confidence should be positive with one valid corner")
	}
}

func TestHoleFallbackToCoarser(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)

	coarse := lmath.NewVec3(0.2, 0.3, 0.4)
	fillLevel(c.Levels[1], Record{SH: uniformSH(coarse), Confidence: 0.9})

	// Fine level is all holes: the sample must come from the coarse
	// level even deep inside the fine volume.
	got, conf := c.SampleIrradiance(lmath.NewVec3(0.1, 0.2, 0.3), lmath.Vec3Up)
	if got.Sub(coarse).Abs().MaxComponent() > 0.01 {
		t.Errorf("hole fallback: expected coarse value %v, got %v", coarse, got)
	}
	if math32.Abs(conf-0.9) > 1e-4 {
		t.Errorf("hole fallback confidence: expected 0.9, got %v", conf)
	}
}

func TestBoundaryBlendRamp(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)
	l := c.Levels[0]

	if b := c.boundaryBlend(l, lmath.Vec3Zero); b != 0 {
		t.Errorf("center position should not blend, got %v", b)
	}
	if b := c.boundaryBlend(l, lmath.NewVec3(3.9, 0, 0)); b <= 0 {
		t.Error("edge position should blend toward the coarser level")
	}
	inner := c.boundaryBlend(l, lmath.NewVec3(2.8, 0, 0))
	outer := c.boundaryBlend(l, lmath.NewVec3(3.6, 0, 0))
	if outer <= inner {
		t.Errorf("blend should grow toward the edge: inner %v, outer %v", inner, outer)
	}
}

func TestSkyVisibility(t *testing.T) {
	c := NewClipmap(testParams())
	c.Recenter(lmath.Vec3Zero)
	fillLevel(c.Levels[0], Record{SH: uniformSH(lmath.Vec3One), SkyVis: 0.6, Confidence: 1})

	if got := c.SkyVisibility(lmath.NewVec3(0.3, 0.3, 0.3)); math32.Abs(got-0.6) > 1e-4 {
		t.Errorf("sky visibility: expected 0.6, got %v", got)
	}
	if got := c.SkyVisibility(lmath.NewVec3(500, 0, 0)); got != 0 {
		t.Errorf("uncovered position sky visibility should be 0, got %v", got)
	}
}

func TestUpdateAmortized(t *testing.T) {
	p := testParams()
	p.Resolution = 4 // 64 slots per level
	p.UpdateBudget = 10
	c := NewClipmap(p)
	c.Recenter(lmath.Vec3Zero)

	calls := 0
	capture := func(pos lmath.Vec3, spacing float32) Capture {
		calls++
		if spacing != 1 && spacing != 2 {
			t.Fatalf("unexpected level spacing %v", spacing)
		}
		return Capture{SH: uniformSH(lmath.Vec3One), SkyVis: 0.5, Confidence: 1}
	}

	if got := c.Update(0, capture); got != 20 {
		t.Fatalf("first update: expected 2 levels x 10 captures, got %d", got)
	}

	for frame := 1; frame < 32 && !c.Converged(); frame++ {
		c.Update(frame, capture)
	}
	if !c.Converged() {
		t.Fatal("clipmap did not converge within budgeted updates")
	}
	if calls != 128 {
		t.Errorf("expected exactly 128 captures to converge, got %d", calls)
	}

	// Converged and not stale: nothing left to do.
	if got := c.Update(100, capture); got != 0 {
		t.Errorf("converged clipmap re-captured %d probes", got)
	}

	// A camera jump opens holes again.
	c.Recenter(lmath.NewVec3(100, 0, 0))
	if got := c.Update(101, capture); got == 0 {
		t.Error("recentered clipmap should need recapture")
	}
}

func TestUpdateStaleness(t *testing.T) {
	p := testParams()
	p.Resolution = 4
	p.UpdateBudget = 64
	p.StaleFrames = 5
	c := NewClipmap(p)
	c.Recenter(lmath.Vec3Zero)

	capture := func(pos lmath.Vec3, spacing float32) Capture {
		return Capture{SH: uniformSH(lmath.Vec3One), Confidence: 1}
	}
	c.Update(0, capture)
	c.Update(0, capture)
	if !c.Converged() {
		t.Fatal("expected convergence with full budget")
	}
	if got := c.Update(3, capture); got != 0 {
		t.Errorf("fresh probes re-captured too early: %d", got)
	}
	if got := c.Update(20, capture); got == 0 {
		t.Error("stale probes should be re-captured")
	}
}
