package composite

import (
	"testing"

	lmath "lumon/math"
)

var (
	indirect = lmath.NewVec3(1, 1, 1)
	albedo   = lmath.NewVec3(0.8, 0.6, 0.4)
)

func TestSplitEnergyBound(t *testing.T) {
	p := DefaultParams()
	for _, metallic := range []float32{0, 0.25, 0.5, 0.75, 1} {
		for _, roughness := range []float32{0, 0.5, 1} {
			d, s := SplitIndirect(indirect, albedo, metallic, roughness, 1, p)
			sum := d.Add(s)
			if sum.X > 1.0001 || sum.Y > 1.0001 || sum.Z > 1.0001 {
				t.Errorf("m=%v r=%v: split exceeds input energy: %v", metallic, roughness, sum)
			}
			if d.X < 0 || s.X < 0 {
				t.Errorf("m=%v r=%v: negative split terms d=%v s=%v", metallic, roughness, d, s)
			}
		}
	}
}

func TestSplitMetallicMonotonic(t *testing.T) {
	p := DefaultParams()
	prevD, prevS := float32(2), float32(-1)
	for _, metallic := range []float32{0, 0.25, 0.5, 0.75, 1} {
		d, s := SplitIndirect(indirect, albedo, metallic, 0.2, 1, p)
		if d.X > prevD {
			t.Errorf("diffuse should fall with metallic, rose at m=%v", metallic)
		}
		if s.X < prevS {
			t.Errorf("specular should rise with metallic, fell at m=%v", metallic)
		}
		prevD, prevS = d.X, s.X
	}
	// Fully metallic surfaces have no diffuse response.
	d, _ := SplitIndirect(indirect, albedo, 1, 0.2, 1, p)
	if d != lmath.Vec3Zero {
		t.Errorf("metallic=1 should zero the diffuse term, got %v", d)
	}
}

func TestSplitRoughnessAttenuatesSpecular(t *testing.T) {
	p := DefaultParams()
	_, smooth := SplitIndirect(indirect, albedo, 0.5, 0, 1, p)
	_, mid := SplitIndirect(indirect, albedo, 0.5, 0.5, 1, p)
	_, rough := SplitIndirect(indirect, albedo, 0.5, 1, 1, p)
	if !(smooth.X > mid.X && mid.X > rough.X) {
		t.Errorf("specular should fall with roughness: %v %v %v", smooth.X, mid.X, rough.X)
	}
	if rough != lmath.Vec3Zero {
		t.Errorf("roughness=1 should zero specular, got %v", rough)
	}
}

func TestSplitAOStrength(t *testing.T) {
	p := Params{DiffuseAOStrength: 1, SpecularAOStrength: 0.5, SpecularIntensity: 1}

	open, _ := SplitIndirect(indirect, albedo, 0, 0.5, 1, p)
	occluded, sOccluded := SplitIndirect(indirect, albedo, 0, 0.5, 0, p)
	if occluded != lmath.Vec3Zero {
		t.Errorf("full occlusion with strength 1 should zero diffuse, got %v", occluded)
	}
	if open == lmath.Vec3Zero {
		t.Error("unoccluded diffuse should be non-zero")
	}
	// Specular strength 0.5 halves, never zeroes.
	_, sOpen := SplitIndirect(indirect, albedo, 0, 0.5, 1, p)
	if sOccluded.X <= 0 || sOccluded.X >= sOpen.X {
		t.Errorf("partial specular AO: expected 0 < %v < %v", sOccluded.X, sOpen.X)
	}

	// Strength 0 ignores occlusion entirely.
	p0 := Params{DiffuseAOStrength: 0, SpecularAOStrength: 0, SpecularIntensity: 1}
	dA, sA := SplitIndirect(indirect, albedo, 0, 0.5, 1, p0)
	dB, sB := SplitIndirect(indirect, albedo, 0, 0.5, 0, p0)
	if dA != dB || sA != sB {
		t.Error("zero AO strength should make the split occlusion-independent")
	}
}

func TestSplitScalesWithIndirect(t *testing.T) {
	p := DefaultParams()
	d1, s1 := SplitIndirect(lmath.NewVec3(1, 1, 1), albedo, 0.3, 0.4, 0.8, p)
	d2, s2 := SplitIndirect(lmath.NewVec3(2, 2, 2), albedo, 0.3, 0.4, 0.8, p)
	if d2.Sub(d1.Mul(2)).Abs().MaxComponent() > 1e-5 {
		t.Errorf("diffuse should scale linearly with indirect: %v vs %v", d1, d2)
	}
	if s2.Sub(s1.Mul(2)).Abs().MaxComponent() > 1e-5 {
		t.Errorf("specular should scale linearly with indirect: %v vs %v", s1, s2)
	}
}
