package math

// SH9 holds second-order spherical harmonic coefficients, one RGB triple
// per basis function (27 scalars total). Coefficients are signed.
type SH9 struct {
	Coeffs [9]Vec3
}

// Band-2 SH basis constants.
const (
	shBasis0 = 0.282095 // Y00
	shBasis1 = 0.488603 // Y1-1, Y10, Y11
	shBasis2 = 1.092548 // Y2-2, Y2-1, Y21
	shBasis3 = 0.315392 // Y20
	shBasis4 = 0.546274 // Y22
)

// shEvalBasis evaluates the 9 basis functions at a unit direction.
func shEvalBasis(dir Vec3) [9]float32 {
	x, y, z := dir.X, dir.Y, dir.Z
	return [9]float32{
		shBasis0,
		shBasis1 * y,
		shBasis1 * z,
		shBasis1 * x,
		shBasis2 * x * y,
		shBasis2 * y * z,
		shBasis3 * (3*z*z - 1),
		shBasis2 * x * z,
		shBasis4 * (x*x - y*y),
	}
}

// AddSample projects a radiance sample arriving from dir into the SH set.
// weight carries the sample's solid angle; summing over a full sphere of
// samples the weights must total 4*pi for an exact projection.
func (s *SH9) AddSample(dir, radiance Vec3, weight float32) {
	basis := shEvalBasis(dir)
	for i := 0; i < 9; i++ {
		s.Coeffs[i] = s.Coeffs[i].Add(radiance.Mul(basis[i] * weight))
	}
}

func (s SH9) Add(other SH9) SH9 {
	var out SH9
	for i := 0; i < 9; i++ {
		out.Coeffs[i] = s.Coeffs[i].Add(other.Coeffs[i])
	}
	return out
}

func (s SH9) Scale(f float32) SH9 {
	var out SH9
	for i := 0; i < 9; i++ {
		out.Coeffs[i] = s.Coeffs[i].Mul(f)
	}
	return out
}

func (s SH9) Lerp(other SH9, t float32) SH9 {
	var out SH9
	for i := 0; i < 9; i++ {
		out.Coeffs[i] = s.Coeffs[i].Lerp(other.Coeffs[i], t)
	}
	return out
}

// EvalRadiance reconstructs the band-limited radiance arriving from dir.
func (s SH9) EvalRadiance(dir Vec3) Vec3 {
	basis := shEvalBasis(dir)
	out := Vec3Zero
	for i := 0; i < 9; i++ {
		out = out.Add(s.Coeffs[i].Mul(basis[i]))
	}
	return out
}

// Cosine-lobe convolution weights divided by pi, so that a uniform
// radiance field L evaluates to irradiance L (not pi*L).
const (
	shHatA0 = 1.0
	shHatA1 = 2.0 / 3.0
	shHatA2 = 1.0 / 4.0
)

// EvalIrradiance convolves the stored radiance with a clamped cosine lobe
// around normal, returning the diffuse irradiance (already divided by pi).
func (s SH9) EvalIrradiance(normal Vec3) Vec3 {
	basis := shEvalBasis(normal)
	hat := [9]float32{
		shHatA0,
		shHatA1, shHatA1, shHatA1,
		shHatA2, shHatA2, shHatA2, shHatA2, shHatA2,
	}
	out := Vec3Zero
	for i := 0; i < 9; i++ {
		out = out.Add(s.Coeffs[i].Mul(basis[i] * hat[i]))
	}
	// Band-limited reconstruction can ring slightly negative.
	return Vec3{X: Max(out.X, 0), Y: Max(out.Y, 0), Z: Max(out.Z, 0)}
}
