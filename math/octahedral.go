package math

import "github.com/chewxy/math32"

// Octahedral mapping between unit directions and the unit square.
//
// A direction is projected onto the octahedron |x|+|y|+|z| = 1; the upper
// half (z >= 0) maps directly onto the inner diamond of the square and the
// lower half is folded outward into the corners. The mapping covers the
// full sphere, is continuous across the equator, and round-trips within
// float tolerance, which makes it suitable for storing per-direction
// radiance in a flat square tile.

func signNotZero(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

// OctEncode maps a direction (need not be normalized, must be non-zero)
// to the unit square [0,1]^2.
func OctEncode(dir Vec3) Vec2 {
	sum := math32.Abs(dir.X) + math32.Abs(dir.Y) + math32.Abs(dir.Z)
	if sum == 0 {
		return Vec2{X: 0.5, Y: 0.5}
	}
	x := dir.X / sum
	y := dir.Y / sum
	if dir.Z < 0 {
		ox := (1 - math32.Abs(y)) * signNotZero(x)
		oy := (1 - math32.Abs(x)) * signNotZero(y)
		x, y = ox, oy
	}
	return Vec2{X: x*0.5 + 0.5, Y: y*0.5 + 0.5}
}

// OctDecode maps a point in the unit square back to a unit direction.
func OctDecode(uv Vec2) Vec3 {
	x := uv.X*2 - 1
	y := uv.Y*2 - 1
	z := 1 - math32.Abs(x) - math32.Abs(y)
	if z < 0 {
		ox := (1 - math32.Abs(y)) * signNotZero(x)
		oy := (1 - math32.Abs(x)) * signNotZero(y)
		x, y = ox, oy
	}
	return Vec3{X: x, Y: y, Z: z}.Normalize()
}

// OctTexelDirection returns the unit direction for the center of texel
// (tx,ty) in a size x size octahedral tile.
func OctTexelDirection(tx, ty, size int) Vec3 {
	u := (float32(tx) + 0.5) / float32(size)
	v := (float32(ty) + 0.5) / float32(size)
	return OctDecode(Vec2{X: u, Y: v})
}

// OctTexelForDirection returns the tile texel whose center is nearest to
// the given direction, clamped to the tile.
func OctTexelForDirection(dir Vec3, size int) (int, int) {
	uv := OctEncode(dir)
	tx := int(uv.X * float32(size))
	ty := int(uv.Y * float32(size))
	if tx < 0 {
		tx = 0
	}
	if tx >= size {
		tx = size - 1
	}
	if ty < 0 {
		ty = 0
	}
	if ty >= size {
		ty = size - 1
	}
	return tx, ty
}
