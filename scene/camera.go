package scene

import (
	"github.com/chewxy/math32"

	lmath "lumon/math"
)

// Camera produces the view and projection matrices the pipeline
// consumes. Matrices are cached and rebuilt lazily on mutation.
type Camera struct {
	Position    lmath.Vec3
	Target      lmath.Vec3
	Up          lmath.Vec3
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	viewMatrix lmath.Mat4
	projMatrix lmath.Mat4
	dirty      bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    lmath.Vec3Zero,
		Target:      lmath.NewVec3(0, 0, -1),
		Up:          lmath.Vec3Up,
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos lmath.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) LookAt(target lmath.Vec3) {
	c.Target = target
	c.dirty = true
}

func (c *Camera) ViewMatrix() lmath.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) ProjectionMatrix() lmath.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projMatrix
}

func (c *Camera) Forward() lmath.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = lmath.Mat4LookAt(c.Position, c.Target, c.Up)
	c.projMatrix = lmath.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.dirty = false
}

// OrbitCamera circles a target point with yaw, pitch, and distance.
type OrbitCamera struct {
	Camera
	Distance float32
	Yaw      float32
	Pitch    float32
}

func NewOrbitCamera(target lmath.Vec3, distance, fov, aspectRatio float32) *OrbitCamera {
	c := &OrbitCamera{
		Distance: distance,
		Yaw:      0,
		Pitch:    0.3,
	}
	c.Camera = *NewCamera(fov, aspectRatio, 0.1, 100.0)
	c.Target = target
	c.UpdatePosition()
	return c
}

func (c *OrbitCamera) UpdatePosition() {
	c.Pitch = lmath.Clamp(c.Pitch, -1.5, 1.5)

	cosPitch := math32.Cos(c.Pitch)
	offset := lmath.NewVec3(
		c.Distance*cosPitch*math32.Sin(c.Yaw),
		c.Distance*math32.Sin(c.Pitch),
		c.Distance*cosPitch*math32.Cos(c.Yaw),
	)
	c.Position = c.Target.Add(offset)
	c.dirty = true
}

func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.UpdatePosition()
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance = lmath.Max(c.Distance+delta, 0.1)
	c.UpdatePosition()
}
