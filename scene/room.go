package scene

import lmath "lumon/math"

// DemoRoom builds the default test scene: a Cornell-style open room
// with colored side walls, two boxes, and an emissive sphere that
// drives indirect bounce light.
func DemoRoom() *Scene {
	sc := NewScene()

	floor := CreatePlane(16, 16, 4)
	floor.Material = NewMaterial("floor", lmath.NewVec3(0.75, 0.75, 0.75))
	sc.AddMesh("floor", floor)

	left := CreateCube(1)
	left.Material = NewMaterial("left", lmath.NewVec3(0.85, 0.15, 0.15))
	sc.AddMesh("left", left).SetTransform(
		lmath.Mat4Scale(lmath.NewVec3(0.4, 8, 16)).
			Mul(lmath.Mat4Translation(lmath.NewVec3(-8, 4, 0))))

	right := CreateCube(1)
	right.Material = NewMaterial("right", lmath.NewVec3(0.15, 0.75, 0.2))
	sc.AddMesh("right", right).SetTransform(
		lmath.Mat4Scale(lmath.NewVec3(0.4, 8, 16)).
			Mul(lmath.Mat4Translation(lmath.NewVec3(8, 4, 0))))

	back := CreateCube(1)
	back.Material = NewMaterial("back", lmath.NewVec3(0.7, 0.7, 0.75))
	sc.AddMesh("back", back).SetTransform(
		lmath.Mat4Scale(lmath.NewVec3(16, 8, 0.4)).
			Mul(lmath.Mat4Translation(lmath.NewVec3(0, 4, -8))))

	tall := CreateCube(1)
	tall.Material = NewPBRMaterial("tall", lmath.NewVec3(0.9, 0.9, 0.9), 0.8, 0.3)
	sc.AddMesh("tall", tall).SetTransform(
		lmath.Mat4Scale(lmath.NewVec3(2, 5, 2)).
			Mul(lmath.Mat4RotationY(0.4)).
			Mul(lmath.Mat4Translation(lmath.NewVec3(-3, 2.5, -3))))

	short := CreateCube(2.5)
	short.Material = NewMaterial("short", lmath.NewVec3(0.9, 0.8, 0.4))
	sc.AddMesh("short", short).SetTransform(
		lmath.Mat4RotationY(-0.3).
			Mul(lmath.Mat4Translation(lmath.NewVec3(3, 1.25, 2))))

	lamp := CreateSphere(1, 16, 12)
	lamp.Material = NewEmissiveMaterial("lamp", lmath.NewVec3(1, 0.9, 0.7), 8)
	sc.AddMesh("lamp", lamp).SetTransform(
		lmath.Mat4Translation(lmath.NewVec3(0, 5.5, 0)))

	return sc
}
