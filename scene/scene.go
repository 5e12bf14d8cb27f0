// Package scene provides CPU-side geometry, materials, cameras, and a
// glTF loader for feeding the software G-buffer rasterizer.
package scene

import lmath "lumon/math"

// Object places a mesh in the world. The transform maps local space to
// world space; NormalMatrix is kept in sync by SetTransform so normals
// stay correct under non-uniform scale.
type Object struct {
	Name         string
	Mesh         *Mesh
	Transform    lmath.Mat4
	NormalMatrix lmath.Mat4
}

// NewObject wraps a mesh with an identity transform.
func NewObject(name string, mesh *Mesh) *Object {
	o := &Object{Name: name, Mesh: mesh}
	o.SetTransform(lmath.Mat4Identity())
	return o
}

// SetTransform replaces the local-to-world matrix and recomputes the
// normal matrix.
func (o *Object) SetTransform(m lmath.Mat4) {
	o.Transform = m
	o.NormalMatrix = m.Inverse().Transpose()
}

// SetTRS composes translation, Y-axis rotation, and uniform scale.
func (o *Object) SetTRS(position lmath.Vec3, yaw, scale float32) {
	m := lmath.Mat4Scale(lmath.Vec3One.Mul(scale)).
		Mul(lmath.Mat4RotationY(yaw)).
		Mul(lmath.Mat4Translation(position))
	o.SetTransform(m)
}

// Material returns the object's material, falling back to the default.
func (o *Object) Material() *Material {
	if o.Mesh != nil && o.Mesh.Material != nil {
		return o.Mesh.Material
	}
	return DefaultMaterial()
}

// Scene is a flat list of renderable objects.
type Scene struct {
	Objects []*Object
}

func NewScene() *Scene {
	return &Scene{}
}

// Add appends an object and returns it for chaining.
func (s *Scene) Add(o *Object) *Object {
	s.Objects = append(s.Objects, o)
	return o
}

// AddMesh wraps a mesh in a new object and adds it.
func (s *Scene) AddMesh(name string, mesh *Mesh) *Object {
	return s.Add(NewObject(name, mesh))
}
