package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	lmath "lumon/math"
)

// LoadGLTF opens a .glb or .gltf file and returns a flat scene with
// world-space transforms baked from the node hierarchy. Material
// factors are imported; textures are skipped since the software
// rasterizer shades with per-material constants only.
func LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = lmath.NewVec3(float32(cf[0]), float32(cf[1]), float32(cf[2]))
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		}
		if e := gm.EmissiveFactor; e[0] > 0 || e[1] > 0 || e[2] > 0 {
			mat.Emissive = lmath.NewVec3(float32(e[0]), float32(e[1]), float32(e[2])).MaxComponent()
		}
		matCache[i] = mat
	}

	// meshPrims[meshIdx] holds one Mesh per glTF primitive.
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				return nil, fmt.Errorf("gltf mesh %d prim %d: %w", mi, pi, err)
			}
			if prim.Material != nil && int(*prim.Material) < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	sc := NewScene()
	visited := make([]bool, len(doc.Nodes))
	var walk func(idx int, parent lmath.Mat4)
	walk = func(idx int, parent lmath.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		gn := doc.Nodes[idx]

		world := nodeLocalMatrix(gn).Mul(parent)
		if gn.Mesh != nil && int(*gn.Mesh) < len(meshPrims) {
			name := gn.Name
			if name == "" {
				name = fmt.Sprintf("node_%d", idx)
			}
			for pi, m := range meshPrims[*gn.Mesh] {
				o := sc.AddMesh(fmt.Sprintf("%s_p%d", name, pi), m)
				o.SetTransform(world)
			}
		}
		for _, child := range gn.Children {
			walk(int(child), world)
		}
	}

	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		for _, root := range doc.Scenes[*doc.Scene].Nodes {
			walk(int(root), lmath.Mat4Identity())
		}
	} else {
		for i := range doc.Nodes {
			walk(i, lmath.Mat4Identity())
		}
	}

	return sc, nil
}

// nodeLocalMatrix composes the node's TRS into a row-vector matrix.
func nodeLocalMatrix(gn *gltf.Node) lmath.Mat4 {
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // x, y, z, w
	s := gn.ScaleOrDefault()

	scale := lmath.Mat4Scale(lmath.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])))
	rot := lmath.Mat4FromQuaternion(float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3]))
	trans := lmath.Mat4Translation(lmath.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])))
	return scale.Mul(rot).Mul(trans)
}

func loadPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]Vertex, len(positions))
	for i, p := range positions {
		v := Vertex{
			Position: lmath.NewVec3(p[0], p[1], p[2]),
			Normal:   lmath.Vec3Up,
		}
		if i < len(normals) {
			v.Normal = lmath.NewVec3(normals[i][0], normals[i][1], normals[i][2])
		}
		if i < len(uvs) {
			v.UV = lmath.NewVec2(uvs[i][0], uvs[i][1])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(verts))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	return NewMeshFromData(name, verts, indices), nil
}
