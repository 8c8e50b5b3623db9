package scene

import "github.com/go-gl/mathgl/mgl32"

func addTriangle(indices []uint32, offset, i0, i1, i2 uint32) []uint32 {
	return append(indices, offset+i0, offset+i1, offset+i2)
}

// BuildCornellBox procedurally constructs the canonical Cornell box test
// scene at the given wall scale: a green left panel, red right panel,
// white back/floor/ceiling, and one rectangular area light set into the
// ceiling. Returns a single Model (five walls plus the light quad, in
// four sections: red, green, white, light) and the corresponding quad
// Light.
func BuildCornellBox(scale float32) (Model, Light) {
	var vertices []Vertex
	var indices []uint32
	var sections []uint32

	s := scale
	offset := mgl32.Vec3{s * 0.5, 0, -s * 0.5}

	l0 := mgl32.Vec3{0, 0, 0}
	l1 := mgl32.Vec3{0, 0, -s}
	l2 := mgl32.Vec3{0, s, -s}
	l3 := mgl32.Vec3{0, s, 0}

	r0 := mgl32.Vec3{s, 0, 0}
	r1 := mgl32.Vec3{s, 0, -s}
	r2 := mgl32.Vec3{s, s, -s}
	r3 := mgl32.Vec3{s, s, 0}

	addQuad := func(a, b, c, d mgl32.Vec3, normal mgl32.Vec3, section uint32, flip bool) {
		i := uint32(len(vertices))
		uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
		corners := [4]mgl32.Vec3{a, b, c, d}
		for k, p := range corners {
			vertices = append(vertices, Vertex{
				Position:        p.Sub(offset),
				Normal:          normal,
				Tangent:         mgl32.Vec4{1, 0, 0, 1},
				UV:              uvs[k],
				MaterialSection: section,
			})
		}
		if flip {
			indices = addTriangle(indices, i, 2, 1, 0)
			indices = addTriangle(indices, i, 3, 2, 0)
		} else {
			indices = addTriangle(indices, i, 0, 1, 2)
			indices = addTriangle(indices, i, 0, 2, 3)
		}
	}

	// section 0 = red, 1 = green, 2 = white, 3 = light
	addQuad(l0, l1, l2, l3, mgl32.Vec3{1, 0, 0}, 1, false) // left, green
	addQuad(r0, r1, r2, r3, mgl32.Vec3{-1, 0, 0}, 0, true) // right, red
	addQuad(l1, r1, r2, l2, mgl32.Vec3{0, 0, 1}, 2, false) // back, white
	addQuad(l0, r0, r1, l1, mgl32.Vec3{0, 1, 0}, 2, false) // bottom, white
	addQuad(l2, r2, r3, l3, mgl32.Vec3{0, -1, 0}, 2, false) // top, white

	x0 := s * (163.0 / 555.0)
	x1 := s * (393.0 / 555.0)
	z0 := s * (-555.0 + 432.0) / 555.0
	z1 := s * (-555.0 + 202.0) / 555.0
	y1 := s * 0.999

	lp0 := mgl32.Vec3{x0, y1, z1}
	lp1 := mgl32.Vec3{x1, y1, z1}
	lp2 := mgl32.Vec3{x1, y1, z0}
	lp3 := mgl32.Vec3{x0, y1, z0}
	addQuad(lp0, lp1, lp2, lp3, mgl32.Vec3{0, -1, 0}, 3, false)

	sections = []uint32{0, 1, 2, 3}

	model := Model{
		Name:             "cornellbox",
		Vertices:         vertices,
		Indices:          indices,
		SectionMaterials: sections,
	}
	model.RecomputeAABB()

	light := NewQuadLight(lp0.Sub(offset), lp3.Sub(offset), lp1.Sub(offset), mgl32.Vec3{0, -1, 0}, 3)

	return model, light
}

// CornellBoxMaterials returns the four materials BuildCornellBox's
// section indices reference, in section order (red, green, white, light).
func CornellBoxMaterials() []Material {
	red := DefaultMaterial()
	red.BaseColor = [4]float32{0.65, 0.05, 0.05, 1}

	green := DefaultMaterial()
	green.BaseColor = [4]float32{0.12, 0.45, 0.15, 1}

	white := DefaultMaterial()
	white.BaseColor = [4]float32{0.73, 0.73, 0.73, 1}

	light := DefaultMaterial()
	light.Model = DiffuseLight
	light.BaseColor = [4]float32{2000, 2000, 2000, 1}

	return []Material{red, green, white, light}
}

// BuildCornellBoxAccentBox builds the single-section white box instanced
// twice (at different transforms) inside the procedural Cornell box
// scene, at the same wall scale BuildCornellBox was given — a local box
// spanning -80..80 in X/Z and 0..160 in Y at the canonical 555 scale.
// materialID is the global Scene.Materials index the box's single
// section resolves to.
func BuildCornellBoxAccentBox(scale float32, materialID uint32) Model {
	ratio := scale / 555.0
	min := mgl32.Vec3{-80 * ratio, 0, -80 * ratio}
	max := mgl32.Vec3{80 * ratio, 160 * ratio, 80 * ratio}

	var vertices []Vertex
	var indices []uint32

	addFace := func(a, b, c, d mgl32.Vec3, normal mgl32.Vec3) {
		i := uint32(len(vertices))
		uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
		corners := [4]mgl32.Vec3{a, b, c, d}
		for k, p := range corners {
			vertices = append(vertices, Vertex{
				Position: p,
				Normal:   normal,
				Tangent:  mgl32.Vec4{1, 0, 0, 1},
				UV:       uvs[k],
			})
		}
		indices = addTriangle(indices, i, 0, 1, 2)
		indices = addTriangle(indices, i, 0, 2, 3)
	}

	x0, y0, z0 := min.X(), min.Y(), min.Z()
	x1, y1, z1 := max.X(), max.Y(), max.Z()

	addFace(mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{0, 0, 1})  // +Z
	addFace(mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{0, 0, -1}) // -Z
	addFace(mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{1, 0, 0})  // +X
	addFace(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{-1, 0, 0}) // -X
	addFace(mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{0, 1, 0})  // +Y
	addFace(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{0, -1, 0}) // -Y

	model := Model{
		Name:             "cornellbox_accent_box",
		Vertices:         vertices,
		Indices:          indices,
		SectionMaterials: []uint32{materialID},
	}
	model.RecomputeAABB()
	return model
}
