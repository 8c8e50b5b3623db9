package scene

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the CPU-retained per-vertex layout.
type Vertex struct {
	Position        mgl32.Vec3
	Normal          mgl32.Vec3
	Tangent         mgl32.Vec4 // xyz + handedness in w
	UV              mgl32.Vec2
	MaterialSection uint32
}

// Model is an indexed triangle mesh retained on the CPU for BVH building
// and uploaded to the GPU in concatenated form by Scene.RebuildMeshBuffer.
type Model struct {
	Name string

	Vertices []Vertex
	Indices  []uint32

	AABBMin mgl32.Vec3
	AABBMax mgl32.Vec3

	// SectionMaterials maps section index -> default material id. A
	// node's MaterialOverrides, when present, take precedence per
	// section.
	SectionMaterials []uint32
}

func (m *Model) VertexCount() int { return len(m.Vertices) }
func (m *Model) IndexCount() int  { return len(m.Indices) }

// SectionCount is the number of material sections this model defines —
// the bound invariant (c) on Node.MaterialOverrides is checked against it.
func (m *Model) SectionCount() int { return len(m.SectionMaterials) }

// RecomputeAABB tightens AABBMin/AABBMax to the supplied vertices,
// satisfying the Model invariant "AABB tight to supplied vertices".
func (m *Model) RecomputeAABB() {
	if len(m.Vertices) == 0 {
		m.AABBMin, m.AABBMax = mgl32.Vec3{}, mgl32.Vec3{}
		return
	}
	min := m.Vertices[0].Position
	max := m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		min = compMin(min, v.Position)
		max = compMax(max, v.Position)
	}
	m.AABBMin, m.AABBMax = min, max
}

// GenerateTangentsIfAbsent fills Tangent for every vertex from the
// position/UV data when the source (e.g. a glTF primitive without a
// TANGENT attribute) did not supply one. Safe to call repeatedly: once
// any vertex carries a non-zero tangent, it is a no-op.
func (m *Model) GenerateTangentsIfAbsent() {
	hasAny := false
	for _, v := range m.Vertices {
		if v.Tangent.Len() > 0 {
			hasAny = true
			break
		}
	}
	if hasAny {
		return
	}

	tangents := make([]mgl32.Vec3, len(m.Vertices))
	bitangents := make([]mgl32.Vec3, len(m.Vertices))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		edge1 := v1.Position.Sub(v0.Position)
		edge2 := v2.Position.Sub(v0.Position)
		deltaUV1 := v1.UV.Sub(v0.UV)
		deltaUV2 := v2.UV.Sub(v0.UV)

		denom := deltaUV1.X()*deltaUV2.Y() - deltaUV2.X()*deltaUV1.Y()
		if denom == 0 {
			continue
		}
		f := 1.0 / denom

		tangent := mgl32.Vec3{
			f * (deltaUV2.Y()*edge1.X() - deltaUV1.Y()*edge2.X()),
			f * (deltaUV2.Y()*edge1.Y() - deltaUV1.Y()*edge2.Y()),
			f * (deltaUV2.Y()*edge1.Z() - deltaUV1.Y()*edge2.Z()),
		}
		bitangent := mgl32.Vec3{
			f * (-deltaUV2.X()*edge1.X() + deltaUV1.X()*edge2.X()),
			f * (-deltaUV2.X()*edge1.Y() + deltaUV1.X()*edge2.Y()),
			f * (-deltaUV2.X()*edge1.Z() + deltaUV1.X()*edge2.Z()),
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(tangent)
			bitangents[idx] = bitangents[idx].Add(bitangent)
		}
	}

	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := tangents[i]
		// Gram-Schmidt orthogonalize against the normal.
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Len() < 1e-8 {
			t = mgl32.Vec3{1, 0, 0}
		} else {
			t = t.Normalize()
		}
		handedness := float32(1.0)
		if n.Cross(t).Dot(bitangents[i]) < 0 {
			handedness = -1.0
		}
		m.Vertices[i].Tangent = mgl32.Vec4{t.X(), t.Y(), t.Z(), handedness}
	}
}

func compMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a.X(), b.X()), min32(a.Y(), b.Y()), min32(a.Z(), b.Z())}
}
func compMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a.X(), b.X()), max32(a.Y(), b.Y()), max32(a.Z(), b.Z())}
}
func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
