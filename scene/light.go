package scene

import "github.com/go-gl/mathgl/mgl32"

// Light is a quad area light: three corners plus a packed normal+area
// vector, generalized from a point/spot light representation to the
// quad-area form a path-traced renderer's area lights need.
type Light struct {
	P0, P1, P3 mgl32.Vec3

	// NormalArea packs the (unit) face normal in xyz and the quad's
	// surface area in w.
	NormalArea mgl32.Vec4

	// MaterialID indexes the Scene's material table for the light's
	// emissive surface (DiffuseLight material model).
	MaterialID uint32
}

// NewQuadLight builds a quad area light from three corners and an
// explicit unit-length normal. The normal is taken as-is rather than
// derived from the corners' winding: a quad's corner order only fixes
// its area (|edge1 x edge2|), not a reliable sign for its physical
// face normal, so callers that know the light's true orientation (the
// node's world-space up axis, a hardcoded panel normal) must supply it.
func NewQuadLight(p0, p1, p3 mgl32.Vec3, normal mgl32.Vec3, materialID uint32) Light {
	edge1 := p1.Sub(p0)
	edge2 := p3.Sub(p0)
	area := edge1.Cross(edge2).Len()
	n := normal
	if n.Len() > 1e-12 {
		n = n.Normalize()
	} else {
		n = mgl32.Vec3{0, 1, 0}
	}
	return Light{
		P0: p0, P1: p1, P3: p3,
		NormalArea: mgl32.Vec4{n.X(), n.Y(), n.Z(), area},
		MaterialID: materialID,
	}
}
