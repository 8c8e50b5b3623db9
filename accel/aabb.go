package accel

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

func emptyAABB() AABB {
	const inf = float32(1e30)
	return AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
}

func (a AABB) extend(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min32(a.Min.X(), p.X()), min32(a.Min.Y(), p.Y()), min32(a.Min.Z(), p.Z())},
		Max: mgl32.Vec3{max32(a.Max.X(), p.X()), max32(a.Max.Y(), p.Y()), max32(a.Max.Z(), p.Z())},
	}
}

func (a AABB) union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min32(a.Min.X(), b.Min.X()), min32(a.Min.Y(), b.Min.Y()), min32(a.Min.Z(), b.Min.Z())},
		Max: mgl32.Vec3{max32(a.Max.X(), b.Max.X()), max32(a.Max.Y(), b.Max.Y()), max32(a.Max.Z(), b.Max.Z())},
	}
}

func (a AABB) centroid() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// transform returns the world-space AABB of a transformed by m, by
// transforming all eight corners (correct for any affine m, not just
// axis-aligned scaling).
func (a AABB) transform(m mgl32.Mat4) AABB {
	out := emptyAABB()
	for i := 0; i < 8; i++ {
		x, y, z := a.Min.X(), a.Min.Y(), a.Min.Z()
		if i&1 != 0 {
			x = a.Max.X()
		}
		if i&2 != 0 {
			y = a.Max.Y()
		}
		if i&4 != 0 {
			z = a.Max.Z()
		}
		v := m.Mul4x1(mgl32.Vec4{x, y, z, 1})
		out = out.extend(mgl32.Vec3{v.X(), v.Y(), v.Z()})
	}
	return out
}

// hit performs the standard slab test, returning the entry/exit distances
// clipped to [0, tMax]. A zero direction component is handled via an
// infinite inverse rather than producing NaN.
func (a AABB) hit(origin, invDir mgl32.Vec3, tMax float32) (tmin, tmax float32, ok bool) {
	tmin, tmax = 0, tMax
	for axis := 0; axis < 3; axis++ {
		o, id := origin[axis], invDir[axis]
		lo := (a.Min[axis] - o) * id
		hi := (a.Max[axis] - o) * id
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo > tmin {
			tmin = lo
		}
		if hi < tmax {
			tmax = hi
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

func safeInv(d float32) float32 {
	if d == 0 {
		return float32(1e30)
	}
	return 1 / d
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
