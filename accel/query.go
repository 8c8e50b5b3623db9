package accel

import "github.com/go-gl/mathgl/mgl32"

// Triangle is a BLAS leaf primitive: the three object-space vertex
// positions, the flat face normal, and the per-section
// material slot the original model vertex carried.
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
	Normal     mgl32.Vec3
	Section    uint32
}

func triangleAABB(tri Triangle) AABB {
	box := emptyAABB()
	return box.extend(tri.V0).extend(tri.V1).extend(tri.V2)
}

// rayTriangle implements the Möller-Trumbore intersection test. Returns
// ok=false for rays parallel to the triangle's plane or hits outside
// [0, tMax] / outside the triangle.
func rayTriangle(origin, dir mgl32.Vec3, tri Triangle, tMax float32) (t float32, ok bool) {
	const epsilon = 1e-7

	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)
	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}
	f := 1.0 / a
	s := origin.Sub(tri.V0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = f * edge2.Dot(q)
	if t < epsilon || t > tMax {
		return 0, false
	}
	return t, true
}

// blasHit is one BLAS-local intersection result.
type blasHit struct {
	T       float32
	Normal  mgl32.Vec3
	Section uint32
	Hit     bool
}

// intersectBLAS walks the tree, honoring a ray direction with one or more
// zero components (safeInv keeps those axes from producing NaN) and
// returning the closest hit within [0, tMax].
func intersectBLAS(tree *Tree, tris []Triangle, origin, dir mgl32.Vec3, tMax float32) blasHit {
	if tree.empty() {
		return blasHit{}
	}
	invDir := mgl32.Vec3{safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())}

	best := blasHit{T: tMax}
	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		n := &tree.Nodes[stack[sp]]
		if _, _, ok := n.Bounds.hit(origin, invDir, best.T); !ok {
			continue
		}
		if tree.isLeaf(n) {
			for i := n.Start; i < n.Start+n.Count; i++ {
				tri := tris[tree.PrimOrder[i]]
				if t, ok := rayTriangle(origin, dir, tri, best.T); ok {
					best = blasHit{T: t, Normal: tri.Normal, Section: tri.Section, Hit: true}
				}
			}
			continue
		}
		stack[sp] = n.Left
		sp++
		stack[sp] = n.Right
		sp++
	}
	return best
}

// anyHitBLAS is the occlusion-only variant: it returns as soon as any
// triangle intersection inside [0, tMax] is found, without tracking the
// closest one.
func anyHitBLAS(tree *Tree, tris []Triangle, origin, dir mgl32.Vec3, tMax float32) bool {
	if tree.empty() {
		return false
	}
	invDir := mgl32.Vec3{safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())}

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		n := &tree.Nodes[stack[sp]]
		if _, _, ok := n.Bounds.hit(origin, invDir, tMax); !ok {
			continue
		}
		if tree.isLeaf(n) {
			for i := n.Start; i < n.Start+n.Count; i++ {
				if _, ok := rayTriangle(origin, dir, tris[tree.PrimOrder[i]], tMax); ok {
					return true
				}
			}
			continue
		}
		stack[sp] = n.Left
		sp++
		stack[sp] = n.Right
		sp++
	}
	return false
}
