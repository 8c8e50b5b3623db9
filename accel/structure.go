// Package accel builds and queries the CPU-side acceleration structures
// the probe baker and any CPU ray-cast fallback trace against: one BLAS
// per model, rebuilt once at scene load, and a TLAS over live instance
// transforms, rebuilt whenever the scene moves.
package accel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/scene"
)

// MaxRayDistance bounds every ray query; hits beyond it are not reported.
const MaxRayDistance = 11.0

// selfOcclusionBias shortens occlusion rays so a surface does not shadow
// itself at the origin.
const selfOcclusionBias = 0.02

// blas is one model's triangle BVH.
type blas struct {
	triangles []Triangle
	tree      *Tree
}

// instance is one TLAS leaf: a node's world placement of a model, plus
// the packed per-section material information the original's TLAS
// context carried alongside the transform.
type instance struct {
	ModelID      int32
	InstanceID   uint32
	WorldTS      mgl32.Mat4 // row-major transpose of the node's world transform
	World        mgl32.Mat4 // un-transposed, used to move normals back to world space
	MaterialIDs  [scene.MaxMaterialOverrides]uint32
	PackedColors [scene.MaxMaterialOverrides]uint32
}

// Structure owns the BLAS set and the current TLAS.
type Structure struct {
	blases    []blas
	instances []instance
	tlas      *Tree
}

// InitBVH builds one BLAS per model in the scene and an initial TLAS over
// its current node placements.
func (s *Structure) InitBVH(sc *scene.Scene) {
	s.blases = make([]blas, len(sc.Models))
	for i := range sc.Models {
		s.blases[i] = buildBLAS(&sc.Models[i])
	}
	s.UpdateBVH(sc)
}

func buildBLAS(m *scene.Model) blas {
	tris := make([]Triangle, 0, len(m.Indices)/3)
	boxes := make([]AABB, 0, len(m.Indices)/3)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0 := m.Vertices[m.Indices[i]]
		v1 := m.Vertices[m.Indices[i+1]]
		v2 := m.Vertices[m.Indices[i+2]]
		edge1 := v1.Position.Sub(v0.Position)
		edge2 := v2.Position.Sub(v1.Position)
		normal := edge1.Cross(edge2)
		if l := normal.Len(); l > 1e-12 {
			normal = normal.Mul(1 / l)
		}
		tri := Triangle{V0: v0.Position, V1: v1.Position, V2: v2.Position, Normal: normal, Section: v0.MaterialSection}
		tris = append(tris, tri)
		boxes = append(boxes, triangleAABB(tri))
	}
	return blas{triangles: tris, tree: Build(boxes)}
}

// UpdateBVH rebuilds the instance list from the scene's last computed
// node-proxy array (already grouped and visibility-filtered by
// Scene.UpdateNodes), computing for each instance the row-major-transposed
// world transform and a packed 8-8-8-8 diffuse colour per material
// section, then rebuilds the TLAS over their world-space AABBs. Call
// Scene.UpdateNodes before this so the proxy array reflects the current
// frame.
func (s *Structure) UpdateBVH(sc *scene.Scene) {
	s.instances = s.instances[:0]
	proxies := sc.Proxies()
	boxes := make([]AABB, 0, len(proxies))

	for _, p := range proxies {
		if int(p.ModelID) < 0 || int(p.ModelID) >= len(s.blases) {
			continue
		}
		inst := instance{
			ModelID:    p.ModelID,
			InstanceID: p.InstanceID,
			World:      p.WorldTransform,
			WorldTS:    p.WorldTransform.Transpose(),
		}
		for i, matID := range p.MaterialIDs {
			if i >= scene.MaxMaterialOverrides {
				break
			}
			inst.MaterialIDs[i] = matID
			if int(matID) < len(sc.Materials) {
				inst.PackedColors[i] = packUnorm4x8(sc.Materials[matID].BaseColor)
			}
		}
		s.instances = append(s.instances, inst)

		blasTree := s.blases[p.ModelID].tree
		localBounds := blasBounds(blasTree)
		boxes = append(boxes, localBounds.transform(p.WorldTransform))
	}

	s.tlas = Build(boxes)
}

func blasBounds(t *Tree) AABB {
	if t.empty() {
		return emptyAABB()
	}
	return t.Nodes[0].Bounds
}

func packUnorm4x8(c [4]float32) uint32 {
	clamp := func(v float32) uint32 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint32(math.Round(float64(v) * 255))
	}
	return clamp(c[0]) | clamp(c[1])<<8 | clamp(c[2])<<16 | clamp(c[3])<<24
}

// Hit is the result of a TracingFunction call.
type Hit struct {
	Normal     mgl32.Vec3
	MaterialID uint32
	InstanceID uint32
	Dist       float32
}

// TracingFunction casts a ray against the TLAS with max distance
// MaxRayDistance, returning the closest hit's world-space normal,
// material id, instance id and distance.
func (s *Structure) TracingFunction(origin, dir mgl32.Vec3) (Hit, bool) {
	return s.TraceRay(origin, dir, MaxRayDistance)
}

// TraceRay is TracingFunction with an explicit max distance, for callers
// that need a longer reach than the standard scene queries (the sun
// shadow-map baker's rays span the whole scene, not just MaxRayDistance).
func (s *Structure) TraceRay(origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	if s.tlas == nil || s.tlas.empty() {
		return Hit{}, false
	}
	invDir := mgl32.Vec3{safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())}

	bestT := maxDist
	bestInst := -1
	var bestHit blasHit

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++
	for sp > 0 {
		sp--
		n := &s.tlas.Nodes[stack[sp]]
		if _, _, ok := n.Bounds.hit(origin, invDir, bestT); !ok {
			continue
		}
		if s.tlas.isLeaf(n) {
			for i := n.Start; i < n.Start+n.Count; i++ {
				instIdx := s.tlas.PrimOrder[i]
				inst := s.instances[instIdx]
				blasTree := s.blases[inst.ModelID].tree
				objOrigin, objDir := worldToObject(inst.World, origin, dir)
				hit := intersectBLAS(blasTree, s.blases[inst.ModelID].triangles, objOrigin, objDir, bestT)
				if hit.Hit && hit.T < bestT {
					bestT = hit.T
					bestInst = int(instIdx)
					bestHit = hit
				}
			}
			continue
		}
		stack[sp] = n.Left
		sp++
		stack[sp] = n.Right
		sp++
	}

	if bestInst < 0 {
		return Hit{}, false
	}
	inst := s.instances[bestInst]
	worldNormal := inst.World.Mul4x1(mgl32.Vec4{bestHit.Normal.X(), bestHit.Normal.Y(), bestHit.Normal.Z(), 0})
	matID := uint32(0)
	if int(bestHit.Section) < len(inst.MaterialIDs) {
		matID = inst.MaterialIDs[bestHit.Section]
	}
	return Hit{
		Normal:     mgl32.Vec3{worldNormal.X(), worldNormal.Y(), worldNormal.Z()}.Normalize(),
		MaterialID: matID,
		InstanceID: inst.InstanceID,
		Dist:       bestT,
	}, true
}

// TracingOccludeFunction reports whether a point light at lightPos is
// occluded as seen from origin. The traced distance is shortened by
// selfOcclusionBias to avoid the surface at origin self-shadowing.
func (s *Structure) TracingOccludeFunction(origin, lightPos mgl32.Vec3) bool {
	if s.tlas == nil || s.tlas.empty() {
		return false
	}
	dir := lightPos.Sub(origin)
	dist := dir.Len() - selfOcclusionBias
	if dist <= 0 {
		return false
	}
	dir = dir.Normalize()
	invDir := mgl32.Vec3{safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())}

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++
	for sp > 0 {
		sp--
		n := &s.tlas.Nodes[stack[sp]]
		if _, _, ok := n.Bounds.hit(origin, invDir, dist); !ok {
			continue
		}
		if s.tlas.isLeaf(n) {
			for i := n.Start; i < n.Start+n.Count; i++ {
				inst := s.instances[s.tlas.PrimOrder[i]]
				objOrigin, objDir := worldToObject(inst.World, origin, dir)
				if anyHitBLAS(s.blases[inst.ModelID].tree, s.blases[inst.ModelID].triangles, objOrigin, objDir, dist) {
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

// worldToObject transforms a ray into an instance's object space using
// the transform's inverse. Falls back to the identity (world == object)
// if the matrix is singular.
func worldToObject(world mgl32.Mat4, origin, dir mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if world.Det() == 0 {
		return origin, dir
	}
	inv := world.Inverse()
	o := inv.Mul4x1(mgl32.Vec4{origin.X(), origin.Y(), origin.Z(), 1})
	d := inv.Mul4x1(mgl32.Vec4{dir.X(), dir.Y(), dir.Z(), 0})
	return mgl32.Vec3{o.X(), o.Y(), o.Z()}, mgl32.Vec3{d.X(), d.Y(), d.Z()}
}
