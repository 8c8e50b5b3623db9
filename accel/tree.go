package accel

import "sort"

// node is one BVH node, kept to four vec3/int32 fields so it packs to a
// predictable 40 bytes (Bounds is two Vec3, 24 bytes; the rest four int32
// scalars): a leaf has Count > 0 and Start indexing into the tree's
// permuted primitive order; an interior node has Count == 0 and Left/
// Right index sibling nodes.
type node struct {
	Bounds      AABB
	Left, Right int32
	Start, Count int32
}

// Tree is a median-split binary BVH built once over a fixed primitive
// set's bounding boxes, then walked by the ray queries in query.go. It
// is reused for both a model's triangle BLAS and the scene's instance
// TLAS — only the boxes passed to Build differ.
type Tree struct {
	Nodes        []node
	PrimOrder    []int32 // Nodes[i].Start indexes into this, not into the caller's array directly
}

const leafThreshold = 4

// Build constructs a BVH over the given per-primitive boxes. An empty
// boxes slice produces an empty, safely-queryable tree.
func Build(boxes []AABB) *Tree {
	t := &Tree{PrimOrder: make([]int32, len(boxes))}
	for i := range t.PrimOrder {
		t.PrimOrder[i] = int32(i)
	}
	if len(boxes) == 0 {
		return t
	}

	t.Nodes = make([]node, 0, 2*len(boxes))
	t.buildRange(boxes, 0, int32(len(boxes)))
	return t
}

// buildRange builds the subtree covering PrimOrder[start:start+count] and
// returns its node index.
func (t *Tree) buildRange(boxes []AABB, start, count int32) int32 {
	bounds := emptyAABB()
	for i := start; i < start+count; i++ {
		bounds = bounds.union(boxes[t.PrimOrder[i]])
	}

	idx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, node{Bounds: bounds})

	if count <= leafThreshold {
		t.Nodes[idx].Start = start
		t.Nodes[idx].Count = count
		return idx
	}

	extent := bounds.Max.Sub(bounds.Min)
	axis := 0
	if extent.Y() > extent[axis] {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	slice := t.PrimOrder[start : start+count]
	sort.Slice(slice, func(i, j int) bool {
		return boxes[slice[i]].centroid()[axis] < boxes[slice[j]].centroid()[axis]
	})

	mid := count / 2
	left := t.buildRange(boxes, start, mid)
	right := t.buildRange(boxes, start+mid, count-mid)

	t.Nodes[idx].Left = left
	t.Nodes[idx].Right = right
	t.Nodes[idx].Count = 0
	return idx
}

func (t *Tree) isLeaf(n *node) bool { return n.Count > 0 }

func (t *Tree) empty() bool { return len(t.Nodes) == 0 }
