package scene

import "github.com/go-gl/mathgl/mgl32"

// MaxMaterialOverrides bounds the per-node section material override list.
const MaxMaterialOverrides = 16

// NoModel marks a node with no mesh (e.g. a pure transform/light anchor).
const NoModel int32 = -1

// NodeHandle addresses a node in the scene's arena: slots keyed by
// (Index, Generation), so a handle that outlives its slot resolves to
// "no node" instead of dangling.
type NodeHandle struct {
	Index      int32
	Generation uint32
}

// IsNil reports whether h is an invalid handle such as NilHandle (negative
// Index). The zero value NodeHandle{} addresses slot 0 and is not nil.
func (h NodeHandle) IsNil() bool { return h.Index < 0 }

var NilHandle = NodeHandle{Index: -1}

// Node is one placement of a model in the scene.
type Node struct {
	InstanceID uint32
	Name       string
	ModelID    int32 // index into Scene.Models, or NoModel

	LocalPosition mgl32.Vec3
	LocalRotation mgl32.Quat
	LocalScale    mgl32.Vec3

	// MaterialOverrides holds at most MaxMaterialOverrides per-section
	// material ids; len(MaterialOverrides) must be <= the referenced
	// model's section count (invariant c).
	MaterialOverrides []uint32

	Visible bool

	Parent   NodeHandle
	Children []NodeHandle

	localTransform     mgl32.Mat4
	worldTransform     mgl32.Mat4
	prevWorldTransform mgl32.Mat4

	// localDirty is set by every SetTranslation/Rotation/Scale call and
	// cleared by RecalcTransform — invariant (i): setters never
	// auto-recompute, callers batch several then call RecalcTransform.
	localDirty bool
}

// WorldTransform returns the last-computed world matrix.
func (n *Node) WorldTransform() mgl32.Mat4 { return n.worldTransform }

// PrevWorldTransform returns the world matrix captured at the start of
// the previous tick, before any mutation — used for motion vectors.
func (n *Node) PrevWorldTransform() mgl32.Mat4 { return n.prevWorldTransform }

// NewNode constructs a node with identity transform, no model, visible,
// and no parent — the state a freshly parsed scene file's nodes start
// from before a loader assigns their fields.
func NewNode(instanceID uint32) *Node {
	return newNode(instanceID)
}

func newNode(instanceID uint32) *Node {
	return &Node{
		InstanceID:    instanceID,
		ModelID:       NoModel,
		LocalRotation: mgl32.QuatIdent(),
		LocalScale:    mgl32.Vec3{1, 1, 1},
		Visible:       true,
		Parent:        NilHandle,

		localTransform:     mgl32.Ident4(),
		worldTransform:     mgl32.Ident4(),
		prevWorldTransform: mgl32.Ident4(),
	}
}

// SetTranslation, SetRotation and SetScale stage a local-transform
// change. Per invariant (i) they do not themselves recompute anything;
// the caller must follow a batch of them with Scene.RecalcTransform(h,
// true) — this lets multiple setters on one node cost a single matrix
// recompute instead of one per call.
func (n *Node) SetTranslation(p mgl32.Vec3) { n.LocalPosition = p; n.localDirty = true }
func (n *Node) SetRotation(q mgl32.Quat)    { n.LocalRotation = q; n.localDirty = true }
func (n *Node) SetScale(s mgl32.Vec3)       { n.LocalScale = s; n.localDirty = true }

func (n *Node) recalcLocal() {
	n.localTransform = trs(n.LocalPosition, n.LocalRotation, n.LocalScale)
	n.localDirty = false
}
