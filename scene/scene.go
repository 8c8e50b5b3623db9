package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/errs"
)

// MaxNodes is the upper bound the proxy/indirect-draw buffers are sized
// for, independent of how many nodes are actually live.
const MaxNodes = 65535

// NodeProxy is the flattened per-node record uploaded to the GPU.
type NodeProxy struct {
	InstanceID        uint32
	ModelID           int32
	WorldTransform    mgl32.Mat4
	PrevWorldTransform mgl32.Mat4
	MaterialIDs       [MaxMaterialOverrides]uint32
}

// IndirectDrawCommand is an instanced draw record, one per model id that
// has at least one visible instance this frame.
type IndirectDrawCommand struct {
	FirstIndex    uint32
	IndexCount    uint32
	VertexOffset  int32
	FirstInstance uint32
	InstanceCount uint32
}

// Uploader decouples Scene from any particular GPU backend. RebuildMeshBuffer
// calls it to size the device buffers; a gpubuf.Manager is the production
// implementation. UpdateNodes does not call it: it only rebuilds the arrays
// that Proxies and Draws return, and nothing in Scene calls WriteProxies or
// WriteIndirectDraws.
type Uploader interface {
	AllocateMeshBuffers(vertexBytes, indexBytes int) error
	AllocateProxyBuffers(maxNodes int) error
	WriteProxies(proxies []NodeProxy) error
	WriteIndirectDraws(draws []IndirectDrawCommand) error
}

type nodeSlot struct {
	node *Node
	gen  uint32
	live bool
}

// Scene owns the node arena, the model/material/light tables, animation
// tracks, the environment, and the render camera. It is the façade's
// single source of truth for "what does this frame look like".
type Scene struct {
	Name string

	slots    []nodeSlot
	freeList []int32

	Models    []Model
	Materials []Material
	Lights    []Light
	Tracks    []AnimationTrack

	Environment   Environment
	RenderCamera  Camera

	selectedID uint32
	hasSelected bool

	dirty bool

	proxies []NodeProxy
	draws   []IndirectDrawCommand

	vertexStride int
	modelVertexOffset []int32
	modelIndexOffset  []int32
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		Environment: DefaultEnvironment(),
		RenderCamera: NewCamera(),
		dirty:       true,
	}
}

// Reload replaces all content, resets the selection, and marks the scene
// dirty so the next UpdateNodes rebuilds the GPU arrays.
func (s *Scene) Reload(nodes []*Node, models []Model, materials []Material, lights []Light, tracks []AnimationTrack) {
	s.slots = s.slots[:0]
	s.freeList = s.freeList[:0]
	for _, n := range nodes {
		s.slots = append(s.slots, nodeSlot{node: n, gen: 1, live: true})
	}
	s.Models = models
	s.Materials = materials
	s.Lights = lights
	s.Tracks = tracks
	s.hasSelected = false
	s.dirty = true
}

// AddNode inserts a new node into the arena, reusing a free slot (and
// bumping its generation) when one is available.
func (s *Scene) AddNode(instanceID uint32) NodeHandle {
	n := newNode(instanceID)
	if len(s.freeList) > 0 {
		idx := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		slot := &s.slots[idx]
		slot.node = n
		slot.live = true
		slot.gen++
		return NodeHandle{Index: idx, Generation: slot.gen}
	}
	s.slots = append(s.slots, nodeSlot{node: n, gen: 1, live: true})
	return NodeHandle{Index: int32(len(s.slots) - 1), Generation: 1}
}

// RemoveNode frees h's slot. Any handle still carrying h's old
// generation will subsequently resolve to nil.
func (s *Scene) RemoveNode(h NodeHandle) {
	n := s.resolve(h)
	if n == nil {
		return
	}
	idx := h.Index
	s.slots[idx].live = false
	s.slots[idx].node = nil
	s.freeList = append(s.freeList, idx)
	s.dirty = true
}

func (s *Scene) resolve(h NodeHandle) *Node {
	if h.IsNil() || int(h.Index) >= len(s.slots) {
		return nil
	}
	slot := &s.slots[h.Index]
	if !slot.live || slot.gen != h.Generation {
		return nil
	}
	return slot.node
}

// Node returns the node addressed by h, or nil if h is stale or nil.
func (s *Scene) Node(h NodeHandle) *Node { return s.resolve(h) }

// GetNode performs an O(N) lookup by name.
func (s *Scene) GetNode(name string) (NodeHandle, *Node) {
	for i, slot := range s.slots {
		if slot.live && slot.node.Name == name {
			return NodeHandle{Index: int32(i), Generation: slot.gen}, slot.node
		}
	}
	return NilHandle, nil
}

// GetNodeByInstanceId performs an O(N) lookup by stable instance id.
func (s *Scene) GetNodeByInstanceId(id uint32) (NodeHandle, *Node) {
	for i, slot := range s.slots {
		if slot.live && slot.node.InstanceID == id {
			return NodeHandle{Index: int32(i), Generation: slot.gen}, slot.node
		}
	}
	return NilHandle, nil
}

func (s *Scene) SetSelectedId(id uint32) { s.selectedID = id; s.hasSelected = true }
func (s *Scene) ClearSelected()          { s.hasSelected = false }
func (s *Scene) GetSelectedId() (uint32, bool) { return s.selectedID, s.hasSelected }

// SetParent reparents h under parent, rejecting the change with
// errs.BadReference if it would introduce a cycle (invariant a). Passing
// a nil parent moves h to the root.
func (s *Scene) SetParent(h, parent NodeHandle) error {
	n := s.resolve(h)
	if n == nil {
		return errs.BadReference
	}
	if !parent.IsNil() {
		if s.resolve(parent) == nil {
			return errs.BadReference
		}
		for cur := parent; !cur.IsNil(); {
			if cur.Index == h.Index && cur.Generation == h.Generation {
				return errs.BadReference
			}
			curNode := s.resolve(cur)
			if curNode == nil {
				break
			}
			cur = curNode.Parent
		}
	}
	if !n.Parent.IsNil() {
		if oldParent := s.resolve(n.Parent); oldParent != nil {
			oldParent.Children = removeHandle(oldParent.Children, h)
		}
	}
	n.Parent = parent
	if !parent.IsNil() {
		if p := s.resolve(parent); p != nil {
			p.Children = append(p.Children, h)
		}
	}
	s.dirty = true
	return nil
}

func removeHandle(list []NodeHandle, h NodeHandle) []NodeHandle {
	out := list[:0]
	for _, v := range list {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}

// RecalcTransform recomputes h's local transform (if dirty) and its
// world transform as parent.world * local. When full is true, children
// are recalculated recursively; otherwise only h itself is touched.
func (s *Scene) RecalcTransform(h NodeHandle, full bool) error {
	n := s.resolve(h)
	if n == nil {
		return errs.BadReference
	}
	s.recalcOne(n)
	if full {
		for _, c := range n.Children {
			if err := s.RecalcTransform(c, true); err != nil {
				return err
			}
		}
	}
	s.dirty = true
	return nil
}

func (s *Scene) recalcOne(n *Node) {
	if n.localDirty {
		n.recalcLocal()
	}
	parentWorld := mgl32.Ident4()
	if !n.Parent.IsNil() {
		if p := s.resolve(n.Parent); p != nil {
			parentWorld = p.worldTransform
		}
	}
	n.worldTransform = parentWorld.Mul4(n.localTransform)
}

// Tick advances animation tracks by delta, applies the sampled pose to
// each track's target node, and recomputes world transforms top-down for
// any node whose local transform changed.
func (s *Scene) Tick(delta float32) {
	for i := range s.slots {
		if s.slots[i].live {
			s.slots[i].node.prevWorldTransform = s.slots[i].node.worldTransform
		}
	}

	touched := map[NodeHandle]bool{}
	for i := range s.Tracks {
		t := &s.Tracks[i]
		pos, rot, scale, ok := t.Advance(delta)
		if !ok {
			continue
		}
		n := s.resolve(t.Target)
		if n == nil {
			continue
		}
		n.SetTranslation(pos)
		n.SetRotation(rot)
		n.SetScale(scale)
		touched[t.Target] = true
	}

	for h := range touched {
		_ = s.RecalcTransform(h, true)
	}
}

// UpdateNodes regenerates the flat node-proxy and indirect-draw arrays,
// grouped by model id, if dirty. Returns true iff it rebuilt this frame.
// The dirty flag is left set (instead of cleared) when any node's world
// transform still differs from its previous-frame transform by more than
// an epsilon, so the following frame also rebuilds and motion vectors
// stay correct.
func (s *Scene) UpdateNodes() bool {
	if !s.dirty {
		return false
	}

	byModel := map[int32][]*Node{}
	for i := range s.slots {
		slot := &s.slots[i]
		if !slot.live || !slot.node.Visible || slot.node.ModelID == NoModel {
			continue
		}
		byModel[slot.node.ModelID] = append(byModel[slot.node.ModelID], slot.node)
	}

	// Map iteration order is randomized; sort model ids so the proxy and
	// draw arrays come out identical across rebuilds of the same scene.
	modelIDs := make([]int32, 0, len(byModel))
	for modelID := range byModel {
		modelIDs = append(modelIDs, modelID)
	}
	sort.Slice(modelIDs, func(i, j int) bool { return modelIDs[i] < modelIDs[j] })

	s.proxies = s.proxies[:0]
	s.draws = s.draws[:0]

	stillMoving := false
	for _, modelID := range modelIDs {
		nodes := byModel[modelID]
		first := uint32(len(s.proxies))
		for _, n := range nodes {
			var proxy NodeProxy
			proxy.InstanceID = n.InstanceID
			proxy.ModelID = modelID
			proxy.WorldTransform = n.worldTransform
			proxy.PrevWorldTransform = n.prevWorldTransform
			for i, m := range n.MaterialOverrides {
				if i >= MaxMaterialOverrides {
					break
				}
				proxy.MaterialIDs[i] = m
			}
			s.proxies = append(s.proxies, proxy)

			if epsilonTransformsDiffer(n.worldTransform, n.prevWorldTransform) {
				stillMoving = true
			}
		}
		var draw IndirectDrawCommand
		if int(modelID) < len(s.modelVertexOffset) {
			draw.VertexOffset = s.modelVertexOffset[modelID]
		}
		if int(modelID) < len(s.modelIndexOffset) {
			draw.FirstIndex = uint32(s.modelIndexOffset[modelID])
		}
		if int(modelID) < len(s.Models) {
			draw.IndexCount = uint32(s.Models[modelID].IndexCount())
		}
		draw.FirstInstance = first
		draw.InstanceCount = uint32(len(nodes))
		s.draws = append(s.draws, draw)
	}

	s.dirty = stillMoving
	return true
}

// Proxies and Draws expose the last UpdateNodes result for a backend to
// upload or for tests to inspect.
func (s *Scene) Proxies() []NodeProxy            { return s.proxies }
func (s *Scene) Draws() []IndirectDrawCommand     { return s.draws }

// RebuildMeshBuffer concatenates all model vertex and index arrays,
// records the per-model offset table, and asks the uploader to size (but
// not yet populate) the proxy / indirect-draw buffers for up to MaxNodes
// instances.
func (s *Scene) RebuildMeshBuffer(up Uploader, rayTracingSupported bool) error {
	s.modelVertexOffset = make([]int32, len(s.Models))
	s.modelIndexOffset = make([]int32, len(s.Models))

	var vertexCount, indexCount int
	for i, m := range s.Models {
		s.modelVertexOffset[i] = int32(vertexCount)
		s.modelIndexOffset[i] = int32(indexCount)
		vertexCount += m.VertexCount()
		indexCount += m.IndexCount()
	}

	const vertexSize = 3*4 + 3*4 + 4*4 + 2*4 + 4 // Position+Normal+Tangent+UV+MaterialSection
	if err := up.AllocateMeshBuffers(vertexCount*vertexSize, indexCount*4); err != nil {
		return err
	}
	if err := up.AllocateProxyBuffers(MaxNodes); err != nil {
		return errs.Capacity
	}

	s.dirty = true
	return nil
}
