package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene() (*Scene, []*Node, []Model) {
	s := NewScene("test")
	model, light := BuildCornellBox(5)
	models := []Model{model}
	materials := CornellBoxMaterials()

	box := newNode(1)
	box.Name = "box"
	box.ModelID = 0

	lamp := newNode(2)
	lamp.Name = "lamp"
	lamp.ModelID = NoModel

	s.Reload([]*Node{box, lamp}, models, materials, []Light{light}, nil)
	return s, []*Node{box, lamp}, models
}

func TestReloadPopulatesArena(t *testing.T) {
	s, _, _ := newTestScene()
	h, n := s.GetNode("box")
	require.False(t, h.IsNil())
	assert.Equal(t, uint32(1), n.InstanceID)
}

func TestNodeHandleStaleAfterRemove(t *testing.T) {
	s, _, _ := newTestScene()
	h, _ := s.GetNode("box")
	s.RemoveNode(h)
	assert.Nil(t, s.Node(h))
}

func TestSetParentRejectsCycle(t *testing.T) {
	s, _, _ := newTestScene()
	hBox, _ := s.GetNode("box")
	hLamp, _ := s.GetNode("lamp")

	require.NoError(t, s.SetParent(hLamp, hBox))
	err := s.SetParent(hBox, hLamp)
	assert.Error(t, err)
}

func TestUpdateNodesGroupsByModelAndClearsDirty(t *testing.T) {
	s, nodes, _ := newTestScene()
	for _, n := range nodes {
		_ = n
	}
	hBox, box := s.GetNode("box")
	require.NoError(t, s.RecalcTransform(hBox, true))

	changed := s.UpdateNodes()
	assert.True(t, changed)
	assert.Len(t, s.Proxies(), 1)
	assert.Equal(t, box.InstanceID, s.Proxies()[0].InstanceID)

	// No motion since: dirty should clear, second call returns false.
	assert.False(t, s.UpdateNodes())
}

func TestUpdateNodesStaysDirtyWhileMoving(t *testing.T) {
	s, _, _ := newTestScene()
	hBox, box := s.GetNode("box")
	require.NoError(t, s.RecalcTransform(hBox, true))
	s.UpdateNodes()

	box.SetTranslation(mgl32.Vec3{1, 0, 0})
	require.NoError(t, s.RecalcTransform(hBox, true))

	assert.True(t, s.UpdateNodes())
	// World transform moved since last frame: still dirty this tick.
	assert.True(t, epsilonTransformsDiffer(box.WorldTransform(), box.PrevWorldTransform()))
	assert.True(t, s.dirty)
}

func TestRebuildMeshBufferComputesOffsets(t *testing.T) {
	s, _, models := newTestScene()

	up := &fakeUploader{}
	require.NoError(t, s.RebuildMeshBuffer(up, false))
	assert.Equal(t, len(models[0].Vertices)*(3*4+3*4+4*4+2*4+4), up.meshVertexBytes)
	assert.Equal(t, MaxNodes, up.maxNodes)
	// A single model starts at vertex 0 and index 0.
	assert.Equal(t, []int32{0}, s.modelVertexOffset)
	assert.Equal(t, []int32{0}, s.modelIndexOffset)
}

type fakeUploader struct {
	meshVertexBytes, meshIndexBytes int
	maxNodes                        int
	proxies                         []NodeProxy
	draws                           []IndirectDrawCommand
}

func (f *fakeUploader) AllocateMeshBuffers(vertexBytes, indexBytes int) error {
	f.meshVertexBytes, f.meshIndexBytes = vertexBytes, indexBytes
	return nil
}
func (f *fakeUploader) AllocateProxyBuffers(maxNodes int) error { f.maxNodes = maxNodes; return nil }
func (f *fakeUploader) WriteProxies(p []NodeProxy) error        { f.proxies = p; return nil }
func (f *fakeUploader) WriteIndirectDraws(d []IndirectDrawCommand) error {
	f.draws = d
	return nil
}

func TestUpdateNodesOrdersProxiesByModelIdDeterministically(t *testing.T) {
	s := NewScene("multi-model")
	models := []Model{
		{Name: "m0", Indices: []uint32{0, 1, 2}},
		{Name: "m1", Indices: []uint32{0, 1, 2}},
		{Name: "m2", Indices: []uint32{0, 1, 2}},
	}

	n2 := newNode(1)
	n2.ModelID = 2
	n0 := newNode(2)
	n0.ModelID = 0
	n1 := newNode(3)
	n1.ModelID = 1

	s.Reload([]*Node{n2, n0, n1}, models, nil, nil, nil)
	for i := 0; i < len(s.slots); i++ {
		require.NoError(t, s.RecalcTransform(NodeHandle{Index: int32(i), Generation: 1}, true))
	}

	var lastProxyModelIDs []int32
	var lastDrawOrder []uint32
	for i := 0; i < 5; i++ {
		s.dirty = true
		require.True(t, s.UpdateNodes())

		proxyModelIDs := make([]int32, len(s.Proxies()))
		for j, p := range s.Proxies() {
			proxyModelIDs[j] = p.ModelID
		}
		drawFirstIndices := make([]uint32, len(s.Draws()))
		for j, d := range s.Draws() {
			drawFirstIndices[j] = d.FirstInstance
		}

		assert.Equal(t, []int32{0, 1, 2}, proxyModelIDs)
		if lastProxyModelIDs != nil {
			assert.Equal(t, lastProxyModelIDs, proxyModelIDs)
			assert.Equal(t, lastDrawOrder, drawFirstIndices)
		}
		lastProxyModelIDs = proxyModelIDs
		lastDrawOrder = drawFirstIndices
	}
}

func TestCornellBoxHasOneLightAndFourSections(t *testing.T) {
	model, light := BuildCornellBox(5)
	assert.Equal(t, 4, model.SectionCount())
	assert.Greater(t, light.NormalArea.W(), float32(0))
}

func TestAnimationTrackLerpAndSlerp(t *testing.T) {
	track := AnimationTrack{
		Translation: []Keyframe[mgl32.Vec3]{
			{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
			{Time: 1, Value: mgl32.Vec3{2, 0, 0}},
		},
		Rotation: []Keyframe[mgl32.Quat]{
			{Time: 0, Value: mgl32.QuatIdent()},
			{Time: 1, Value: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})},
		},
		Duration: 1,
		Playing:  true,
	}
	pos, rot, _, ok := track.Advance(0.5)
	require.True(t, ok)
	assert.InDelta(t, 1.0, pos.X(), 1e-5)
	want := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, want.W, rot.W, 1e-5)
	assert.InDelta(t, want.V.Y(), rot.V.Y(), 1e-5)
}
