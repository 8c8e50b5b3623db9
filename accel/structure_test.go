package accel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gknext/render-go/scene"
)

func buildTestScene(t *testing.T) (*scene.Scene, *Structure) {
	t.Helper()
	model, light := scene.BuildCornellBox(5)
	sc := scene.NewScene("test")

	sc.Reload(nil, []scene.Model{model}, scene.CornellBoxMaterials(), []scene.Light{light}, nil)
	h := sc.AddNode(1)
	n := sc.Node(h)
	n.Name = "box"
	n.ModelID = 0
	require.NoError(t, sc.RecalcTransform(h, true))
	require.True(t, sc.UpdateNodes())

	s := &Structure{}
	s.InitBVH(sc)
	s.UpdateBVH(sc)
	return sc, s
}

func TestZeroLengthRayDoesNotPanicAndMisses(t *testing.T) {
	_, s := buildTestScene(t)
	assert.NotPanics(t, func() {
		hit, ok := s.TracingFunction(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 0})
		assert.False(t, ok)
		assert.Equal(t, Hit{}, hit)
	})
}

func TestOcclusionRayOutsideAABBsIsNotOccluded(t *testing.T) {
	_, s := buildTestScene(t)
	occluded := s.TracingOccludeFunction(mgl32.Vec3{1000, 1000, 1000}, mgl32.Vec3{1001, 1000, 1000})
	assert.False(t, occluded)
}

func TestTracingFunctionHitsInteriorWall(t *testing.T) {
	_, s := buildTestScene(t)
	hit, ok := s.TracingFunction(mgl32.Vec3{2, 2, -2}, mgl32.Vec3{1, 0, 0})
	require.True(t, ok)
	assert.Greater(t, hit.Dist, float32(0))
}

func TestBuildEmptyBoxesIsSafe(t *testing.T) {
	tree := Build(nil)
	assert.True(t, tree.empty())
}
