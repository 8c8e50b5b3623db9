package gpubuf

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gknext/render-go/scene"
)

func newTestScene() *scene.Scene {
	s := scene.NewScene("test")
	s.Reload(nil, nil, nil, nil, nil)
	return s
}

func TestComposeFirstFrameSeedsPrevViewProjection(t *testing.T) {
	var b Builder
	s := newTestScene()
	cam := scene.NewCamera()

	u := b.Compose(s, cam, 16.0/9.0, Viewport{W: 1920, H: 1080}, Settings{})

	assert.Equal(t, u.ViewProjection, u.PrevViewProjection)
	assert.Equal(t, uint32(0), u.TotalFrameCounter)
}

func TestComposeCarriesPrevViewProjectionAcrossFrames(t *testing.T) {
	var b Builder
	s := newTestScene()
	cam := scene.NewCamera()

	first := b.Compose(s, cam, 1, Viewport{}, Settings{})

	cam.Position = mgl32.Vec3{5, 5, 5}
	second := b.Compose(s, cam, 1, Viewport{}, Settings{})

	assert.Equal(t, first.ViewProjection, second.PrevViewProjection)
	assert.NotEqual(t, second.ViewProjection, second.PrevViewProjection)
	assert.Equal(t, uint32(1), second.TotalFrameCounter)
}

func TestComposeFlagsReflectSettingsAndEnvironment(t *testing.T) {
	var b Builder
	s := newTestScene()
	s.Environment.HasSky = true
	s.Environment.HasSun = true
	cam := scene.NewCamera()

	u := b.Compose(s, cam, 1, Viewport{}, Settings{HeatmapOn: true, TAA: true})

	assert.NotZero(t, u.Flags&FlagHasSky)
	assert.NotZero(t, u.Flags&FlagHasSun)
	assert.NotZero(t, u.Flags&FlagHeatmapOn)
	assert.NotZero(t, u.Flags&FlagTAA)
	assert.Zero(t, u.Flags&FlagCheckerboard)
}

func TestComposeDirtiesEnvironmentOnSunChange(t *testing.T) {
	var b Builder
	s := newTestScene()
	s.Environment.HasSun = true
	cam := scene.NewCamera()

	b.Compose(s, cam, 1, Viewport{}, Settings{})
	require.False(t, b.EnvironmentDirty())

	s.Environment.SunRotation = mgl32.Vec2{1.2, 0.4}
	b.Compose(s, cam, 1, Viewport{}, Settings{})
	assert.True(t, b.EnvironmentDirty())
}

func TestComposeSelectedInstanceDefaultsToMinusOne(t *testing.T) {
	var b Builder
	s := newTestScene()
	cam := scene.NewCamera()

	u := b.Compose(s, cam, 1, Viewport{}, Settings{})
	assert.Equal(t, int32(-1), u.SelectedInstanceID)

	s.SetSelectedId(7)
	u = b.Compose(s, cam, 1, Viewport{}, Settings{})
	assert.Equal(t, int32(7), u.SelectedInstanceID)
}

func TestUniformBufferObjectBytesIsFixedSize(t *testing.T) {
	var u UniformBufferObject
	assert.Len(t, u.Bytes(), 536)
	assert.LessOrEqual(t, len(u.Bytes()), ByteSize)
}
