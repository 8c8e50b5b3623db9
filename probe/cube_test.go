package probe

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPack10a2RoundTrip(t *testing.T) {
	c := mgl32.Vec4{0.25, 0.5, 0.75, 1.0}
	packed := pack10a2(c)
	got := unpack10a2(packed)

	const tolerance = 1.0 / 1023
	assert.InDelta(t, c.X(), got.X(), tolerance)
	assert.InDelta(t, c.Y(), got.Y(), tolerance)
	assert.InDelta(t, c.Z(), got.Z(), tolerance)
	assert.InDelta(t, c.W(), got.W(), 1.0/3)
}

func TestPack10a2ClampsOutOfRange(t *testing.T) {
	packed := pack10a2(mgl32.Vec4{-1, 2, 0.5, 5})
	got := unpack10a2(packed)
	assert.Equal(t, float32(0), got.X())
	assert.InDelta(t, 1.0, got.Y(), 1e-3)
}

func TestAmbientCubeFaceAccessorsRoundTrip(t *testing.T) {
	var c AmbientCube
	for axis := 0; axis < 6; axis++ {
		c.setFaceColor(axis, uint32(axis+1))
		c.setFaceSky(axis, uint32(axis+10))
	}
	for axis := 0; axis < 6; axis++ {
		assert.Equal(t, uint32(axis+1), c.faceColor(axis))
		assert.Equal(t, uint32(axis+10), c.faceSky(axis))
	}
}

func TestClearAmbientCubesMarksAllActive(t *testing.T) {
	b := NewBaker(2, 2, 0.25, mgl32.Vec3{})
	for i := range b.Cubes {
		assert.Equal(t, uint32(1), b.Cubes[i].Active)
	}
}

func TestBlurSkipsInactiveNeighboursAndSetsBlurredFlag(t *testing.T) {
	b := NewBaker(3, 1, 0.25, mgl32.Vec3{})
	for i := range b.cubesCopy {
		b.cubesCopy[i] = b.Cubes[i]
	}
	b.cubesCopy[b.index(0, 0, 0)].Active = 0

	b.ProcessCube(nil, nil, nil, false, mgl32.Vec3{}, false, 1, 0, 0, Blur)
	assert.Equal(t, uint32(1), b.Cubes[b.index(1, 0, 0)].Blurred)
}
