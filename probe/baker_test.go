package probe

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/gknext/render-go/accel"
)

func TestTraceAxisSkyContributionGatedOnHasSky(t *testing.T) {
	b := NewBaker(2, 2, 0.25, mgl32.Vec3{})
	tr := &accel.Structure{} // empty TLAS: every ray escapes

	_, skyOn := b.traceAxis(tr, nil, nil, false, mgl32.Vec3{}, true, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, skyOn)

	_, skyOff := b.traceAxis(tr, nil, nil, false, mgl32.Vec3{}, false, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, skyOff)
}
