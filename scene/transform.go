package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }
func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }

// trs composes a translation/rotation/scale triple into a model matrix:
// M = T * R * S.
func trs(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	r := rotation.Mat4()
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(r).Mul4(s)
}

// epsilonTransformsDiffer reports whether two world matrices differ by
// more than a small epsilon in any component — UpdateNodes uses this to
// decide whether a node's motion must still be reported this frame.
func epsilonTransformsDiffer(a, b mgl32.Mat4) bool {
	const eps = 1e-6
	for i := 0; i < 16; i++ {
		d := a[i] - b[i]
		if d < -eps || d > eps {
			return true
		}
	}
	return false
}
