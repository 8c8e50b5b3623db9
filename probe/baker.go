package probe

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/accel"
	"github.com/gknext/render-go/scene"
)

// ProcType is one of the four per-cube processing states ProcessCube
// dispatches on.
type ProcType int

const (
	Iterate ProcType = iota
	Copy
	Blur
	Fence
)

// Baker owns one ambient-cube grid (XY columns square, Z rows tall) at a
// given world-space unit size and offset. The façade runs two: a
// high-resolution near grid and a coarse far grid.
type Baker struct {
	XY, Z int
	Unit  float32
	Offset mgl32.Vec3

	Cubes     []AmbientCube
	cubesCopy []AmbientCube
}

// NewBaker allocates XY*XY*Z cubes, all initially active with zeroed
// faces (see ClearAmbientCubes for the exact reset values).
func NewBaker(xy, z int, unit float32, offset mgl32.Vec3) *Baker {
	b := &Baker{XY: xy, Z: z, Unit: unit, Offset: offset}
	b.Cubes = make([]AmbientCube, xy*xy*z)
	b.cubesCopy = make([]AmbientCube, xy*xy*z)
	b.ClearAmbientCubes()
	return b
}

func (b *Baker) index(x, y, z int) int {
	return y*b.XY*b.XY + z*b.XY + x
}

// ClearAmbientCubes resets every cube to active with black faces, the
// state AsyncProcessFull starts a rebake from.
func (b *Baker) ClearAmbientCubes() {
	for i := range b.Cubes {
		b.Cubes[i] = AmbientCube{Active: 1}
		black := pack10a2(mgl32.Vec4{0, 0, 0, 1})
		for axis := 0; axis < 6; axis++ {
			b.Cubes[i].setFaceColor(axis, black)
			b.Cubes[i].setFaceSky(axis, black)
		}
	}
}

// ProcessCube mutates exactly the cube at (x,y,z) (Iterate, Copy) or that
// cube from its 3x3x3 neighbourhood in the shadow copy (Blur). Positions
// outside [0,XY)x[0,Z)x[0,XY) are a programmer error and are not checked
// here — callers (dispatchGroup) are responsible for staying in
// range.
func (b *Baker) ProcessCube(tr *accel.Structure, materials []scene.Material, lights []scene.Light, hasSun bool, sunDir mgl32.Vec3, hasSky bool, x, y, z int, proc ProcType) {
	idx := b.index(x, y, z)
	switch proc {
	case Iterate:
		b.iterate(tr, materials, lights, hasSun, sunDir, hasSky, x, y, z, idx)
	case Copy:
		b.cubesCopy[idx] = b.Cubes[idx]
	case Blur:
		b.blur(x, y, z, idx)
	}
}

func (b *Baker) iterate(tr *accel.Structure, materials []scene.Material, lights []scene.Light, hasSun bool, sunDir mgl32.Vec3, hasSky bool, x, y, z, idx int) {
	cube := &b.Cubes[idx]
	cube.Active = 1
	cube.Iteration++

	probePos := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(b.Unit).Add(b.Offset)

	if hit, ok := tr.TracingFunction(probePos, mgl32.Vec3{0, 1, 0}); ok && hit.Dist < b.Unit*0.5 {
		cube.Active = 0
		cube.MaterialID = hit.MaterialID
		return
	}

	weight := float32(1.0)
	if cube.Iteration > 1 {
		weight = 0.5
	}

	for axis, dir := range axisDirections {
		bounce, sky := b.traceAxis(tr, materials, lights, hasSun, sunDir, hasSky, probePos, dir)
		prevColor := unpack10a2(cube.faceColor(axis))
		prevSky := unpack10a2(cube.faceSky(axis))
		blended := lerp4(prevColor, bounce, weight)
		blendedSky := lerp4(prevSky, sky, weight)
		cube.setFaceColor(axis, pack10a2(blended))
		cube.setFaceSky(axis, pack10a2(blendedSky))
	}
}

// traceAxis casts one short ray from origin along dir, returning the
// bounced surface colour (zero if the ray escaped) and the sky colour
// contribution (non-zero only when the ray escaped and the environment
// has a sky, approximated here as a flat ambient term).
func (b *Baker) traceAxis(tr *accel.Structure, materials []scene.Material, lights []scene.Light, hasSun bool, sunDir mgl32.Vec3, hasSky bool, origin, dir mgl32.Vec3) (bounce, sky mgl32.Vec4) {
	hit, ok := tr.TracingFunction(origin, dir)
	if !ok {
		if hasSky {
			return mgl32.Vec4{0, 0, 0, 1}, mgl32.Vec4{1, 1, 1, 1}
		}
		return mgl32.Vec4{0, 0, 0, 1}, mgl32.Vec4{0, 0, 0, 1}
	}
	if int(hit.MaterialID) >= len(materials) {
		return mgl32.Vec4{0, 0, 0, 1}, mgl32.Vec4{0, 0, 0, 1}
	}
	mat := materials[hit.MaterialID]
	hitPos := origin.Add(dir.Mul(hit.Dist))

	direct := mgl32.Vec3{0, 0, 0}
	for _, l := range lights {
		mid := l.P1.Add(l.P3).Mul(0.5)
		if !tr.TracingOccludeFunction(hitPos.Add(hit.Normal.Mul(1e-3)), mid) {
			toLight := mid.Sub(hitPos).Normalize()
			ndotl := hit.Normal.Dot(toLight)
			if ndotl > 0 {
				direct = direct.Add(mgl32.Vec3{mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2]}.Mul(ndotl))
			}
		}
	}
	if hasSun && !tr.TracingOccludeFunction(hitPos.Add(hit.Normal.Mul(1e-3)), hitPos.Sub(sunDir.Mul(100))) {
		ndotl := hit.Normal.Dot(sunDir.Mul(-1))
		if ndotl > 0 {
			direct = direct.Add(mgl32.Vec3{1, 1, 1}.Mul(ndotl * 0.5))
		}
	}

	return mgl32.Vec4{direct.X(), direct.Y(), direct.Z(), 1}, mgl32.Vec4{0, 0, 0, 1}
}

func (b *Baker) blur(x, y, z, centerIdx int) {
	center := &b.Cubes[centerIdx]
	center.Blurred = 0

	var blurred [6]mgl32.Vec4
	var blurredSky [6]mgl32.Vec4
	totalWeight := float32(0)

	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny, nz := x+dx, y+dy, z+dz
				if nx < 0 || ny < 0 || nz < 0 || nx >= b.XY || ny >= b.Z || nz >= b.XY {
					continue
				}
				neighbor := &b.cubesCopy[b.index(nx, ny, nz)]
				if neighbor.Active != 1 {
					continue
				}
				dist := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
				weight := 1 / (1 + dist)
				for axis := 0; axis < 6; axis++ {
					blurred[axis] = blurred[axis].Add(unpack10a2(neighbor.faceColor(axis)).Mul(weight))
					blurredSky[axis] = blurredSky[axis].Add(unpack10a2(neighbor.faceSky(axis)).Mul(weight))
				}
				totalWeight += weight
			}
		}
	}

	if totalWeight > 0 {
		inv := 1 / totalWeight
		for axis := 0; axis < 6; axis++ {
			center.setFaceColor(axis, pack10a2(blurred[axis].Mul(inv)))
			center.setFaceSky(axis, pack10a2(blurredSky[axis].Mul(inv)))
		}
		center.Blurred = 1
	}
}

func lerp4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
