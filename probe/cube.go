// Package probe bakes the ambient-probe grids the hybrid back-end
// samples for indirect lighting: a near, high-resolution grid and a far,
// coarse one, each a flat array of six-axis directional radiance cubes
// updated a column-group at a time on the task coordinator's worker
// pool.
package probe

import "github.com/go-gl/mathgl/mgl32"

// pack10a2 packs an RGB color (each channel assumed in [0,1]) into
// 10-10-10-2 unsigned-normalized form: 10 bits per colour channel plus a
// 2-bit alpha, matching the GPU-visible AmbientCube layout.
func pack10a2(c mgl32.Vec4) uint32 {
	clamp := func(v, bits float32) uint32 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		max := float32((1 << uint(bits)) - 1)
		return uint32(v*max + 0.5)
	}
	r := clamp(c.X(), 10)
	g := clamp(c.Y(), 10)
	b := clamp(c.Z(), 10)
	a := clamp(c.W(), 2)
	return r | g<<10 | b<<20 | a<<30
}

func unpack10a2(v uint32) mgl32.Vec4 {
	r := float32(v&0x3FF) / 1023
	g := float32((v>>10)&0x3FF) / 1023
	b := float32((v>>20)&0x3FF) / 1023
	a := float32((v>>30)&0x3) / 3
	return mgl32.Vec4{r, g, b, a}
}

// AmbientCube is one probe position's six-axis directional radiance
// sample, laid out for direct GPU upload: every colour channel is
// packed 10-10-10-2, and Active/Blurred/iteration count fit in the Info
// word quad.
type AmbientCube struct {
	PosX, NegX, PosY, NegY, PosZ, NegZ uint32 // bounced colour, packed
	PosXSky, NegXSky, PosYSky, NegYSky, PosZSky, NegZSky uint32 // sky colour, packed

	Active    uint32
	MaterialID uint32
	Iteration  uint32
	Blurred    uint32
}

func (c *AmbientCube) faceColor(axis int) uint32 {
	switch axis {
	case 0:
		return c.PosX
	case 1:
		return c.NegX
	case 2:
		return c.PosY
	case 3:
		return c.NegY
	case 4:
		return c.PosZ
	default:
		return c.NegZ
	}
}

func (c *AmbientCube) setFaceColor(axis int, v uint32) {
	switch axis {
	case 0:
		c.PosX = v
	case 1:
		c.NegX = v
	case 2:
		c.PosY = v
	case 3:
		c.NegY = v
	case 4:
		c.PosZ = v
	default:
		c.NegZ = v
	}
}

func (c *AmbientCube) faceSky(axis int) uint32 {
	switch axis {
	case 0:
		return c.PosXSky
	case 1:
		return c.NegXSky
	case 2:
		return c.PosYSky
	case 3:
		return c.NegYSky
	case 4:
		return c.PosZSky
	default:
		return c.NegZSky
	}
}

func (c *AmbientCube) setFaceSky(axis int, v uint32) {
	switch axis {
	case 0:
		c.PosXSky = v
	case 1:
		c.NegXSky = v
	case 2:
		c.PosYSky = v
	case 3:
		c.NegYSky = v
	case 4:
		c.PosZSky = v
	default:
		c.NegZSky = v
	}
}

// axisDirections are the six face normals a cube samples, in PosX..NegZ
// order to match faceColor's axis indices.
var axisDirections = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}
