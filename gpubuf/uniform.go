// Package gpubuf composes and serializes the per-frame uniform buffer the
// GPU back-ends and the CPU probe baker's shading math both read from.
package gpubuf

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Feature flags packed into UniformBufferObject.Flags.
const (
	FlagHasSky uint32 = 1 << iota
	FlagHeatmapOn
	FlagCheckerboard
	FlagHasSun
	FlagHDROutput
	FlagAdaptiveSample
	FlagTAA
	FlagProgressive
	FlagShowEdge
	FlagBakeOnGPU
)

// DenoiserParams is threaded through unchanged to the GPU denoiser kernel;
// the core owns the struct and its upload, not the kernel itself.
type DenoiserParams struct {
	Sigma       float32
	SigmaLuminance float32
	SigmaNormal float32
	Size        int32
}

// UniformBufferObject is the fixed, 16-byte-aligned per-frame layout
// consumed by GPU shaders and mirrored by the probe baker's CPU-side
// shading functions.
type UniformBufferObject struct {
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	InvView     mgl32.Mat4
	InvProjection mgl32.Mat4
	ViewProjection     mgl32.Mat4
	PrevViewProjection mgl32.Mat4

	ViewportX, ViewportY, ViewportW, ViewportH float32

	SunDirection mgl32.Vec3
	SunColor     mgl32.Vec3
	SkyColor     mgl32.Vec3

	Aperture      float32
	FocusDistance float32
	SkyRotation   float32
	HeatmapScale  float32
	PaperWhiteNits float32
	SkyIntensity  float32
	SkyIndex      int32

	TotalFrameCounter uint32
	MaxBounces        int32
	SamplesPerPixel   int32
	CurrentBounces    int32
	RandomSeed        uint32
	LightCount        int32

	Flags uint32

	TemporalFrameCount int32
	AdaptiveVariance   float32
	AdaptiveSteps      int32

	SelectedInstanceID int32

	Denoiser DenoiserParams
}

// ByteSize is the packed wire size of UniformBufferObject, rounded up to
// the next 16-byte boundary as GPU uniform blocks require.
const ByteSize = 544

// Bytes serializes the UBO to its GPU wire layout, little-endian, matching
// field order above. Matrices are written column-major (mgl32.Mat4's
// native element order).
func (u *UniformBufferObject) Bytes() []byte {
	buf := make([]byte, ByteSize)
	off := 0

	putF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	putI32 := func(v int32) { binary.LittleEndian.PutUint32(buf[off:], uint32(v)); off += 4 }
	putU32 := func(v uint32) { binary.LittleEndian.PutUint32(buf[off:], v); off += 4 }
	putMat := func(m mgl32.Mat4) {
		for _, v := range m {
			putF32(v)
		}
	}
	putVec3 := func(v mgl32.Vec3) {
		putF32(v.X())
		putF32(v.Y())
		putF32(v.Z())
		putF32(0) // pad to vec4 for std140-style alignment
	}

	putMat(u.View)
	putMat(u.Projection)
	putMat(u.InvView)
	putMat(u.InvProjection)
	putMat(u.ViewProjection)
	putMat(u.PrevViewProjection)

	putF32(u.ViewportX)
	putF32(u.ViewportY)
	putF32(u.ViewportW)
	putF32(u.ViewportH)

	putVec3(u.SunDirection)
	putVec3(u.SunColor)
	putVec3(u.SkyColor)

	putF32(u.Aperture)
	putF32(u.FocusDistance)
	putF32(u.SkyRotation)
	putF32(u.HeatmapScale)
	putF32(u.PaperWhiteNits)
	putF32(u.SkyIntensity)
	putI32(u.SkyIndex)

	putU32(u.TotalFrameCounter)
	putI32(u.MaxBounces)
	putI32(u.SamplesPerPixel)
	putI32(u.CurrentBounces)
	putU32(u.RandomSeed)
	putI32(u.LightCount)

	putU32(u.Flags)

	putI32(u.TemporalFrameCount)
	putF32(u.AdaptiveVariance)
	putI32(u.AdaptiveSteps)

	putI32(u.SelectedInstanceID)

	putF32(u.Denoiser.Sigma)
	putF32(u.Denoiser.SigmaLuminance)
	putF32(u.Denoiser.SigmaNormal)
	putI32(u.Denoiser.Size)

	return buf[:off]
}
