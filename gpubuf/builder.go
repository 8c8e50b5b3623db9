package gpubuf

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/scene"
)

// Viewport is the swap-chain render region in pixels.
type Viewport struct {
	X, Y, W, H float32
}

// Settings mirrors the user-facing render settings the façade reads when
// composing a frame: feature toggles, sampling budget, denoiser tuning.
type Settings struct {
	HasSky         bool
	HeatmapOn      bool
	Checkerboard   bool
	HDROutput      bool
	AdaptiveSample bool
	TAA            bool
	Progressive    bool
	ShowEdge       bool
	BakeOnGPU      bool

	MaxBounces      int32
	SamplesPerPixel int32
	CurrentBounces  int32
	RandomSeed      uint32

	AdaptiveVariance float32
	AdaptiveSteps    int32

	HeatmapScale   float32
	PaperWhiteNits float32

	AndroidPreRotate bool // 90 degree device pre-rotation branch

	Denoiser DenoiserParams
}

// Builder composes one UniformBufferObject per frame, carrying the
// previous frame's result forward so motion vectors have something to
// read and so a sun-direction change can be detected across frames.
type Builder struct {
	prev        UniformBufferObject
	havePrev    bool
	frameCount  uint32
	lastSunDir  mgl32.Vec3
	lastHasSun  bool
	environmentDirty bool
}

// EnvironmentDirty reports whether the last Compose call detected a sun
// change that requires the probe grids to rebake.
func (b *Builder) EnvironmentDirty() bool { return b.environmentDirty }

// Compose runs the fixed seven-step per-frame composition: copy the
// camera, build the projection (with the Android pre-rotation branch),
// derive inverses/ViewProjection and carry or seed PrevViewProjection,
// fill the viewport, capture selection/flags/sun/sky/light-count/
// temporal state, detect a sun change to dirty the environment, then
// stash the result as "previous" for next frame.
func (b *Builder) Compose(sc *scene.Scene, cam scene.Camera, aspect float32, vp Viewport, s Settings) UniformBufferObject {
	var u UniformBufferObject

	// 1. Copy the render camera (allowing an external override already
	// baked into cam by the caller).
	u.View = cam.ViewMatrix()
	u.Aperture = cam.Aperture
	u.FocusDistance = cam.FocusDistance

	// 2. Compose projection from fov + aspect, flip Y, optionally add the
	// 90 degree Android pre-rotation.
	u.Projection = composeProjection(cam.FieldOfView, aspect, s.AndroidPreRotate)

	// 3. Inverses, current ViewProjection, and the motion-vector seed.
	u.InvView = u.View.Inverse()
	u.InvProjection = u.Projection.Inverse()
	u.ViewProjection = u.Projection.Mul4(u.View)
	if !b.havePrev || b.frameCount == 0 {
		u.PrevViewProjection = u.ViewProjection
	} else {
		u.PrevViewProjection = b.prev.ViewProjection
	}

	// 4. Viewport rect from the swap-chain render region.
	u.ViewportX, u.ViewportY, u.ViewportW, u.ViewportH = vp.X, vp.Y, vp.W, vp.H

	// 5. Selection, flags, sun/sky, light count, temporal-frame count,
	// HDR flag, denoiser params.
	if id, ok := sc.GetSelectedId(); ok {
		u.SelectedInstanceID = int32(id)
	} else {
		u.SelectedInstanceID = -1
	}

	env := &sc.Environment
	sunDir := env.SunDirection()
	u.SunDirection = sunDir
	u.SunColor = mgl32.Vec3{1, 1, 1}.Mul(env.SunIntensity)
	u.SkyColor = mgl32.Vec3{1, 1, 1}.Mul(env.SkyIntensity)
	u.SkyRotation = env.SkyRotation
	u.SkyIntensity = env.SkyIntensity
	u.SkyIndex = env.SkyTextureID

	u.Flags = composeFlags(env.HasSky, env.HasSun, s)
	u.LightCount = int32(len(sc.Lights))
	u.MaxBounces = s.MaxBounces
	u.SamplesPerPixel = s.SamplesPerPixel
	u.CurrentBounces = s.CurrentBounces
	u.RandomSeed = s.RandomSeed
	u.HeatmapScale = s.HeatmapScale
	u.PaperWhiteNits = s.PaperWhiteNits
	u.AdaptiveVariance = s.AdaptiveVariance
	u.AdaptiveSteps = s.AdaptiveSteps
	u.Denoiser = s.Denoiser

	u.TemporalFrameCount = b.temporalFrameCount(s.Progressive)
	u.TotalFrameCounter = b.frameCount

	// 6. Dirty the environment if the sun changed.
	b.environmentDirty = b.havePrev && (env.HasSun != b.lastHasSun || sunDirDiffers(sunDir, b.lastSunDir))
	b.lastSunDir = sunDir
	b.lastHasSun = env.HasSun

	// 7. Stash as previous for next frame.
	b.prev = u
	b.havePrev = true
	b.frameCount++

	return u
}

func (b *Builder) temporalFrameCount(progressive bool) int32 {
	if !progressive {
		return 0
	}
	return int32(b.frameCount)
}

func sunDirDiffers(a, b mgl32.Vec3) bool {
	const eps = 1e-5
	d := a.Sub(b)
	return d.X()*d.X()+d.Y()*d.Y()+d.Z()*d.Z() > eps*eps
}

// composeProjection builds a right-handed perspective projection with Y
// flipped for the target coordinate system, optionally pre-multiplied by
// a 90 degree Z rotation to compensate for Android's device rotation.
func composeProjection(fovDegrees, aspect float32, androidPreRotate bool) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, 0.05, 1000)
	flipY := mgl32.Scale3D(1, -1, 1)
	proj = flipY.Mul4(proj)
	if androidPreRotate {
		rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))
		proj = rot.Mul4(proj)
	}
	return proj
}

func composeFlags(hasSky, hasSun bool, s Settings) uint32 {
	var f uint32
	if hasSky {
		f |= FlagHasSky
	}
	if s.HeatmapOn {
		f |= FlagHeatmapOn
	}
	if s.Checkerboard {
		f |= FlagCheckerboard
	}
	if hasSun {
		f |= FlagHasSun
	}
	if s.HDROutput {
		f |= FlagHDROutput
	}
	if s.AdaptiveSample {
		f |= FlagAdaptiveSample
	}
	if s.TAA {
		f |= FlagTAA
	}
	if s.Progressive {
		f |= FlagProgressive
	}
	if s.ShowEdge {
		f |= FlagShowEdge
	}
	if s.BakeOnGPU {
		f |= FlagBakeOnGPU
	}
	return f
}
