package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera mirrors the render camera fields copied into the
// UniformBufferObject every frame: a Y-up, fov/aperture/focus-distance
// camera matching a path tracer's depth-of-field model.
type Camera struct {
	Name string

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FieldOfView float32 // degrees; single authoritative value, see Design Notes
	Aperture    float32
	FocusDistance float32
}

func NewCamera() Camera {
	return Camera{
		Position:      mgl32.Vec3{0, 1, 5},
		Target:        mgl32.Vec3{0, 0, 0},
		Up:            mgl32.Vec3{0, 1, 0},
		FieldOfView:   60,
		Aperture:      0,
		FocusDistance: 10,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Environment carries the scene's sky/sun/camera-list fields.
type Environment struct {
	HasSky       bool
	SkyTextureID int32
	SkyRotation  float32
	SkyIntensity float32

	HasSun      bool
	SunRotation mgl32.Vec2 // yaw, pitch
	SunIntensity float32

	ControlSpeed float32

	Cameras []Camera
}

// SunDirection derives the sun's direction from its yaw/pitch rotation.
func (e *Environment) SunDirection() mgl32.Vec3 {
	yaw, pitch := e.SunRotation.X(), e.SunRotation.Y()
	return mgl32.Vec3{
		cos32(pitch) * sin32(yaw),
		sin32(pitch),
		-cos32(pitch) * cos32(yaw),
	}.Normalize()
}

func DefaultEnvironment() Environment {
	return Environment{
		SkyTextureID: NoTexture,
		SkyIntensity: 1,
		SunIntensity: 1,
		ControlSpeed: 1,
	}
}
