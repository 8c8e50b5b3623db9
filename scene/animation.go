package scene

import "github.com/go-gl/mathgl/mgl32"

// Keyframe is one sample of a channel at a given time in seconds.
type Keyframe[T any] struct {
	Time  float32
	Value T
}

// AnimationTrack drives a node's local transform over time from three
// independently-keyed channels. Absent channels (nil slice) leave that
// part of the transform untouched.
type AnimationTrack struct {
	Name   string
	Target NodeHandle

	Translation []Keyframe[mgl32.Vec3]
	Rotation    []Keyframe[mgl32.Quat]
	Scale       []Keyframe[mgl32.Vec3]

	Duration float32
	Loop     bool

	playhead float32
	Playing  bool
}

func (t *AnimationTrack) Play()  { t.Playing = true }
func (t *AnimationTrack) Pause() { t.Playing = false }
func (t *AnimationTrack) Reset() { t.playhead = 0 }

// Advance steps the playhead by dt and returns the sampled
// translation/rotation/scale at the new position, plus whether any
// channel produced a value (false when all three channels are empty).
func (t *AnimationTrack) Advance(dt float32) (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, ok bool) {
	if !t.Playing {
		return t.sample()
	}
	t.playhead += dt
	if t.Duration > 0 && t.playhead > t.Duration {
		if t.Loop {
			for t.playhead > t.Duration {
				t.playhead -= t.Duration
			}
		} else {
			t.playhead = t.Duration
			t.Playing = false
		}
	}
	return t.sample()
}

func (t *AnimationTrack) sample() (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, ok bool) {
	rot = mgl32.QuatIdent()
	scale = mgl32.Vec3{1, 1, 1}

	if p, found := sampleLerp(t.Translation, t.playhead); found {
		pos = p
		ok = true
	}
	if r, found := sampleSlerp(t.Rotation, t.playhead); found {
		rot = r
		ok = true
	}
	if s, found := sampleLerp(t.Scale, t.playhead); found {
		scale = s
		ok = true
	}
	return pos, rot, scale, ok
}

func sampleLerp(keys []Keyframe[mgl32.Vec3], time float32) (mgl32.Vec3, bool) {
	if len(keys) == 0 {
		return mgl32.Vec3{}, false
	}
	if len(keys) == 1 || time <= keys[0].Time {
		return keys[0].Value, true
	}
	last := keys[len(keys)-1]
	if time >= last.Time {
		return last.Value, true
	}
	for i := 0; i+1 < len(keys); i++ {
		a, b := keys[i], keys[i+1]
		if time >= a.Time && time <= b.Time {
			span := b.Time - a.Time
			if span <= 0 {
				return a.Value, true
			}
			f := (time - a.Time) / span
			return a.Value.Add(b.Value.Sub(a.Value).Mul(f)), true
		}
	}
	return last.Value, true
}

func sampleSlerp(keys []Keyframe[mgl32.Quat], time float32) (mgl32.Quat, bool) {
	if len(keys) == 0 {
		return mgl32.QuatIdent(), false
	}
	if len(keys) == 1 || time <= keys[0].Time {
		return keys[0].Value, true
	}
	last := keys[len(keys)-1]
	if time >= last.Time {
		return last.Value, true
	}
	for i := 0; i+1 < len(keys); i++ {
		a, b := keys[i], keys[i+1]
		if time >= a.Time && time <= b.Time {
			span := b.Time - a.Time
			if span <= 0 {
				return a.Value, true
			}
			f := (time - a.Time) / span
			return mgl32.QuatSlerp(a.Value, b.Value, f), true
		}
	}
	return last.Value, true
}
