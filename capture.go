package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/gknext/render-go/task"
)

// CPUTimer tracks named scopes with monotonic clocks, insertion-ordered
// for stable display, snapshot once per frame.
type CPUTimer struct {
	start map[string]time.Time
	dur   map[string]time.Duration
	order []string
}

func NewCPUTimer() *CPUTimer {
	return &CPUTimer{
		start: make(map[string]time.Time),
		dur:   make(map[string]time.Duration),
	}
}

func (c *CPUTimer) Begin(name string) {
	if _, seen := c.dur[name]; !seen {
		c.order = append(c.order, name)
	}
	c.start[name] = time.Now()
}

func (c *CPUTimer) End(name string) {
	if t0, ok := c.start[name]; ok {
		c.dur[name] = time.Since(t0)
	}
}

// Snapshot returns the scopes in insertion order.
func (c *CPUTimer) Snapshot() []NamedDuration {
	out := make([]NamedDuration, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, NamedDuration{Name: name, Duration: c.dur[name]})
	}
	return out
}

type NamedDuration struct {
	Name     string
	Duration time.Duration
}

// GPUQueryPool is the back-end's timestamp-query surface: a pair of
// WriteTimestamp calls around a named region, resolved once per frame.
// Back-ends implement this against their own wgpu.QuerySet
// (QueryTypeTimestamp) rather than this package owning device resources
// directly.
type GPUQueryPool interface {
	WriteTimestamp(label string)
	ResolveDurations() map[string]time.Duration
}

// GPUTimer pairs begin/end timestamp writes into named durations,
// mirroring CPUTimer's contract but resolved by the GPU back-end.
type GPUTimer struct {
	pool  GPUQueryPool
	order []string
	seen  map[string]bool
}

func NewGPUTimer(pool GPUQueryPool) *GPUTimer {
	return &GPUTimer{pool: pool, seen: make(map[string]bool)}
}

func (g *GPUTimer) Begin(name string) {
	if !g.seen[name] {
		g.seen[name] = true
		g.order = append(g.order, name)
	}
	g.pool.WriteTimestamp(name + ":begin")
}

func (g *GPUTimer) End(name string) {
	g.pool.WriteTimestamp(name + ":end")
}

func (g *GPUTimer) Snapshot() []NamedDuration {
	resolved := g.pool.ResolveDurations()
	out := make([]NamedDuration, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, NamedDuration{Name: name, Duration: resolved[name]})
	}
	return out
}

// pendingCapture is a screenshot request waiting for the next present.
type pendingCapture struct {
	name string
}

// FrameBlit is a back-end's host-visible copy of the just-presented back
// buffer, tightly packed RGBA8.
type FrameBlit struct {
	Width, Height int
	Pixels        []byte
}

// RequestScreenShot schedules a capture: on the next present the active
// back-end blits the back buffer into a host-visible image and hands it
// to CompleteScreenShot, which dispatches the encode-and-write off the
// main thread at priority 1 so it cannot block probe-bake workers
// (priority 0).
func (a *App) RequestScreenShot(name string) {
	if name == "" {
		name = fmt.Sprintf("screenshot-%d", a.totalFrameCounter)
	}
	a.capture = &pendingCapture{name: name}
}

// CompleteScreenShot is called by the back-end once it has a host-visible
// blit ready; it clears the pending request and dispatches the encode.
func (a *App) CompleteScreenShot(blit FrameBlit) {
	if a.capture == nil {
		return
	}
	name := a.capture.name
	a.capture = nil

	a.Coordinator.AddTask(func(t *task.Task) {
		if err := encodePNG(name+".png", blit); err != nil && a.Logger != nil {
			a.Logger.Errorf("screenshot encode failed: %v", err)
		}
	}, nil, 1)
}

func encodePNG(path string, blit FrameBlit) error {
	img := image.NewRGBA(image.Rect(0, 0, blit.Width, blit.Height))
	for y := 0; y < blit.Height; y++ {
		for x := 0; x < blit.Width; x++ {
			i := (y*blit.Width + x) * 4
			img.SetRGBA(x, y, color.RGBA{R: blit.Pixels[i], G: blit.Pixels[i+1], B: blit.Pixels[i+2], A: blit.Pixels[i+3]})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
