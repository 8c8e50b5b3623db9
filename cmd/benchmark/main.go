// Command benchmark runs a fixed number of frames against a chosen
// scene and back-end, headless, reporting an FPS figure once a second —
// the Go equivalent of the still/motion benchmark harnesses.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	engine "github.com/gknext/render-go"
)

func main() {
	backendFlag := flag.String("renderer", "ModernDeferred", "back-end under test: PathTracing, Hybrid, ModernDeferred, LegacyDeferred, VoxelTracing")
	samples := flag.Int("samples", 1, "samples per pixel")
	temporal := flag.Bool("temporal", false, "enable temporal accumulation")
	bounces := flag.Int("bounces", 4, "max light bounces")
	sceneIndex := flag.Int("scene", 0, "index into the benchmark scene list")
	maxFrames := flag.Int("frames", 500, "stop after this many frames (0 = time-limited instead)")
	maxSeconds := flag.Float64("seconds", 10, "stop after this many seconds when frames is 0")
	flag.Parse()

	scenes := []string{"0cornellbox.proc"}
	if *sceneIndex < 0 || *sceneIndex >= len(scenes) {
		fmt.Printf("scene index %d out of range (have %d scenes)\n", *sceneIndex, len(scenes))
		return
	}

	logger := engine.NewDefaultLogger("benchmark", false)
	caps := engine.Capabilities{HardwareRayTracing: false}
	registry := engine.NewBackendRegistry(caps)
	app := engine.NewApp(logger, runtime.NumCPU()-1, registry, caps)

	settings := benchmarkSettings{
		backend:  *backendFlag,
		samples:  *samples,
		temporal: *temporal,
		bounces:  *bounces,
	}
	logger.Infof("renderer=%s samples=%d temporal=%v bounces=%d scene=%s",
		settings.backend, settings.samples, settings.temporal, settings.bounces, scenes[*sceneIndex])

	game := &headlessGameInstance{}
	if err := app.Start(game, engine.Extent{Width: 1280, Height: 720}); err != nil {
		panic(err)
	}
	defer app.End()

	app.RequestLoadScene(scenes[*sceneIndex])

	start := time.Now()
	periodStart := start
	frames := 0
	periodFrames := 0

	for {
		app.Tick()
		frames++
		periodFrames++

		now := time.Now()
		if now.Sub(periodStart) >= time.Second {
			fps := float64(periodFrames) / now.Sub(periodStart).Seconds()
			fmt.Printf("[Benchmarking] fps: %.0f\n", fps)
			periodStart = now
			periodFrames = 0
		}

		if *maxFrames > 0 {
			if frames >= *maxFrames {
				break
			}
		} else if now.Sub(start).Seconds() >= *maxSeconds {
			break
		}
	}

	fmt.Printf("total frames: %d, elapsed: %s\n", frames, time.Since(start))
}

// benchmarkSettings mirrors the CLI surface; wiring it into a concrete
// back-end's sampling budget happens once that back-end is registered.
type benchmarkSettings struct {
	backend  string
	samples  int
	temporal bool
	bounces  int
}

type headlessGameInstance struct{}

func (headlessGameInstance) OnInit(app *engine.App) error { return nil }
func (headlessGameInstance) OnSceneLoaded(name string)    {}
func (headlessGameInstance) OnTick(dt float32)            {}
func (headlessGameInstance) OnEnd()                       {}
