// Command renderer is the main interactive entry point: it opens a
// window, wires the façade against a worker pool, and runs the
// Start/Tick/End loop until the window is closed. Concrete back-end
// device/swap-chain creation is a collaborator this command does not
// own; the -backend flag is only logged and selects nothing.
package main

import (
	"flag"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	engine "github.com/gknext/render-go"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	scenePath := flag.String("scene", "0cornellbox.proc", "scene file to load at startup")
	backendFlag := flag.String("backend", "ModernDeferred", "back-end to start with: PathTracing, Hybrid, ModernDeferred, LegacyDeferred, VoxelTracing")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1600, 900, "Renderer", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	logger := engine.NewDefaultLogger("renderer", *debug)
	caps := engine.Capabilities{HardwareRayTracing: false}
	registry := engine.NewBackendRegistry(caps)
	app := engine.NewApp(logger, runtime.NumCPU()-1, registry, caps)

	logger.Infof("requested back-end: %s", *backendFlag)

	game := &passiveGameInstance{}
	if err := app.Start(game, engine.Extent{Width: 1600, Height: 900}); err != nil {
		panic(err)
	}
	defer app.End()

	app.RequestLoadScene(*scenePath)

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyF12 && action == glfw.Press {
			app.RequestScreenShot("")
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if app.Tick() {
			window.SetShouldClose(true)
		}
	}
}

// passiveGameInstance is the default game instance when no game-specific
// logic is needed: renderer is a scene viewer, not a game.
type passiveGameInstance struct{}

func (passiveGameInstance) OnInit(app *engine.App) error { return nil }
func (passiveGameInstance) OnSceneLoaded(name string)    {}
func (passiveGameInstance) OnTick(dt float32)            {}
func (passiveGameInstance) OnEnd()                       {}
