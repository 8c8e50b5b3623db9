// Command editor is a scene-editing entry point: it loads a scene, lets
// the user click to select an instance via RayCastGPU, and records the
// hit instance as the scene's selection. It draws no aux box around the
// selection. Scene persistence and a UI widget tree are out of scope for
// this package.
package main

import (
	"flag"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	engine "github.com/gknext/render-go"
	"github.com/gknext/render-go/accel"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	scenePath := flag.String("scene", "0cornellbox.proc", "scene file to edit")
	debug := flag.Bool("debug", true, "enable debug logging")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1600, 900, "Editor", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	logger := engine.NewDefaultLogger("editor", *debug)
	caps := engine.Capabilities{HardwareRayTracing: false}
	registry := engine.NewBackendRegistry(caps)
	app := engine.NewApp(logger, runtime.NumCPU()-1, registry, caps)

	game := &editorGameInstance{}
	if err := app.Start(game, engine.Extent{Width: 1600, Height: 900}); err != nil {
		panic(err)
	}
	defer app.End()
	game.app = app

	app.RequestLoadScene(*scenePath)

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft && action == glfw.Press {
			game.pickRequested = true
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if game.pickRequested {
			game.pickRequested = false
			app.RayCastGPU(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, game.onPickResult)
		}
		if app.Tick() {
			window.SetShouldClose(true)
		}
	}
}

type editorGameInstance struct {
	app           *engine.App
	pickRequested bool
}

func (g *editorGameInstance) OnInit(app *engine.App) error { return nil }
func (g *editorGameInstance) OnSceneLoaded(name string)    {}
func (g *editorGameInstance) OnTick(dt float32)            {}
func (g *editorGameInstance) OnEnd()                       {}

// onPickResult is the RayCastGPU completion: on a hit it marks the
// instance selected; nothing is drawn around it.
func (g *editorGameInstance) onPickResult(hit accel.Hit, ok bool) {
	if !ok || g.app == nil || g.app.Scene == nil {
		return
	}
	g.app.Scene.SetSelectedId(hit.InstanceID)
}
