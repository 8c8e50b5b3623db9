// Command lego is a brick-building game-instance entry point: bricks are
// placed on a grid by raycasting into the scene from the cursor. Full
// dig/place/select tool modes and the brick-palette UI are out of scope
// for this package; this wires the grid-snap placement loop the rest of
// a brick-builder UI would sit on top of.
package main

import (
	"flag"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	engine "github.com/gknext/render-go"
	"github.com/gknext/render-go/accel"
	"github.com/gknext/render-go/scene"
)

func init() {
	runtime.LockOSThread()
}

const brickGridSize = float32(0.25)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1600, 900, "Lego", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	logger := engine.NewDefaultLogger("lego", *debug)
	caps := engine.Capabilities{HardwareRayTracing: false}
	registry := engine.NewBackendRegistry(caps)
	app := engine.NewApp(logger, runtime.NumCPU()-1, registry, caps)

	game := &legoGameInstance{}
	if err := app.Start(game, engine.Extent{Width: 1600, Height: 900}); err != nil {
		panic(err)
	}
	defer app.End()
	game.app = app

	app.RequestLoadScene("0cornellbox.proc")

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft && action == glfw.Press {
			game.placeRequested = true
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if game.placeRequested {
			game.placeRequested = false
			app.RayCastGPU(game.cursorOrigin, game.cursorDir, game.onPlaceHit)
		}
		if app.Tick() {
			window.SetShouldClose(true)
		}
	}
}

type legoGameInstance struct {
	app            *engine.App
	cursorOrigin   mgl32.Vec3
	cursorDir      mgl32.Vec3
	placeRequested bool
	brickCount     uint32
}

func (g *legoGameInstance) OnInit(app *engine.App) error {
	g.cursorDir = mgl32.Vec3{0, -1, 0}
	return nil
}

func (g *legoGameInstance) OnSceneLoaded(name string) { g.brickCount = 0 }
func (g *legoGameInstance) OnTick(dt float32)         {}
func (g *legoGameInstance) OnEnd()                    {}

// onPlaceHit snaps the hit point to the brick grid and adds a new node
// for the placed brick; the brick's visual model is a design-extension
// point this command does not own.
func (g *legoGameInstance) onPlaceHit(hit accel.Hit, ok bool) {
	if !ok || g.app == nil || g.app.Scene == nil {
		return
	}
	g.brickCount++
	h := g.app.Scene.AddNode(g.brickCount)
	node := g.app.Scene.Node(h)
	node.ModelID = scene.NoModel
	node.Name = "brick"
	p := g.cursorOrigin.Add(g.cursorDir.Mul(hit.Dist))
	snap := func(v float32) float32 {
		c := float32(int32(v / brickGridSize))
		if c*brickGridSize > v {
			c--
		}
		return c * brickGridSize
	}
	node.SetTranslation(mgl32.Vec3{snap(p.X()), snap(p.Y()), snap(p.Z())})
	_ = g.app.Scene.RecalcTransform(h, true)
}
