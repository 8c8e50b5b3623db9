package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/accel"
	"github.com/gknext/render-go/probe"
	"github.com/gknext/render-go/scene"
	"github.com/gknext/render-go/task"
)

// Status is the façade's coarse lifecycle state.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusLoading
	StatusClosing
)

// GameInstance is the game-specific collaborator the façade drives
// through its lifecycle hooks.
type GameInstance interface {
	OnInit(app *App) error
	OnSceneLoaded(sceneName string)
	OnTick(dt float32)
	OnEnd()
}

// TickedTask runs once per Tick with the frame's delta time and is
// dropped once it returns true.
type TickedTask func(dt float32) (done bool)

type timedTask struct {
	fn     func() (done bool)
	period float32
	next   float32
}

// App is the renderer façade: it owns the scene, the CPU acceleration
// structure, the probe-bake system, the task coordinator, and the
// back-end registry, and drives the per-frame pipeline described in the
// lifecycle contract (Start/Tick/End).
type App struct {
	Logger      Logger
	Coordinator *task.Coordinator
	Backends    *BackendRegistry
	Caps        Capabilities

	Scene     *scene.Scene
	Structure *accel.Structure
	Probes    *probe.System
	Uploader  scene.Uploader

	Game GameInstance

	status            Status
	closeRequested    bool
	totalFrameCounter uint32
	lastTick          time.Time
	smoothedDelta     float32

	tickedTasks []TickedTask
	timedTasks  []*timedTask

	loadGeneration uint32
	capture        *pendingCapture

	extent             Extent
	lastViewProjection mgl32.Mat4
	auxSink            AuxSink
}

// NewApp wires a façade against a worker pool of numWorkers, a back-end
// registry, and a logger; Start still has to run before Tick is called.
func NewApp(logger Logger, numWorkers int, backends *BackendRegistry, caps Capabilities) *App {
	return &App{
		Logger:      logger,
		Coordinator: task.New(numWorkers),
		Backends:    backends,
		Caps:        caps,
	}
}

// Start runs lifecycle phase 1: it instantiates the scene and
// acceleration structures, calls every registered back-end's
// device-set hook (device/swap-chain/instance creation itself is a
// concrete collaborator this package does not own), then the game
// instance's init hook.
func (a *App) Start(game GameInstance, extent Extent) error {
	a.Game = game
	a.extent = extent
	a.status = StatusNotStarted

	a.Scene = scene.NewScene("default")
	a.Structure = &accel.Structure{}
	a.Probes = probe.NewSystem(a.Structure)

	if a.Coordinator != nil {
		a.Coordinator.OnWorkerPanic(func(taskID uint32, recovered any) {
			if a.Logger != nil {
				a.Logger.Errorf("worker task %d panicked: %v", taskID, recovered)
			}
		})
	}

	if a.Backends != nil {
		for _, b := range a.Backends.backends {
			if err := b.OnDeviceSet(); err != nil {
				return err
			}
		}
	}

	a.status = StatusRunning
	a.lastTick = time.Now()

	if game != nil {
		if err := game.OnInit(a); err != nil {
			return err
		}
	}
	return nil
}

// Tick runs lifecycle phase 2 once per frame and returns whether the
// caller requested the app close.
func (a *App) Tick() bool {
	now := time.Now()
	raw := float32(now.Sub(a.lastTick).Seconds())
	a.lastTick = now

	const emaAlpha = 0.1
	if a.smoothedDelta == 0 {
		a.smoothedDelta = raw
	} else {
		a.smoothedDelta = a.smoothedDelta*(1-emaAlpha) + raw*emaAlpha
	}
	dt := a.smoothedDelta

	if a.Coordinator != nil {
		a.Coordinator.Tick()
	}
	a.runDeferredTasks(dt)

	if a.status == StatusRunning {
		a.Scene.Tick(dt)
		if a.Scene.UpdateNodes() {
			a.Structure.UpdateBVH(a.Scene)
		}
		if a.Game != nil {
			a.Game.OnTick(dt)
		}
	}

	if backend := a.Backends.Active(); backend != nil {
		if err := backend.Render(a.totalFrameCounter); err != nil && a.Logger != nil {
			a.Logger.Errorf("render failed: %v", err)
		}
		backend.BeforeNextFrame()
	}

	a.totalFrameCounter++
	return a.closeRequested
}

// End runs lifecycle phase 3: game instance, then back-end teardown.
// Phase 4 (instance/device/window teardown) is the concrete collaborator
// Start's device-set hook came from and is out of this package's scope.
func (a *App) End() {
	a.status = StatusClosing
	if a.Game != nil {
		a.Game.OnEnd()
	}
	if backend := a.Backends.Active(); backend != nil {
		backend.DeleteSwapChain()
	}
	if a.Coordinator != nil {
		a.Coordinator.Shutdown()
	}
}

// RequestClose marks the app to stop at the next Tick.
func (a *App) RequestClose() { a.closeRequested = true }

func (a *App) AddTickedTask(fn TickedTask) {
	a.tickedTasks = append(a.tickedTasks, fn)
}

func (a *App) AddTimedTask(fn func() (done bool), period float32) {
	a.timedTasks = append(a.timedTasks, &timedTask{fn: fn, period: period, next: period})
}

func (a *App) runDeferredTasks(dt float32) {
	live := a.tickedTasks[:0]
	for _, fn := range a.tickedTasks {
		if !fn(dt) {
			live = append(live, fn)
		}
	}
	a.tickedTasks = live

	liveTimed := a.timedTasks[:0]
	for _, t := range a.timedTasks {
		t.next -= dt
		if t.next > 0 {
			liveTimed = append(liveTimed, t)
			continue
		}
		if !t.fn() {
			t.next += t.period
			liveTimed = append(liveTimed, t)
		}
	}
	a.timedTasks = liveTimed
}

// loadResult is what the background parse task hands its completion.
type loadResult struct {
	parsed *parsedScene
	err    error
}

// RequestLoadScene starts an asynchronous scene reload. Calling it again
// before the previous load finishes cancels the previous request's
// undispatched parse task; a generation counter checked in the
// completion handler guarantees exactly one OnSceneLoaded fires even if
// the superseded parse had already been dispatched to a worker.
func (a *App) RequestLoadScene(path string) {
	if a.Coordinator != nil {
		a.Coordinator.CancelAllParralledTasks()
	}
	if a.status == StatusLoading {
		// A cancelled parse never runs its completion, which is what
		// would have returned status to Running.
		a.status = StatusRunning
	}
	a.loadGeneration++
	gen := a.loadGeneration

	a.AddTickedTask(func(dt float32) bool {
		if a.status != StatusRunning {
			return false
		}
		a.status = StatusLoading
		result := new(loadResult)
		a.Coordinator.AddTask(func(t *task.Task) {
			result.parsed, result.err = parseSceneFile(path)
		}, func(t *task.Task) {
			a.onSceneParsed(gen, *result)
		}, 1)
		return true
	})
}

func (a *App) onSceneParsed(gen uint32, result loadResult) {
	if gen != a.loadGeneration {
		// Superseded by a later RequestLoadScene. Nothing else about this
		// result is applied, but status must still return to Running or
		// the newer request's ticked task (gated on StatusRunning) can
		// never start its own parse.
		a.status = StatusRunning
		return
	}
	if result.err != nil {
		if a.Logger != nil {
			a.Logger.Errorf("scene load failed: %v", result.err)
		}
		a.status = StatusRunning
		return
	}

	if a.Coordinator != nil {
		a.Coordinator.WaitForAllParralledTask()
	}

	backend := a.Backends.Active()
	if backend != nil {
		backend.DeleteSwapChain()
	}

	p := result.parsed
	a.Scene.Reload(p.nodes, p.models, p.materials, p.lights, nil)
	a.Scene.Environment = p.env
	a.Structure.InitBVH(a.Scene)

	if a.Uploader != nil {
		if err := a.Scene.RebuildMeshBuffer(a.Uploader, a.Caps.HardwareRayTracing); err != nil && a.Logger != nil {
			a.Logger.Errorf("rebuild mesh buffer failed: %v", err)
		}
	}

	if backend != nil {
		if err := backend.CreateSwapChain(a.extent); err != nil && a.Logger != nil {
			a.Logger.Errorf("recreate swap chain failed: %v", err)
		}
	}

	a.status = StatusRunning
	if a.Game != nil {
		a.Game.OnSceneLoaded(p.name)
	}
}

// GPURayTracer is implemented by back-ends with hardware ray-tracing
// support; RayCastGPU forwards to it when available.
type GPURayTracer interface {
	RayCastGPU(origin, dir mgl32.Vec3, callback func(accel.Hit, bool))
}

// RayCastGPU forwards to the active back-end when it supports hardware
// ray tracing; otherwise it is a no-op placeholder (a CPU fallback via
// Structure.TracingFunction is a design extension point, not wired here).
func (a *App) RayCastGPU(origin, dir mgl32.Vec3, callback func(accel.Hit, bool)) {
	if rt, ok := a.Backends.Active().(GPURayTracer); ok {
		rt.RayCastGPU(origin, dir, callback)
	}
}

// AuxKind is the primitive shape DrawAux* hands to the UI.
type AuxKind int

const (
	AuxLine AuxKind = iota
	AuxBox
	AuxPoint
)

// AuxPrimitive is a 2-D primitive already projected through the last
// frame's view-projection, ready for the UI to draw in screen space.
type AuxPrimitive struct {
	Kind   AuxKind
	Points []mgl32.Vec2
	Color  mgl32.Vec4
}

// AuxSink receives projected aux-draw primitives; the UI implements it.
type AuxSink interface {
	DrawAux(p AuxPrimitive)
}

// SetAuxSink installs the UI collaborator DrawAuxLine/Box/Point hand
// their output to.
func (a *App) SetAuxSink(sink AuxSink) { a.auxSink = sink }

func (a *App) DrawAuxLine(from, to mgl32.Vec3, color mgl32.Vec4) {
	a.emitAux(AuxPrimitive{Kind: AuxLine, Points: []mgl32.Vec2{a.projectToScreen(from), a.projectToScreen(to)}, Color: color})
}

// DrawAuxBox projects an AABB's 8 corners; the UI is responsible for
// connecting them into edges.
func (a *App) DrawAuxBox(min, max mgl32.Vec3, color mgl32.Vec4) {
	corners := [8]mgl32.Vec3{
		{min.X(), min.Y(), min.Z()}, {max.X(), min.Y(), min.Z()},
		{min.X(), max.Y(), min.Z()}, {max.X(), max.Y(), min.Z()},
		{min.X(), min.Y(), max.Z()}, {max.X(), min.Y(), max.Z()},
		{min.X(), max.Y(), max.Z()}, {max.X(), max.Y(), max.Z()},
	}
	points := make([]mgl32.Vec2, len(corners))
	for i, c := range corners {
		points[i] = a.projectToScreen(c)
	}
	a.emitAux(AuxPrimitive{Kind: AuxBox, Points: points, Color: color})
}

// DrawAuxPoint projects a world point; if ticks > 0 it installs itself as
// a ticked task and keeps re-emitting, decrementing once per frame, until
// it reaches zero.
func (a *App) DrawAuxPoint(p mgl32.Vec3, color mgl32.Vec4, ticks int) {
	emit := func() { a.emitAux(AuxPrimitive{Kind: AuxPoint, Points: []mgl32.Vec2{a.projectToScreen(p)}, Color: color}) }
	emit()
	if ticks <= 0 {
		return
	}
	remaining := ticks
	a.AddTickedTask(func(dt float32) bool {
		remaining--
		if remaining > 0 {
			emit()
		}
		return remaining <= 0
	})
}

func (a *App) emitAux(p AuxPrimitive) {
	if a.auxSink != nil {
		a.auxSink.DrawAux(p)
	}
}

func (a *App) projectToScreen(p mgl32.Vec3) mgl32.Vec2 {
	clip := a.lastViewProjection.Mul4x1(mgl32.Vec4{p.X(), p.Y(), p.Z(), 1})
	if clip.W() == 0 {
		return mgl32.Vec2{}
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	return mgl32.Vec2{
		(ndcX*0.5 + 0.5) * float32(a.extent.Width),
		(1 - (ndcY*0.5 + 0.5)) * float32(a.extent.Height),
	}
}

// NoteViewProjection lets the per-frame uniform composition stage tell
// the façade which matrix DrawAux* should project through this frame.
func (a *App) NoteViewProjection(vp mgl32.Mat4) { a.lastViewProjection = vp }
