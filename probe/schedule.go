package probe

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/accel"
	"github.com/gknext/render-go/scene"
	"github.com/gknext/render-go/task"
)

// groupSize is the side of a 16x16 column group (full Z range) that one
// parallel task processes.
const groupSize = 16

// bakerID selects which of the two grids a group record targets.
type bakerID int

const (
	nearBaker bakerID = iota
	farBaker
)

type groupRecord struct {
	X, Z    int
	Type    ProcType
	Baker   bakerID
}

// System runs the near/far baker pair and the column-group schedule
// AsyncProcessFull lays out, draining it a batch at a time from Tick.
type System struct {
	Near *Baker
	Far  *Baker

	tracer *accel.Structure

	queue       []groupRecord
	lastBatch   []uint32
	needUpload  bool
}

// NewSystem wires a near/far baker pair against the given acceleration
// structure. Grid dimensions and unit sizes match the ambient-probe
// layout: a 48-tall, 192-column near grid at 0.25 units, and a far grid
// of the same dimensions at 1.0 units, covering four times the extent.
func NewSystem(tr *accel.Structure) *System {
	const xy, z = 192, 48
	const nearUnit = 0.25
	const farUnit = 1.0
	offset := func(unit float32) mgl32.Vec3 {
		return mgl32.Vec3{-float32(xy) / 2, -1.375, -float32(xy) / 2}.Mul(unit)
	}
	return &System{
		Near:   NewBaker(xy, z, nearUnit, offset(nearUnit)),
		Far:    NewBaker(xy, z, farUnit, offset(farUnit)),
		tracer: tr,
	}
}

func (s *System) bakerFor(id bakerID) *Baker {
	if id == farBaker {
		return s.Far
	}
	return s.Near
}

// AsyncProcessFull is the only entry point for a full rebake: it cancels
// any outstanding parallel work, clears both grids, and lays out the
// fixed schedule (one far Iterate pass, two shuffled near Iterate passes
// each fenced, then a fenced Copy pass and a fenced Blur pass over the
// near grid).
func (s *System) AsyncProcessFull(coord *task.Coordinator) {
	coord.CancelAllParralledTasks()
	s.queue = nil
	s.lastBatch = nil

	s.Near.ClearAmbientCubes()
	s.Far.ClearAmbientCubes()

	lengthXY := s.Near.XY / groupSize

	for x := 0; x < lengthXY; x++ {
		for z := 0; z < lengthXY; z++ {
			s.queue = append(s.queue, groupRecord{X: x, Z: z, Type: Iterate, Baker: farBaker})
		}
	}

	for pass := 0; pass < 2; pass++ {
		coords := make([][2]int, 0, lengthXY*lengthXY)
		for x := 0; x < lengthXY; x++ {
			for z := 0; z < lengthXY; z++ {
				coords = append(coords, [2]int{x, z})
			}
		}
		rand.Shuffle(len(coords), func(i, j int) { coords[i], coords[j] = coords[j], coords[i] })
		for _, c := range coords {
			s.queue = append(s.queue, groupRecord{X: c[0], Z: c[1], Type: Iterate, Baker: nearBaker})
		}
		s.queue = append(s.queue, groupRecord{Type: Fence, Baker: nearBaker})
	}

	for x := 0; x < lengthXY; x++ {
		for z := 0; z < lengthXY; z++ {
			s.queue = append(s.queue, groupRecord{X: x, Z: z, Type: Copy, Baker: nearBaker})
		}
	}
	s.queue = append(s.queue, groupRecord{Type: Fence, Baker: nearBaker})

	for x := 0; x < lengthXY; x++ {
		for z := 0; z < lengthXY; z++ {
			s.queue = append(s.queue, groupRecord{X: x, Z: z, Type: Blur, Baker: nearBaker})
		}
	}
	s.queue = append(s.queue, groupRecord{Type: Fence, Baker: nearBaker})
}

// Tick drains the schedule: if an upload is pending it is reported via
// the returned needUpload flag (the caller owns actually writing to GPU
// memory); otherwise, while the previous batch hasn't finished it waits,
// and once free it dispatches group records up to (and including) the
// next Fence.
func (s *System) Tick(coord *task.Coordinator, materials []scene.Material, lights []scene.Light, hasSun bool, sunDir mgl32.Vec3, hasSky bool) (needUpload bool) {
	if s.needUpload {
		s.needUpload = false
		return true
	}

	if len(s.lastBatch) > 0 {
		if coord.IsAllTaskComplete(s.lastBatch) {
			s.lastBatch = nil
		}
		return false
	}

	for len(s.queue) > 0 {
		rec := s.queue[0]
		if rec.Type == Fence {
			if !coord.IsAllTaskComplete(s.lastBatch) {
				return false
			}
			s.queue = s.queue[1:]
			continue
		}
		s.dispatchGroup(coord, materials, lights, hasSun, sunDir, hasSky, rec)
		s.queue = s.queue[1:]
	}
	return false
}

func (s *System) dispatchGroup(coord *task.Coordinator, materials []scene.Material, lights []scene.Light, hasSun bool, sunDir mgl32.Vec3, hasSky bool, rec groupRecord) {
	baker := s.bakerFor(rec.Baker)
	actualX := rec.X * groupSize
	actualZ := rec.Z * groupSize

	id := coord.AddParralledTask(
		func(t *task.Task) {
			for z := actualZ; z < actualZ+groupSize; z++ {
				for y := 0; y < baker.Z; y++ {
					for x := actualX; x < actualX+groupSize; x++ {
						baker.ProcessCube(s.tracer, materials, lights, hasSun, sunDir, hasSky, x, y, z, rec.Type)
					}
				}
			}
		},
		func(t *task.Task) {
			s.needUpload = true
		},
	)
	s.lastBatch = append(s.lastBatch, id)
}
