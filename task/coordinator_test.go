package task

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPriorityZeroNotStarvedByPriorityOne(t *testing.T) {
	c := New(4)
	defer c.Shutdown()

	var lowStarted atomic.Int32
	var highDone atomic.Bool
	var highOrder atomic.Int32 // set to the count of low tasks started when high ran
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(10)
	for i := 0; i < 10; i++ {
		c.AddTask(func(tk *Task) {
			lowStarted.Add(1)
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			wg.Done()
			mu.Unlock()
		}, nil, 1)
	}

	c.AddTask(func(tk *Task) {
		highOrder.Store(lowStarted.Load())
		highDone.Store(true)
	}, nil, 0)

	deadline := time.Now().Add(2 * time.Second)
	for !highDone.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !highDone.Load() {
		t.Fatal("priority-0 task never ran")
	}
	if highOrder.Load() >= 10 {
		t.Errorf("priority-0 task ran only after all priority-1 tasks started (got %d)", highOrder.Load())
	}

	wg.Wait()
}

func TestWaitForAllParralledTask(t *testing.T) {
	c := New(2)
	defer c.Shutdown()

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		c.AddParralledTask(func(tk *Task) {
			ran.Add(1)
		}, nil)
	}

	c.WaitForAllParralledTask()
	if ran.Load() != 20 {
		t.Fatalf("expected 20 tasks to have run, got %d", ran.Load())
	}
	if !c.IsAllTaskComplete(nil) {
		t.Fatal("expected coordinator to report all tasks complete")
	}
}

func TestCancelAllParralledTasksEmptiesQueues(t *testing.T) {
	c := New(1)
	defer c.Shutdown()

	c.mu.Lock()
	c.closing = true // the worker exits if it next polls while the queues are empty; tasks queued before it wakes are still popped
	c.mu.Unlock()

	for i := 0; i < 5; i++ {
		c.AddParralledTask(func(tk *Task) {}, func(tk *Task) {})
	}

	c.CancelAllParralledTasks()

	c.mu.Lock()
	c.closing = false
	c.mu.Unlock()

	if !c.IsAllTaskComplete(nil) {
		t.Fatal("expected pending count to be zero after cancel")
	}
	c.completeMu.Lock()
	n := len(c.completeQ)
	c.completeMu.Unlock()
	if n != 0 {
		t.Fatalf("expected completion queue empty, got %d", n)
	}
}

func TestContextRoundTrip(t *testing.T) {
	type payload struct {
		X, Y int32
		Z    float32
	}
	tk := &Task{}
	PutContext(tk, payload{X: 7, Y: -3, Z: 1.5})
	got := Context[payload](tk)
	if got.X != 7 || got.Y != -3 || got.Z != 1.5 {
		t.Fatalf("context round-trip mismatch: %+v", got)
	}
}

func TestMainThreadTick(t *testing.T) {
	c := &Coordinator{MainThreadOnly: true}
	c.cond = sync.NewCond(&c.mu)

	var ran atomic.Bool
	c.AddTask(func(tk *Task) { ran.Store(true) }, nil, 0)

	c.Tick()
	if !ran.Load() {
		t.Fatal("expected main-thread task to run on Tick")
	}
}

func TestMainThreadTickRunsCompletion(t *testing.T) {
	c := &Coordinator{MainThreadOnly: true}
	c.cond = sync.NewCond(&c.mu)

	var workRan, completeRan atomic.Bool
	c.AddTask(func(tk *Task) { workRan.Store(true) }, func(tk *Task) { completeRan.Store(true) }, 0)

	c.Tick()
	if !workRan.Load() {
		t.Fatal("expected main-thread task's work to run on Tick")
	}
	if !completeRan.Load() {
		t.Fatal("expected main-thread task's completion to run on the same Tick as its work")
	}
}

func TestIsAllTaskCompleteTracksPerBatch(t *testing.T) {
	c := New(2)
	defer c.Shutdown()

	block := make(chan struct{})
	blockedID := c.AddParralledTask(func(tk *Task) { <-block }, nil)

	var otherRan atomic.Bool
	otherID := c.AddParralledTask(func(tk *Task) { otherRan.Store(true) }, nil)

	deadline := time.Now().Add(2 * time.Second)
	for !c.IsAllTaskComplete([]uint32{otherID}) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !otherRan.Load() {
		t.Fatal("unrelated task never ran")
	}
	if !c.IsAllTaskComplete([]uint32{otherID}) {
		t.Fatal("expected the unrelated task's own batch to report complete")
	}
	if c.IsAllTaskComplete([]uint32{blockedID}) {
		t.Fatal("expected the still-blocked task's batch to report incomplete")
	}
	if c.IsAllTaskComplete(nil) {
		t.Fatal("expected global check to report incomplete while the blocked task is outstanding")
	}

	close(block)
	deadline = time.Now().Add(2 * time.Second)
	for !c.IsAllTaskComplete([]uint32{blockedID}) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !c.IsAllTaskComplete([]uint32{blockedID}) {
		t.Fatal("blocked task's batch never reported complete after unblocking")
	}
}
