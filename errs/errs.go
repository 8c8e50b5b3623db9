// Package errs defines the renderer-wide sentinel error taxonomy.
package errs

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("%w: ...", errs.BadReference) at
// the call site to attach the offending reference; test with errors.Is.
var (
	// BadReference is an out-of-range model/material/texture index.
	// Local recovery: skip the referent, log once. Not fatal.
	BadReference = errors.New("bad reference")

	// Capacity is a proxy/draw buffer overflow. Fatal for the current
	// buffer generation — the caller must rebuild at a larger upper bound.
	Capacity = errors.New("capacity exceeded")

	// AssetParse is a scene file failing to load. Local recovery: keep
	// the previous scene, return the engine to Running.
	AssetParse = errors.New("asset parse failed")

	// DeviceLost is a swap-chain or device error. Recreate the swap
	// chain; if failure persists, shut down cleanly.
	DeviceLost = errors.New("device lost")

	// WorkerPanic is a worker task that panicked. Caught at the worker
	// boundary; the task is logged and skipped, the worker continues.
	// Completions of panicked tasks are never delivered.
	WorkerPanic = errors.New("worker panicked")
)
