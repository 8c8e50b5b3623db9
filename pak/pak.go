// Package pak implements the GNP asset pack format: a flat, indexed,
// per-entry-compressed archive with a virtual filesystem that falls back
// to the OS filesystem for anything not packed.
package pak

import "errors"

// Magic is the 3-byte header every pak file starts with.
const Magic = "GNP"

var (
	ErrBadMagic   = errors.New("pak: not a GNP file")
	ErrNotFound   = errors.New("pak: entry not found")
	ErrTruncated  = errors.New("pak: truncated pak file")
)

// entry is one packed file's index record.
type entry struct {
	name             string
	offset           uint32
	compressedSize   uint32
	uncompressedSize uint32
}
