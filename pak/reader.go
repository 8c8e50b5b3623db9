package pak

import (
	"bufio"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
	"os"
)

// Reader mounts one pak file and serves LoadFile against its index.
type Reader struct {
	path    string
	entries map[string]entry
}

// Open reads a pak file's header and index table (not its compressed
// bodies, which are seeked to lazily on LoadFile).
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, ErrTruncated
	}
	if string(magic) != Magic {
		return nil, ErrBadMagic
	}

	count, err := readU32(r)
	if err != nil {
		return nil, ErrTruncated
	}

	names := make([]string, count)
	for i := range names {
		name, err := readCString(r)
		if err != nil {
			return nil, ErrTruncated
		}
		names[i] = name
	}

	entries := make(map[string]entry, count)
	for i := uint32(0); i < count; i++ {
		offset, err := readU32(r)
		if err != nil {
			return nil, ErrTruncated
		}
		compSize, err := readU32(r)
		if err != nil {
			return nil, ErrTruncated
		}
		rawSize, err := readU32(r)
		if err != nil {
			return nil, ErrTruncated
		}
		entries[names[i]] = entry{
			name:             names[i],
			offset:           offset,
			compressedSize:   compSize,
			uncompressedSize: rawSize,
		}
	}

	return &Reader{path: path, entries: entries}, nil
}

// Has reports whether logicalPath is present in the mounted pak.
func (r *Reader) Has(logicalPath string) bool {
	_, ok := r.entries[logicalPath]
	return ok
}

// LoadFile seeks to the entry's offset, reads its compressed bytes and
// inflates them to the recorded uncompressed size.
func (r *Reader) LoadFile(logicalPath string) ([]byte, error) {
	e, ok := r.entries[logicalPath]
	if !ok {
		return nil, ErrNotFound
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(e.offset), io.SeekStart); err != nil {
		return nil, err
	}
	compressed := make([]byte, e.compressedSize)
	if _, err := io.ReadFull(f, compressed); err != nil {
		return nil, ErrTruncated
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	out := make([]byte, e.uncompressedSize)
	if _, err := io.ReadFull(fr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entries lists every logical path the pak carries.
func (r *Reader) Entries() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readCString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}
