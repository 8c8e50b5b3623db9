package pak

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Writer accumulates files in memory and emits a GNP pak file. Entries are
// written in sorted-name order so a pak's byte layout is deterministic.
type Writer struct {
	files map[string][]byte
}

func NewWriter() *Writer {
	return &Writer{files: make(map[string][]byte)}
}

// AddFile stages a logical path's contents for packing. A later call with
// the same path overwrites the earlier one.
func (w *Writer) AddFile(logicalPath string, data []byte) {
	w.files[logicalPath] = data
}

// AddDir walks srcDir on the OS filesystem and stages every regular file
// under it, using its path relative to srcDir as the logical path (with
// OS path separators normalized to '/').
func (w *Writer) AddDir(srcDir string) error {
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w.AddFile(filepath.ToSlash(rel), data)
		return nil
	})
}

// WriteTo serializes the staged files to w in GNP format: magic, entry
// count, NUL-terminated names, then (offset, compressed size,
// uncompressed size) triples, then the concatenated flate-compressed
// blobs in the same order as the name table.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var nameTable bytes.Buffer
	for _, name := range names {
		nameTable.WriteString(name)
		nameTable.WriteByte(0)
	}

	headerSize := len(Magic) + 4 + nameTable.Len()
	tableSize := len(names) * 4 * 3
	firstOffset := uint32(headerSize + tableSize)

	entries := make([]entry, len(names))
	blobs := make([][]byte, len(names))
	offset := firstOffset
	for i, name := range names {
		raw := w.files[name]
		compressed, err := deflate(raw)
		if err != nil {
			return 0, err
		}
		entries[i] = entry{
			name:             name,
			offset:           offset,
			compressedSize:   uint32(len(compressed)),
			uncompressedSize: uint32(len(raw)),
		}
		blobs[i] = compressed
		offset += uint32(len(compressed))
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeU32(&buf, uint32(len(names)))
	buf.Write(nameTable.Bytes())
	for _, e := range entries {
		writeU32(&buf, e.offset)
		writeU32(&buf, e.compressedSize)
		writeU32(&buf, e.uncompressedSize)
	}
	for _, blob := range blobs {
		buf.Write(blob)
	}

	n, err := dst.Write(buf.Bytes())
	return int64(n), err
}

// Save writes the pak to a file on the OS filesystem.
func (w *Writer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = w.WriteTo(f)
	return err
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
