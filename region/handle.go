package region

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/atomic"
)

var ErrFileUnavailable = errors.New("region: file unavailable")

// Handle is an open region file and its parsed location table. Reads go through ReadAt,
// so a handle may be shared by concurrent extractions; it must not be closed while they
// are in flight.
type Handle struct {
	file   *os.File
	path   string
	coord  Coord
	table  LocationTable
	closed atomic.Bool
}

// OpenHandle opens path and reads its location table. The file is closed again if the
// header cannot be read, so a failed open never leaks a descriptor.
func OpenHandle(path string) (h *Handle, err error) {
	coord, err := ParseFileName(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
		}
	}()

	h = &Handle{file: file, path: path, coord: coord}
	if err = h.readLocationTable(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) readLocationTable() error {
	header := make([]byte, SectorSize)
	n, err := h.file.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	h.table, err = ParseLocationTable(header[:n])
	return err
}

func (h *Handle) Path() string { return h.path }

func (h *Handle) Coord() Coord { return h.coord }

// Closed reports whether Close has run.
func (h *Handle) Closed() bool { return h.closed.Load() }

// Lookup consults the location table parsed when the handle was opened.
func (h *Handle) Lookup(x, z int) (Location, bool) {
	return h.table.Lookup(x, z)
}

// Exists reports whether the region holds a chunk at local (x, z).
func (h *Handle) Exists(x, z int) bool {
	return h.table.Exists(x, z)
}

// ReadAt reads raw bytes of the region file.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h.closed.Load() {
		return 0, fmt.Errorf("%w: %s is closed", ErrFileUnavailable, h.path)
	}
	return h.file.ReadAt(p, off)
}

// ReadChunk reads and decompresses the chunk at local (x, z). A chunk that was never
// generated yields nil data and a nil error.
func (h *Handle) ReadChunk(x, z int, maxPayload, maxDecompressed int) ([]byte, error) {
	loc, ok := h.table.Lookup(x, z)
	if !ok {
		return nil, nil
	}
	payload, err := ReadPayload(h, loc, maxPayload)
	if err != nil {
		return nil, err
	}
	return payload.Decompress(maxDecompressed)
}

// Close releases the file. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.file.Close()
}
