// Package export stores the heightmaps and surface biomes of one region in a compact
// binary file.
//
// Layout, all integers big-endian:
//
//	uint16  magic 0x4C44
//	uint8   version
//	int32   region X, region Z
//	[16]byte run id
//	[16]uint64 populated mask, bit z*32+x set for every stored chunk
//	uint32  compressed body size, uint32 uncompressed body size
//	zstd body:
//	  uint16 palette size, then per name uint16 length + bytes
//	  per populated chunk in slot order: 256 uint16 heights, 256 uint16 palette indexes
//
// A missing heightmap or biome is stored as 0xFFFF in every cell.
package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/willf/bitset"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/extract"
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/region"
)

const (
	Magic   = 0x4C44
	Version = 1

	Slots  = 1024
	absent = 0xFFFF

	maskWords = Slots / 64
)

var (
	ErrBadMagic   = errors.New("export: not a grid file")
	ErrVersion    = errors.New("export: unsupported version")
	ErrCorrupt    = errors.New("export: corrupt grid file")
	ErrTooManyIDs = errors.New("export: biome palette overflow")
)

type header struct {
	Magic   uint16
	Version uint8
	X       int32
	Z       int32
	RunID   uuid.UUID
	Mask    [maskWords]uint64
}

// Writer encodes grid files. RunID tags every file written in one run.
type Writer struct {
	RunID  uuid.UUID
	Logger *zap.Logger
}

// Write stores chunks, indexed by slot z*32+x, as the grid file of region coord. Nil
// entries and slots past the end of chunks are left out.
func Write(w io.Writer, coord region.Coord, chunks []*extract.Chunk) error {
	return (&Writer{RunID: uuid.New()}).Write(w, coord, chunks)
}

func (gw *Writer) Write(w io.Writer, coord region.Coord, chunks []*extract.Chunk) error {
	if len(chunks) > Slots {
		return fmt.Errorf("export: %d chunks do not fit one region", len(chunks))
	}
	logger := gw.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	used := bitset.New(Slots)
	for i, c := range chunks {
		if c != nil {
			used.Set(uint(i))
		}
	}

	h := header{Magic: Magic, Version: Version, X: int32(coord.X), Z: int32(coord.Z), RunID: gw.RunID}
	copy(h.Mask[:], used.Bytes())
	if err := binary.Write(w, binary.BigEndian, h); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := writeBody(&body, chunks); err != nil {
		return err
	}
	uncompressed := body.Len()
	n, err := writeZstdCompressed(w, &body)
	if err != nil {
		return err
	}
	logger.Debug("Grid file written",
		zap.Int("x", coord.X), zap.Int("z", coord.Z),
		zap.Uint("chunks", used.Count()),
		zap.Int("compressed", n), zap.Int("uncompressed", uncompressed))
	return nil
}

func writeBody(out *bytes.Buffer, chunks []*extract.Chunk) error {
	names := make(map[string]struct{})
	for _, c := range chunks {
		if c == nil {
			continue
		}
		for _, name := range c.Biomes {
			names[name] = struct{}{}
		}
	}
	palette := maps.Keys(names)
	slices.Sort(palette)
	if len(palette) >= absent {
		return ErrTooManyIDs
	}
	index := make(map[string]uint16, len(palette))
	for i, name := range palette {
		index[name] = uint16(i)
	}

	_ = binary.Write(out, binary.BigEndian, uint16(len(palette)))
	for _, name := range palette {
		_ = binary.Write(out, binary.BigEndian, uint16(len(name)))
		out.WriteString(name)
	}

	var cells [heightmap.Cells]uint16
	for _, c := range chunks {
		if c == nil {
			continue
		}
		for i := range cells {
			cells[i] = absent
			if c.Heightmap != nil {
				cells[i] = uint16(c.Heightmap[i])
			}
		}
		_ = binary.Write(out, binary.BigEndian, cells)

		for i := range cells {
			cells[i] = absent
			if len(c.Biomes) == biome.Cells {
				cells[i] = index[c.Biomes[i]]
			}
		}
		_ = binary.Write(out, binary.BigEndian, cells)
	}
	return nil
}

// writeZstdCompressed writes the compressed and uncompressed sizes followed by the zstd
// stream, returning the compressed size.
func writeZstdCompressed(w io.Writer, buf *bytes.Buffer) (int, error) {
	uncompressed := buf.Len()

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return 0, err
	}
	if _, err = buf.WriteTo(zw); err != nil {
		return 0, err
	}
	if err = zw.Close(); err != nil {
		return 0, err
	}

	sizes := [2]uint32{uint32(compressed.Len()), uint32(uncompressed)}
	if err = binary.Write(w, binary.BigEndian, sizes); err != nil {
		return 0, err
	}
	n := compressed.Len()
	_, err = compressed.WriteTo(w)
	return n, err
}
