package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/willf/bitset"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/region"
)

// maxBody bounds the decompressed body. 1024 chunks of two grids take 1 MiB; the rest
// is room for the palette.
const maxBody = 64 << 20

// File is a decoded grid file.
type File struct {
	Coord   region.Coord
	RunID   uuid.UUID
	Palette []string
	Chunks  [Slots]*Chunk
}

// Chunk holds the stored grids of one slot. Either field is nil when it was not stored.
type Chunk struct {
	Heightmap *heightmap.Grid
	Biomes    biome.Grid
}

// Chunk returns the slot for local coordinates, or nil.
func (f *File) Chunk(x, z int) *Chunk {
	if x < 0 || x >= 32 || z < 0 || z >= 32 {
		return nil
	}
	return f.Chunks[z*32+x]
}

func (f *File) Len() (n int) {
	for _, c := range f.Chunks {
		if c != nil {
			n++
		}
	}
	return n
}

func Read(r io.Reader) (*File, error) {
	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if h.Magic != Magic {
		return nil, ErrBadMagic
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	body, err := readZstdCompressed(r)
	if err != nil {
		return nil, err
	}

	f := &File{Coord: region.Coord{X: int(h.X), Z: int(h.Z)}, RunID: h.RunID}
	used := bitset.From(h.Mask[:])
	br := bytes.NewReader(body)

	var size uint16
	if err := binary.Read(br, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("%w: palette: %v", ErrCorrupt, err)
	}
	f.Palette = make([]string, size)
	for i := range f.Palette {
		var n uint16
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: palette: %v", ErrCorrupt, err)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(br, name); err != nil {
			return nil, fmt.Errorf("%w: palette: %v", ErrCorrupt, err)
		}
		f.Palette[i] = string(name)
	}

	var cells [heightmap.Cells]uint16
	for i, ok := used.NextSet(0); ok && i < Slots; i, ok = used.NextSet(i + 1) {
		c := &Chunk{}
		if err := binary.Read(br, binary.BigEndian, &cells); err != nil {
			return nil, fmt.Errorf("%w: slot %d heights: %v", ErrCorrupt, i, err)
		}
		if cells[0] != absent {
			var g heightmap.Grid
			for j, v := range cells {
				g[j] = int(v)
			}
			c.Heightmap = &g
		}

		if err := binary.Read(br, binary.BigEndian, &cells); err != nil {
			return nil, fmt.Errorf("%w: slot %d biomes: %v", ErrCorrupt, i, err)
		}
		if cells[0] != absent {
			c.Biomes = make(biome.Grid, biome.Cells)
			for j, v := range cells {
				if int(v) >= len(f.Palette) {
					return nil, fmt.Errorf("%w: slot %d biome index %d", ErrCorrupt, i, v)
				}
				c.Biomes[j] = f.Palette[v]
			}
		}
		f.Chunks[i] = c
	}
	if br.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, br.Len())
	}
	return f, nil
}

func readZstdCompressed(r io.Reader) ([]byte, error) {
	var sizes [2]uint32
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, fmt.Errorf("%w: body sizes: %v", ErrCorrupt, err)
	}
	if sizes[1] > maxBody {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrCorrupt, sizes[1])
	}

	dec, err := zstd.NewReader(io.LimitReader(r, int64(sizes[0])))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer dec.Close()
	body, err := io.ReadAll(io.LimitReader(dec, int64(sizes[1])+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(body) != int(sizes[1]) {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(body), sizes[1])
	}
	return body, nil
}
