package extract

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/nbt"
	"github.com/rhythmatician/lodiffusion/region"
)

// FallbackReader extracts fields from chunks the primary decoder rejects. It trusts
// nothing the primary path computed: the location entry is re-read from the file header,
// and the payload is re-read, decompressed and parsed into a generic tag tree.
type FallbackReader struct {
	MaxPayloadSize int
	MaxNBTSize     int
	HeightmapKeys  []string
}

// Read returns nil, nil when the chunk does not exist.
func (f *FallbackReader) Read(h *region.Handle, x, z int) (*Chunk, error) {
	root, err := f.Root(h, x, z)
	if err != nil || root == nil {
		return nil, err
	}
	heights := heightmap.FromChunk(root, f.HeightmapKeys...)
	return &Chunk{
		Heightmap: heights,
		Biomes:    biome.FromChunk(root, heights),
		Source:    SourceFallback,
	}, nil
}

// Root reads and parses the raw NBT tree of local chunk (x, z).
func (f *FallbackReader) Root(h *region.Handle, x, z int) (nbt.Compound, error) {
	if x < 0 || x >= 32 || z < 0 || z >= 32 {
		return nil, nil
	}
	var entry [4]byte
	if _, err := h.ReadAt(entry[:], region.EntryOffset(x, z)); err != nil {
		if errors.Is(err, region.ErrFileUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: location entry: %v", region.ErrCorruptLocationTable, err)
	}
	loc, ok := region.DecodeLocation(binary.BigEndian.Uint32(entry[:]))
	if !ok {
		return nil, nil
	}

	payload, err := region.ReadPayload(h, loc, f.MaxPayloadSize)
	if err != nil {
		return nil, err
	}
	data, err := payload.Decompress(f.MaxNBTSize)
	if err != nil {
		return nil, err
	}
	_, root, err := nbt.Decode(data)
	if err != nil {
		return nil, err
	}
	return root, nil
}
