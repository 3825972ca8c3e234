package extract

import (
	"bytes"
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/heightmap"
	tree "github.com/rhythmatician/lodiffusion/nbt"
)

// chunkColumn is the 1.18+ chunk layout as go-mc's struct decoder sees it. Only the
// fields heightmap and biome extraction need are declared; everything else is skipped.
type chunkColumn struct {
	DataVersion int32
	XPos        int32 `nbt:"xPos"`
	ZPos        int32 `nbt:"zPos"`

	Heightmaps columnHeightmaps

	Sections []columnSection `nbt:"sections"`
}

type columnHeightmaps struct {
	MotionBlocking         []uint64 `nbt:"MOTION_BLOCKING"`
	MotionBlockingNoLeaves []uint64 `nbt:"MOTION_BLOCKING_NO_LEAVES"`
	WorldSurface           []uint64 `nbt:"WORLD_SURFACE"`
	OceanFloor             []uint64 `nbt:"OCEAN_FLOOR"`
}

func (h *columnHeightmaps) words(key string) []uint64 {
	switch key {
	case "MOTION_BLOCKING":
		return h.MotionBlocking
	case "MOTION_BLOCKING_NO_LEAVES":
		return h.MotionBlockingNoLeaves
	case "WORLD_SURFACE":
		return h.WorldSurface
	case "OCEAN_FLOOR":
		return h.OceanFloor
	}
	return nil
}

type columnSection struct {
	Y      int8
	Biomes struct {
		Palette []string `nbt:"palette"`
		Data    []uint64 `nbt:"data"`
	} `nbt:"biomes"`
}

// decodePrimary decodes a modern chunk through go-mc. It returns errSchemaMismatch when
// the data does not fit chunkColumn, the chunk has no sections, or the preferred
// heightmap is missing; the caller then switches to the fallback reader.
//
// go-mc sizes slices straight from the length fields it reads, so the data is first
// walked by the bounds-checked decoder and malformed input never reaches go-mc.
func decodePrimary(data []byte, keys []string) (c *Chunk, err error) {
	if _, _, err := tree.Decode(data); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("%w: go-mc: %v", errSchemaMismatch, r)
		}
	}()

	var column chunkColumn
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&column); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchemaMismatch, err)
	}
	if len(column.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", errSchemaMismatch)
	}
	if len(keys) == 0 {
		keys = heightmap.DefaultKeys
	}
	words := column.Heightmaps.words(keys[0])
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no %s heightmap", errSchemaMismatch, keys[0])
	}

	heights := heightmap.Unpack(words)
	sections := make([]biome.Section, 0, len(column.Sections))
	for _, s := range column.Sections {
		sections = append(sections, biome.Section{
			Y:       int(s.Y),
			Palette: s.Biomes.Palette,
			Data:    s.Biomes.Data,
		})
	}
	return &Chunk{
		Heightmap: &heights,
		Biomes:    biome.Surface(sections, &heights),
		Source:    SourcePrimary,
	}, nil
}
