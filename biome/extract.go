package biome

import (
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/nbt"
)

// FromChunk dispatches on the chunk schema. A top-level sections list with biome
// palettes is the 1.18+ format; Level.Biomes is the older flat array. Anything else
// yields nil, which callers treat as "no biome data".
func FromChunk(root nbt.Compound, heights *heightmap.Grid) Grid {
	if list, ok := root.List("sections"); ok {
		if g := Surface(Sections(list), heights); g != nil {
			return g
		}
	}

	level, _ := root.Compound("Level")
	if ids, ok := level.IntArray("Biomes"); ok {
		return Legacy(ids, heights)
	}
	if raw, ok := level.ByteArray("Biomes"); ok {
		ids := make([]int32, len(raw))
		for i, b := range raw {
			ids[i] = int32(b)
		}
		return Legacy(ids, heights)
	}
	return nil
}

// Sections converts a decoded sections list into biome sections, skipping entries that
// carry no biome palette.
func Sections(list *nbt.List) []Section {
	var out []Section
	for _, item := range list.Items {
		sec, ok := item.(nbt.Compound)
		if !ok {
			continue
		}
		y, ok := sec.Number("Y")
		if !ok {
			continue
		}
		biomes, ok := sec.Compound("biomes")
		if !ok {
			continue
		}
		palette, ok := biomes.List("palette")
		if !ok {
			continue
		}
		s := Section{Y: int(int8(y))}
		for _, p := range palette.Items {
			if name, ok := p.(nbt.String); ok {
				s.Palette = append(s.Palette, string(name))
			}
		}
		if len(s.Palette) == 0 {
			continue
		}
		if data, ok := biomes.LongArray("data"); ok {
			s.Data = data.Words()
		}
		out = append(out, s)
	}
	return out
}
