package heightmap

import "github.com/rhythmatician/lodiffusion/nbt"

// DefaultKeys is the order heightmap types are tried in.
var DefaultKeys = []string{"MOTION_BLOCKING", "MOTION_BLOCKING_NO_LEAVES", "WORLD_SURFACE", "OCEAN_FLOOR"}

// FromChunk finds the heightmap of a decoded chunk root. It looks at the top-level
// Heightmaps compound (1.18+), then Level.Heightmaps (1.13–1.17), then the pre-1.13
// Level.HeightMap int array. The first present key of keys wins; DefaultKeys is used
// when keys is empty. A chunk with no heightmap yields nil.
func FromChunk(root nbt.Compound, keys ...string) *Grid {
	if len(keys) == 0 {
		keys = DefaultKeys
	}
	level, _ := root.Compound("Level")

	for _, parent := range []nbt.Compound{root, level} {
		heightmaps, ok := parent.Compound("Heightmaps")
		if !ok {
			continue
		}
		for _, key := range keys {
			if words, ok := heightmaps.LongArray(key); ok {
				g := Unpack(words.Words())
				return &g
			}
		}
	}

	if values, ok := level.IntArray("HeightMap"); ok {
		g := FromValues(values)
		return &g
	}
	return nil
}
