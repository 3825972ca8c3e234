package main

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/rhythmatician/lodiffusion/extract"
)

var json = jsoniter.Config{
	EscapeHTML:                    false,
	SortMapKeys:                   true,
	ObjectFieldMustBeSimpleString: true,
	CaseSensitive:                 true,
}.Froze()

// chunkView lays grids out as 16 rows of 16 so the output reads like the chunk from above.
type chunkView struct {
	X         int        `json:"x"`
	Z         int        `json:"z"`
	Source    string     `json:"source"`
	Heightmap [][]int    `json:"heightmap"`
	Biomes    [][]string `json:"biomes"`
}

func newChunkView(c *extract.Chunk) chunkView {
	v := chunkView{X: c.X, Z: c.Z, Source: c.Source.String()}
	if c.Heightmap != nil {
		v.Heightmap = c.Heightmap.Rows()
	}
	if len(c.Biomes) > 0 {
		for z := 0; z < 16; z++ {
			v.Biomes = append(v.Biomes, c.Biomes[z*16:z*16+16])
		}
	}
	return v
}
