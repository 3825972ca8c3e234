// Package biome resolves the surface biome of every column of a chunk.
package biome

import (
	"math/bits"
	"sort"

	"github.com/rhythmatician/lodiffusion/heightmap"
)

// Cells is the length of every surface grid.
const Cells = heightmap.Cells

// Grid holds one namespaced biome id per column, indexed z*16+x. A nil Grid means the
// chunk carried no biome data this package understands.
type Grid []string

// At returns the biome of column (x, z).
func (g Grid) At(x, z int) string { return g[z<<4|x] }

const sectionCells = 4 * 4 * 4

// Section is the biome storage of one 16-block tall slice: 4x4x4 cells indexing Palette
// through Data, packed without crossing word boundaries.
type Section struct {
	Y       int
	Palette []string
	Data    []uint64
}

// cell returns the palette entry of cell index i. Out of range indexes and truncated data
// resolve to the first palette entry.
func (s *Section) cell(i int) string {
	n := len(s.Palette)
	if n == 1 || len(s.Data) == 0 {
		return s.Palette[0]
	}
	b := s.bitsPerEntry()
	perWord := 64 / b
	word := i / perWord
	if word >= len(s.Data) {
		return s.Palette[0]
	}
	idx := int(s.Data[word] >> (uint(i%perWord) * uint(b)) & (1<<uint(b) - 1))
	if idx >= n {
		return s.Palette[0]
	}
	return s.Palette[idx]
}

// bitsPerEntry is ceil(log2(palette size)) with a floor of one. When the stored data
// length disagrees, the width is recovered from the data length instead.
func (s *Section) bitsPerEntry() int {
	b := bits.Len(uint(len(s.Palette) - 1))
	if b < 1 {
		b = 1
	}
	if wordsFor(b) == len(s.Data) {
		return b
	}
	for w := 1; w <= 32; w++ {
		if wordsFor(w) == len(s.Data) {
			return w
		}
	}
	return b
}

func wordsFor(b int) int {
	perWord := 64 / b
	return (sectionCells + perWord - 1) / perWord
}

// Surface picks one biome per column from 1.18+ per-section palettes.
//
// The lowest section carrying a biome palette is the world floor, minY. A column of
// height h has its surface block at minY+h-1, clamped into the range the biome sections
// cover, and the 4x4x4 cell containing that block is read. If the exact section is absent
// the nearest lower section's top layer is used, else the nearest higher section's bottom
// layer. Without heights every column reads the top layer of the highest section.
func Surface(sections []Section, heights *heightmap.Grid) Grid {
	var usable []Section
	for _, s := range sections {
		if len(s.Palette) > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].Y < usable[j].Y })

	minY := usable[0].Y * 16
	maxY := usable[len(usable)-1].Y*16 + 15

	g := make(Grid, Cells)
	for i := range g {
		x, z := i&15, i>>4
		y := maxY
		if heights != nil {
			y = clamp(minY+heights[i]-1, minY, maxY)
		}
		s, ly := sectionFor(usable, y)
		g[i] = s.cell((ly>>2)<<4 | (z>>2)<<2 | x>>2)
	}
	return g
}

// sectionFor finds the section holding block y and the block's height within it.
func sectionFor(sorted []Section, y int) (*Section, int) {
	target := y >> 4
	var lower, higher *Section
	for i := range sorted {
		s := &sorted[i]
		switch {
		case s.Y == target:
			return s, y - s.Y*16
		case s.Y < target:
			lower = s
		case higher == nil:
			higher = s
		}
	}
	if lower != nil {
		return lower, 15
	}
	return higher, 0
}
