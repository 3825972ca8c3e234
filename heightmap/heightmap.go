// Package heightmap decodes the per-column height grids stored in chunk NBT.
package heightmap

const (
	// Cells is the number of columns in a chunk.
	Cells = 256
	// SeaLevel stands in for any column whose packed value is missing.
	SeaLevel = 64
	// MaxHeight is the largest value a grid holds.
	MaxHeight = 512

	bits          = 9
	mask          = 1<<bits - 1
	valuesPerWord = 64 / bits
	compactWords  = (Cells + valuesPerWord - 1) / valuesPerWord
	spanningWords = Cells * bits / 64
)

// Grid holds one height per column, indexed z*16+x.
type Grid [Cells]int

// At returns the height of column (x, z), both in [0,16).
func (g *Grid) At(x, z int) int { return g[z<<4|x] }

func (g *Grid) Set(x, z, v int) { g[z<<4|x] = Clamp(v) }

// Rows returns the grid as 16 rows of 16 values, z major.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, 16)
	for z := range rows {
		rows[z] = append([]int(nil), g[z*16:z*16+16]...)
	}
	return rows
}

func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxHeight {
		return MaxHeight
	}
	return v
}

// Unpack decodes 256 nine-bit values from packed words.
//
// Since 1.16 values never straddle a word: seven fit per word and the top bit is padding,
// giving 37 words. Versions 1.13 to 1.15 packed the bits densely into exactly 36 words
// with values crossing word boundaries. Any other length is read as the compact layout,
// and values whose word is missing fall back to SeaLevel.
func Unpack(words []uint64) Grid {
	if len(words) == spanningWords {
		return unpackSpanning(words)
	}
	return unpackCompact(words)
}

func unpackCompact(words []uint64) (g Grid) {
	for i := range g {
		wordIndex := i / valuesPerWord
		if wordIndex >= len(words) {
			g[i] = SeaLevel
			continue
		}
		bitOffset := uint(i%valuesPerWord) * bits
		g[i] = Clamp(int(words[wordIndex] >> bitOffset & mask))
	}
	return g
}

func unpackSpanning(words []uint64) (g Grid) {
	for i := range g {
		bitIndex := i * bits
		wordIndex := bitIndex / 64
		bitOffset := uint(bitIndex % 64)
		v := words[wordIndex] >> bitOffset
		if bitOffset+bits > 64 {
			v |= words[wordIndex+1] << (64 - bitOffset)
		}
		g[i] = Clamp(int(v & mask))
	}
	return g
}

// Pack encodes g in the compact layout. Values are truncated to nine bits.
func Pack(g Grid) []uint64 {
	words := make([]uint64, compactWords)
	for i, v := range g {
		bitOffset := uint(i%valuesPerWord) * bits
		words[i/valuesPerWord] |= uint64(v&mask) << bitOffset
	}
	return words
}

// PackSpanning encodes g in the dense pre-1.16 layout.
func PackSpanning(g Grid) []uint64 {
	words := make([]uint64, spanningWords)
	for i, v := range g {
		bitIndex := i * bits
		wordIndex := bitIndex / 64
		bitOffset := uint(bitIndex % 64)
		words[wordIndex] |= uint64(v&mask) << bitOffset
		if bitOffset+bits > 64 {
			words[wordIndex+1] |= uint64(v&mask) >> (64 - bitOffset)
		}
	}
	return words
}

// FromValues builds a grid from unpacked heights such as the pre-1.13 HeightMap int
// array. Missing trailing columns read as SeaLevel.
func FromValues(values []int32) (g Grid) {
	for i := range g {
		if i < len(values) {
			g[i] = Clamp(int(values[i]))
		} else {
			g[i] = SeaLevel
		}
	}
	return g
}
