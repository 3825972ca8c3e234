// Package mcatest builds region files and chunk trees for tests.
package mcatest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/rhythmatician/lodiffusion/nbt"
	"github.com/rhythmatician/lodiffusion/region"
)

type entry struct {
	compression byte
	data        []byte
	declared    int32
}

// Region accumulates chunk payloads and location overrides for one region file.
type Region struct {
	entries   map[int]entry
	locations map[int]uint32
}

func NewRegion() *Region {
	return &Region{entries: make(map[int]entry), locations: make(map[int]uint32)}
}

// Chunk encodes root and stores it at local (x, z) with compression c.
func (r *Region) Chunk(tb testing.TB, x, z int, root nbt.Compound, c region.Compression) *Region {
	tb.Helper()
	var buf bytes.Buffer
	if err := nbt.Encode(&buf, "", root); err != nil {
		tb.Fatalf("encode chunk %d,%d: %v", x, z, err)
	}
	return r.Raw(x, z, byte(c), Compress(tb, c, buf.Bytes()))
}

// Raw stores already-compressed bytes behind an arbitrary compression tag.
func (r *Region) Raw(x, z int, compression byte, data []byte) *Region {
	r.entries[z*32+x] = entry{compression: compression, data: data}
	return r
}

// Declared overrides the length field written for local (x, z).
func (r *Region) Declared(x, z int, length int32) *Region {
	e := r.entries[z*32+x]
	e.declared = length
	r.entries[z*32+x] = e
	return r
}

// Location overrides the raw location table entry for local (x, z).
func (r *Region) Location(x, z int, raw uint32) *Region {
	r.locations[z*32+x] = raw
	return r
}

// Bytes lays out the header tables and sector-aligned payloads.
func (r *Region) Bytes() []byte {
	out := make([]byte, 2*region.SectorSize)
	indexes := make([]int, 0, len(r.entries))
	for i := range r.entries {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		e := r.entries[i]
		length := int32(len(e.data) + 1)
		if e.declared != 0 {
			length = e.declared
		}
		var payload bytes.Buffer
		_ = binary.Write(&payload, binary.BigEndian, length)
		payload.WriteByte(e.compression)
		payload.Write(e.data)

		sectors := (payload.Len() + region.SectorSize - 1) / region.SectorSize
		start := len(out) / region.SectorSize
		padded := make([]byte, sectors*region.SectorSize)
		copy(padded, payload.Bytes())
		out = append(out, padded...)
		binary.BigEndian.PutUint32(out[i*4:], uint32(start)<<8|uint32(sectors))
	}
	for i, raw := range r.locations {
		binary.BigEndian.PutUint32(out[i*4:], raw)
	}
	return out
}

// Write stores the region as dir/r.<x>.<z>.mca and returns the path.
func (r *Region) Write(tb testing.TB, dir string, coord region.Coord) string {
	tb.Helper()
	path := filepath.Join(dir, region.FileName(coord))
	if err := os.WriteFile(path, r.Bytes(), 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}

// Compress applies compression c to data.
func Compress(tb testing.TB, c region.Compression, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	switch c {
	case region.CompressionGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			tb.Fatal(err)
		}
		if err := w.Close(); err != nil {
			tb.Fatal(err)
		}
	case region.CompressionZlib:
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			tb.Fatal(err)
		}
		if err := w.Close(); err != nil {
			tb.Fatal(err)
		}
	default:
		buf.Write(data)
	}
	return buf.Bytes()
}

// Section describes the biome storage of one 16-block tall slice.
type Section struct {
	Y       int8
	Palette []string
	Data    []uint64
}

// Modern builds a 1.18+ chunk root with top-level Heightmaps and sections.
func Modern(x, z int32, motionBlocking []uint64, sections ...Section) nbt.Compound {
	list := &nbt.List{Elem: nbt.TagCompound}
	for _, s := range sections {
		sec := nbt.Compound{
			"Y": nbt.Byte(s.Y),
			"block_states": nbt.Compound{
				"palette": &nbt.List{Elem: nbt.TagCompound, Items: []nbt.Tag{
					nbt.Compound{"Name": nbt.String("minecraft:stone")},
				}},
			},
		}
		if s.Palette != nil {
			palette := &nbt.List{Elem: nbt.TagString}
			for _, name := range s.Palette {
				palette.Items = append(palette.Items, nbt.String(name))
			}
			biomes := nbt.Compound{"palette": palette}
			if s.Data != nil {
				biomes["data"] = Longs(s.Data)
			}
			sec["biomes"] = biomes
		}
		list.Items = append(list.Items, sec)
	}
	if len(list.Items) == 0 {
		list.Elem = nbt.TagEnd
		list.Items = []nbt.Tag{}
	}

	heightmaps := nbt.Compound{}
	if motionBlocking != nil {
		heightmaps["MOTION_BLOCKING"] = Longs(motionBlocking)
	}
	return nbt.Compound{
		"DataVersion": nbt.Int(3465),
		"xPos":        nbt.Int(x),
		"zPos":        nbt.Int(z),
		"yPos":        nbt.Int(-4),
		"Status":      nbt.String("minecraft:full"),
		"Heightmaps":  heightmaps,
		"sections":    list,
	}
}

// Legacy builds a 1.13–1.17 chunk root with everything nested under Level.
func Legacy(x, z int32, motionBlocking []uint64, biomes []int32) nbt.Compound {
	level := nbt.Compound{
		"xPos":     nbt.Int(x),
		"zPos":     nbt.Int(z),
		"Status":   nbt.String("full"),
		"Sections": &nbt.List{Elem: nbt.TagEnd, Items: []nbt.Tag{}},
	}
	if motionBlocking != nil {
		level["Heightmaps"] = nbt.Compound{"MOTION_BLOCKING": Longs(motionBlocking)}
	}
	if biomes != nil {
		level["Biomes"] = nbt.IntArray(biomes)
	}
	return nbt.Compound{
		"DataVersion": nbt.Int(2230),
		"Level":       level,
	}
}

// Longs converts packed words to the signed long array NBT stores them as.
func Longs(words []uint64) nbt.LongArray {
	a := make(nbt.LongArray, len(words))
	for i, w := range words {
		a[i] = int64(w)
	}
	return a
}
