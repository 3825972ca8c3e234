package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/extract"
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/region"
)

func grid(base int) *heightmap.Grid {
	var g heightmap.Grid
	for i := range g {
		g[i] = heightmap.Clamp(base + i%40)
	}
	return &g
}

func biomes(names ...string) biome.Grid {
	g := make(biome.Grid, biome.Cells)
	for i := range g {
		g[i] = names[i%len(names)]
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	chunks := make([]*extract.Chunk, Slots)
	chunks[0] = &extract.Chunk{Heightmap: grid(60), Biomes: biomes("minecraft:plains", "minecraft:river")}
	chunks[33] = &extract.Chunk{Heightmap: grid(500), Biomes: biomes("minecraft:frozen_peaks")}
	chunks[700] = &extract.Chunk{Heightmap: grid(0)}
	chunks[1023] = &extract.Chunk{Biomes: biomes("minecraft:river")}

	runID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	var buf bytes.Buffer
	if err := (&Writer{RunID: runID}).Write(&buf, region.Coord{X: -3, Z: 7}, chunks); err != nil {
		t.Fatal(err)
	}

	f, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if f.Coord != (region.Coord{X: -3, Z: 7}) || f.RunID != runID {
		t.Errorf("header = %v %v", f.Coord, f.RunID)
	}
	if diff := cmp.Diff([]string{"minecraft:frozen_peaks", "minecraft:plains", "minecraft:river"}, f.Palette); diff != "" {
		t.Errorf("palette (-want +got):\n%s", diff)
	}
	if f.Len() != 4 {
		t.Errorf("Len = %d, want 4", f.Len())
	}
	for i, want := range chunks {
		got := f.Chunks[i]
		if want == nil {
			if got != nil {
				t.Errorf("slot %d should be empty", i)
			}
			continue
		}
		if got == nil {
			t.Errorf("slot %d missing", i)
			continue
		}
		if diff := cmp.Diff(want.Heightmap, got.Heightmap); diff != "" {
			t.Errorf("slot %d heights (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(want.Biomes, got.Biomes); diff != "" {
			t.Errorf("slot %d biomes (-want +got):\n%s", i, diff)
		}
	}
	if f.Chunk(1, 1) != f.Chunks[33] || f.Chunk(32, 0) != nil {
		t.Error("Chunk does not index z*32+x")
	}
}

func TestEmptyRegion(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, region.Coord{}, nil); err != nil {
		t.Fatal(err)
	}
	f, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 0 || len(f.Palette) != 0 || f.RunID == uuid.Nil {
		t.Errorf("file = %+v", f)
	}
}

func TestReadRejects(t *testing.T) {
	var good bytes.Buffer
	chunks := []*extract.Chunk{{Heightmap: grid(64), Biomes: biomes("minecraft:plains")}}
	if err := Write(&good, region.Coord{X: 1}, chunks); err != nil {
		t.Fatal(err)
	}
	data := good.Bytes()

	badMagic := append([]byte{0xB1, 0x0B}, data[2:]...)
	badVersion := append([]byte(nil), data...)
	badVersion[2] = 9

	for _, tt := range []struct {
		name string
		data []byte
		want error
	}{
		{"magic", badMagic, ErrBadMagic},
		{"version", badVersion, ErrVersion},
		{"short header", data[:10], ErrCorrupt},
		{"truncated body", data[:168], ErrCorrupt},
	} {
		if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	if err := Write(&good, region.Coord{}, make([]*extract.Chunk, Slots+1)); err == nil {
		t.Error("oversized chunk list accepted")
	}
}
