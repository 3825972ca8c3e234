package biome

import (
	"testing"

	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/nbt"
)

func flat(h int) *heightmap.Grid {
	var g heightmap.Grid
	for i := range g {
		g[i] = h
	}
	return &g
}

func layeredSections() []Section {
	return []Section{
		{Y: 4, Palette: []string{"minecraft:meadow", "minecraft:snowy_slopes"}, Data: []uint64{0xFFFF << 48}},
		{Y: -4, Palette: []string{"minecraft:deep_dark"}},
		{Y: 0, Palette: []string{"minecraft:plains"}},
		{Y: -5},
	}
}

func TestSurfaceSelectsSectionByHeight(t *testing.T) {
	for _, tt := range []struct {
		height int
		want   string
	}{
		{0, "minecraft:deep_dark"},
		{1, "minecraft:deep_dark"},
		{65, "minecraft:plains"},
		{105, "minecraft:plains"}, // y=40, section 2 missing, top of section 0
		{129, "minecraft:meadow"},
		{140, "minecraft:meadow"},
		{144, "minecraft:snowy_slopes"},
		{125 + 64, "minecraft:snowy_slopes"},
		{400, "minecraft:snowy_slopes"},
	} {
		g := Surface(layeredSections(), flat(tt.height))
		if len(g) != Cells {
			t.Fatalf("len = %d", len(g))
		}
		for i, b := range g {
			if b != tt.want {
				t.Errorf("height %d column %d = %s, want %s", tt.height, i, b, tt.want)
				break
			}
		}
	}

	g := Surface(layeredSections(), nil)
	if g.At(3, 9) != "minecraft:snowy_slopes" {
		t.Errorf("no heights: %s", g.At(3, 9))
	}
}

func TestSurfacePaletteIndexing(t *testing.T) {
	s := Section{
		Y:       0,
		Palette: []string{"a", "b", "c", "d", "e"},
		Data:    []uint64{0, 4 << 3, 0, 0},
	}
	g := Surface([]Section{s}, flat(6))
	for i, b := range g {
		x, z := i&15, i>>4
		want := "a"
		if x>>2 == 2 && z>>2 == 1 {
			want = "e"
		}
		if b != want {
			t.Fatalf("column %d,%d = %s, want %s", x, z, b, want)
		}
	}

	bad := Section{Y: 0, Palette: []string{"a", "b"}, Data: []uint64{^uint64(0) >> 1 << 1}}
	if got := bad.cell(0); got != "a" {
		t.Errorf("cell 0 = %s", got)
	}
	if got := bad.cell(1); got != "b" {
		t.Errorf("cell 1 = %s", got)
	}
	overflow := Section{Y: 0, Palette: []string{"a", "b", "c"}, Data: []uint64{^uint64(0), ^uint64(0), ^uint64(0)}}
	if got := overflow.cell(63); got != "a" {
		t.Errorf("out of range index = %s, want first palette entry", got)
	}
}

func TestSurfaceWithoutBiomes(t *testing.T) {
	if g := Surface([]Section{{Y: 0}}, flat(10)); g != nil {
		t.Errorf("got %v, want nil", g)
	}
}

func TestLegacy(t *testing.T) {
	ids := make([]int32, 256)
	for i := range ids {
		ids[i] = int32(i % 3)
	}
	ids[17] = 9999
	g := Legacy(ids, nil)
	if g.At(0, 0) != "minecraft:ocean" || g.At(1, 0) != "minecraft:plains" || g.At(2, 0) != "minecraft:desert" {
		t.Errorf("direct ids = %v", g[:3])
	}
	if g.At(1, 1) != Fallback {
		t.Errorf("unknown id = %s", g.At(1, 1))
	}

	cells := make([]int32, 1024)
	for i := range cells {
		cells[i] = int32(i >> 4) // layer number
	}
	g = Legacy(cells, flat(70))
	if g.At(5, 5) != Name(17) {
		t.Errorf("3D layer = %s, want %s", g.At(5, 5), Name(17))
	}
	g = Legacy(cells, nil)
	if g.At(0, 0) != Name(63) {
		t.Errorf("3D without heights = %s", g.At(0, 0))
	}

	if Legacy(make([]int32, 10), nil) != nil {
		t.Error("unknown layout should be nil")
	}
}

func TestFromChunk(t *testing.T) {
	modern := nbt.Compound{"sections": &nbt.List{Elem: nbt.TagCompound, Items: []nbt.Tag{
		nbt.Compound{"Y": nbt.Byte(-1)},
		nbt.Compound{"Y": nbt.Byte(0), "biomes": nbt.Compound{
			"palette": &nbt.List{Elem: nbt.TagString, Items: []nbt.Tag{nbt.String("minecraft:cherry_grove")}},
		}},
	}}}
	if g := FromChunk(modern, flat(10)); len(g) != Cells || g[0] != "minecraft:cherry_grove" {
		t.Errorf("modern = %v", g)
	}

	legacyInts := nbt.Compound{"Level": nbt.Compound{"Biomes": nbt.IntArray(make([]int32, 256))}}
	if g := FromChunk(legacyInts, nil); len(g) != Cells || g[0] != "minecraft:ocean" {
		t.Errorf("legacy ints = %v", g)
	}

	raw := make(nbt.ByteArray, 256)
	raw[0] = 168
	legacyBytes := nbt.Compound{"Level": nbt.Compound{"Biomes": raw}}
	if g := FromChunk(legacyBytes, nil); len(g) != Cells || g[0] != "minecraft:bamboo_jungle" {
		t.Errorf("legacy bytes = %v", g)
	}

	for _, root := range []nbt.Compound{
		{},
		{"Level": nbt.Compound{}},
		{"sections": &nbt.List{Elem: nbt.TagEnd, Items: []nbt.Tag{}}},
		{"Level": nbt.Compound{"Biomes": nbt.String("plains")}},
	} {
		if g := FromChunk(root, nil); g != nil {
			t.Errorf("FromChunk(%v) = %v, want nil", root, g)
		}
	}
}
