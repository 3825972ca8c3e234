package nbt

import (
	"bytes"
	"errors"
	"testing"

	gonbt "github.com/Tnze/go-mc/nbt"
	"github.com/google/go-cmp/cmp"
)

func sampleTree() Compound {
	return Compound{
		"DataVersion": Int(3465),
		"xPos":        Int(-3),
		"flag":        Byte(-1),
		"short":       Short(1234),
		"time":        Long(-1 << 40),
		"f":           Float(1.5),
		"d":           Double(-0.25),
		"Status":      String("minecraft:full"),
		"light":       ByteArray{0, 1, 2, 255},
		"Biomes":      IntArray{1, 2, 3, -4},
		"Heightmaps": Compound{
			"MOTION_BLOCKING": LongArray{0, -1, 1 << 62},
		},
		"sections": &List{Elem: TagCompound, Items: []Tag{
			Compound{"Y": Byte(-4)},
			Compound{"Y": Byte(-3), "biomes": Compound{
				"palette": &List{Elem: TagString, Items: []Tag{String("minecraft:plains")}},
			}},
		}},
		"empty": &List{Elem: TagEnd, Items: []Tag{}},
		"nested": &List{Elem: TagList, Items: []Tag{
			&List{Elem: TagInt, Items: []Tag{Int(1), Int(2)}},
		}},
	}
}

func encode(t *testing.T, name string, root Compound) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, name, root); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	want := sampleTree()
	name, got, err := Decode(encode(t, "root", want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name != "root" {
		t.Errorf("name = %q, want root", name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := encode(t, "", sampleTree())
	b := encode(t, "", sampleTree())
	if !bytes.Equal(a, b) {
		t.Error("equal trees encoded differently")
	}
}

func TestTruncatedInput(t *testing.T) {
	data := encode(t, "root", sampleTree())
	for cut := 0; cut < len(data); cut++ {
		_, _, err := Decode(data[:cut])
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("cut at %d: err = %v, want ErrMalformed", cut, err)
		}
	}
}

func TestMalformedInput(t *testing.T) {
	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"root not compound", []byte{TagInt, 0, 0, 0, 0, 0, 1}},
		{"unknown tag", []byte{TagCompound, 0, 0, 99, 0, 0}},
		{"negative array length", []byte{TagCompound, 0, 0, TagIntArray, 0, 1, 'a', 0xff, 0xff, 0xff, 0xff, TagEnd}},
		{"huge array length", []byte{TagCompound, 0, 0, TagLongArray, 0, 1, 'a', 0x7f, 0xff, 0xff, 0xff, TagEnd}},
		{"list of end with items", []byte{TagCompound, 0, 0, TagList, 0, 1, 'a', TagEnd, 0, 0, 0, 2, TagEnd}},
		{"unknown list element", []byte{TagCompound, 0, 0, TagList, 0, 1, 'a', 42, 0, 0, 0, 1, TagEnd}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestNestingLimit(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{TagCompound, 0, 0})
	for i := 0; i < maxDepth+10; i++ {
		buf.Write([]byte{TagCompound, 0, 1, 'c'})
	}
	for i := 0; i < maxDepth+11; i++ {
		buf.WriteByte(TagEnd)
	}
	if _, _, err := Decode(buf.Bytes()); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestDecodeGoMCEncoding(t *testing.T) {
	var buf bytes.Buffer
	chunk := map[string]interface{}{
		"DataVersion": int32(3465),
		"Status":      "full",
		"Heightmaps": map[string][]int64{
			"MOTION_BLOCKING": {1, 2, 3},
		},
	}
	if err := gonbt.NewEncoder(&buf).Encode(chunk, ""); err != nil {
		t.Fatal(err)
	}
	_, root, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := root.Number("DataVersion"); !ok || v != 3465 {
		t.Errorf("DataVersion = %d, %v", v, ok)
	}
	hm, _ := root.Compound("Heightmaps")
	words, ok := hm.LongArray("MOTION_BLOCKING")
	if !ok {
		t.Fatal("MOTION_BLOCKING missing")
	}
	if diff := cmp.Diff([]uint64{1, 2, 3}, words.Words()); diff != "" {
		t.Errorf("words (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsMixedList(t *testing.T) {
	root := Compound{"l": &List{Elem: TagInt, Items: []Tag{Int(1), String("x")}}}
	if err := Encode(&bytes.Buffer{}, "", root); err == nil {
		t.Error("expected error for mixed list")
	}
}
