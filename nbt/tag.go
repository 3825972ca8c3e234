// Package nbt decodes and encodes Minecraft's Named Binary Tag format into a closed tree
// of tag values.
package nbt

import "strconv"

// Tag type ids as they appear on the wire.
const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	TagEnd:       "End",
	TagByte:      "Byte",
	TagShort:     "Short",
	TagInt:       "Int",
	TagLong:      "Long",
	TagFloat:     "Float",
	TagDouble:    "Double",
	TagByteArray: "ByteArray",
	TagString:    "String",
	TagList:      "List",
	TagCompound:  "Compound",
	TagIntArray:  "IntArray",
	TagLongArray: "LongArray",
}

// TagName returns a readable name for a tag id.
func TagName(id byte) string {
	if int(id) < len(tagNames) {
		return tagNames[id]
	}
	return "Unknown(" + strconv.Itoa(int(id)) + ")"
}

// Tag is one node of a decoded tree. The set of implementations is closed: Byte, Short,
// Int, Long, Float, Double, String, ByteArray, IntArray, LongArray, *List and Compound.
type Tag interface {
	ID() byte
	sealed()
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	String    string
	ByteArray []byte
	IntArray  []int32
	LongArray []int64
)

// List is a homogeneous sequence. Elem is TagEnd only for empty lists.
type List struct {
	Elem  byte
	Items []Tag
}

// Compound maps child names to tags.
type Compound map[string]Tag

func (Byte) ID() byte      { return TagByte }
func (Short) ID() byte     { return TagShort }
func (Int) ID() byte       { return TagInt }
func (Long) ID() byte      { return TagLong }
func (Float) ID() byte     { return TagFloat }
func (Double) ID() byte    { return TagDouble }
func (String) ID() byte    { return TagString }
func (ByteArray) ID() byte { return TagByteArray }
func (IntArray) ID() byte  { return TagIntArray }
func (LongArray) ID() byte { return TagLongArray }
func (*List) ID() byte     { return TagList }
func (Compound) ID() byte  { return TagCompound }

func (Byte) sealed()      {}
func (Short) sealed()     {}
func (Int) sealed()       {}
func (Long) sealed()      {}
func (Float) sealed()     {}
func (Double) sealed()    {}
func (String) sealed()    {}
func (ByteArray) sealed() {}
func (IntArray) sealed()  {}
func (LongArray) sealed() {}
func (*List) sealed()     {}
func (Compound) sealed()  {}

// Compound returns the named child if it is a compound.
func (c Compound) Compound(name string) (Compound, bool) {
	v, ok := c[name].(Compound)
	return v, ok
}

// List returns the named child if it is a list.
func (c Compound) List(name string) (*List, bool) {
	v, ok := c[name].(*List)
	return v, ok && v != nil
}

func (c Compound) LongArray(name string) (LongArray, bool) {
	v, ok := c[name].(LongArray)
	return v, ok
}

func (c Compound) IntArray(name string) (IntArray, bool) {
	v, ok := c[name].(IntArray)
	return v, ok
}

func (c Compound) ByteArray(name string) (ByteArray, bool) {
	v, ok := c[name].(ByteArray)
	return v, ok
}

func (c Compound) String(name string) (string, bool) {
	v, ok := c[name].(String)
	return string(v), ok
}

// Number returns the named child widened to int64 if it is any integer tag.
func (c Compound) Number(name string) (int64, bool) {
	switch v := c[name].(type) {
	case Byte:
		return int64(v), true
	case Short:
		return int64(v), true
	case Int:
		return int64(v), true
	case Long:
		return int64(v), true
	}
	return 0, false
}

// Words reinterprets a long array as unsigned 64-bit words, the form packed bit storage
// is read in.
func (a LongArray) Words() []uint64 {
	words := make([]uint64, len(a))
	for i, v := range a {
		words[i] = uint64(v)
	}
	return words
}
