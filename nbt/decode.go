package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformed is wrapped by every decode failure: truncation, unknown tag ids, impossible
// lengths and excessive nesting.
var ErrMalformed = errors.New("nbt: malformed data")

const maxDepth = 512

// Decode parses a complete NBT document whose root is a named compound.
func Decode(data []byte) (name string, root Compound, err error) {
	d := &decoder{data: data}
	id, err := d.byte()
	if err != nil {
		return "", nil, err
	}
	if id != TagCompound {
		return "", nil, d.fail("root tag is %s, want Compound", TagName(id))
	}
	if name, err = d.string(); err != nil {
		return "", nil, err
	}
	if root, err = d.compound(0); err != nil {
		return "", nil, err
	}
	return name, root, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) fail(format string, args ...interface{}) error {
	return fmt.Errorf("%w: offset %d: %s", ErrMalformed, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.pos {
		return nil, d.fail("need %d bytes, %d left", n, len(d.data)-d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) byte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) int16() (int16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (d *decoder) int32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *decoder) int64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (d *decoder) string() (string, error) {
	n, err := d.int16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(uint16(n)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// length reads an array or list length and rejects counts that cannot fit in what is left
// of the input, so a corrupt length never drives a huge allocation.
func (d *decoder) length(elemSize int) (int, error) {
	n, err := d.int32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, d.fail("negative length %d", n)
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(len(d.data)-d.pos) {
		return 0, d.fail("length %d exceeds remaining input", n)
	}
	return int(n), nil
}

func (d *decoder) compound(depth int) (Compound, error) {
	if depth > maxDepth {
		return nil, d.fail("nesting deeper than %d", maxDepth)
	}
	c := make(Compound)
	for {
		id, err := d.byte()
		if err != nil {
			return nil, err
		}
		if id == TagEnd {
			return c, nil
		}
		name, err := d.string()
		if err != nil {
			return nil, err
		}
		v, err := d.payload(id, depth+1)
		if err != nil {
			return nil, err
		}
		c[name] = v
	}
}

func (d *decoder) list(depth int) (*List, error) {
	if depth > maxDepth {
		return nil, d.fail("nesting deeper than %d", maxDepth)
	}
	elem, err := d.byte()
	if err != nil {
		return nil, err
	}
	if elem > TagLongArray {
		return nil, d.fail("unknown list element tag %d", elem)
	}
	// Every element occupies at least one byte except End, which carries nothing.
	minSize := 1
	if elem == TagEnd {
		minSize = 0
	}
	n, err := d.length(minSize)
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, d.fail("list of End with %d elements", n)
	}
	l := &List{Elem: elem, Items: make([]Tag, 0, n)}
	for i := 0; i < n; i++ {
		v, err := d.payload(elem, depth+1)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, v)
	}
	return l, nil
}

func (d *decoder) payload(id byte, depth int) (Tag, error) {
	switch id {
	case TagByte:
		b, err := d.byte()
		return Byte(int8(b)), err
	case TagShort:
		v, err := d.int16()
		return Short(v), err
	case TagInt:
		v, err := d.int32()
		return Int(v), err
	case TagLong:
		v, err := d.int64()
		return Long(v), err
	case TagFloat:
		v, err := d.int32()
		return Float(math.Float32frombits(uint32(v))), err
	case TagDouble:
		v, err := d.int64()
		return Double(math.Float64frombits(uint64(v))), err
	case TagString:
		s, err := d.string()
		return String(s), err
	case TagByteArray:
		n, err := d.length(1)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		return ByteArray(append([]byte(nil), b...)), nil
	case TagIntArray:
		n, err := d.length(4)
		if err != nil {
			return nil, err
		}
		a := make(IntArray, n)
		for i := range a {
			if a[i], err = d.int32(); err != nil {
				return nil, err
			}
		}
		return a, nil
	case TagLongArray:
		n, err := d.length(8)
		if err != nil {
			return nil, err
		}
		a := make(LongArray, n)
		for i := range a {
			if a[i], err = d.int64(); err != nil {
				return nil, err
			}
		}
		return a, nil
	case TagList:
		return d.list(depth)
	case TagCompound:
		return d.compound(depth)
	default:
		return nil, d.fail("unknown tag id %d", id)
	}
}
