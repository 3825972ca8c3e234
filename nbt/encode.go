package nbt

import (
	"errors"
	"io"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Encode writes root as a named compound document. Compound children are written in
// sorted name order so equal trees always produce equal bytes.
func Encode(w io.Writer, name string, root Compound) error {
	return NewEncoder(w).Encode(name, root)
}

type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(name string, root Compound) error {
	if err := e.writeTag(TagCompound, name); err != nil {
		return err
	}
	return e.writeCompound(root)
}

func (e *Encoder) writePayload(v Tag) error {
	switch v := v.(type) {
	case Byte:
		_, err := e.w.Write([]byte{byte(v)})
		return err
	case Short:
		return e.writeInt16(int16(v))
	case Int:
		return e.writeInt32(int32(v))
	case Long:
		return e.writeInt64(int64(v))
	case Float:
		return e.writeInt32(int32(math.Float32bits(float32(v))))
	case Double:
		return e.writeInt64(int64(math.Float64bits(float64(v))))
	case String:
		return e.writeString(string(v))
	case ByteArray:
		if err := e.writeInt32(int32(len(v))); err != nil {
			return err
		}
		_, err := e.w.Write(v)
		return err
	case IntArray:
		if err := e.writeInt32(int32(len(v))); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeInt32(n); err != nil {
				return err
			}
		}
		return nil
	case LongArray:
		if err := e.writeInt32(int32(len(v))); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeInt64(n); err != nil {
				return err
			}
		}
		return nil
	case *List:
		return e.writeList(v)
	case Compound:
		return e.writeCompound(v)
	}
	return errors.New("nbt: cannot encode nil tag")
}

func (e *Encoder) writeList(l *List) error {
	elem := l.Elem
	if len(l.Items) == 0 {
		elem = TagEnd
	}
	for _, item := range l.Items {
		if item == nil || item.ID() != elem {
			return errors.New("nbt: mixed types in list of " + TagName(elem))
		}
	}
	if _, err := e.w.Write([]byte{elem}); err != nil {
		return err
	}
	if err := e.writeInt32(int32(len(l.Items))); err != nil {
		return err
	}
	for _, item := range l.Items {
		if err := e.writePayload(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeCompound(c Compound) error {
	names := maps.Keys(c)
	slices.Sort(names)
	for _, name := range names {
		v := c[name]
		if v == nil {
			return errors.New("nbt: nil tag " + name)
		}
		if err := e.writeTag(v.ID(), name); err != nil {
			return err
		}
		if err := e.writePayload(v); err != nil {
			return err
		}
	}
	_, err := e.w.Write([]byte{TagEnd})
	return err
}

func (e *Encoder) writeTag(tagType byte, tagName string) error {
	if _, err := e.w.Write([]byte{tagType}); err != nil {
		return err
	}
	return e.writeString(tagName)
}

func (e *Encoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("nbt: string too long")
	}
	if err := e.writeInt16(int16(uint16(len(s)))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeInt16(n int16) error {
	_, err := e.w.Write([]byte{byte(n >> 8), byte(n)})
	return err
}

func (e *Encoder) writeInt32(n int32) error {
	_, err := e.w.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	return err
}

func (e *Encoder) writeInt64(n int64) error {
	_, err := e.w.Write([]byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	return err
}
