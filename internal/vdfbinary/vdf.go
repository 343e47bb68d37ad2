// Package vdfbinary reads and writes Valve's binary keyvalue format, the
// on-disk representation of Steam's shortcuts.vdf. Each node is a type byte,
// a NUL-terminated key, and a type-dependent value; objects nest until a
// matching end marker.
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	markerObject byte = 0x00
	markerString byte = 0x01
	markerInt32  byte = 0x02
	markerEnd    byte = 0x08
)

var (
	// ErrEmpty is returned when the input contains no bytes at all. A missing
	// or zero-length shortcuts.vdf means "no non-Steam games yet" and callers
	// are expected to map this to an empty store.
	ErrEmpty = errors.New("binary vdf is empty")
	// ErrNotBinary is returned when the input looks like a text VDF.
	ErrNotBinary = errors.New("input is not binary vdf")
	// ErrCorrupt is returned when the input ends or diverges mid-structure.
	// Callers must not treat this as an empty result: overwriting a store that
	// failed to parse would destroy existing shortcuts.
	ErrCorrupt = errors.New("binary vdf is corrupt")
)

// Object is a mapping of keys to typed values. Key order is preserved on
// write; lookups are case-insensitive, matching Steam's own reader.
type Object struct {
	index map[string]Value
	keys  []string
}

// Value is one typed node value: a string, a 32-bit integer, or a nested
// Object.
type Value struct {
	obj *Object
	str string
	num int32
	typ byte
}

func NewObject() *Object {
	return &Object{index: make(map[string]Value)}
}

// Len returns the number of keys in the object.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) set(key string, v Value) {
	lower := strings.ToLower(key)
	if _, exists := o.index[lower]; !exists {
		o.keys = append(o.keys, key)
	}
	o.index[lower] = v
}

func (o *Object) SetString(key, value string) {
	o.set(key, Value{typ: markerString, str: value})
}

func (o *Object) SetInt(key string, value int32) {
	o.set(key, Value{typ: markerInt32, num: value})
}

func (o *Object) SetObject(key string, value *Object) {
	o.set(key, Value{typ: markerObject, obj: value})
}

func (o *Object) get(key string) (Value, bool) {
	v, ok := o.index[strings.ToLower(key)]
	return v, ok
}

// String returns the string value stored under key.
func (o *Object) String(key string) (string, bool) {
	v, ok := o.get(key)
	if !ok || v.typ != markerString {
		return "", false
	}
	return v.str, true
}

// Int returns the signed 32-bit integer stored under key.
func (o *Object) Int(key string) (int32, bool) {
	v, ok := o.get(key)
	if !ok || v.typ != markerInt32 {
		return 0, false
	}
	return v.num, true
}

// Object returns the nested object stored under key.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.get(key)
	if !ok || v.typ != markerObject {
		return nil, false
	}
	return v.obj, true
}

// Parse decodes a complete binary VDF stream into its root object.
func Parse(r io.Reader) (*Object, error) {
	buf := bufio.NewReader(r)

	first, err := buf.Peek(1)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("peek: %w", err)
	}
	switch first[0] {
	case markerObject, markerString, markerInt32, markerEnd:
	default:
		return nil, ErrNotBinary
	}

	root, err := parseObject(buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: truncated input", ErrCorrupt)
	}
	return root, err
}

func parseObject(buf *bufio.Reader) (*Object, error) {
	obj := NewObject()

	for {
		marker, err := buf.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read marker: %w", err)
		}
		if marker == markerEnd {
			return obj, nil
		}

		key, err := readCString(buf)
		if err != nil {
			return nil, err
		}

		switch marker {
		case markerObject:
			child, err := parseObject(buf)
			if err != nil {
				return nil, err
			}
			obj.SetObject(key, child)
		case markerString:
			s, err := readCString(buf)
			if err != nil {
				return nil, err
			}
			obj.SetString(key, s)
		case markerInt32:
			var raw [4]byte
			if _, err := io.ReadFull(buf, raw[:]); err != nil {
				return nil, fmt.Errorf("read int32: %w", err)
			}
			obj.SetInt(key, int32(binary.LittleEndian.Uint32(raw[:])))
		default:
			return nil, fmt.Errorf("%w: unexpected type byte 0x%02x", ErrCorrupt, marker)
		}
	}
}

func readCString(buf *bufio.Reader) (string, error) {
	s, err := buf.ReadString(0x00)
	if err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	return s[:len(s)-1], nil
}

// Write encodes the root object back into the binary wire format. The output
// is byte-compatible with Steam's own writer for the same tree.
func (o *Object) Write(w io.Writer) error {
	buf := bufio.NewWriter(w)
	if err := writeObjectBody(buf, o); err != nil {
		return err
	}
	return buf.Flush()
}

func writeObjectBody(buf *bufio.Writer, o *Object) error {
	for _, key := range o.keys {
		v := o.index[strings.ToLower(key)]
		if err := buf.WriteByte(v.typ); err != nil {
			return fmt.Errorf("write marker: %w", err)
		}
		if err := writeCString(buf, key); err != nil {
			return err
		}
		switch v.typ {
		case markerString:
			if err := writeCString(buf, v.str); err != nil {
				return err
			}
		case markerInt32:
			var raw [4]byte
			binary.LittleEndian.PutUint32(raw[:], uint32(v.num))
			if _, err := buf.Write(raw[:]); err != nil {
				return fmt.Errorf("write int32: %w", err)
			}
		case markerObject:
			if err := writeObjectBody(buf, v.obj); err != nil {
				return err
			}
		}
	}
	if err := buf.WriteByte(markerEnd); err != nil {
		return fmt.Errorf("write end marker: %w", err)
	}
	return nil
}

func writeCString(buf *bufio.Writer, s string) error {
	if _, err := buf.WriteString(s); err != nil {
		return fmt.Errorf("write string: %w", err)
	}
	if err := buf.WriteByte(0x00); err != nil {
		return fmt.Errorf("write string terminator: %w", err)
	}
	return nil
}
