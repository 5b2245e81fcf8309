package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
)

// Decoding errors.
var (
	ErrTruncated   = errors.New("wire: truncated input")
	ErrOverflow    = errors.New("wire: varint overflows")
	ErrBadBranch   = errors.New("wire: branch index out of range")
	ErrBadLength   = errors.New("wire: invalid length")
	ErrBadBoolean  = errors.New("wire: invalid boolean byte")
	ErrInvalidUTF8 = errors.New("wire: string is not valid UTF-8")
)

// Decode reads one value of type t from b and returns it with the unread
// rest. The writer and reader schema are assumed identical; unions decode to
// value.Union with their branch index.
func Decode(b []byte, t schema.Type) (value.Value, []byte, error) {
	switch t := t.(type) {
	case *schema.Primitive:
		return decodePrimitive(b, t.Kind())
	case *schema.Union:
		idx, rest, err := ReadLong(b)
		if err != nil {
			return value.Value{}, b, err
		}
		if idx < 0 || idx >= int64(t.Len()) {
			return value.Value{}, b, fmt.Errorf("%w: %d of %d", ErrBadBranch, idx, t.Len())
		}
		inner, rest, err := Decode(rest, t.Member(int(idx)))
		if err != nil {
			return value.Value{}, b, err
		}
		return value.Union(int(idx), inner), rest, nil
	case *schema.Record:
		fields := make([]value.Field, 0, t.NumFields())
		rest := b
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			v, r, err := Decode(rest, f.Type())
			if err != nil {
				return value.Value{}, b, fmt.Errorf("field %s: %w", f.Name(), err)
			}
			fields = append(fields, value.Field{Name: f.Name(), Value: v})
			rest = r
		}
		return value.Record(t.FullName(), fields...), rest, nil
	}
	return value.Value{}, b, fmt.Errorf("wire: unknown schema type %T", t)
}

// DecodeAll decodes a back-to-back sequence of records of s until b is
// exhausted.
func DecodeAll(b []byte, s *schema.Schema) ([]value.Value, error) {
	var out []value.Value
	for len(b) > 0 {
		v, rest, err := Decode(b, s.Root())
		if err != nil {
			return out, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, v)
		b = rest
	}
	return out, nil
}

func decodePrimitive(b []byte, k schema.Kind) (value.Value, []byte, error) {
	switch k {
	case schema.Null:
		return value.Null(), b, nil
	case schema.Boolean:
		if len(b) < 1 {
			return value.Value{}, b, ErrTruncated
		}
		switch b[0] {
		case 0:
			return value.Boolean(false), b[1:], nil
		case 1:
			return value.Boolean(true), b[1:], nil
		}
		return value.Value{}, b, ErrBadBoolean
	case schema.Int:
		x, rest, err := ReadLong(b)
		if err != nil {
			return value.Value{}, b, err
		}
		if x < math.MinInt32 || x > math.MaxInt32 {
			return value.Value{}, b, ErrOverflow
		}
		return value.Int(int32(x)), rest, nil
	case schema.Long:
		x, rest, err := ReadLong(b)
		if err != nil {
			return value.Value{}, b, err
		}
		return value.Long(x), rest, nil
	case schema.Float:
		if len(b) < 4 {
			return value.Value{}, b, ErrTruncated
		}
		return value.Float(math.Float32frombits(binary.LittleEndian.Uint32(b))), b[4:], nil
	case schema.Double:
		if len(b) < 8 {
			return value.Value{}, b, ErrTruncated
		}
		return value.Double(math.Float64frombits(binary.LittleEndian.Uint64(b))), b[8:], nil
	case schema.Bytes, schema.String:
		raw, rest, err := ReadBytes(b)
		if err != nil {
			return value.Value{}, b, err
		}
		if k == schema.Bytes {
			return value.Bytes(append([]byte(nil), raw...)), rest, nil
		}
		if !utf8.Valid(raw) {
			return value.Value{}, b, ErrInvalidUTF8
		}
		return value.String(string(raw)), rest, nil
	}
	return value.Value{}, b, fmt.Errorf("wire: unknown primitive %v", k)
}

// ReadLong reads a zig-zag varint.
func ReadLong(b []byte) (int64, []byte, error) {
	x, n := binary.Varint(b)
	switch {
	case n == 0:
		return 0, b, ErrTruncated
	case n < 0:
		return 0, b, ErrOverflow
	}
	return x, b[n:], nil
}

// ReadBytes reads a length-prefixed byte string. The result aliases b.
func ReadBytes(b []byte) ([]byte, []byte, error) {
	n, rest, err := ReadLong(b)
	if err != nil {
		return nil, b, err
	}
	if n < 0 {
		return nil, b, fmt.Errorf("%w: %d", ErrBadLength, n)
	}
	if int64(len(rest)) < n {
		return nil, b, ErrTruncated
	}
	return rest[:n], rest[n:], nil
}
