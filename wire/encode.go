// Package wire implements the Avro binary encoding of resolved value trees.
//
//	null            no bytes
//	boolean         one byte, 0 or 1
//	int, long       zig-zag varint
//	float, double   IEEE-754 little-endian, 4 or 8 bytes
//	bytes, string   zig-zag varint length, then the raw bytes
//	record          field encodings in schema order, no separators
//	union           zig-zag varint branch index, then the member encoding
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/reoring/avroskema/value"
)

// ErrUnresolved is returned when a value reaching the encoder was not
// produced by validation (e.g. a tagged host variant).
var ErrUnresolved = errors.New("wire: value is not branch-resolved")

// Append appends the encoding of v to dst. v must come from validation;
// any error signals a broken invariant upstream.
func Append(dst []byte, v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return dst, nil
	case value.KindBoolean:
		if v.AsBool() {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case value.KindInt, value.KindLong:
		return AppendLong(dst, v.AsLong()), nil
	case value.KindFloat:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v.AsFloat())), nil
	case value.KindDouble:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.AsDouble())), nil
	case value.KindBytes:
		return AppendBytes(dst, v.AsBytes()), nil
	case value.KindString:
		dst = AppendLong(dst, int64(len(v.AsString())))
		return append(dst, v.AsString()...), nil
	case value.KindRecord:
		var err error
		for _, f := range v.Fields() {
			if dst, err = Append(dst, f.Value); err != nil {
				return dst, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return dst, nil
	case value.KindUnion:
		if v.Branch() < 0 {
			return dst, fmt.Errorf("%w: negative branch index %d", ErrUnresolved, v.Branch())
		}
		dst = AppendLong(dst, int64(v.Branch()))
		return Append(dst, v.Inner())
	}
	return dst, fmt.Errorf("%w: %s", ErrUnresolved, v.Kind())
}

// Encode returns the encoding of v in a fresh slice.
func Encode(v value.Value) ([]byte, error) {
	return Append(nil, v)
}

// AppendLong appends x as a zig-zag varint.
func AppendLong(dst []byte, x int64) []byte {
	// binary.AppendVarint already applies zig-zag.
	return binary.AppendVarint(dst, x)
}

// AppendBytes appends a length-prefixed byte string.
func AppendBytes(dst, b []byte) []byte {
	dst = AppendLong(dst, int64(len(b)))
	return append(dst, b...)
}
