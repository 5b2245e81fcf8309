// Package value defines the tagged value tree passed between mapping,
// validation and encoding. Values are plain data: no schema knowledge lives
// here.
package value

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// Kind identifies a Value variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindRecord
	// KindUnion is produced only by validation and carries the selected
	// branch index.
	KindUnion
	// KindTagged is a host variant tag around a payload (e.g. "Some"). No
	// schema type accepts it.
	KindTagged
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBytes:   "bytes",
	KindString:  "string",
	KindRecord:  "record",
	KindUnion:   "union",
	KindTagged:  "tagged",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Field is one named entry of a record value.
type Field struct {
	Name  string
	Value Value
}

// Value is one node of the tree. The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	raw    []byte
	fields []Field
	inner  *Value
}

func Null() Value            { return Value{kind: KindNull} }
func Boolean(b bool) Value   { return Value{kind: KindBoolean, b: b} }
func Int(i int32) Value      { return Value{kind: KindInt, i: int64(i)} }
func Long(i int64) Value     { return Value{kind: KindLong, i: i} }
func Float(f float32) Value  { return Value{kind: KindFloat, f: float64(f)} }
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Bytes(b []byte) Value   { return Value{kind: KindBytes, raw: b} }
func Record(name string, fields ...Field) Value {
	return Value{kind: KindRecord, s: name, fields: fields}
}

// Union wraps inner as the payload of the branch at index.
func Union(index int, inner Value) Value {
	return Value{kind: KindUnion, i: int64(index), inner: &inner}
}

// Tagged wraps inner under a host variant tag.
func Tagged(tag string, inner Value) Value {
	return Value{kind: KindTagged, s: tag, inner: &inner}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int32      { return int32(v.i) }
func (v Value) AsLong() int64     { return v.i }
func (v Value) AsFloat() float32  { return float32(v.f) }
func (v Value) AsDouble() float64 { return v.f }
func (v Value) AsString() string  { return v.s }
func (v Value) AsBytes() []byte   { return v.raw }

// Name is the record name of a record value or the tag of a tagged value.
func (v Value) Name() string { return v.s }

// Fields returns the record entries in order. The slice must not be modified.
func (v Value) Fields() []Field { return v.fields }

// Field looks up a record entry by name.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Branch returns the selected branch index of a union value.
func (v Value) Branch() int { return int(v.i) }

// Inner returns the payload of a union or tagged value.
func (v Value) Inner() Value {
	if v.inner == nil {
		return Value{}
	}
	return *v.inner
}

// Equal reports structural equality. Floating point values compare by bit
// pattern, so NaN equals itself and 0 differs from -0.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindInt, KindLong:
		return a.i == b.i
	case KindFloat:
		return math.Float32bits(float32(a.f)) == math.Float32bits(float32(b.f))
	case KindDouble:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case KindString:
		return a.s == b.s
	case KindBytes:
		return bytes.Equal(a.raw, b.raw)
	case KindRecord:
		if a.s != b.s || len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].Name != b.fields[i].Name || !Equal(a.fields[i].Value, b.fields[i].Value) {
				return false
			}
		}
		return true
	case KindUnion:
		return a.i == b.i && Equal(a.Inner(), b.Inner())
	case KindTagged:
		return a.s == b.s && Equal(a.Inner(), b.Inner())
	}
	return false
}

// String renders a compact debug form, e.g. Topic{double0: union[0](1234.5)}.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt, KindLong:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 32))
	case KindDouble:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.s))
	case KindBytes:
		b.WriteString("0x")
		const hex = "0123456789abcdef"
		for _, c := range v.raw {
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	case KindRecord:
		b.WriteString(v.s)
		b.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Value.write(b)
		}
		b.WriteByte('}')
	case KindUnion:
		b.WriteString("union[")
		b.WriteString(strconv.FormatInt(v.i, 10))
		b.WriteString("](")
		v.Inner().write(b)
		b.WriteByte(')')
	case KindTagged:
		b.WriteString(v.s)
		b.WriteByte('(')
		v.Inner().write(b)
		b.WriteByte(')')
	default:
		b.WriteString(v.kind.String())
	}
}
