// Package schema is the immutable record schema model: primitives, unions
// and records with ordered fields.
//
// A Schema is built once (programmatically or from Avro JSON/YAML text) and
// is read-only afterwards, so it can be shared by any number of writers and
// goroutines. Union member order is fixed at construction and is
// load-bearing: it defines branch indices and first-match priority.
package schema

import (
	"slices"
	"strings"

	"github.com/reoring/avroskema/value"
)

// Kind is a primitive type kind.
type Kind uint8

const (
	Null Kind = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
)

var kindNames = [...]string{
	Null:    "null",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Bytes:   "bytes",
	String:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// ValueKind maps a primitive kind to the value kind it accepts.
func (k Kind) ValueKind() value.Kind {
	switch k {
	case Null:
		return value.KindNull
	case Boolean:
		return value.KindBoolean
	case Int:
		return value.KindInt
	case Long:
		return value.KindLong
	case Float:
		return value.KindFloat
	case Double:
		return value.KindDouble
	case Bytes:
		return value.KindBytes
	default:
		return value.KindString
	}
}

// KindOf resolves an Avro primitive type name.
func KindOf(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Type is a schema type reference: *Primitive, *Union or *Record.
type Type interface {
	// TypeName is the primitive name, "union", or the record full name.
	TypeName() string
	String() string
	isType()
}

// Primitive is a primitive type.
type Primitive struct{ kind Kind }

var primitives = [...]*Primitive{
	{Null}, {Boolean}, {Int}, {Long}, {Float}, {Double}, {Bytes}, {String},
}

// Prim returns the shared primitive type for k.
func Prim(k Kind) *Primitive {
	if int(k) >= len(primitives) {
		panic("schema: invalid primitive kind")
	}
	return primitives[k]
}

func (p *Primitive) Kind() Kind       { return p.kind }
func (p *Primitive) TypeName() string { return p.kind.String() }
func (p *Primitive) String() string   { return p.kind.String() }
func (*Primitive) isType()            {}

// Union is an ordered list of member types.
type Union struct{ members []Type }

// Len returns the number of members.
func (u *Union) Len() int { return len(u.members) }

// Member returns the member at branch index i.
func (u *Union) Member(i int) Type { return u.members[i] }

// Members returns a copy of the member list.
func (u *Union) Members() []Type { return slices.Clone(u.members) }

// NullIndex returns the branch index of the null member, or -1.
func (u *Union) NullIndex() int {
	for i, m := range u.members {
		if p, ok := m.(*Primitive); ok && p.kind == Null {
			return i
		}
	}
	return -1
}

func (u *Union) TypeName() string { return "union" }

func (u *Union) String() string {
	names := make([]string, len(u.members))
	for i, m := range u.members {
		names[i] = m.TypeName()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func (*Union) isType() {}

// Record is a named record with ordered fields.
type Record struct {
	name      string
	namespace string
	doc       string
	fields    []Field
	index     map[string]int
}

func (r *Record) Name() string      { return r.name }
func (r *Record) Namespace() string { return r.namespace }
func (r *Record) Doc() string       { return r.doc }

// FullName is namespace.name, or name without a namespace.
func (r *Record) FullName() string {
	if r.namespace == "" {
		return r.name
	}
	return r.namespace + "." + r.name
}

// NumFields returns the number of fields.
func (r *Record) NumFields() int { return len(r.fields) }

// Field returns the field at position i in declared order.
func (r *Record) Field(i int) Field { return r.fields[i] }

// FieldByName looks up a field by name.
func (r *Record) FieldByName(name string) (Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Fields returns a copy of the fields in declared order.
func (r *Record) Fields() []Field { return slices.Clone(r.fields) }

func (r *Record) TypeName() string { return r.FullName() }
func (r *Record) String() string   { return "record " + r.FullName() }
func (*Record) isType()            {}

// Field is one record field. Values returned by a Record carry the resolved
// default; a Field from NewField only holds the raw default until it is
// attached to a record.
type Field struct {
	name       string
	typ        Type
	doc        string
	rawDefault any
	hasDefault bool
	def        value.Value
}

// FieldOption customizes NewField.
type FieldOption func(*Field)

// WithDefault declares the field default in its Avro JSON form (nil for
// null, numbers, strings, bools, map[string]any for records). For unions the
// default must match the first member.
func WithDefault(v any) FieldOption {
	return func(f *Field) {
		f.rawDefault = v
		f.hasDefault = true
	}
}

// WithDoc sets the field documentation.
func WithDoc(doc string) FieldOption {
	return func(f *Field) { f.doc = doc }
}

// NewField declares a field. It is validated by NewRecord.
func NewField(name string, t Type, opts ...FieldOption) Field {
	f := Field{name: name, typ: t}
	for _, o := range opts {
		o(&f)
	}
	return f
}

func (f Field) Name() string { return f.name }
func (f Field) Type() Type   { return f.typ }
func (f Field) Doc() string  { return f.doc }

// Default returns the resolved default value.
func (f Field) Default() (value.Value, bool) { return f.def, f.hasDefault }

// Schema is a validated top-level record schema.
type Schema struct {
	root        *Record
	canonical   string
	fingerprint [32]byte
}

// Root returns the top-level record.
func (s *Schema) Root() *Record { return s.root }

func (s *Schema) String() string { return s.canonical }
