// Package mapping converts host records (Go structs or map[string]any) into
// value trees, guided by the record schema and a presence Policy.
//
// Mappers never select union branches. A present value is emitted bare and
// branch selection is left to validation.
package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
)

// TagSome is the tag TaggedOptional puts around present values.
const TagSome = "Some"

// Mapper is stateless after construction and safe for concurrent use.
type Mapper struct {
	policy        avroskema.Policy
	fieldPolicies map[string]avroskema.Policy
	strictUnions  bool
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithFieldPolicy overrides the policy for the field at the JSON Pointer
// path (e.g. "/double0" or "/inner/x").
func WithFieldPolicy(path string, p avroskema.Policy) Option {
	return func(m *Mapper) { m.fieldPolicies[avroskema.NormalizePointer(path)] = p }
}

// WithStrictUnions rejects PlainScalar mapping of fields whose type is a
// union with a null member. Such fields must use a branch-aware policy.
func WithStrictUnions(on bool) Option {
	return func(m *Mapper) { m.strictUnions = on }
}

// New returns a Mapper using policy for every field without an override.
func New(policy avroskema.Policy, opts ...Option) *Mapper {
	m := &Mapper{policy: policy, fieldPolicies: map[string]avroskema.Policy{}}
	for _, o := range opts {
		o(m)
	}
	return m
}

// PolicyFor returns the policy applied to the field at path.
func (m *Mapper) PolicyFor(path string) avroskema.Policy {
	if p, ok := m.fieldPolicies[avroskema.NormalizePointer(path)]; ok {
		return p
	}
	return m.policy
}

// Map converts record into a record value shaped by r. Schema fields absent
// from the host shape take their declared default. Host fields unknown to the
// schema are carried through so validation can report them.
func (m *Mapper) Map(record any, r *schema.Record) (value.Value, error) {
	v, iss := m.mapRecord("/", reflect.ValueOf(record), r)
	if len(iss) > 0 {
		return value.Value{}, iss
	}
	return v, nil
}

func mappingIssue(path, hint string, got reflect.Value) avroskema.Issue {
	params := map[string]any{}
	if got.IsValid() {
		params["got"] = got.Type().String()
	} else {
		params["got"] = "nil"
	}
	return avroskema.NewIssue(path, avroskema.CodeMapping, hint, params)
}

func indirect(hv reflect.Value) reflect.Value {
	for hv.IsValid() && (hv.Kind() == reflect.Interface || hv.Kind() == reflect.Pointer) {
		if hv.IsNil() {
			return reflect.Value{}
		}
		hv = hv.Elem()
	}
	return hv
}

func unwrapInterface(hv reflect.Value) reflect.Value {
	for hv.IsValid() && hv.Kind() == reflect.Interface {
		if hv.IsNil() {
			return reflect.Value{}
		}
		hv = hv.Elem()
	}
	return hv
}

func (m *Mapper) mapRecord(path string, hv reflect.Value, r *schema.Record) (value.Value, avroskema.Issues) {
	hv = indirect(hv)
	entries, dynamic, ok := hostEntries(hv)
	if !ok {
		return value.Value{}, avroskema.Issues{mappingIssue(path, "expected struct or map[string]any for record "+r.FullName(), hv)}
	}
	var iss avroskema.Issues
	fields := make([]value.Field, 0, r.NumFields())
	for i := 0; i < r.NumFields(); i++ {
		f := r.Field(i)
		fp := avroskema.Child(path, f.Name())
		fv, present := entries.lookup(f.Name())
		if !present {
			if def, ok := f.Default(); ok {
				fields = append(fields, value.Field{Name: f.Name(), Value: def})
				continue
			}
			iss = avroskema.AppendIssues(iss, avroskema.NewIssue(fp, avroskema.CodeMapping,
				"missing field "+f.Name()+" and the schema declares no default", nil))
			continue
		}
		v, err := m.mapField(fp, fv, f.Type(), dynamic)
		if len(err) > 0 {
			iss = avroskema.AppendIssues(iss, err...)
			continue
		}
		fields = append(fields, value.Field{Name: f.Name(), Value: v})
	}
	for _, e := range entries {
		if _, known := r.FieldByName(e.name); !known {
			fields = append(fields, value.Field{Name: e.name, Value: loose(e.value)})
		}
	}
	if len(iss) > 0 {
		return value.Value{}, iss
	}
	return value.Record(r.FullName(), fields...), nil
}

func isRecordShaped(hv reflect.Value) bool {
	hv = indirect(hv)
	if !hv.IsValid() {
		return false
	}
	if _, ok := sumTypeOf(hv); ok {
		return false
	}
	return hv.Kind() == reflect.Struct || (hv.Kind() == reflect.Map && hv.Type().Key().Kind() == reflect.String)
}

func sumTypeOf(hv reflect.Value) (avroskema.SumType, bool) {
	if !hv.IsValid() || !hv.CanInterface() {
		return nil, false
	}
	st, ok := hv.Interface().(avroskema.SumType)
	return st, ok
}

func (m *Mapper) mapField(path string, hv reflect.Value, t schema.Type, dynamic bool) (value.Value, avroskema.Issues) {
	hv = unwrapInterface(hv)
	policy := m.PolicyFor(path)
	if m.strictUnions && policy == avroskema.PlainScalar {
		if u, ok := t.(*schema.Union); ok && u.NullIndex() >= 0 {
			return value.Value{}, avroskema.Issues{mappingIssue(path,
				"plain scalar cannot select a branch of nullable union "+u.String()+"; use an explicit sum type", hv)}
		}
	}
	if hv.Kind() != reflect.Pointer && isRecordShaped(hv) {
		return m.payload(path, hv, t)
	}
	switch policy {
	case avroskema.PlainScalar:
		switch {
		case !hv.IsValid():
			return value.Value{}, avroskema.Issues{mappingIssue(path, "plain scalar cannot express absence", hv)}
		case hv.Kind() == reflect.Pointer:
			return value.Value{}, avroskema.Issues{mappingIssue(path, "plain scalar expects a bare value, got a pointer", hv)}
		}
		if _, ok := sumTypeOf(hv); ok {
			return value.Value{}, avroskema.Issues{mappingIssue(path, "plain scalar expects a bare value, got a sum type", hv)}
		}
		return m.payload(path, hv, t)

	case avroskema.DirectOptional, avroskema.TaggedOptional:
		if _, ok := sumTypeOf(hv); ok {
			return value.Value{}, avroskema.Issues{mappingIssue(path, "optional policy expects a pointer, got a sum type", hv)}
		}
		if !hv.IsValid() || (hv.Kind() == reflect.Pointer && hv.IsNil()) {
			return value.Null(), nil
		}
		if hv.Kind() != reflect.Pointer && !dynamic {
			return value.Value{}, avroskema.Issues{mappingIssue(path, "optional policy expects a pointer field", hv)}
		}
		v, iss := m.payload(path, hv, t)
		if len(iss) > 0 || policy == avroskema.DirectOptional {
			return v, iss
		}
		return value.Tagged(TagSome, v), nil

	case avroskema.ExplicitSumType:
		st, ok := sumTypeOf(hv)
		if !ok {
			return value.Value{}, avroskema.Issues{mappingIssue(path, "explicit sum type policy expects avroskema.Option", hv)}
		}
		inner, present := st.Variant()
		if !present {
			return value.Null(), nil
		}
		if iv := reflect.ValueOf(inner); !indirect(iv).IsValid() {
			return value.Value{}, avroskema.Issues{mappingIssue(path, "Some holds a nil value; use None for absence", iv)}
		}
		return m.payload(path, reflect.ValueOf(inner), t)
	}
	return value.Value{}, avroskema.Issues{mappingIssue(path, fmt.Sprintf("unknown policy %v", policy), hv)}
}

// payload maps the present value itself, without any presence wrapper.
func (m *Mapper) payload(path string, hv reflect.Value, t schema.Type) (value.Value, avroskema.Issues) {
	hv = indirect(hv)
	if !hv.IsValid() {
		return value.Null(), nil
	}
	if _, ok := sumTypeOf(hv); ok {
		return value.Value{}, avroskema.Issues{mappingIssue(path, "nested sum types are not supported", hv)}
	}
	switch hv.Kind() {
	case reflect.Bool:
		return value.Boolean(hv.Bool()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return value.Int(int32(hv.Int())), nil
	case reflect.Int, reflect.Int64:
		return value.Long(hv.Int()), nil
	case reflect.Float32:
		return value.Float(float32(hv.Float())), nil
	case reflect.Float64:
		return value.Double(hv.Float()), nil
	case reflect.String:
		return value.String(hv.String()), nil
	case reflect.Slice:
		if hv.Type().Elem().Kind() == reflect.Uint8 {
			return value.Bytes(append([]byte(nil), hv.Bytes()...)), nil
		}
	case reflect.Struct, reflect.Map:
		if r := recordFor(t, hv); r != nil {
			return m.mapRecord(path, hv, r)
		}
		// No record in the declared type; let validation report it.
		return loose(hv), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.Value{}, avroskema.Issues{mappingIssue(path, "unsigned integers are not supported", hv)}
	}
	return value.Value{}, avroskema.Issues{mappingIssue(path, "unsupported host kind "+hv.Kind().String(), hv)}
}

// recordFor picks the record a record-shaped host value maps onto: the type
// itself, or the union's record member whose name matches the Go type name,
// else its first record member.
func recordFor(t schema.Type, hv reflect.Value) *schema.Record {
	switch t := t.(type) {
	case *schema.Record:
		return t
	case *schema.Union:
		var first *schema.Record
		for i := 0; i < t.Len(); i++ {
			r, ok := t.Member(i).(*schema.Record)
			if !ok {
				continue
			}
			if hv.Kind() == reflect.Struct && r.Name() == hv.Type().Name() {
				return r
			}
			if first == nil {
				first = r
			}
		}
		return first
	}
	return nil
}

// loose maps a host value by its Go kind alone. Values without a value
// counterpart become null.
func loose(hv reflect.Value) value.Value {
	hv = indirect(hv)
	if !hv.IsValid() {
		return value.Null()
	}
	if st, ok := sumTypeOf(hv); ok {
		inner, present := st.Variant()
		if !present {
			return value.Null()
		}
		return value.Tagged(TagSome, loose(reflect.ValueOf(inner)))
	}
	switch hv.Kind() {
	case reflect.Bool:
		return value.Boolean(hv.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return value.Int(int32(hv.Int()))
	case reflect.Int, reflect.Int64:
		return value.Long(hv.Int())
	case reflect.Float32:
		return value.Float(float32(hv.Float()))
	case reflect.Float64:
		return value.Double(hv.Float())
	case reflect.String:
		return value.String(hv.String())
	case reflect.Slice:
		if hv.Type().Elem().Kind() == reflect.Uint8 {
			return value.Bytes(append([]byte(nil), hv.Bytes()...))
		}
	case reflect.Struct, reflect.Map:
		entries, _, ok := hostEntries(hv)
		if !ok {
			break
		}
		fields := make([]value.Field, 0, len(entries))
		for _, e := range entries {
			fields = append(fields, value.Field{Name: e.name, Value: loose(e.value)})
		}
		name := ""
		if hv.Kind() == reflect.Struct {
			name = hv.Type().Name()
		}
		return value.Record(name, fields...)
	}
	return value.Null()
}

type entry struct {
	name  string
	value reflect.Value
}

type entries []entry

func (es entries) lookup(name string) (reflect.Value, bool) {
	for _, e := range es {
		if e.name == name {
			return e.value, true
		}
	}
	return reflect.Value{}, false
}

// hostEntries lists the keyed values of a struct or string-keyed map. Map
// entries are sorted by key. dynamic is true for maps.
func hostEntries(hv reflect.Value) (entries, bool, bool) {
	switch hv.Kind() {
	case reflect.Struct:
		keys := structKeys(hv.Type())
		out := make(entries, 0, len(keys))
		for _, k := range keys {
			out = append(out, entry{name: k.name, value: hv.FieldByIndex(k.index)})
		}
		return out, false, true
	case reflect.Map:
		if hv.Type().Key().Kind() != reflect.String {
			return nil, true, false
		}
		out := make(entries, 0, hv.Len())
		iter := hv.MapRange()
		for iter.Next() {
			out = append(out, entry{name: iter.Key().String(), value: iter.Value()})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
		return out, true, true
	}
	return nil, false, false
}

type structKey struct {
	name  string
	index []int
}

var structKeyCache sync.Map // reflect.Type -> []structKey

// structKeys resolves exported struct fields to record keys.
// Priority: avro:"name" tag > field name; "-" skips the field.
func structKeys(t reflect.Type) []structKey {
	if v, ok := structKeyCache.Load(t); ok {
		return v.([]structKey)
	}
	var keys []structKey
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag := sf.Tag.Get("avro"); tag != "" {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		keys = append(keys, structKey{name: name, index: sf.Index})
	}
	structKeyCache.Store(t, keys)
	return keys
}
