package schema

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/value"
)

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validName(s string) bool { return nameRe.MatchString(s) }

func validNamespace(ns string) bool {
	if ns == "" {
		return true
	}
	for _, part := range strings.Split(ns, ".") {
		if !validName(part) {
			return false
		}
	}
	return true
}

func constructionIssue(path, hint string) avroskema.Issue {
	return avroskema.NewIssue(path, avroskema.CodeSchemaConstruction, hint, nil)
}

func unsupportedIssue(path, construct string) avroskema.Issue {
	return avroskema.NewIssue(path, avroskema.CodeUnsupported, construct+" is not supported",
		map[string]any{"construct": construct})
}

// NewUnion builds a union over members in the given order.
func NewUnion(members ...Type) (*Union, error) {
	u, iss := buildUnion("/", members)
	if len(iss) > 0 {
		return nil, iss
	}
	return u, nil
}

func buildUnion(path string, members []Type) (*Union, avroskema.Issues) {
	var iss avroskema.Issues
	if len(members) == 0 {
		return nil, avroskema.AppendIssues(iss, constructionIssue(path, "union has no members"))
	}
	seen := map[string]int{}
	for i, m := range members {
		mp := avroskema.Index(path, i)
		if m == nil {
			iss = avroskema.AppendIssues(iss, constructionIssue(mp, "nil union member"))
			continue
		}
		if _, ok := m.(*Union); ok {
			iss = avroskema.AppendIssues(iss, constructionIssue(mp, "unions may not directly contain unions"))
			continue
		}
		name := m.TypeName()
		if j, dup := seen[name]; dup {
			iss = avroskema.AppendIssues(iss, constructionIssue(mp,
				fmt.Sprintf("duplicate union member %s (also at index %d)", name, j)))
			continue
		}
		seen[name] = i
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return &Union{members: append([]Type(nil), members...)}, nil
}

// NewRecord builds a record. A dotted name is split into namespace and name
// when namespace is empty.
func NewRecord(name, namespace string, fields ...Field) (*Record, error) {
	r, iss := buildRecord("/", name, namespace, "", fields)
	if len(iss) > 0 {
		return nil, iss
	}
	return r, nil
}

func splitFullName(name, namespace string) (string, string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:], name[:i]
	}
	return name, namespace
}

func buildRecord(path, name, namespace, doc string, fields []Field) (*Record, avroskema.Issues) {
	var iss avroskema.Issues
	name, namespace = splitFullName(name, namespace)
	if !validName(name) {
		iss = avroskema.AppendIssues(iss, constructionIssue(avroskema.Child(path, "name"),
			fmt.Sprintf("invalid record name %q", name)))
	}
	if !validNamespace(namespace) {
		iss = avroskema.AppendIssues(iss, constructionIssue(avroskema.Child(path, "namespace"),
			fmt.Sprintf("invalid namespace %q", namespace)))
	}
	r := &Record{
		name:      name,
		namespace: namespace,
		doc:       doc,
		fields:    make([]Field, 0, len(fields)),
		index:     make(map[string]int, len(fields)),
	}
	fieldsPath := avroskema.Child(path, "fields")
	for i, f := range fields {
		fp := avroskema.Index(fieldsPath, i)
		if !validName(f.name) {
			iss = avroskema.AppendIssues(iss, constructionIssue(avroskema.Child(fp, "name"),
				fmt.Sprintf("invalid field name %q", f.name)))
			continue
		}
		if _, dup := r.index[f.name]; dup {
			iss = avroskema.AppendIssues(iss, constructionIssue(avroskema.Child(fp, "name"),
				fmt.Sprintf("duplicate field %q", f.name)))
			continue
		}
		if f.typ == nil {
			iss = avroskema.AppendIssues(iss, constructionIssue(avroskema.Child(fp, "type"), "field has no type"))
			continue
		}
		if f.hasDefault {
			def, err := defaultValue(avroskema.Child(fp, "default"), f.typ, f.rawDefault)
			if err != nil {
				iss = avroskema.AppendIssues(iss, err...)
				continue
			}
			f.def = def
		}
		r.index[f.name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return r, nil
}

// New wraps a top-level record into a Schema and computes its canonical
// form and fingerprint.
func New(root *Record) (*Schema, error) {
	if root == nil {
		return nil, avroskema.Issues{constructionIssue("/", "top-level type must be a record")}
	}
	if iss := checkNames("/", root, map[string]*Record{}); len(iss) > 0 {
		return nil, iss
	}
	s := &Schema{root: root}
	s.canonical = canonicalForm(root)
	s.fingerprint = fingerprint(s.canonical)
	return s, nil
}

// checkNames rejects two distinct records sharing a full name. The same
// *Record may appear more than once.
func checkNames(path string, t Type, seen map[string]*Record) avroskema.Issues {
	switch t := t.(type) {
	case *Union:
		var iss avroskema.Issues
		for i, m := range t.members {
			iss = avroskema.AppendIssues(iss, checkNames(avroskema.Index(path, i), m, seen)...)
		}
		return iss
	case *Record:
		full := t.FullName()
		if prev, ok := seen[full]; ok {
			if prev != t {
				return avroskema.Issues{constructionIssue(path, "record name "+full+" is already defined")}
			}
			return nil
		}
		seen[full] = t
		var iss avroskema.Issues
		for _, f := range t.fields {
			iss = avroskema.AppendIssues(iss, checkNames(avroskema.Child(path, f.name), f.typ, seen)...)
		}
		return iss
	}
	return nil
}

// MustNew is New that panics on error. Intended for package-level schemas.
func MustNew(root *Record, err error) *Schema {
	if err != nil {
		panic(err)
	}
	s, err := New(root)
	if err != nil {
		panic(err)
	}
	return s
}

// number covers json.Number from both encoding/json and goccy/go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func asInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	case number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func asFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := asInt64(raw); ok {
		return float64(i), true
	}
	return 0, false
}

// defaultValue converts a raw Avro JSON default into a value of type t.
func defaultValue(path string, t Type, raw any) (value.Value, avroskema.Issues) {
	bad := func(expected string) (value.Value, avroskema.Issues) {
		return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeSchemaConstruction,
			fmt.Sprintf("default %v does not match %s", raw, expected),
			map[string]any{"expected": expected, "got": fmt.Sprintf("%T", raw)})}
	}
	switch t := t.(type) {
	case *Union:
		// Avro: a union default matches the first member.
		return defaultValue(path, t.members[0], raw)
	case *Record:
		m, ok := raw.(map[string]any)
		if !ok {
			return bad(t.FullName())
		}
		var iss avroskema.Issues
		fields := make([]value.Field, 0, len(t.fields))
		for _, f := range t.fields {
			fp := avroskema.Child(path, f.name)
			if rv, present := m[f.name]; present {
				v, err := defaultValue(fp, f.typ, rv)
				if err != nil {
					iss = avroskema.AppendIssues(iss, err...)
					continue
				}
				fields = append(fields, value.Field{Name: f.name, Value: v})
				continue
			}
			if f.hasDefault {
				fields = append(fields, value.Field{Name: f.name, Value: f.def})
				continue
			}
			iss = avroskema.AppendIssues(iss, constructionIssue(fp, "record default is missing field "+f.name))
		}
		if len(iss) > 0 {
			return value.Value{}, iss
		}
		return value.Record(t.FullName(), fields...), nil
	case *Primitive:
		switch t.kind {
		case Null:
			if raw == nil {
				return value.Null(), nil
			}
		case Boolean:
			if b, ok := raw.(bool); ok {
				return value.Boolean(b), nil
			}
		case Int:
			if i, ok := asInt64(raw); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
				return value.Int(int32(i)), nil
			}
		case Long:
			if i, ok := asInt64(raw); ok {
				return value.Long(i), nil
			}
		case Float:
			if f, ok := asFloat64(raw); ok {
				return value.Float(float32(f)), nil
			}
		case Double:
			if f, ok := asFloat64(raw); ok {
				return value.Double(f), nil
			}
		case String:
			if s, ok := raw.(string); ok {
				return value.String(s), nil
			}
		case Bytes:
			// Avro encodes bytes defaults as strings of code points 0-255.
			if s, ok := raw.(string); ok {
				b := make([]byte, 0, len(s))
				for _, r := range s {
					if r > 0xff {
						return bad("bytes")
					}
					b = append(b, byte(r))
				}
				return value.Bytes(b), nil
			}
		}
		return bad(t.kind.String())
	}
	return bad("known type")
}
