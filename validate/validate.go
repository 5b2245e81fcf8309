// Package validate checks value trees against schema types and resolves
// union branches by first match in declared member order.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
)

// Resolve confirms v structurally matches t and returns the branch-resolved
// value: every union position is wrapped as value.Union with the index of the
// first member that accepts the payload. Record fields are returned in
// schema order. There is no widening between numeric kinds.
func Resolve(v value.Value, t schema.Type) (value.Value, error) {
	out, iss := resolve("/", v, t)
	if len(iss) > 0 {
		return value.Value{}, iss
	}
	return out, nil
}

// Matches reports whether v structurally matches t.
func Matches(v value.Value, t schema.Type) bool {
	_, iss := resolve("/", v, t)
	return len(iss) == 0
}

func resolve(path string, v value.Value, t schema.Type) (value.Value, avroskema.Issues) {
	switch t := t.(type) {
	case *schema.Primitive:
		if v.Kind() != t.Kind().ValueKind() {
			return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeTypeMismatch, "",
				map[string]any{"expected": t.Kind().String(), "got": v.Kind().String()})}
		}
		if v.Kind() == value.KindString && !utf8.ValidString(v.AsString()) {
			return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeTypeMismatch,
				"string is not valid UTF-8", map[string]any{"expected": "string", "got": "invalid UTF-8"})}
		}
		return v, nil

	case *schema.Union:
		for i := 0; i < t.Len(); i++ {
			inner, iss := resolve(path, v, t.Member(i))
			if len(iss) == 0 {
				return value.Union(i, inner), nil
			}
		}
		members := make([]string, t.Len())
		for i := range members {
			members[i] = t.Member(i).TypeName()
		}
		return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeUnionMismatch,
			fmt.Sprintf("%s matches none of %s", describe(v), t.String()),
			map[string]any{"members": members, "got": v.Kind().String()})}

	case *schema.Record:
		return resolveRecord(path, v, t)
	}
	return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeTypeMismatch,
		fmt.Sprintf("unknown schema type %T", t), nil)}
}

func resolveRecord(path string, v value.Value, r *schema.Record) (value.Value, avroskema.Issues) {
	if v.Kind() != value.KindRecord {
		return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeTypeMismatch, "",
			map[string]any{"expected": r.FullName(), "got": v.Kind().String()})}
	}
	// Unnamed record values match structurally; named ones must name r.
	if n := v.Name(); n != "" && n != r.FullName() && n != r.Name() {
		return value.Value{}, avroskema.Issues{avroskema.NewIssue(path, avroskema.CodeTypeMismatch, "",
			map[string]any{"expected": r.FullName(), "got": "record " + n})}
	}
	var iss avroskema.Issues
	got := make(map[string]value.Value, len(v.Fields()))
	var extra []string
	for _, f := range v.Fields() {
		if _, dup := got[f.Name]; dup {
			iss = avroskema.AppendIssues(iss, avroskema.NewIssue(avroskema.Child(path, f.Name),
				avroskema.CodeRecordShapeMismatch, "duplicate field "+f.Name, nil))
			continue
		}
		got[f.Name] = f.Value
		if _, known := r.FieldByName(f.Name); !known {
			extra = append(extra, f.Name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		iss = avroskema.AppendIssues(iss, avroskema.NewIssue(avroskema.Child(path, name),
			avroskema.CodeRecordShapeMismatch, "field "+name+" is not declared by "+r.FullName(), nil))
	}
	fields := make([]value.Field, 0, r.NumFields())
	for i := 0; i < r.NumFields(); i++ {
		f := r.Field(i)
		fp := avroskema.Child(path, f.Name())
		fv, ok := got[f.Name()]
		if !ok {
			iss = avroskema.AppendIssues(iss, avroskema.NewIssue(fp, avroskema.CodeRecordShapeMismatch,
				"missing field "+f.Name(), nil))
			continue
		}
		rv, err := resolve(fp, fv, f.Type())
		if len(err) > 0 {
			iss = avroskema.AppendIssues(iss, err...)
			continue
		}
		fields = append(fields, value.Field{Name: f.Name(), Value: rv})
	}
	if len(iss) > 0 {
		return value.Value{}, iss
	}
	return value.Record(r.FullName(), fields...), nil
}

func describe(v value.Value) string {
	switch v.Kind() {
	case value.KindTagged:
		return "tagged " + v.Name() + "(" + v.Inner().Kind().String() + ")"
	case value.KindRecord:
		names := make([]string, 0, len(v.Fields()))
		for _, f := range v.Fields() {
			names = append(names, f.Name)
		}
		return "record{" + strings.Join(names, ",") + "}"
	}
	return v.Kind().String()
}
