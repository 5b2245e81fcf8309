package schema

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	avroskema "github.com/reoring/avroskema"
)

// Parse builds a Schema from Avro JSON schema text.
func Parse(data []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var desc any
	if err := dec.Decode(&desc); err != nil {
		return nil, avroskema.Issues{avroskema.Issue{
			Path: "/", Code: avroskema.CodeSchemaConstruction,
			Message: "schema is not valid JSON", Cause: err,
		}}
	}
	return FromDescriptor(desc)
}

// MustParse is Parse that panics on error.
func MustParse(data string) *Schema {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// ParseYAML builds a Schema from the YAML rendering of an Avro schema.
func ParseYAML(data []byte) (*Schema, error) {
	var desc any
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, avroskema.Issues{avroskema.Issue{
			Path: "/", Code: avroskema.CodeSchemaConstruction,
			Message: "schema is not valid YAML", Cause: err,
		}}
	}
	return FromDescriptor(yamlToJSONShape(desc))
}

// yamlToJSONShape converts map[any]any nodes into map[string]any.
func yamlToJSONShape(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlToJSONShape(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = yamlToJSONShape(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlToJSONShape(e)
		}
		return out
	}
	return v
}

// FromDescriptor builds a Schema from a decoded JSON-like description
// (map[string]any, []any, string). Constructs outside the supported subset
// (enum, array, map, fixed, logical types, recursive references) are
// rejected with CodeUnsupported.
func FromDescriptor(desc any) (*Schema, error) {
	p := &parser{named: map[string]*Record{}, inProgress: map[string]bool{}}
	t := p.parseType("/", desc, "")
	if len(p.issues) > 0 {
		return nil, p.issues
	}
	root, ok := t.(*Record)
	if !ok {
		return nil, avroskema.Issues{constructionIssue("/", "top-level type must be a record")}
	}
	return New(root)
}

type parser struct {
	named      map[string]*Record
	inProgress map[string]bool
	issues     avroskema.Issues
}

func (p *parser) fail(iss ...avroskema.Issue) Type {
	p.issues = avroskema.AppendIssues(p.issues, iss...)
	return nil
}

var unsupportedTypes = map[string]bool{
	"enum": true, "array": true, "map": true, "fixed": true, "error": true,
}

func (p *parser) parseType(path string, d any, ns string) Type {
	switch t := d.(type) {
	case string:
		return p.parseName(path, t, ns)
	case []any:
		members := make([]Type, 0, len(t))
		for i, m := range t {
			mt := p.parseType(avroskema.Index(path, i), m, ns)
			if mt == nil {
				return nil
			}
			members = append(members, mt)
		}
		u, iss := buildUnion(path, members)
		if len(iss) > 0 {
			return p.fail(iss...)
		}
		return u
	case map[string]any:
		if lt, ok := t["logicalType"]; ok {
			return p.fail(unsupportedIssue(avroskema.Child(path, "logicalType"), fmt.Sprintf("logical type %v", lt)))
		}
		tp := avroskema.Child(path, "type")
		switch tn := t["type"].(type) {
		case string:
			if tn == "record" {
				return p.parseRecord(path, t, ns)
			}
			if unsupportedTypes[tn] {
				return p.fail(unsupportedIssue(tp, tn))
			}
			if k, ok := KindOf(tn); ok {
				return Prim(k)
			}
			return p.parseName(tp, tn, ns)
		case nil:
			return p.fail(constructionIssue(tp, "missing type"))
		default:
			return p.parseType(tp, tn, ns)
		}
	}
	return p.fail(constructionIssue(path, fmt.Sprintf("unexpected schema node %T", d)))
}

func (p *parser) parseName(path, name, ns string) Type {
	if k, ok := KindOf(name); ok {
		return Prim(k)
	}
	if unsupportedTypes[name] {
		return p.fail(unsupportedIssue(path, name))
	}
	if name == "record" {
		return p.fail(constructionIssue(path, "record must be declared as an object"))
	}
	candidates := []string{name}
	if ns != "" && !strings.Contains(name, ".") {
		candidates = []string{ns + "." + name, name}
	}
	for _, full := range candidates {
		if p.inProgress[full] {
			return p.fail(unsupportedIssue(path, "recursive reference to "+full))
		}
		if r, ok := p.named[full]; ok {
			return r
		}
	}
	return p.fail(constructionIssue(path, fmt.Sprintf("unknown type %q", name)))
}

func (p *parser) parseRecord(path string, d map[string]any, ns string) Type {
	name, _ := d["name"].(string)
	if name == "" {
		return p.fail(constructionIssue(avroskema.Child(path, "name"), "record requires a name"))
	}
	if s, ok := d["namespace"].(string); ok {
		ns = s
	}
	local, recNS := splitFullName(name, ns)
	full := local
	if recNS != "" {
		full = recNS + "." + local
	}
	if p.inProgress[full] || p.named[full] != nil {
		return p.fail(constructionIssue(avroskema.Child(path, "name"), "duplicate definition of "+full))
	}
	p.inProgress[full] = true
	defer delete(p.inProgress, full)

	fieldsPath := avroskema.Child(path, "fields")
	rawFields, ok := d["fields"].([]any)
	if !ok {
		return p.fail(constructionIssue(fieldsPath, "record requires a fields array"))
	}
	fields := make([]Field, 0, len(rawFields))
	failed := false
	for i, rf := range rawFields {
		fp := avroskema.Index(fieldsPath, i)
		fm, ok := rf.(map[string]any)
		if !ok {
			p.fail(constructionIssue(fp, "field must be an object"))
			failed = true
			continue
		}
		fname, _ := fm["name"].(string)
		ft := p.parseType(avroskema.Child(fp, "type"), fm["type"], recNS)
		if ft == nil {
			failed = true
			continue
		}
		var opts []FieldOption
		if def, ok := fm["default"]; ok {
			opts = append(opts, WithDefault(def))
		}
		if doc, ok := fm["doc"].(string); ok {
			opts = append(opts, WithDoc(doc))
		}
		fields = append(fields, NewField(fname, ft, opts...))
	}
	if failed {
		return nil
	}
	doc, _ := d["doc"].(string)
	r, iss := buildRecord(path, local, recNS, doc, fields)
	if len(iss) > 0 {
		return p.fail(iss...)
	}
	p.named[full] = r
	return r
}
