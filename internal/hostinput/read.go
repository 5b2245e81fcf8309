// Package hostinput turns JSON, YAML and CBOR documents into host records
// for the CLI. Those formats carry untyped numbers, so records are prepared
// against the schema: numbers become the Go type of the kind the field
// declares, and presence is wrapped the way the field's policy expects.
package hostinput

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Formats accepted by Read.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

var cborDec cbor.DecMode

func init() {
	var err error
	cborDec, err = cbor.DecOptions{
		// Records are keyed by field name; any-typed targets must be
		// map[string]any like the JSON and YAML paths.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("hostinput: CBOR decoder initialization failed: " + err.Error())
	}
}

// Read decodes every document in r. A document may be a single record or an
// array of records; JSON input may be JSON lines.
func Read(r io.Reader, format string) ([]map[string]any, error) {
	var next func() (any, error)
	switch format {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		next = func() (any, error) {
			var doc any
			err := dec.Decode(&doc)
			return doc, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		next = func() (any, error) {
			var doc any
			err := dec.Decode(&doc)
			return doc, err
		}
	case FormatCBOR:
		dec := cborDec.NewDecoder(r)
		next = func() (any, error) {
			var doc any
			err := dec.Decode(&doc)
			return doc, err
		}
	default:
		return nil, fmt.Errorf("hostinput: unknown format %q", format)
	}

	var out []map[string]any
	for n := 0; ; n++ {
		doc, err := next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("hostinput: %s document %d: %w", format, n, err)
		}
		recs, err := records(doc)
		if err != nil {
			return out, fmt.Errorf("hostinput: %s document %d: %w", format, n, err)
		}
		out = append(out, recs...)
	}
}

// ReadBytes is Read over a byte slice.
func ReadBytes(data []byte, format string) ([]map[string]any, error) {
	return Read(bytes.NewReader(data), format)
}

func records(doc any) ([]map[string]any, error) {
	switch d := normalize(doc).(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{d}, nil
	case []any:
		out := make([]map[string]any, 0, len(d))
		for i, e := range d {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not an object", i, e)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("document is %T, not an object", doc)
}

// normalize converts map[any]any nodes into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	}
	return v
}
