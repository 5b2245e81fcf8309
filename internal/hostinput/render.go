package hostinput

import (
	"bytes"
	"math"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
)

// Record is a rendered record whose JSON form keeps schema field order.
type Record struct {
	Keys   []string
	Values map[string]any
}

// MarshalJSON writes the fields in Keys order.
func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// RenderJSON renders a decoded value in Avro JSON shape: a non-null union
// branch becomes a one-key object named after the branch type, bytes become
// a string of code points 0-255.
func RenderJSON(v value.Value, t schema.Type) any {
	return render(v, t, true)
}

// RenderGeneric is RenderJSON with plain maps for records and raw bytes,
// suitable for CBOR output.
func RenderGeneric(v value.Value, t schema.Type) any {
	return render(v, t, false)
}

func render(v value.Value, t schema.Type, jsonShape bool) any {
	switch t := t.(type) {
	case *schema.Union:
		if v.Kind() != value.KindUnion || v.Branch() < 0 || v.Branch() >= t.Len() {
			return nil
		}
		member := t.Member(v.Branch())
		if p, ok := member.(*schema.Primitive); ok && p.Kind() == schema.Null {
			return nil
		}
		return map[string]any{member.TypeName(): render(v.Inner(), member, jsonShape)}
	case *schema.Record:
		keys := make([]string, 0, t.NumFields())
		vals := make(map[string]any, t.NumFields())
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			fv, _ := v.Field(f.Name())
			keys = append(keys, f.Name())
			vals[f.Name()] = render(fv, f.Type(), jsonShape)
		}
		if jsonShape {
			return Record{Keys: keys, Values: vals}
		}
		return vals
	}
	switch v.Kind() {
	case value.KindBoolean:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindLong:
		return v.AsLong()
	case value.KindFloat:
		if jsonShape {
			return jsonFloat(float64(v.AsFloat()))
		}
		return v.AsFloat()
	case value.KindDouble:
		if jsonShape {
			return jsonFloat(v.AsDouble())
		}
		return v.AsDouble()
	case value.KindString:
		return v.AsString()
	case value.KindBytes:
		if !jsonShape {
			return v.AsBytes()
		}
		var sb strings.Builder
		for _, c := range v.AsBytes() {
			sb.WriteRune(rune(c))
		}
		return sb.String()
	}
	return nil
}

// jsonFloat spells non-finite numbers the way Avro JSON tools do.
func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}
