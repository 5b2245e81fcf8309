package hostinput

import (
	"math"
	"strconv"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/schema"
)

// PolicyFunc returns the policy that applies to the field at path.
type PolicyFunc func(path string) avroskema.Policy

// Prepare converts a decoded document into a host record for r. Fields
// missing from rec stay missing so schema defaults apply; unknown keys are
// kept so validation can report them.
func Prepare(rec map[string]any, r *schema.Record, policy PolicyFunc) map[string]any {
	return prepareRecord("/", rec, r, policy)
}

func prepareRecord(path string, rec map[string]any, r *schema.Record, policy PolicyFunc) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for i := 0; i < r.NumFields(); i++ {
		f := r.Field(i)
		raw, ok := rec[f.Name()]
		if !ok {
			continue
		}
		fp := avroskema.Child(path, f.Name())
		switch policy(fp) {
		case avroskema.ExplicitSumType:
			if raw == nil {
				out[f.Name()] = avroskema.None[any]()
			} else {
				out[f.Name()] = avroskema.Some(coerce(fp, raw, f.Type(), policy))
			}
		default:
			if raw != nil {
				out[f.Name()] = coerce(fp, raw, f.Type(), policy)
			}
		}
	}
	return out
}

// coerce converts raw to the Go type of the first member of t that can hold
// it. Values that fit nothing are returned unchanged for validation to
// reject.
func coerce(path string, raw any, t schema.Type, policy PolicyFunc) any {
	switch t := t.(type) {
	case *schema.Union:
		for i := 0; i < t.Len(); i++ {
			if v, ok := convert(path, raw, t.Member(i), policy); ok {
				return v
			}
		}
		return raw
	default:
		if v, ok := convert(path, raw, t, policy); ok {
			return v
		}
		return raw
	}
}

func convert(path string, raw any, t schema.Type, policy PolicyFunc) (any, bool) {
	switch t := t.(type) {
	case *schema.Record:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		return prepareRecord(path, m, t, policy), true
	case *schema.Primitive:
		switch t.Kind() {
		case schema.Boolean:
			b, ok := raw.(bool)
			return b, ok
		case schema.Int:
			if i, ok := toInt64(raw); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
				return int32(i), true
			}
		case schema.Long:
			if i, ok := toInt64(raw); ok {
				return i, true
			}
		case schema.Float:
			if f, ok := toFloat64(raw); ok {
				return float32(f), true
			}
		case schema.Double:
			if f, ok := toFloat64(raw); ok {
				return f, true
			}
		case schema.String:
			s, ok := raw.(string)
			return s, ok
		case schema.Bytes:
			switch b := raw.(type) {
			case []byte:
				return b, true
			case string:
				// Avro JSON: one byte per code point 0-255.
				out := make([]byte, 0, len(b))
				for _, r := range b {
					if r > 0xff {
						return nil, false
					}
					out = append(out, byte(r))
				}
				return out, true
			}
		}
	}
	return nil, false
}

type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

func toInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
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
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt64(raw); ok {
		return float64(i), true
	}
	return 0, false
}
