package value_test

import (
	"math"
	"testing"

	"github.com/reoring/avroskema/value"
)

func TestEqual_Structural(t *testing.T) {
	a := value.Record("Topic",
		value.Field{Name: "double0", Value: value.Union(0, value.Double(1234.5))},
		value.Field{Name: "float0", Value: value.Null()},
	)
	b := value.Record("Topic",
		value.Field{Name: "double0", Value: value.Union(0, value.Double(1234.5))},
		value.Field{Name: "float0", Value: value.Null()},
	)
	if !value.Equal(a, b) {
		t.Fatalf("expected equal records: %v vs %v", a, b)
	}
	c := value.Record("Topic",
		value.Field{Name: "double0", Value: value.Union(1, value.Double(1234.5))},
		value.Field{Name: "float0", Value: value.Null()},
	)
	if value.Equal(a, c) {
		t.Fatalf("branch index must participate in equality")
	}
}

func TestEqual_NoWidening(t *testing.T) {
	if value.Equal(value.Float(1.5), value.Double(1.5)) {
		t.Fatalf("float and double must not compare equal")
	}
	if value.Equal(value.Int(7), value.Long(7)) {
		t.Fatalf("int and long must not compare equal")
	}
	if !value.Equal(value.Double(math.NaN()), value.Double(math.NaN())) {
		t.Fatalf("NaN compares by bit pattern")
	}
	if !value.Equal(value.Bytes([]byte{1, 2}), value.Bytes([]byte{1, 2})) {
		t.Fatalf("bytes compare by content")
	}
}

func TestString(t *testing.T) {
	v := value.Record("Topic",
		value.Field{Name: "double0", Value: value.Union(0, value.Double(1234.5))},
		value.Field{Name: "tag", Value: value.Tagged("Some", value.Bytes([]byte{0xab}))},
	)
	want := "Topic{double0: union[0](1234.5), tag: Some(0xab)}"
	if got := v.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v value.Value
	if !v.IsNull() || v.Kind() != value.KindNull {
		t.Fatalf("zero value should be null, got %v", v.Kind())
	}
	if !v.Inner().IsNull() {
		t.Fatalf("inner of non-wrapper should be null")
	}
}
