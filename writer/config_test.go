package writer_test

import (
	"testing"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/writer"
)

func TestLoadConfig(t *testing.T) {
	c, err := writer.LoadConfig([]byte(`
policy: plain-scalar
fieldPolicies:
  /float0: explicit-sum-type
  double0: ExplicitSumType
strictUnions: true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Policy != avroskema.PlainScalar || !c.StrictUnions {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.FieldPolicies["/float0"] != avroskema.ExplicitSumType || c.FieldPolicies["double0"] != avroskema.ExplicitSumType {
		t.Fatalf("unexpected field policies %+v", c.FieldPolicies)
	}

	w := writer.New(schema.MustParse(twoFieldJSON), c.Policy, c.Options()...)
	if err := w.Append(twoFieldSum{Double0: avroskema.None[float64](), Float0: avroskema.Some[float32](1)}); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := writer.LoadConfig([]byte("policy: sometimes\n")); err == nil {
		t.Fatalf("unknown policy should fail")
	}
	if _, err := writer.LoadConfig([]byte("polcy: plain-scalar\n")); err == nil {
		t.Fatalf("unknown key should fail")
	}
	c, err := writer.LoadConfig(nil)
	if err != nil || c.Policy != avroskema.DirectOptional {
		t.Fatalf("empty config should yield defaults, got %+v %v", c, err)
	}
}
