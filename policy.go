package avroskema

import (
	"fmt"
	"strings"
)

// Policy selects how a host field's presence convention is translated into a
// value before validation.
type Policy int

const (
	// DirectOptional reads pointer fields: nil is null, a non-nil pointer is
	// its bare payload. The payload carries no trace of having been optional,
	// so branch selection is left to first-match validation.
	DirectOptional Policy = iota
	// PlainScalar reads bare, always-present fields. It cannot express
	// absence.
	PlainScalar
	// ExplicitSumType reads Option[T] fields: None is null, Some(v) is v.
	ExplicitSumType
	// TaggedOptional is the strict form of DirectOptional: a present pointer
	// is emitted as a tagged-present value that no schema member accepts.
	TaggedOptional
)

var policyNames = [...]string{
	DirectOptional:  "direct-optional",
	PlainScalar:     "plain-scalar",
	ExplicitSumType: "explicit-sum-type",
	TaggedOptional:  "tagged-optional",
}

// Policies lists every policy in declaration order.
func Policies() []Policy {
	return []Policy{DirectOptional, PlainScalar, ExplicitSumType, TaggedOptional}
}

func (p Policy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts kebab-case, camel-case and snake_case spellings.
func ParsePolicy(s string) (Policy, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for i, name := range policyNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return Policy(i), nil
		}
	}
	return 0, fmt.Errorf("avroskema: unknown policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(policyNames) {
		return nil, fmt.Errorf("avroskema: invalid policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error { return p.UnmarshalText([]byte(s)) }

// Type implements pflag.Value.
func (p *Policy) Type() string { return "policy" }
