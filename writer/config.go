package writer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	avroskema "github.com/reoring/avroskema"
)

// Config is the declarative form of the writer options.
//
//	policy: plain-scalar
//	fieldPolicies:
//	  /double0: explicit-sum-type
//	strictUnions: false
type Config struct {
	Policy        avroskema.Policy            `yaml:"policy"`
	FieldPolicies map[string]avroskema.Policy `yaml:"fieldPolicies"`
	StrictUnions  bool                        `yaml:"strictUnions"`
}

// LoadConfig decodes a YAML config. Unknown keys are rejected.
func LoadConfig(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("writer: config: %w", err)
	}
	return c, nil
}

// Options converts the config into Writer options.
func (c Config) Options() []Option {
	opts := make([]Option, 0, len(c.FieldPolicies)+1)
	for path, p := range c.FieldPolicies {
		opts = append(opts, WithFieldPolicy(path, p))
	}
	if c.StrictUnions {
		opts = append(opts, WithStrictUnions(true))
	}
	return opts
}
