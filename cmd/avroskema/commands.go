package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/internal/hostinput"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
	"github.com/reoring/avroskema/wire"
	"github.com/reoring/avroskema/writer"
)

func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return schema.ParseYAML(data)
	}
	return schema.Parse(data)
}

func openInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "record schema file (.json, .yaml or .yml)")
	configPath := fs.String("config", "", "writer config file (YAML)")
	policy := avroskema.DirectOptional
	fs.Var(&policy, "policy", "default presence policy")
	fieldPolicies := fs.StringArray("field-policy", nil, "per-field policy override PATH=POLICY (repeatable)")
	strict := fs.Bool("strict-unions", false, "reject plain-scalar mapping of nullable union fields")
	format := fs.String("format", hostinput.FormatJSON, "input format: json, yaml or cbor")
	input := fs.String("input", "-", "input file, - for stdin")
	output := fs.String("output", "-", "output file, - for stdout")
	dump := fs.Bool("dump", false, "print mapped and resolved values to stderr")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := loadSchema(*schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	var cfg writer.Config
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return err
		}
		if cfg, err = writer.LoadConfig(data); err != nil {
			return err
		}
	}
	if fs.Changed("policy") {
		cfg.Policy = policy
	}
	if fs.Changed("strict-unions") {
		cfg.StrictUnions = *strict
	}
	for _, fp := range *fieldPolicies {
		path, name, ok := strings.Cut(fp, "=")
		if !ok {
			return fmt.Errorf("--field-policy %q: want PATH=POLICY", fp)
		}
		p, err := avroskema.ParsePolicy(name)
		if err != nil {
			return fmt.Errorf("--field-policy %q: %w", fp, err)
		}
		if cfg.FieldPolicies == nil {
			cfg.FieldPolicies = map[string]avroskema.Policy{}
		}
		cfg.FieldPolicies[path] = p
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := append(cfg.Options(), writer.WithLogger(logger))
	if *dump {
		cs := spew.ConfigState{Indent: "  ", SortKeys: true}
		opts = append(opts, writer.WithTrace(func(stage string, v value.Value) {
			fmt.Fprintf(stderr, "%s: %s\n", stage, v)
			cs.Fdump(stderr, v.Fields())
		}))
	}
	w := writer.New(s, cfg.Policy, opts...)

	data, err := openInput(*input, stdin)
	if err != nil {
		return err
	}
	recs, err := hostinput.ReadBytes(data, *format)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		if err := w.Append(hostinput.Prepare(rec, s.Root(), w.PolicyFor)); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	out := w.Finish()
	logger.Info("encoded", "records", w.Count(), "bytes", len(out), "fingerprint", s.FingerprintHex())
	return writeOutput(*output, stdout, out)
}

func decodeCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	schemaPath := fs.String("schema", "", "record schema file (.json, .yaml or .yml)")
	input := fs.String("input", "-", "input file, - for stdin")
	format := fs.String("format", hostinput.FormatJSON, "output format: json or cbor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := loadSchema(*schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	data, err := openInput(*input, stdin)
	if err != nil {
		return err
	}
	vals, err := wire.DecodeAll(data, s)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch *format {
	case hostinput.FormatJSON:
		enc := json.NewEncoder(&buf)
		for _, v := range vals {
			if err := enc.Encode(hostinput.RenderJSON(v, s.Root())); err != nil {
				return err
			}
		}
	case hostinput.FormatCBOR:
		enc := cbor.NewEncoder(&buf)
		for _, v := range vals {
			if err := enc.Encode(hostinput.RenderGeneric(v, s.Root())); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown output format %q", *format)
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}

func fingerprintCmd(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("fingerprint", pflag.ContinueOnError)
	schemaPath := fs.String("schema", "", "record schema file (.json, .yaml or .yml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := loadSchema(*schemaPath)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	fmt.Fprintln(stdout, s.FingerprintHex())
	fmt.Fprintln(stdout, s.Canonical())
	return nil
}
