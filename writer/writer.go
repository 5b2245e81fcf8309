// Package writer runs host records through mapping, validation and encoding
// and accumulates the encoded bytes.
//
// A Writer is single-owner: acquire it, append a bounded sequence of records,
// then Finish. Concurrent Appends on one Writer need external locking; the
// Schema it reads may be shared freely.
package writer

import (
	"errors"
	"log/slog"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/mapping"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/validate"
	"github.com/reoring/avroskema/value"
	"github.com/reoring/avroskema/wire"
)

// Writer encodes records against one schema.
type Writer struct {
	schema   *schema.Schema
	mapper   *mapping.Mapper
	logger   *slog.Logger
	buf      []byte
	scratch  []byte
	count    int
	finished bool

	mapOpts []mapping.Option
	trace   func(stage string, v value.Value)
}

// Option configures a Writer.
type Option func(*Writer)

// WithFieldPolicy overrides the policy for one field path (e.g. "/double0").
func WithFieldPolicy(path string, p avroskema.Policy) Option {
	return func(w *Writer) { w.mapOpts = append(w.mapOpts, mapping.WithFieldPolicy(path, p)) }
}

// WithStrictUnions requires a branch-aware policy for every nullable union
// field: PlainScalar mapping of such a field fails with a mapping error.
func WithStrictUnions(on bool) Option {
	return func(w *Writer) { w.mapOpts = append(w.mapOpts, mapping.WithStrictUnions(on)) }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTrace registers a hook called with the mapped ("mapped") and the
// branch-resolved ("resolved") value of every record.
func WithTrace(fn func(stage string, v value.Value)) Option {
	return func(w *Writer) { w.trace = fn }
}

// New returns a Writer over s using policy for fields without an override.
func New(s *schema.Schema, policy avroskema.Policy, opts ...Option) *Writer {
	w := &Writer{schema: s, logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(w)
	}
	w.mapper = mapping.New(policy, w.mapOpts...)
	w.mapOpts = nil
	return w
}

// Schema returns the schema the writer encodes against.
func (w *Writer) Schema() *schema.Schema { return w.schema }

// PolicyFor returns the policy applied to the field at path.
func (w *Writer) PolicyFor(path string) avroskema.Policy { return w.mapper.PolicyFor(path) }

// Append maps, validates and encodes record. On error the accumulated output
// is left exactly as it was.
func (w *Writer) Append(record any) error {
	if w.finished {
		return avroskema.Issues{avroskema.NewIssue("/", avroskema.CodeWriterFinished, "", nil)}
	}
	root := w.schema.Root()
	mapped, err := w.mapper.Map(record, root)
	if err != nil {
		return w.reject(err)
	}
	w.traceValue("mapped", mapped)
	resolved, err := validate.Resolve(mapped, root)
	if err != nil {
		return w.reject(err)
	}
	w.traceValue("resolved", resolved)
	w.scratch, err = wire.Append(w.scratch[:0], resolved)
	if err != nil {
		return w.reject(avroskema.Issues{avroskema.Issue{
			Path: "/", Code: avroskema.CodeEncoding, Message: "validated value failed to encode", Cause: err,
		}})
	}
	w.buf = append(w.buf, w.scratch...)
	w.count++
	w.logger.Debug("record appended", "record", w.count, "bytes", len(w.scratch), "total", len(w.buf))
	return nil
}

func (w *Writer) traceValue(stage string, v value.Value) {
	if w.trace != nil {
		w.trace(stage, v)
	}
}

func (w *Writer) reject(err error) error {
	attrs := []any{"record", w.count + 1, "schema", w.schema.Root().FullName()}
	if iss, ok := avroskema.AsIssues(err); ok && len(iss) > 0 {
		attrs = append(attrs, "code", iss[0].Code, "path", iss[0].Path, "issues", len(iss))
	}
	if errors.Is(err, avroskema.ErrEncoding) {
		w.logger.Error("encoder invariant violated", append(attrs, "err", err)...)
	} else {
		w.logger.Warn("record rejected", append(attrs, "err", err)...)
	}
	return err
}

// Len returns the number of bytes accumulated so far.
func (w *Writer) Len() int { return len(w.buf) }

// Count returns the number of records appended.
func (w *Writer) Count() int { return w.count }

// Finish ends the record sequence and returns the accumulated bytes.
// Further Appends fail; repeated Finish calls return the same bytes.
func (w *Writer) Finish() []byte {
	if !w.finished {
		w.finished = true
		w.scratch = nil
		w.logger.Debug("writer finished", "records", w.count, "bytes", len(w.buf))
	}
	return w.buf
}
