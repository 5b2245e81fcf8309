package avroskema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/avroskema/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeSchemaConstruction  = "schema_construction"
	CodeUnsupported         = "unsupported_construct"
	CodeMapping             = "mapping_error"
	CodeTypeMismatch        = "type_mismatch"
	CodeRecordShapeMismatch = "record_shape_mismatch"
	CodeUnionMismatch       = "union_mismatch"
	// CodeEncoding marks an internal invariant violation: validated values
	// always encode.
	CodeEncoding       = "encoding_error"
	CodeWriterFinished = "writer_finished"
)

// Sentinels matched by errors.Is against Issues.
var (
	ErrSchemaConstruction  = errors.New("avroskema: schema construction")
	ErrUnsupported         = errors.New("avroskema: unsupported schema construct")
	ErrMapping             = errors.New("avroskema: mapping")
	ErrTypeMismatch        = errors.New("avroskema: type mismatch")
	ErrRecordShapeMismatch = errors.New("avroskema: record shape mismatch")
	ErrUnionMismatch       = errors.New("avroskema: union mismatch")
	ErrEncoding            = errors.New("avroskema: encoding invariant violated")
	ErrWriterFinished      = errors.New("avroskema: writer finished")
)

var codeSentinels = map[string]error{
	CodeSchemaConstruction:  ErrSchemaConstruction,
	CodeUnsupported:         ErrUnsupported,
	CodeMapping:             ErrMapping,
	CodeTypeMismatch:        ErrTypeMismatch,
	CodeRecordShapeMismatch: ErrRecordShapeMismatch,
	CodeUnionMismatch:       ErrUnionMismatch,
	CodeEncoding:            ErrEncoding,
	CodeWriterFinished:      ErrWriterFinished,
}

// Issue represents a single failure entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /double0 or /fields/1/type).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"expected":"double",
	// "got":"float"}) for i18n and observability.
	Params map[string]any
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. union_mismatch at /double0
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Hint != "" {
			fmt.Fprintf(b, " (%s)", it.Hint)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether any issue carries the code mapped to target.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if s, ok := codeSentinels[it.Code]; ok && s == target {
			return true
		}
	}
	return false
}

// Unwrap exposes the underlying causes.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// NewIssue builds an Issue with a translated message. Params with string
// values "expected" and "got" are embedded in the message.
func NewIssue(path, code, hint string, params map[string]any) Issue {
	data := map[string]string{}
	for _, k := range []string{"expected", "got"} {
		if s, ok := params[k].(string); ok {
			data[k] = s
		}
	}
	if path == "" {
		path = "/"
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Hint: hint, Params: params}
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// HasCode reports whether err carries an Issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}
