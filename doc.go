// Package avroskema encodes host records into Avro binary against a record
// schema.
//
// The root package holds what every layer shares:
//
//   - The error model: Issues (JSON Pointer path, code, message) with
//     sentinels usable with errors.Is.
//   - Policy, which decides how a host field's presence convention
//     (pointer, bare value, Option) becomes a value.
//   - Option, the explicit sum type used by the ExplicitSumType policy.
//
// The pipeline lives in subpackages: schema (model, parsing, canonical
// form), mapping (host record to value), validate (branch resolution),
// wire (binary codec) and writer, which chains them.
//
// Typical usage:
//
//	s, err := schema.Parse(data)
//	w := writer.New(s, avroskema.DirectOptional)
//	err = w.Append(Topic{Double0: &x})
//	out := w.Finish()
package avroskema
