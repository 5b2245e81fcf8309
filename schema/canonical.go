package schema

import (
	"encoding/hex"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/zeebo/blake3"
)

// Canonical returns the Avro Parsing Canonical Form of the schema: full
// names, no doc or default attributes, keys in name/type/fields order and
// later occurrences of a record replaced by its full name.
func (s *Schema) Canonical() string { return s.canonical }

// Fingerprint is the BLAKE3-256 digest of the canonical form. Schemas that
// differ only in key order, docs or defaults share a fingerprint.
func (s *Schema) Fingerprint() [32]byte { return s.fingerprint }

// FingerprintHex is Fingerprint in lowercase hex.
func (s *Schema) FingerprintHex() string { return hex.EncodeToString(s.fingerprint[:]) }

func fingerprint(canonical string) [32]byte { return blake3.Sum256([]byte(canonical)) }

func canonicalForm(root *Record) string {
	var b strings.Builder
	writeCanonical(&b, root, map[string]bool{})
	return b.String()
}

func quote(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return string(out)
}

func writeCanonical(b *strings.Builder, t Type, seen map[string]bool) {
	switch t := t.(type) {
	case *Primitive:
		b.WriteString(quote(t.kind.String()))
	case *Union:
		b.WriteByte('[')
		for i, m := range t.members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, m, seen)
		}
		b.WriteByte(']')
	case *Record:
		full := t.FullName()
		if seen[full] {
			b.WriteString(quote(full))
			return
		}
		seen[full] = true
		b.WriteString(`{"name":`)
		b.WriteString(quote(full))
		b.WriteString(`,"type":"record","fields":[`)
		for i, f := range t.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`{"name":`)
			b.WriteString(quote(f.name))
			b.WriteString(`,"type":`)
			writeCanonical(b, f.typ, seen)
			b.WriteByte('}')
		}
		b.WriteString(`]}`)
	}
}
