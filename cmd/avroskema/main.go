// Command avroskema encodes JSON, YAML or CBOR records into Avro binary
// against a record schema, decodes Avro binary back, and prints schema
// fingerprints.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	var err error
	switch sub := os.Args[1]; sub {
	case "encode":
		err = encodeCmd(os.Args[2:], os.Stdin, os.Stdout, os.Stderr)
	case "decode":
		err = decodeCmd(os.Args[2:], os.Stdin, os.Stdout)
	case "fingerprint":
		err = fingerprintCmd(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", sub)
		usage(os.Stderr)
		os.Exit(2)
	}
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `avroskema: schema-driven Avro binary encoding

Usage:
  avroskema encode --schema FILE [--policy P] [--field-policy PATH=P ...]
                   [--strict-unions] [--config FILE] [--format json|yaml|cbor]
                   [--input FILE|-] [--output FILE|-] [--dump] [--verbose]
  avroskema decode --schema FILE [--input FILE|-] [--format json|cbor]
  avroskema fingerprint --schema FILE

Policies: direct-optional (default), plain-scalar, explicit-sum-type, tagged-optional
`)
}
