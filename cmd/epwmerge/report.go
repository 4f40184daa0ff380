package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/epw-merge-etl/internal/comfort"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw"
)

// diagnosis is what the CLI prints about a failed run.
type diagnosis struct {
	kind string
	file string
	line int
	code int
}

func diagnose(err error) diagnosis {
	var (
		cfgErr      *domain.ConfigurationError
		capErr      *comfort.CapabilityError
		headerErr   *epw.MalformedHeaderError
		recordErr   *epw.MalformedRecordError
		orderErr    *epw.OutOfOrderRecordError
		mismatchErr *domain.SchemaMismatchError
		writeErr    *domain.WriteError
	)
	switch {
	case errors.As(err, &cfgErr):
		return diagnosis{kind: "configuration error", code: exitConfig}
	case errors.As(err, &capErr):
		return diagnosis{kind: "comfort capability error", file: capErr.Path, code: exitConfig}
	case errors.As(err, &headerErr):
		return diagnosis{kind: "malformed header", file: headerErr.Source, line: headerErr.Line, code: exitFailed}
	case errors.As(err, &recordErr):
		return diagnosis{kind: "malformed record", file: recordErr.Source, line: recordErr.Line, code: exitFailed}
	case errors.As(err, &orderErr):
		return diagnosis{kind: "out of order record", file: orderErr.Source, line: orderErr.Line, code: exitFailed}
	case errors.As(err, &mismatchErr):
		return diagnosis{kind: "schema mismatch", file: mismatchErr.Source, code: exitFailed}
	case errors.As(err, &writeErr):
		return diagnosis{kind: "write error", file: writeErr.Path, code: exitFailed}
	default:
		return diagnosis{kind: "run failed", code: exitFailed}
	}
}

// report prints err with its kind and location and returns the exit code.
func report(w io.Writer, err error) int {
	d := diagnose(err)
	fmt.Fprintf(w, "epwmerge: %s\n", d.kind)
	if d.file != "" {
		fmt.Fprintf(w, "  file: %s\n", d.file)
	}
	if d.line > 0 {
		fmt.Fprintf(w, "  line: %d\n", d.line)
	}
	fmt.Fprintf(w, "  %v\n", err)
	return d.code
}
