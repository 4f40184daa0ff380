package epw

import "fmt"

// MalformedHeaderError reports a header line that does not follow the EPW
// positional schema.
type MalformedHeaderError struct {
	Source string
	Line   int
	Field  string
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed header: %s line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed header: %s line %d: %s: %s", e.Source, e.Line, e.Field, e.Reason)
}

// MalformedRecordError reports a data line with the wrong field count or a
// value that does not parse as its declared type.
type MalformedRecordError struct {
	Source string
	Line   int
	Field  string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record: %s line %d", e.Source, e.Line)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// OutOfOrderRecordError reports a record whose hour of the year does not
// come after its predecessor's.
type OutOfOrderRecordError struct {
	Source   string
	Line     int
	Previous int
	Current  int
}

func (e *OutOfOrderRecordError) Error() string {
	return fmt.Sprintf("out of order record: %s line %d: hour of year %d does not follow %d",
		e.Source, e.Line, e.Current, e.Previous)
}
