package epw

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	headerLines  = 8
	maxLineBytes = 1 << 20
)

var measurements = func() []Field {
	var out []Field
	for _, f := range catalog {
		if isMeasurement(f) {
			out = append(out, f)
		}
	}
	return out
}()

// Decoder reads one EPW file: the header eagerly, hourly records lazily.
// A Decoder cannot be rewound; decode again by constructing a new one.
type Decoder struct {
	source  string
	scanner *bufio.Scanner
	header  Header

	line  int
	count int
	prev  int
	rec   Record
	err   error
	done  bool
}

// NewDecoder reads and validates the header block from r. The source name
// is used in error messages.
func NewDecoder(r io.Reader, source string) (*Decoder, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	d := &Decoder{source: source, scanner: sc, prev: -1}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

// Header returns the parsed header.
func (d *Decoder) Header() Header { return d.header }

// Source returns the name the decoder reports in errors.
func (d *Decoder) Source() string { return d.source }

// Next advances to the next hourly record. It returns false at the end of
// the file or on the first error; check Err afterwards.
func (d *Decoder) Next() bool {
	if d.err != nil || d.done {
		return false
	}

	for d.scanner.Scan() {
		d.line++
		text := strings.TrimRight(d.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		rec, err := d.parseRecord(text)
		if err != nil {
			d.err = err
			return false
		}
		if rec.HourOfYear <= d.prev {
			d.err = &OutOfOrderRecordError{Source: d.source, Line: d.line, Previous: d.prev, Current: rec.HourOfYear}
			return false
		}
		d.prev = rec.HourOfYear
		d.count++
		d.rec = rec
		return true
	}

	if err := d.scanner.Err(); err != nil {
		d.err = &MalformedRecordError{Source: d.source, Line: d.line + 1, Reason: "read failed", Err: err}
		return false
	}

	d.done = true
	if want := d.header.ExpectedRecords(); d.count != want {
		d.err = &MalformedRecordError{
			Source: d.source,
			Line:   d.line,
			Reason: fmt.Sprintf("expected %d hourly records, found %d", want, d.count),
		}
	}
	return false
}

// Record returns the record read by the last successful call to Next.
func (d *Decoder) Record() Record { return d.rec }

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error { return d.err }

// Count returns the number of records decoded so far.
func (d *Decoder) Count() int { return d.count }

func (d *Decoder) readHeader() error {
	lines := make([]string, 0, headerLines)
	for len(lines) < headerLines && d.scanner.Scan() {
		d.line++
		lines = append(lines, strings.TrimRight(d.scanner.Text(), "\r"))
	}
	if err := d.scanner.Err(); err != nil {
		return &MalformedHeaderError{Source: d.source, Line: d.line + 1, Reason: "read failed: " + err.Error()}
	}
	if len(lines) < headerLines {
		return &MalformedHeaderError{
			Source: d.source,
			Line:   len(lines) + 1,
			Reason: fmt.Sprintf("expected %d header lines, found %d", headerLines, len(lines)),
		}
	}

	h, err := parseLocation(d.source, lines[0])
	if err != nil {
		return err
	}
	h.RecordsPerHour = 1

	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		switch strings.ToUpper(strings.TrimSpace(fields[0])) {
		case "HOLIDAYS/DAYLIGHT SAVINGS":
			if len(fields) > 1 {
				h.LeapYear = strings.EqualFold(strings.TrimSpace(fields[1]), "yes")
			}
		case "DATA PERIODS":
			if len(fields) < 3 {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil {
				return &MalformedHeaderError{Source: d.source, Line: i + 2, Field: "records per hour", Reason: fmt.Sprintf("%q is not an integer", fields[2])}
			}
			if n != 1 {
				return &MalformedHeaderError{Source: d.source, Line: i + 2, Field: "records per hour", Reason: fmt.Sprintf("only hourly data is supported, got %d", n)}
			}
			h.RecordsPerHour = n
		}
	}

	d.header = h
	return nil
}

func parseLocation(source, line string) (Header, error) {
	fields := strings.Split(line, ",")
	if !strings.EqualFold(strings.TrimSpace(fields[0]), "LOCATION") {
		return Header{}, &MalformedHeaderError{Source: source, Line: 1, Reason: "first line must start with LOCATION"}
	}
	if len(fields) < 10 {
		return Header{}, &MalformedHeaderError{Source: source, Line: 1, Reason: fmt.Sprintf("expected 10 fields, found %d", len(fields))}
	}

	h := Header{
		City:       strings.TrimSpace(fields[1]),
		State:      strings.TrimSpace(fields[2]),
		Country:    strings.TrimSpace(fields[3]),
		DataSource: strings.TrimSpace(fields[4]),
		WMO:        strings.TrimSpace(fields[5]),
	}

	numeric := []struct {
		name  string
		index int
		dst   *float64
	}{
		{"latitude", 6, &h.Latitude},
		{"longitude", 7, &h.Longitude},
		{"time zone", 8, &h.TimeZone},
		{"elevation", 9, &h.Elevation},
	}
	for _, n := range numeric {
		raw := strings.TrimSpace(fields[n.index])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Header{}, &MalformedHeaderError{Source: source, Line: 1, Field: n.name, Reason: fmt.Sprintf("%q is not a number", raw)}
		}
		*n.dst = v
	}
	return h, nil
}

func (d *Decoder) parseRecord(text string) (Record, error) {
	fields := strings.Split(text, ",")
	if len(fields) != FieldCount {
		return Record{}, d.recordErr("", fmt.Sprintf("expected %d fields, found %d", FieldCount, len(fields)), nil)
	}

	var ints [idxFlags]int
	for i := range ints {
		raw := strings.TrimSpace(fields[i])
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Record{}, d.recordErr(catalog[i].Name, fmt.Sprintf("%q is not an integer", raw), nil)
		}
		ints[i] = n
	}

	start, hoy, err := hourOfYear(d.header.LeapYear, ints[idxMonth], ints[idxDay], ints[idxHour])
	if err != nil {
		return Record{}, d.recordErr("date", "invalid timestamp", err)
	}

	rec := Record{
		Year:                ints[idxYear],
		Month:               ints[idxMonth],
		Day:                 ints[idxDay],
		Hour:                ints[idxHour],
		Minute:              ints[idxMinute],
		Time:                start,
		HourOfYear:          hoy,
		Line:                d.line,
		DataSourceFlags:     strings.TrimSpace(fields[idxFlags]),
		PresentWeatherCodes: strings.TrimSpace(fields[idxPresentWeatherCodes]),
	}

	for _, f := range measurements {
		raw := strings.TrimSpace(fields[f.Index])
		if raw == "" {
			rec.values[f.Index] = Missing()
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Record{}, d.recordErr(f.Name, fmt.Sprintf("%q is not a number", raw), nil)
		}
		if f.IsMissing(v) {
			rec.values[f.Index] = Missing()
			continue
		}
		rec.values[f.Index] = Present(v)
	}
	return rec, nil
}

func (d *Decoder) recordErr(field, reason string, err error) error {
	return &MalformedRecordError{Source: d.source, Line: d.line, Field: field, Reason: reason, Err: err}
}
