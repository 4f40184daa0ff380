package domain

import (
	"math"
	"strings"

	"github.com/couchcryptid/epw-merge-etl/internal/epw"
)

// Row is one output row aligned to the schema. Cells hold string, int32,
// float64, time.Time or nil for missing values.
type Row []any

// Selector projects decoded records onto a schema.
type Selector struct {
	schema Schema
}

// NewSelector creates a Selector for schema.
func NewSelector(schema Schema) *Selector {
	return &Selector{schema: schema}
}

// Schema returns the schema rows are projected onto.
func (s *Selector) Schema() Schema { return s.schema }

// ForFile computes the informational cells of one file. They are copied
// into every row the returned FileSelector projects.
func (s *Selector) ForFile(source string, h epw.Header) *FileSelector {
	sc := ParseScenario(source)
	info := map[string]any{
		ColumnSourceFile: source,
		"city":           strings.ReplaceAll(h.City, ".", " "),
		"state":          h.State,
		"country":        h.Country,
		"data_source":    h.DataSource,
		"wmo":            h.WMO,
		"latitude":       h.Latitude,
		"longitude":      h.Longitude,
		"time_zone":      h.TimeZone,
		"elevation":      h.Elevation,
		"scenario_code":  sc.Code,
		"scenario_year":  nil,
	}
	if sc.HasYear {
		info["scenario_year"] = int32(sc.Year)
	}

	cells := make([]any, s.schema.Len())
	for i, c := range s.schema.columns {
		if c.Origin == OriginInfo {
			cells[i] = info[c.Name]
		}
	}
	return &FileSelector{schema: s.schema, source: source, header: h, info: cells}
}

// FileSelector projects the records of a single file.
type FileSelector struct {
	schema Schema
	source string
	header epw.Header
	info   []any
}

// Source is the provenance value of the file.
func (f *FileSelector) Source() string { return f.source }

// Header is the header the informational cells were taken from.
func (f *FileSelector) Header() epw.Header { return f.header }

// Columns returns the column names rows are projected with.
func (f *FileSelector) Columns() []string { return f.schema.Names() }

// Project builds the output row for rec. Comfort cells fill the comfort
// columns in order; absent ones are nil.
func (f *FileSelector) Project(rec epw.Record, comfort []any) Row {
	row := make(Row, f.schema.Len())
	next := 0
	for i, c := range f.schema.columns {
		switch c.Origin {
		case OriginInfo:
			row[i] = f.info[i]
		case OriginRecord:
			row[i] = recordCell(c, rec)
		case OriginComfort:
			if next < len(comfort) {
				row[i] = comfort[next]
			}
			next++
		}
	}
	return row
}

// NewBatch starts an empty batch for this file.
func (f *FileSelector) NewBatch() FileBatch {
	return FileBatch{Source: f.source, Columns: f.Columns()}
}

func recordCell(c Column, rec epw.Record) any {
	if c.Name == ColumnDatetime {
		return rec.Time
	}
	if n, ok := rec.Int(c.field); ok {
		return int32(n)
	}
	if c.Kind == KindString {
		return rec.Text(c.field)
	}

	v, ok := rec.Value(c.field).Float()
	if !ok {
		return nil
	}
	if c.Kind == KindInt32 {
		return int32(math.Round(v))
	}
	return v
}
