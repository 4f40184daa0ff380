package domain

import (
	"fmt"

	"github.com/couchcryptid/epw-merge-etl/internal/epw"
)

// Kind is the output type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt32
	KindFloat64
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindFloat64:
		return "float64"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Origin says where a column's values come from.
type Origin int

const (
	// OriginInfo columns are constant within a file.
	OriginInfo Origin = iota
	OriginRecord
	OriginComfort
)

// Column is one named, typed output column.
type Column struct {
	Name   string
	Kind   Kind
	Origin Origin

	field epw.Field
}

// ComfortColumn declares a column produced by a comfort model.
func ComfortColumn(name string, kind Kind) Column {
	return Column{Name: name, Kind: kind, Origin: OriginComfort}
}

// Column names with special handling.
const (
	ColumnSourceFile = "source_file"
	ColumnDatetime   = "datetime"
)

var infoColumns = []Column{
	{Name: ColumnSourceFile, Kind: KindString},
	{Name: "city", Kind: KindString},
	{Name: "state", Kind: KindString},
	{Name: "country", Kind: KindString},
	{Name: "data_source", Kind: KindString},
	{Name: "wmo", Kind: KindString},
	{Name: "latitude", Kind: KindFloat64},
	{Name: "longitude", Kind: KindFloat64},
	{Name: "time_zone", Kind: KindFloat64},
	{Name: "elevation", Kind: KindFloat64},
	{Name: "scenario_code", Kind: KindString},
	{Name: "scenario_year", Kind: KindInt32},
}

// DefaultColumns is the selection used when none is configured.
var DefaultColumns = []string{
	"city",
	"state",
	"latitude",
	"longitude",
	"elevation",
	"scenario_code",
	"scenario_year",
	ColumnDatetime,
	"dry_bulb_temperature",
	"dew_point_temperature",
	"relative_humidity",
	"atmospheric_station_pressure",
	"horizontal_infrared_radiation_intensity",
	"direct_normal_radiation",
	"diffuse_horizontal_radiation",
	"wind_direction",
	"wind_speed",
	"total_sky_cover",
	"opaque_sky_cover",
}

var selectable = func() []Column {
	cols := make([]Column, 0, len(infoColumns)+1+epw.FieldCount)
	cols = append(cols, infoColumns...)
	cols = append(cols, Column{Name: ColumnDatetime, Kind: KindTimestamp, Origin: OriginRecord})
	for _, f := range epw.Fields() {
		cols = append(cols, Column{Name: f.Name, Kind: kindOf(f), Origin: OriginRecord, field: f})
	}
	return cols
}()

var selectableByName = func() map[string]Column {
	m := make(map[string]Column, len(selectable))
	for _, c := range selectable {
		m[c.Name] = c
	}
	return m
}()

func kindOf(f epw.Field) Kind {
	switch f.Kind {
	case epw.KindString:
		return KindString
	case epw.KindInt:
		return KindInt32
	default:
		return KindFloat64
	}
}

// Catalog lists every selectable column: informational, then datetime,
// then the EPW positional fields in file order.
func Catalog() []Column {
	out := make([]Column, len(selectable))
	copy(out, selectable)
	return out
}

// Schema is the ordered column list shared by every row of a run.
type Schema struct {
	columns []Column
}

// ResolveSchema validates the selected column names and builds the run
// schema. The provenance column is prepended unless selected explicitly and
// comfort columns are appended in the order given.
func ResolveSchema(selected []string, comfort []Column) (Schema, error) {
	if len(selected) == 0 {
		return Schema{}, &ConfigurationError{Reason: "no columns selected"}
	}

	seen := make(map[string]bool, len(selected)+len(comfort)+1)
	cols := make([]Column, 0, len(selected)+len(comfort)+1)
	for _, name := range selected {
		c, ok := selectableByName[name]
		if !ok {
			return Schema{}, &ConfigurationError{Reason: "invalid column selection", Err: &UnknownColumnError{Name: name}}
		}
		if seen[name] {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("column %q selected more than once", name)}
		}
		seen[name] = true
		cols = append(cols, c)
	}
	if !seen[ColumnSourceFile] {
		seen[ColumnSourceFile] = true
		cols = append([]Column{selectableByName[ColumnSourceFile]}, cols...)
	}

	for _, c := range comfort {
		if seen[c.Name] {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("comfort column %q collides with another column", c.Name)}
		}
		seen[c.Name] = true
		c.Origin = OriginComfort
		cols = append(cols, c)
	}

	return Schema{columns: cols}, nil
}

// Columns returns a copy of the ordered columns.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the ordered column names.
func (s Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Len is the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Index returns the position of the named column.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ComfortColumns returns the comfort columns in model order.
func (s Schema) ComfortColumns() []Column {
	var out []Column
	for _, c := range s.columns {
		if c.Origin == OriginComfort {
			out = append(out, c)
		}
	}
	return out
}
