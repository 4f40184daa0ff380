package domain

import (
	"fmt"
	"slices"
)

// FileBatch holds the projected rows of one input file.
type FileBatch struct {
	Source  string
	Columns []string
	Rows    []Row
}

// Add appends a row to the batch.
func (b *FileBatch) Add(r Row) { b.Rows = append(b.Rows, r) }

// Dataset is the merged, append-only table of a run. Rows keep file
// arrival order and, within a file, chronological order.
type Dataset struct {
	schema  Schema
	rows    []Row
	sources []string
}

// NewDataset creates an empty dataset with a fixed schema.
func NewDataset(schema Schema) *Dataset {
	return &Dataset{schema: schema}
}

// Append adds every row of b. The batch must carry the schema's columns in
// the same order and every row must be schema width; otherwise nothing is
// appended.
func (d *Dataset) Append(b FileBatch) error {
	want := d.schema.Names()
	if !slices.Equal(want, b.Columns) {
		return &SchemaMismatchError{Source: b.Source, Want: want, Got: slices.Clone(b.Columns)}
	}
	for _, r := range b.Rows {
		if len(r) != len(want) {
			return &SchemaMismatchError{Source: b.Source, Want: want, Got: rowShape(b.Columns, len(r))}
		}
	}
	d.rows = append(d.rows, b.Rows...)
	d.sources = append(d.sources, b.Source)
	return nil
}

// Schema returns the dataset schema.
func (d *Dataset) Schema() Schema { return d.schema }

// Rows returns the merged rows. Callers must not modify them.
func (d *Dataset) Rows() []Row { return d.rows }

// Len is the number of merged rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Sources lists the appended files in arrival order.
func (d *Dataset) Sources() []string { return slices.Clone(d.sources) }

// rowShape names the cells of a row that does not match its batch header.
func rowShape(columns []string, width int) []string {
	out := make([]string, width)
	for i := range out {
		if i < len(columns) {
			out[i] = columns[i]
			continue
		}
		out[i] = fmt.Sprintf("#%d", i)
	}
	return out
}
