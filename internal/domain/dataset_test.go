package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_Append(t *testing.T) {
	schema, err := ResolveSchema([]string{"city", "wind_speed"}, nil)
	require.NoError(t, err)
	ds := NewDataset(schema)

	first := FileBatch{Source: "a.epw", Columns: schema.Names()}
	first.Add(Row{"a.epw", "A", 1.0})
	first.Add(Row{"a.epw", "A", 2.0})
	second := FileBatch{Source: "b.epw", Columns: schema.Names()}
	second.Add(Row{"b.epw", "B", nil})

	require.NoError(t, ds.Append(first))
	require.NoError(t, ds.Append(second))

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"a.epw", "b.epw"}, ds.Sources())
	assert.Equal(t, []Row{
		{"a.epw", "A", 1.0},
		{"a.epw", "A", 2.0},
		{"b.epw", "B", nil},
	}, ds.Rows())
	assert.Equal(t, schema, ds.Schema())
}

func TestDataset_OverlappingFilesAreNotDeduplicated(t *testing.T) {
	schema, err := ResolveSchema([]string{"wind_speed"}, nil)
	require.NoError(t, err)
	ds := NewDataset(schema)

	for _, src := range []string{"x.epw", "y.epw"} {
		b := FileBatch{Source: src, Columns: schema.Names()}
		b.Add(Row{src, 3.0})
		require.NoError(t, ds.Append(b))
	}
	assert.Equal(t, 2, ds.Len())
}

func TestDataset_SchemaMismatch(t *testing.T) {
	schema, err := ResolveSchema([]string{"city", "wind_speed"}, nil)
	require.NoError(t, err)

	t.Run("different columns", func(t *testing.T) {
		ds := NewDataset(schema)
		err := ds.Append(FileBatch{Source: "c.epw", Columns: []string{"source_file", "wind_speed", "city"}})

		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "c.epw", mismatch.Source)
		assert.Equal(t, schema.Names(), mismatch.Want)
		assert.Equal(t, []string{"source_file", "wind_speed", "city"}, mismatch.Got)
		assert.Zero(t, ds.Len())
	})

	t.Run("short row", func(t *testing.T) {
		ds := NewDataset(schema)
		b := FileBatch{Source: "d.epw", Columns: schema.Names()}
		b.Add(Row{"d.epw", "D", 1.0})
		b.Add(Row{"d.epw", "D"})

		err := ds.Append(b)
		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []string{"source_file", "city"}, mismatch.Got)
		assert.Zero(t, ds.Len(), "a rejected batch appends nothing")
		assert.Empty(t, ds.Sources())
	})

	t.Run("wide row", func(t *testing.T) {
		ds := NewDataset(schema)
		b := FileBatch{Source: "e.epw", Columns: schema.Names()}
		b.Add(Row{"e.epw", "E", 1.0, "extra"})

		var mismatch *SchemaMismatchError
		require.ErrorAs(t, ds.Append(b), &mismatch)
		assert.Equal(t, []string{"source_file", "city", "wind_speed", "#3"}, mismatch.Got)
	})
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "configuration error: no columns selected", (&ConfigurationError{Reason: "no columns selected"}).Error())
	assert.Equal(t,
		"schema mismatch: a.epw: want [source_file, city], got [source_file]",
		(&SchemaMismatchError{Source: "a.epw", Want: []string{"source_file", "city"}, Got: []string{"source_file"}}).Error())

	inner := assert.AnError
	we := &WriteError{Path: "out.parquet", Err: inner}
	assert.ErrorIs(t, we, inner)
	assert.Contains(t, we.Error(), "write out.parquet")
}
