package parquet

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	goparquet "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/types"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

// Table is a Parquet file read back into rows.
type Table struct {
	Columns []string
	Rows    []domain.Row
}

// ReadFile decodes the Parquet file at path. Timestamps come back as UTC
// time.Time and nulls as nil.
func ReadFile(path string) (Table, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}

	t, err := read(fr)
	if cerr := fr.Close(); cerr != nil {
		err = multierror.Append(err, cerr).ErrorOrNil()
	}
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Decode reads a Parquet file held in memory.
func Decode(data []byte) (Table, error) {
	bf, err := buffer.NewBufferFile(data)
	if err != nil {
		return Table{}, err
	}
	return read(bf)
}

func read(pf source.ParquetFile) (Table, error) {
	pr, err := reader.NewParquetColumnReader(pf, parallelism)
	if err != nil {
		return Table{}, fmt.Errorf("read footer: %w", err)
	}
	defer pr.ReadStop()

	n := pr.GetNumRows()
	leaves := pr.SchemaHandler.ValueColumns
	t := Table{Columns: make([]string, len(leaves)), Rows: make([]domain.Row, n)}
	for i := range t.Rows {
		t.Rows[i] = make(domain.Row, len(leaves))
	}

	for c := range leaves {
		// Element 0 is the root.
		el := pr.SchemaHandler.SchemaElements[c+1]
		t.Columns[c] = pr.SchemaHandler.Infos[c+1].ExName
		if n == 0 {
			continue
		}

		values, _, dls, err := pr.ReadColumnByIndex(int64(c), n)
		if err != nil {
			return Table{}, fmt.Errorf("column %s: %w", t.Columns[c], err)
		}
		if int64(len(values)) != n {
			return Table{}, fmt.Errorf("column %s: read %d values for %d rows", t.Columns[c], len(values), n)
		}
		timestamp := el.ConvertedType != nil && *el.ConvertedType == goparquet.ConvertedType_TIMESTAMP_MILLIS
		for r, v := range values {
			if v == nil || dls[r] == 0 {
				continue
			}
			if ms, ok := v.(int64); ok && timestamp {
				t.Rows[r][c] = types.TIMESTAMP_MILLISToTime(ms, true)
				continue
			}
			t.Rows[r][c] = v
		}
	}
	return t, nil
}
