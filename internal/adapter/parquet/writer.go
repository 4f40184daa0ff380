package parquet

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go-source/writerfile"
	goparquet "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/types"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

const (
	// DefaultRowGroupSize is the row group size in bytes.
	DefaultRowGroupSize = 128 * 1024 * 1024
	DefaultCompression  = "SNAPPY"

	parallelism = 4
)

// Options configure the Parquet encoding.
type Options struct {
	// Compression is SNAPPY, GZIP or NONE.
	Compression string
	// RowGroupSize is the target row group size in bytes.
	RowGroupSize int64
}

// Writer encodes a merged dataset as a single Parquet file with one
// optional column per schema column.
type Writer struct {
	codec        goparquet.CompressionCodec
	rowGroupSize int64
	logger       *slog.Logger
}

// NewWriter validates opts and creates a Writer.
func NewWriter(opts Options, logger *slog.Logger) (*Writer, error) {
	codec, err := CompressionCodec(opts.Compression)
	if err != nil {
		return nil, err
	}
	size := opts.RowGroupSize
	if size <= 0 {
		size = DefaultRowGroupSize
	}
	return &Writer{codec: codec, rowGroupSize: size, logger: logger}, nil
}

// CompressionCodec maps a compression name to its Parquet codec. Empty means
// SNAPPY.
func CompressionCodec(name string) (goparquet.CompressionCodec, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "SNAPPY":
		return goparquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return goparquet.CompressionCodec_GZIP, nil
	case "NONE", "UNCOMPRESSED":
		return goparquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// WriteFile writes ds to path, replacing any existing file. Failures are
// reported as *domain.WriteError; a partial file is left in place.
func (w *Writer) WriteFile(path string, ds *domain.Dataset) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}

	var result error
	if err := w.encode(fw, ds); err != nil {
		result = multierror.Append(result, err)
	}
	if err := fw.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close: %w", err))
	}
	if result != nil {
		return &domain.WriteError{Path: path, Err: result}
	}

	w.logger.Info("parquet written", "path", path, "rows", ds.Len(), "columns", ds.Schema().Len())
	return nil
}

// Encode writes ds as Parquet to out.
func (w *Writer) Encode(out io.Writer, ds *domain.Dataset) error {
	return w.encode(writerfile.NewWriterFile(out), ds)
}

func (w *Writer) encode(pf source.ParquetFile, ds *domain.Dataset) (err error) {
	schema := ds.Schema()
	pw, err := pqwriter.NewCSVWriter(Metadata(schema), pf, parallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = w.codec
	pw.RowGroupSize = w.rowGroupSize

	kinds := make([]domain.Kind, schema.Len())
	for i, c := range schema.Columns() {
		kinds[i] = c.Kind
	}

	for n, row := range ds.Rows() {
		rec := make([]any, len(row))
		for i, cell := range row {
			rec[i] = toParquet(kinds[i], cell)
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", n, err)
		}
	}

	// WriteStop can panic on corrupt internal state.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize parquet: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return nil
}

// Metadata returns the CSV-writer column metadata for schema.
func Metadata(schema domain.Schema) []string {
	md := make([]string, 0, schema.Len())
	for _, c := range schema.Columns() {
		md = append(md, fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c.Name, physicalType(c.Kind)))
	}
	return md
}

func physicalType(k domain.Kind) string {
	switch k {
	case domain.KindInt32:
		return "type=INT32"
	case domain.KindFloat64:
		return "type=DOUBLE"
	case domain.KindTimestamp:
		return "type=INT64, convertedtype=TIMESTAMP_MILLIS"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

func toParquet(k domain.Kind, cell any) any {
	if cell == nil {
		return nil
	}
	if k == domain.KindTimestamp {
		if t, ok := cell.(time.Time); ok {
			return types.TimeToTIMESTAMP_MILLIS(t, true)
		}
	}
	return cell
}
