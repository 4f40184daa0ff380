// Package csv renders a merged dataset as CSV next to the Parquet artifact.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

// TimeLayout is the rendering of datetime cells.
const TimeLayout = "2006-01-02 15:04:05"

// SiblingPath swaps the extension of path for .csv.
func SiblingPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
}

// Writer writes datasets as CSV with a header row.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteFile writes ds to path. Failures are reported as *domain.WriteError.
func (w *Writer) WriteFile(path string, ds *domain.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}

	var result error
	if err := Encode(f, ds); err != nil {
		result = multierror.Append(result, err)
	}
	if err := f.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close: %w", err))
	}
	if result != nil {
		return &domain.WriteError{Path: path, Err: result}
	}

	w.logger.Info("csv written", "path", path, "rows", ds.Len())
	return nil
}

// Encode writes the header and every row of ds to out.
func Encode(out io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ds.Schema().Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, ds.Schema().Len())
	for n, row := range ds.Rows() {
		for i, cell := range row {
			rec[i] = FormatCell(cell)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", n, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell renders one cell. Missing values are empty.
func FormatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.UTC().Format(TimeLayout)
	default:
		return fmt.Sprint(v)
	}
}
