package pipeline

import (
	"io"
	"log/slog"

	"github.com/couchcryptid/epw-merge-etl/internal/comfort"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
)

// FileTransformer turns one EPW stream into a batch of schema rows,
// computing comfort cells when an adapter is configured.
type FileTransformer struct {
	selector *domain.Selector
	comfort  *comfort.Adapter
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a FileTransformer. Pass a nil adapter for strict
// mode.
func NewTransformer(selector *domain.Selector, adapter *comfort.Adapter, logger *slog.Logger, metrics *observability.Metrics) *FileTransformer {
	return &FileTransformer{
		selector: selector,
		comfort:  adapter,
		logger:   logger,
		metrics:  metrics,
	}
}

// Transform decodes r and projects every record. source is the provenance
// value written to each row. Any decode error aborts the file.
func (t *FileTransformer) Transform(r io.Reader, source string) (domain.FileBatch, error) {
	dec, err := epw.NewDecoder(r, source)
	if err != nil {
		return domain.FileBatch{}, err
	}

	fs := t.selector.ForFile(source, dec.Header())
	batch := fs.NewBatch()
	batch.Rows = make([]domain.Row, 0, dec.Header().ExpectedRecords())

	for dec.Next() {
		rec := dec.Record()
		var cells []any
		if t.comfort != nil {
			cells = t.comfort.Compute(comfort.InputsFromRecord(rec))
		}
		batch.Add(fs.Project(rec, cells))
	}
	t.metrics.RecordsDecoded.Add(float64(dec.Count()))
	if err := dec.Err(); err != nil {
		return domain.FileBatch{}, err
	}

	if t.comfort != nil {
		for model, n := range t.comfort.TakeFailures() {
			t.logger.Warn("comfort model failed on some rows",
				"file", source,
				"model", model,
				"rows", n,
				"of", len(batch.Rows),
			)
		}
	}
	return batch, nil
}
