package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/epw-merge-etl/internal/comfort"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
)

// DatasetWriter writes the merged dataset to a file.
type DatasetWriter interface {
	WriteFile(path string, ds *domain.Dataset) error
}

// ManifestPublisher announces a completed run.
type ManifestPublisher interface {
	Publish(ctx context.Context, m domain.Manifest) error
}

// Options configure a merge run.
type Options struct {
	// Columns is the user column selection in output order.
	Columns []string
	// Strict disables comfort computation entirely.
	Strict bool
	// LimitComfortInputs saturates bounded model inputs.
	LimitComfortInputs bool
	Comfort            comfort.LoadOptions

	// Output is the Parquet path. CSVOutput is written too when set.
	Output    string
	CSVOutput string
}

// Result summarizes a successful run.
type Result struct {
	Dataset   *domain.Dataset
	Artifacts []domain.Artifact
}

// Pipeline merges EPW files into one dataset and writes it out.
type Pipeline struct {
	opts      Options
	parquet   DatasetWriter
	csv       DatasetWriter
	publisher ManifestPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	progress domain.Progress
}

// New creates a Pipeline. csv and publisher may be nil.
func New(opts Options, parquet, csv DatasetWriter, publisher ManifestPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		opts:      opts,
		parquet:   parquet,
		csv:       csv,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns an error once the run has failed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progress.Error != "" {
		return errors.New(p.progress.Error)
	}
	return nil
}

// Progress returns a snapshot of the run.
func (p *Pipeline) Progress() domain.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Run merges paths in order and writes the artifacts. Configuration and
// capability errors are returned before any file is opened. The context is
// checked between files.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	res, err := p.run(ctx, paths)
	p.update(func(pr *domain.Progress) {
		pr.Current = ""
		pr.Finished = true
		if err != nil {
			pr.Error = err.Error()
		}
	})
	return res, err
}

func (p *Pipeline) run(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, &domain.ConfigurationError{Reason: "no input files"}
	}
	if p.opts.Output == "" {
		return nil, &domain.ConfigurationError{Reason: "no output path"}
	}

	transformer, schema, err := p.prepare()
	if err != nil {
		return nil, err
	}
	p.logger.Info("pipeline started",
		"files", len(paths),
		"columns", schema.Len(),
		"comfort_columns", len(schema.ComfortColumns()),
		"strict", p.opts.Strict,
		"limit_comfort_inputs", p.opts.LimitComfortInputs,
	)
	p.update(func(pr *domain.Progress) { pr.FilesTotal = len(paths) })

	ds := domain.NewDataset(schema)
	durations := make([]time.Duration, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err)
			return nil, err
		}

		d, err := p.processFile(transformer, ds, path)
		if err != nil {
			p.metrics.FileErrors.Inc()
			return nil, err
		}
		durations = append(durations, d)
	}
	p.logSummary(ds, durations)

	artifacts, err := p.write(ds)
	if err != nil {
		return nil, err
	}

	if p.publisher != nil {
		m := domain.NewManifest(ds, p.comfortMode(), p.opts.LimitComfortInputs, artifacts)
		if err := p.publisher.Publish(ctx, m); err != nil {
			p.logger.Error("manifest publish failed", "error", err)
		}
	}
	return &Result{Dataset: ds, Artifacts: artifacts}, nil
}

// prepare resolves comfort capabilities and the schema.
func (p *Pipeline) prepare() (*FileTransformer, domain.Schema, error) {
	var adapter *comfort.Adapter
	var comfortCols []domain.Column
	if !p.opts.Strict {
		models, err := comfort.Load(p.opts.Comfort)
		if err != nil {
			return nil, domain.Schema{}, err
		}
		adapter = comfort.NewAdapter(models, p.opts.LimitComfortInputs, p.logger, p.metrics)
		comfortCols = adapter.Columns()
	}

	schema, err := domain.ResolveSchema(p.opts.Columns, comfortCols)
	if err != nil {
		return nil, domain.Schema{}, err
	}
	return NewTransformer(domain.NewSelector(schema), adapter, p.logger, p.metrics), schema, nil
}

func (p *Pipeline) processFile(t *FileTransformer, ds *domain.Dataset, path string) (time.Duration, error) {
	start := time.Now()
	source := filepath.Base(path)
	p.update(func(pr *domain.Progress) { pr.Current = source })

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	batch, err := t.Transform(f, source)
	if err != nil {
		return 0, fmt.Errorf("process %s: %w", path, err)
	}
	if err := ds.Append(batch); err != nil {
		return 0, err
	}

	elapsed := time.Since(start)
	p.metrics.FilesProcessed.Inc()
	p.metrics.RowsMerged.Add(float64(len(batch.Rows)))
	p.metrics.FileProcessingDuration.Observe(elapsed.Seconds())
	p.update(func(pr *domain.Progress) {
		pr.FilesDone++
		pr.Rows = ds.Len()
	})
	p.logger.Info("file merged", "file", source, "rows", len(batch.Rows), "duration", elapsed)
	return elapsed, nil
}

type target struct {
	format string
	path   string
	writer DatasetWriter
}

func (p *Pipeline) write(ds *domain.Dataset) ([]domain.Artifact, error) {
	targets := []target{{"parquet", p.opts.Output, p.parquet}}
	if p.csv != nil && p.opts.CSVOutput != "" {
		targets = append(targets, target{"csv", p.opts.CSVOutput, p.csv})
	}

	artifacts := make([]domain.Artifact, 0, len(targets))
	for _, tg := range targets {
		start := time.Now()
		if err := tg.writer.WriteFile(tg.path, ds); err != nil {
			return nil, err
		}
		p.metrics.WriteDuration.WithLabelValues(tg.format).Observe(time.Since(start).Seconds())
		p.metrics.ArtifactsWritten.WithLabelValues(tg.format).Inc()

		art := domain.Artifact{Format: tg.format, Path: tg.path}
		if fi, err := os.Stat(tg.path); err == nil {
			art.Bytes = fi.Size()
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

func (p *Pipeline) logSummary(ds *domain.Dataset, durations []time.Duration) {
	var total, lo, hi time.Duration
	for i, d := range durations {
		total += d
		if i == 0 || d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	p.logger.Info("files merged",
		"files", len(durations),
		"rows", ds.Len(),
		"max", hi,
		"mean", total/time.Duration(len(durations)),
		"min", lo,
	)
}

func (p *Pipeline) comfortMode() string {
	if p.opts.Strict {
		return "strict"
	}
	return "enabled"
}

func (p *Pipeline) update(fn func(*domain.Progress)) {
	p.mu.Lock()
	fn(&p.progress)
	p.mu.Unlock()
}
