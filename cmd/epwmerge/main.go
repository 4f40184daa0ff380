// Command epwmerge merges EnergyPlus Weather files into a single Parquet
// file, optionally adding thermal comfort indices to every hourly row.
//
// Usage:
//
//	epwmerge [flags] <dir|file.epw>...
//
// Directories are expanded to the .epw files they contain, sorted by name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	csvadapter "github.com/couchcryptid/epw-merge-etl/internal/adapter/csv"
	httpadapter "github.com/couchcryptid/epw-merge-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/epw-merge-etl/internal/adapter/kafka"
	"github.com/couchcryptid/epw-merge-etl/internal/adapter/parquet"
	"github.com/couchcryptid/epw-merge-etl/internal/comfort"
	"github.com/couchcryptid/epw-merge-etl/internal/config"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
	"github.com/couchcryptid/epw-merge-etl/internal/pipeline"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics())
	stop()
	os.Exit(code)
}

// flags holds the command line. Only flags the user actually set override
// the loaded configuration.
type flags struct {
	set *flag.FlagSet

	output      string
	columns     string
	strict      bool
	limit       bool
	indices     string
	plugins     string
	emitCSV     bool
	configPath  string
	quiet       bool
	metricsAddr string
	listColumns bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: flag.NewFlagSet("epwmerge", flag.ContinueOnError)}
	fs := f.set
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: epwmerge [flags] <dir|file.epw>...")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.output, "o", "", "output Parquet path (default \"<YYYY-MM-DD HH_MM> compiled_to.parquet\")")
	fs.StringVar(&f.columns, "columns", "", "comma-separated columns to keep")
	fs.BoolVar(&f.strict, "s", false, "strict mode: do not compute comfort indices")
	fs.BoolVar(&f.limit, "l", false, "saturate comfort model inputs to their valid ranges")
	fs.StringVar(&f.indices, "indices", "", "comma-separated comfort indices to compute")
	fs.StringVar(&f.plugins, "plugins", "", "directory of comfort model plugins")
	fs.BoolVar(&f.emitCSV, "csv", false, "also write a CSV next to the Parquet file")
	fs.StringVar(&f.configPath, "config", os.Getenv("EPW_CONFIG"), "YAML configuration file")
	fs.BoolVar(&f.quiet, "q", false, "only log warnings and errors")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz, /readyz and /progress on this address")
	fs.BoolVar(&f.listColumns, "list-columns", false, "print the selectable columns and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with every flag set on the command line.
func (f *flags) apply(cfg *config.Config) {
	f.set.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "o":
			cfg.Output = f.output
		case "columns":
			cfg.Columns = config.SplitList(f.columns)
		case "s":
			if f.strict {
				cfg.ComfortMode = config.ModeStrict
			} else {
				cfg.ComfortMode = config.ModeEnabled
			}
		case "l":
			cfg.LimitComfortInputs = f.limit
		case "indices":
			cfg.ComfortIndices = config.SplitList(f.indices)
		case "plugins":
			cfg.PluginDir = f.plugins
		case "csv":
			cfg.EmitCSV = f.emitCSV
		case "q":
			if f.quiet {
				cfg.LogLevel = "warn"
			}
		case "metrics-addr":
			cfg.MetricsAddr = f.metricsAddr
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	if f.listColumns {
		if err := listColumns(stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailed
		}
		return exitOK
	}

	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return report(stderr, err)
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return report(stderr, err)
	}

	logger := observability.NewLogger(cfg)

	paths, err := expandInputs(f.set.Args())
	if err != nil {
		return report(stderr, err)
	}

	pw, err := parquet.NewWriter(parquet.Options{Compression: cfg.Compression, RowGroupSize: cfg.RowGroupSize}, logger)
	if err != nil {
		return report(stderr, &domain.ConfigurationError{Reason: "invalid EPW_COMPRESSION", Err: err})
	}

	output := cfg.OutputPath()
	opts := pipeline.Options{
		Columns:            cfg.Columns,
		Strict:             cfg.Strict(),
		LimitComfortInputs: cfg.LimitComfortInputs,
		Comfort:            comfort.LoadOptions{Indices: cfg.ComfortIndices, PluginDir: cfg.PluginDir},
		Output:             output,
	}
	if cfg.EmitCSV {
		opts.CSVOutput = csvadapter.SiblingPath(output)
	}

	var publisher pipeline.ManifestPublisher
	if len(cfg.KafkaBrokers) > 0 {
		notifier := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaManifestTopic, logger, metrics)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		publisher = notifier
	}

	p := pipeline.New(opts, pw, csvadapter.NewWriter(logger), publisher, logger, metrics)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer shutdownServer(srv, cfg, logger)
	}

	res, err := p.Run(ctx, paths)
	if err != nil {
		logger.Error("merge failed", "error", err)
		return report(stderr, err)
	}

	for _, a := range res.Artifacts {
		fmt.Fprintf(stdout, "%s\t%s\t%d rows\n", a.Format, a.Path, res.Dataset.Len())
	}
	return exitOK
}

func shutdownServer(srv *httpadapter.Server, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

func listColumns(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND")
	for _, c := range domain.Catalog() {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Kind)
	}
	return tw.Flush()
}
