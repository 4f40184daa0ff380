package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

const (
	ModeStrict  = "strict"
	ModeEnabled = "enabled"

	defaultRowGroupSize = 128 * 1024 * 1024
	parquetExt          = ".parquet"
)

// DefaultComfortIndices are computed when no indices are configured.
var DefaultComfortIndices = []string{"discomfort_index", "heat_index", "utci"}

// Config holds all run settings. Values come from, in increasing
// precedence: defaults, the YAML file named by EPW_CONFIG, environment
// variables, then CLI flags applied by the caller.
type Config struct {
	Output             string
	Columns            []string
	ComfortMode        string
	LimitComfortInputs bool
	ComfortIndices     []string
	PluginDir          string
	EmitCSV            bool

	Compression  string
	RowGroupSize int64

	LogLevel  string
	LogFormat string

	MetricsAddr string

	// Manifest publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaManifestTopic string

	ShutdownTimeout time.Duration
}

// fileConfig is the YAML overlay. Unset keys keep their defaults.
type fileConfig struct {
	Output             string   `yaml:"output"`
	Columns            []string `yaml:"columns"`
	ComfortMode        string   `yaml:"comfort_mode"`
	LimitComfortInputs *bool    `yaml:"limit_comfort_inputs"`
	ComfortIndices     []string `yaml:"comfort_indices"`
	PluginDir          string   `yaml:"plugin_dir"`
	EmitCSV            *bool    `yaml:"emit_csv"`
	Compression        string   `yaml:"compression"`
	RowGroupSize       int64    `yaml:"row_group_size"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	MetricsAddr        string   `yaml:"metrics_addr"`
	KafkaBrokers       []string `yaml:"kafka_brokers"`
	KafkaManifestTopic string   `yaml:"kafka_manifest_topic"`
}

// Load reads configuration using the YAML file named by EPW_CONFIG, if any.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("EPW_CONFIG"))
}

// LoadFile reads configuration with path as the YAML overlay. An empty
// path skips the overlay.
func LoadFile(path string) (*Config, error) {
	fc, err := readFile(path)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, invalid("SHUTDOWN_TIMEOUT", err)
	}

	limit, err := parseBool("EPW_LIMIT_COMFORT_INPUTS", fc.LimitComfortInputs)
	if err != nil {
		return nil, err
	}
	emitCSV, err := parseBool("EPW_EMIT_CSV", fc.EmitCSV)
	if err != nil {
		return nil, err
	}

	rowGroupSize := int64(defaultRowGroupSize)
	if fc.RowGroupSize != 0 {
		rowGroupSize = fc.RowGroupSize
	}
	if s := os.Getenv("EPW_ROW_GROUP_SIZE"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalid("EPW_ROW_GROUP_SIZE", err)
		}
		rowGroupSize = n
	}

	cfg := &Config{
		Output:             sharedcfg.EnvOrDefault("EPW_OUTPUT", fc.Output),
		Columns:            listOrDefault("EPW_COLUMNS", fc.Columns, domain.DefaultColumns),
		ComfortMode:        strings.ToLower(sharedcfg.EnvOrDefault("EPW_COMFORT_MODE", or(fc.ComfortMode, ModeEnabled))),
		LimitComfortInputs: limit,
		ComfortIndices:     listOrDefault("EPW_COMFORT_INDICES", fc.ComfortIndices, DefaultComfortIndices),
		PluginDir:          sharedcfg.EnvOrDefault("EPW_COMFORT_PLUGIN_DIR", fc.PluginDir),
		EmitCSV:            emitCSV,
		Compression:        strings.ToUpper(sharedcfg.EnvOrDefault("EPW_COMPRESSION", or(fc.Compression, "SNAPPY"))),
		RowGroupSize:       rowGroupSize,
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", or(fc.LogLevel, "info")),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", or(fc.LogFormat, "json")),
		MetricsAddr:        sharedcfg.EnvOrDefault("METRICS_ADDR", fc.MetricsAddr),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", strings.Join(fc.KafkaBrokers, ","))),
		KafkaManifestTopic: sharedcfg.EnvOrDefault("KAFKA_MANIFEST_TOPIC", or(fc.KafkaManifestTopic, "epw-merge-artifacts")),
		ShutdownTimeout:    shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that do not depend on other packages. Call it
// again after applying flag overrides.
func (c *Config) Validate() error {
	if c.ComfortMode != ModeStrict && c.ComfortMode != ModeEnabled {
		return invalid("EPW_COMFORT_MODE", fmt.Errorf("%q is not strict or enabled", c.ComfortMode))
	}
	if len(c.Columns) == 0 {
		return invalid("EPW_COLUMNS", errors.New("no columns selected"))
	}
	if c.ComfortMode == ModeEnabled && len(c.ComfortIndices) == 0 {
		return invalid("EPW_COMFORT_INDICES", errors.New("comfort is enabled but no indices are listed"))
	}
	if c.RowGroupSize <= 0 {
		return invalid("EPW_ROW_GROUP_SIZE", errors.New("must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaManifestTopic == "" {
		return invalid("KAFKA_MANIFEST_TOPIC", errors.New("required when KAFKA_BROKERS is set"))
	}
	return nil
}

// Strict reports whether comfort computation is disabled.
func (c *Config) Strict() bool { return c.ComfortMode == ModeStrict }

// OutputPath returns the configured output path with its extension
// replaced by .parquet, or the timestamped default name when none is set.
func (c *Config) OutputPath() string {
	if c.Output == "" {
		return domain.DefaultOutputName()
	}
	base := filepath.Base(c.Output)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(c.Output, ext) + parquetExt
	}
	return c.Output + parquetExt
}

// SplitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, &domain.ConfigurationError{Reason: "read config file", Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, &domain.ConfigurationError{Reason: "parse config file " + path, Err: err}
	}
	return fc, nil
}

func listOrDefault(key string, fromFile, fallback []string) []string {
	if s := os.Getenv(key); s != "" {
		return SplitList(s)
	}
	if len(fromFile) > 0 {
		return slices.Clone(fromFile)
	}
	return slices.Clone(fallback)
}

func parseBool(key string, fromFile *bool) (bool, error) {
	if s := os.Getenv(key); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, invalid(key, err)
		}
		return b, nil
	}
	return fromFile != nil && *fromFile, nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func invalid(key string, err error) error {
	return &domain.ConfigurationError{Reason: "invalid " + key, Err: err}
}
