package comfort

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
)

// Adapter evaluates a fixed list of models for each row.
type Adapter struct {
	models  []Model
	limit   bool
	logger  *slog.Logger
	metrics *observability.Metrics
	columns []domain.Column

	failures map[string]int
}

// NewAdapter creates an Adapter. With limitInputs, every input a model
// bounds is saturated to that range before the model runs; otherwise inputs
// are passed through and the model extrapolates.
func NewAdapter(models []Model, limitInputs bool, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	a := &Adapter{
		models:   models,
		limit:    limitInputs,
		logger:   logger,
		metrics:  metrics,
		failures: make(map[string]int),
	}
	for _, m := range models {
		a.columns = append(a.columns, m.Outputs()...)
	}
	return a
}

// Columns lists the comfort columns in model order.
func (a *Adapter) Columns() []domain.Column {
	out := make([]domain.Column, len(a.columns))
	copy(out, a.columns)
	return out
}

// Compute returns one cell per comfort column. A model that fails leaves
// nil in its own cells only.
func (a *Adapter) Compute(in Inputs) []any {
	cells := make([]any, 0, len(a.columns))
	for _, m := range a.models {
		out, err := a.evaluate(m, in)
		if err != nil {
			a.failures[m.Name()]++
			a.metrics.ComfortEvaluations.WithLabelValues(m.Name(), "failed").Inc()
			a.logger.Debug("comfort model failed", "model", m.Name(), "error", err)
			cells = append(cells, make([]any, len(m.Outputs()))...)
			continue
		}
		a.metrics.ComfortEvaluations.WithLabelValues(m.Name(), "ok").Inc()
		cells = append(cells, out...)
	}
	return cells
}

// TakeFailures returns the per-model failure counts since the last call and
// resets them.
func (a *Adapter) TakeFailures() map[string]int {
	out := a.failures
	a.failures = make(map[string]int)
	return out
}

func (a *Adapter) evaluate(m Model, in Inputs) (cells []any, err error) {
	var v Values
	bounds := m.Bounds()
	for _, name := range m.Requires() {
		x, ok := in.get(name).Float()
		if !ok {
			return nil, fmt.Errorf("missing input %s", name)
		}
		if r, bounded := bounds[name]; bounded && a.limit {
			if c := r.Clamp(x); c != x {
				a.metrics.ComfortClamped.WithLabelValues(m.Name(), string(name)).Inc()
				x = c
			}
		}
		v.set(name, x)
	}

	defer func() {
		if r := recover(); r != nil {
			cells, err = nil, fmt.Errorf("model panicked: %v", r)
		}
	}()

	out, err := m.Compute(v)
	if err != nil {
		return nil, err
	}
	return conform(m.Outputs(), out)
}

var errNonFinite = errors.New("non-finite result")

// conform checks a model's cells against its declared outputs and converts
// them to the column kinds.
func conform(cols []domain.Column, out []any) ([]any, error) {
	if len(out) != len(cols) {
		return nil, fmt.Errorf("returned %d values for %d outputs", len(out), len(cols))
	}
	cells := make([]any, len(out))
	for i, c := range cols {
		if out[i] == nil {
			continue
		}
		v, err := coerce(c.Kind, out[i])
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", c.Name, err)
		}
		cells[i] = v
	}
	return cells, nil
}

func coerce(kind domain.Kind, v any) (any, error) {
	switch kind {
	case domain.KindFloat64:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case float32:
			f = float64(x)
		case int:
			f = float64(x)
		case int32:
			f = float64(x)
		case int64:
			f = float64(x)
		default:
			return nil, fmt.Errorf("got %T, want float64", v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errNonFinite
		}
		return f, nil
	case domain.KindInt32:
		switch x := v.(type) {
		case int32:
			return x, nil
		case int:
			if x < math.MinInt32 || x > math.MaxInt32 {
				return nil, fmt.Errorf("%d overflows int32", x)
			}
			return int32(x), nil
		case int64:
			if x < math.MinInt32 || x > math.MaxInt32 {
				return nil, fmt.Errorf("%d overflows int32", x)
			}
			return int32(x), nil
		default:
			return nil, fmt.Errorf("got %T, want int32", v)
		}
	case domain.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("got %T, want string", v)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}
