// Package comfort computes thermal-comfort indices for hourly weather rows.
//
// Models are resolved once per run, from the built-in set or from Go source
// plugins interpreted at load time. Each model declares the inputs it reads
// and, optionally, the range over which its regression is valid. The
// Adapter evaluates every model per row and never fails the run: a model
// that cannot produce a value yields nil cells for that row.
package comfort

import (
	"strings"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw"
)

// Input names a model input.
type Input string

const (
	InputDryBulb          Input = "tdb"
	InputMeanRadiant      Input = "tr"
	InputWindSpeed        Input = "v"
	InputRelativeHumidity Input = "rh"
)

func parseInput(s string) (Input, bool) {
	switch in := Input(strings.ToLower(strings.TrimSpace(s))); in {
	case InputDryBulb, InputMeanRadiant, InputWindSpeed, InputRelativeHumidity:
		return in, true
	default:
		return "", false
	}
}

// Inputs are the per-row readings a model may use. Any of them can be
// missing.
type Inputs struct {
	DryBulb          epw.Value
	MeanRadiant      epw.Value
	WindSpeed        epw.Value
	RelativeHumidity epw.Value
}

var (
	fieldDryBulb  = epw.MustLookup("dry_bulb_temperature")
	fieldHumidity = epw.MustLookup("relative_humidity")
	fieldWind     = epw.MustLookup("wind_speed")
)

// InputsFromRecord reads the comfort inputs of rec. EPW files carry no mean
// radiant temperature, so the dry-bulb temperature stands in for it.
func InputsFromRecord(rec epw.Record) Inputs {
	tdb := rec.Value(fieldDryBulb)
	return Inputs{
		DryBulb:          tdb,
		MeanRadiant:      tdb,
		WindSpeed:        rec.Value(fieldWind),
		RelativeHumidity: rec.Value(fieldHumidity),
	}
}

func (in Inputs) get(name Input) epw.Value {
	switch name {
	case InputDryBulb:
		return in.DryBulb
	case InputMeanRadiant:
		return in.MeanRadiant
	case InputWindSpeed:
		return in.WindSpeed
	case InputRelativeHumidity:
		return in.RelativeHumidity
	default:
		return epw.Missing()
	}
}

// Values are the resolved numeric inputs passed to a model.
type Values struct {
	DryBulb          float64
	MeanRadiant      float64
	WindSpeed        float64
	RelativeHumidity float64
}

func (v *Values) set(name Input, x float64) {
	switch name {
	case InputDryBulb:
		v.DryBulb = x
	case InputMeanRadiant:
		v.MeanRadiant = x
	case InputWindSpeed:
		v.WindSpeed = x
	case InputRelativeHumidity:
		v.RelativeHumidity = x
	}
}

// Range is a closed validity interval.
type Range struct {
	Lo float64
	Hi float64
}

// Saturate keeps value within [lower, upper].
func Saturate(value, lower, upper float64) float64 {
	return min(max(value, lower), upper)
}

// Clamp saturates x to the range.
func (r Range) Clamp(x float64) float64 { return Saturate(x, r.Lo, r.Hi) }

// Model is one comfort index.
type Model interface {
	Name() string
	// Outputs are the columns the model fills, in order.
	Outputs() []domain.Column
	// Requires lists the inputs that must be present.
	Requires() []Input
	// Bounds are the documented input ranges, used when inputs are limited.
	Bounds() map[Input]Range
	// Compute returns one cell per output. Cells may be nil.
	Compute(v Values) ([]any, error)
}
