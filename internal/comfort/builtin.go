package comfort

import (
	"math"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

// Built-in model names.
const (
	DiscomfortIndex = "discomfort_index"
	HeatIndex       = "heat_index"
	UTCI            = "utci"
)

// UTCI wind speed domain in m/s.
const (
	UTCIWindLowerBound = 0.50001
	UTCIWindUpperBound = 16.99999
)

func builtins() map[string]Model {
	return map[string]Model{
		DiscomfortIndex: discomfortIndex{},
		HeatIndex:       heatIndex{},
		UTCI:            utci{},
	}
}

// discomfortIndex is Thom's discomfort index with its population
// discomfort condition.
type discomfortIndex struct{}

var discomfortConditions = []struct {
	below float64
	label string
}{
	{21, "No discomfort"},
	{24, "Less than 50% feels discomfort"},
	{27, "More than 50% feels discomfort"},
	{29, "Most of the population feels discomfort"},
	{32, "Everyone feels severe stress"},
}

const medicalEmergency = "State of medical emergency"

func (discomfortIndex) Name() string { return DiscomfortIndex }

func (discomfortIndex) Outputs() []domain.Column {
	return []domain.Column{
		domain.ComfortColumn("discomfort_index", domain.KindFloat64),
		domain.ComfortColumn("discomfort_condition", domain.KindString),
	}
}

func (discomfortIndex) Requires() []Input {
	return []Input{InputDryBulb, InputRelativeHumidity}
}

func (discomfortIndex) Bounds() map[Input]Range { return nil }

func (discomfortIndex) Compute(v Values) ([]any, error) {
	di := round1(v.DryBulb - 0.55*(1-0.01*v.RelativeHumidity)*(v.DryBulb-14.5))
	return []any{di, discomfortCondition(di)}, nil
}

func discomfortCondition(di float64) string {
	for _, c := range discomfortConditions {
		if di < c.below {
			return c.label
		}
	}
	return medicalEmergency
}

// heatIndex is the Rothfusz regression in SI units.
type heatIndex struct{}

func (heatIndex) Name() string { return HeatIndex }

func (heatIndex) Outputs() []domain.Column {
	return []domain.Column{domain.ComfortColumn("heat_index", domain.KindFloat64)}
}

func (heatIndex) Requires() []Input {
	return []Input{InputDryBulb, InputRelativeHumidity}
}

func (heatIndex) Bounds() map[Input]Range { return nil }

func (heatIndex) Compute(v Values) ([]any, error) {
	t, rh := v.DryBulb, v.RelativeHumidity
	hi := -8.784695 +
		1.61139411*t +
		2.338549*rh -
		0.14611605*t*rh -
		1.2308094e-2*t*t -
		1.6424828e-2*rh*rh +
		2.211732e-3*t*t*rh +
		7.2546e-4*t*rh*rh -
		3.582e-6*t*t*rh*rh
	return []any{round1(hi)}, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
