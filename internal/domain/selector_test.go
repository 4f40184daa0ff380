package domain

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/epw-merge-etl/internal/epw"
	"github.com/couchcryptid/epw-merge-etl/internal/epw/epwtest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFirst(t *testing.T, opts epwtest.Options, n int) (epw.Header, []epw.Record) {
	t.Helper()
	dec, err := epw.NewDecoder(bytes.NewReader(epwtest.Build(opts)), "test.epw")
	require.NoError(t, err)
	var recs []epw.Record
	for len(recs) < n && dec.Next() {
		recs = append(recs, dec.Record())
	}
	require.NoError(t, dec.Err())
	return dec.Header(), recs
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		name string
		want Scenario
	}{
		{"some_city_WHATEVER_ssp126_2050.epw", Scenario{Code: "SSP126", Year: 2050, HasYear: true}},
		{"/data/in/Lisbon_SSP585_2080.EPW", Scenario{Code: "SSP585", Year: 2080, HasYear: true}},
		{"sao_paulo_2021.epw", Scenario{Code: "Baseline", Year: 2021, HasYear: true}},
		{"PRT_Lisboa.085360_IWEC.epw", Scenario{Code: "Baseline"}},
		{"ssp.epw", Scenario{Code: "Baseline"}},
		{"abc.epw", Scenario{Code: "Baseline"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScenario(tt.name))
		})
	}
}

func TestSelector_Project(t *testing.T) {
	schema, err := ResolveSchema([]string{
		"city", "state", "latitude", "scenario_code", "scenario_year",
		"datetime", "year", "hour", "dry_bulb_temperature", "relative_humidity",
		"visibility", "present_weather_codes",
	}, []Column{ComfortColumn("discomfort_index", KindFloat64), ComfortColumn("discomfort_condition", KindString)})
	require.NoError(t, err)

	h, recs := decodeFirst(t, epwtest.Defaults(), 3)
	fs := NewSelector(schema).ForFile("rio_ssp245_2050.epw", h)

	row := fs.Project(recs[2], []any{21.5, "No discomfort"})
	require.Len(t, row, schema.Len())

	want := Row{
		"rio_ssp245_2050.epw",
		"Sao Paulo",
		"SP",
		-23.5,
		"SSP245",
		int32(2050),
		time.Date(2017, time.January, 1, 2, 0, 0, 0, time.UTC),
		int32(2021),
		int32(3),
		epwtest.DryBulb(2, 8760),
		int32(epwtest.RelativeHumidity(2)),
		nil, // visibility sentinel
		"999999999",
		21.5,
		"No discomfort",
	}
	assert.Equal(t, want, row)
	assert.Equal(t, schema.Names(), fs.Columns())
	assert.Equal(t, "rio_ssp245_2050.epw", fs.Source())
}

func TestSelector_MissingComfortCells(t *testing.T) {
	schema, err := ResolveSchema([]string{"datetime"}, []Column{ComfortColumn("heat_index", KindFloat64)})
	require.NoError(t, err)

	h, recs := decodeFirst(t, epwtest.Defaults(), 1)
	row := NewSelector(schema).ForFile("a.epw", h).Project(recs[0], nil)
	assert.Nil(t, row[2])
}

func TestSelector_InfoFieldsPerFile(t *testing.T) {
	schema, err := ResolveSchema([]string{"city", "wmo", "elevation", "scenario_year"}, nil)
	require.NoError(t, err)
	sel := NewSelector(schema)

	other := epwtest.Defaults()
	other.City = "Lisboa"
	other.WMO = "085360"
	other.Elevation = 71

	h1, r1 := decodeFirst(t, epwtest.Defaults(), 1)
	h2, r2 := decodeFirst(t, other, 1)

	a := sel.ForFile("sao_paulo_2021.epw", h1).Project(r1[0], nil)
	b := sel.ForFile("lisboa_tmy.epw", h2).Project(r2[0], nil)

	assert.Equal(t, Row{"sao_paulo_2021.epw", "Sao Paulo", "837800", 792.0, int32(2021)}, a)
	assert.Equal(t, Row{"lisboa_tmy.epw", "Lisboa", "085360", 71.0, nil}, b)
}

func TestDefaultOutputName(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 14, 5, 59, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, "2024-03-01 14_05 compiled_to.parquet", DefaultOutputName())
	assert.Equal(t, time.Date(2024, 3, 1, 14, 5, 59, 0, time.UTC), Now())
}
