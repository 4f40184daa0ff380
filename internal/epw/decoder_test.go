package epw_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/epw-merge-etl/internal/epw"
	"github.com/couchcryptid/epw-merge-etl/internal/epw/epwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = "sao_paulo_2021.epw"

func decodeAll(t *testing.T, data []byte) (epw.Header, []epw.Record, error) {
	t.Helper()
	dec, err := epw.NewDecoder(bytes.NewReader(data), testSource)
	if err != nil {
		return epw.Header{}, nil, err
	}
	var recs []epw.Record
	for dec.Next() {
		recs = append(recs, dec.Record())
	}
	return dec.Header(), recs, dec.Err()
}

func TestDecoder_Header(t *testing.T) {
	opts := epwtest.Defaults()
	dec, err := epw.NewDecoder(bytes.NewReader(epwtest.Build(opts)), testSource)
	require.NoError(t, err)

	h := dec.Header()
	assert.Equal(t, "Sao.Paulo", h.City)
	assert.Equal(t, "SP", h.State)
	assert.Equal(t, "BRA", h.Country)
	assert.Equal(t, "INMET", h.DataSource)
	assert.Equal(t, "837800", h.WMO)
	assert.InDelta(t, -23.5, h.Latitude, 1e-9)
	assert.InDelta(t, -46.62, h.Longitude, 1e-9)
	assert.InDelta(t, -3.0, h.TimeZone, 1e-9)
	assert.InDelta(t, 792.0, h.Elevation, 1e-9)
	assert.False(t, h.LeapYear)
	assert.Equal(t, 1, h.RecordsPerHour)
	assert.Equal(t, testSource, dec.Source())
}

func TestDecoder_RecordCounts(t *testing.T) {
	tests := []struct {
		name string
		leap bool
		want int
	}{
		{"regular year", false, 8760},
		{"leap year", true, 8784},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := epwtest.Defaults()
			opts.LeapYear = tt.leap

			h, recs, err := decodeAll(t, epwtest.Build(opts))
			require.NoError(t, err)
			assert.Equal(t, tt.leap, h.LeapYear)
			assert.Len(t, recs, tt.want)
			assert.Equal(t, tt.want, h.ExpectedRecords())
		})
	}
}

func TestDecoder_TimestampsStrictlyIncrease(t *testing.T) {
	_, recs, err := decodeAll(t, epwtest.Build(epwtest.Defaults()))
	require.NoError(t, err)

	first := recs[0]
	assert.Equal(t, time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 0, first.HourOfYear)
	assert.Equal(t, 1, first.Hour)
	assert.Equal(t, 9, first.Line)

	last := recs[len(recs)-1]
	assert.Equal(t, time.Date(2017, time.December, 31, 23, 0, 0, 0, time.UTC), last.Time)
	assert.Equal(t, 8759, last.HourOfYear)
	assert.Equal(t, 24, last.Hour)

	for i := 1; i < len(recs); i++ {
		require.Greater(t, recs[i].HourOfYear, recs[i-1].HourOfYear)
		require.True(t, recs[i].Time.After(recs[i-1].Time))
	}
}

func TestDecoder_Values(t *testing.T) {
	_, recs, err := decodeAll(t, epwtest.Build(epwtest.Defaults()))
	require.NoError(t, err)

	rec := recs[30]
	dbt, ok := rec.Value(epw.MustLookup("dry_bulb_temperature")).Float()
	require.True(t, ok)
	assert.InDelta(t, epwtest.DryBulb(30, 8760), dbt, 1e-9)

	rh, ok := rec.Value(epw.MustLookup("relative_humidity")).Float()
	require.True(t, ok)
	assert.InDelta(t, float64(epwtest.RelativeHumidity(30)), rh, 1e-9)

	ws, ok := rec.Value(epw.MustLookup("wind_speed")).Float()
	require.True(t, ok)
	assert.InDelta(t, epwtest.WindSpeed(30), ws, 1e-9)

	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, 60, rec.Minute)
	assert.Equal(t, "999999999", rec.Text(epw.MustLookup("present_weather_codes")))
	assert.NotEmpty(t, rec.Text(epw.MustLookup("data_source_flags")))

	year, ok := rec.Int(epw.MustLookup("year"))
	require.True(t, ok)
	assert.Equal(t, 2021, year)
}

func TestDecoder_MissingSentinels(t *testing.T) {
	opts := epwtest.Defaults()
	opts.Mutate = func(i int, fields []string) []string {
		if i == 5 {
			fields[6] = "99.9"    // dry bulb
			fields[8] = "999"     // relative humidity
			fields[9] = "999999"  // station pressure
			fields[21] = "999"    // wind speed
			fields[33] = ""       // liquid precipitation depth
		}
		if i == 6 {
			fields[21] = "0" // a real calm hour
		}
		return fields
	}

	_, recs, err := decodeAll(t, epwtest.Build(opts))
	require.NoError(t, err)

	for _, name := range []string{"dry_bulb_temperature", "relative_humidity", "atmospheric_station_pressure", "wind_speed", "liquid_precipitation_depth"} {
		assert.True(t, recs[5].Value(epw.MustLookup(name)).IsMissing(), name)
	}

	// Catalog sentinels present in every synthetic line.
	assert.True(t, recs[0].Value(epw.MustLookup("visibility")).IsMissing())
	assert.True(t, recs[0].Value(epw.MustLookup("albedo")).IsMissing())

	calm := recs[6].Value(epw.MustLookup("wind_speed"))
	v, ok := calm.Float()
	assert.True(t, ok, "zero is a reading, not a missing value")
	assert.Zero(t, v)
}

func TestDecoder_OutOfOrder(t *testing.T) {
	opts := epwtest.Defaults()
	opts.Mutate = func(i int, fields []string) []string {
		if i == 100 {
			fields[1] = "1"
			fields[2] = "1"
			fields[3] = "1"
		}
		return fields
	}

	_, recs, err := decodeAll(t, epwtest.Build(opts))
	require.Error(t, err)
	assert.Len(t, recs, 100)

	var ooo *epw.OutOfOrderRecordError
	require.ErrorAs(t, err, &ooo)
	assert.Equal(t, testSource, ooo.Source)
	assert.Equal(t, 109, ooo.Line)
	assert.Equal(t, 99, ooo.Previous)
	assert.Equal(t, 0, ooo.Current)
}

func TestDecoder_DuplicateHourIsOutOfOrder(t *testing.T) {
	opts := epwtest.Defaults()
	var prev []string
	opts.Mutate = func(i int, fields []string) []string {
		if i == 11 {
			return prev
		}
		prev = append([]string(nil), fields...)
		return fields
	}

	_, _, err := decodeAll(t, epwtest.Build(opts))
	var ooo *epw.OutOfOrderRecordError
	require.ErrorAs(t, err, &ooo)
	assert.Equal(t, 20, ooo.Line)
}

func TestDecoder_MalformedRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fields []string) []string
		field  string
		reason string
	}{
		{
			name:   "too few fields",
			mutate: func(f []string) []string { return f[:30] },
			reason: "expected 35 fields, found 30",
		},
		{
			name:   "too many fields",
			mutate: func(f []string) []string { return append(f, "extra") },
			reason: "expected 35 fields, found 36",
		},
		{
			name:   "non integer hour",
			mutate: func(f []string) []string { f[3] = "1.5"; return f },
			field:  "hour",
			reason: `"1.5" is not an integer`,
		},
		{
			name:   "non numeric measurement",
			mutate: func(f []string) []string { f[6] = "warm"; return f },
			field:  "dry_bulb_temperature",
			reason: `"warm" is not a number`,
		},
		{
			name:   "impossible date",
			mutate: func(f []string) []string { f[1] = "2"; f[2] = "30"; return f },
			field:  "date",
			reason: "invalid timestamp",
		},
		{
			name:   "hour out of range",
			mutate: func(f []string) []string { f[3] = "25"; return f },
			field:  "date",
			reason: "invalid timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := epwtest.Defaults()
			opts.Mutate = func(i int, fields []string) []string {
				if i == 2 {
					return tt.mutate(fields)
				}
				return fields
			}

			_, _, err := decodeAll(t, epwtest.Build(opts))
			var mre *epw.MalformedRecordError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, testSource, mre.Source)
			assert.Equal(t, 11, mre.Line)
			assert.Equal(t, tt.field, mre.Field)
			assert.Equal(t, tt.reason, mre.Reason)
			assert.Contains(t, err.Error(), "line 11")
		})
	}
}

func TestDecoder_FebruaryTwentyNinthRequiresLeapFlag(t *testing.T) {
	opts := epwtest.Defaults()
	opts.LeapYear = true
	data := epwtest.Build(opts)
	data = bytes.Replace(data, []byte("HOLIDAYS/DAYLIGHT SAVINGS,Yes"), []byte("HOLIDAYS/DAYLIGHT SAVINGS,No"), 1)

	_, _, err := decodeAll(t, data)
	var mre *epw.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "date", mre.Field)
}

func TestDecoder_IncompleteYear(t *testing.T) {
	opts := epwtest.Defaults()
	opts.Mutate = func(i int, fields []string) []string {
		if i >= 8000 {
			return nil
		}
		return fields
	}

	_, recs, err := decodeAll(t, epwtest.Build(opts))
	assert.Len(t, recs, 8000)
	var mre *epw.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "expected 8760 hourly records, found 8000", mre.Reason)
}

func TestDecoder_CRLFAndTrailingBlankLines(t *testing.T) {
	data := epwtest.Build(epwtest.Defaults())
	data = bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))
	data = append(data, []byte("\r\n\r\n")...)

	h, recs, err := decodeAll(t, data)
	require.NoError(t, err)
	assert.Equal(t, "837800", h.WMO)
	assert.Len(t, recs, 8760)
}

func TestDecoder_MalformedHeader(t *testing.T) {
	valid := epwtest.HeaderLines(epwtest.Defaults())

	tests := []struct {
		name   string
		lines  []string
		line   int
		field  string
		reason string
	}{
		{
			name:   "missing header lines",
			lines:  valid[:3],
			line:   4,
			reason: "expected 8 header lines, found 3",
		},
		{
			name:   "not a location line",
			lines:  append([]string{"COMMENTS 1,hello"}, valid[1:]...),
			line:   1,
			reason: "first line must start with LOCATION",
		},
		{
			name:   "too few location fields",
			lines:  append([]string{"LOCATION,City,ST,USA,TMY3,722000,33.1"}, valid[1:]...),
			line:   1,
			reason: "expected 10 fields, found 7",
		},
		{
			name:   "non numeric latitude",
			lines:  append([]string{"LOCATION,City,ST,USA,TMY3,722000,north,-46.6,-3.0,792"}, valid[1:]...),
			line:   1,
			field:  "latitude",
			reason: `"north" is not a number`,
		},
		{
			name:   "non numeric elevation",
			lines:  append([]string{"LOCATION,City,ST,USA,TMY3,722000,-23.5,-46.6,-3.0,high"}, valid[1:]...),
			line:   1,
			field:  "elevation",
			reason: `"high" is not a number`,
		},
		{
			name:   "sub-hourly data",
			lines:  append(append([]string{}, valid[:7]...), "DATA PERIODS,1,4,Data,Sunday, 1/ 1,12/31"),
			line:   8,
			field:  "records per hour",
			reason: "only hourly data is supported, got 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Join(tt.lines, "\n") + "\n"
			_, err := epw.NewDecoder(strings.NewReader(data), testSource)

			var mhe *epw.MalformedHeaderError
			require.ErrorAs(t, err, &mhe)
			assert.Equal(t, testSource, mhe.Source)
			assert.Equal(t, tt.line, mhe.Line)
			assert.Equal(t, tt.field, mhe.Field)
			assert.Equal(t, tt.reason, mhe.Reason)
		})
	}
}

func TestDecoder_StopsAfterError(t *testing.T) {
	opts := epwtest.Defaults()
	opts.Mutate = func(i int, fields []string) []string {
		if i == 0 {
			fields[6] = "bad"
		}
		return fields
	}
	dec, err := epw.NewDecoder(bytes.NewReader(epwtest.Build(opts)), testSource)
	require.NoError(t, err)

	assert.False(t, dec.Next())
	assert.False(t, dec.Next())
	assert.Equal(t, 0, dec.Count())
	assert.True(t, errors.As(dec.Err(), new(*epw.MalformedRecordError)))
}
