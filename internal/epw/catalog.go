package epw

import "math"

// Kind is the declared type of a positional field.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Field describes one positional column of an EPW data line.
type Field struct {
	Name  string
	Index int
	Unit  string
	Kind  Kind
	Min   float64
	Max   float64

	// Missing is the sentinel code; values at or above it are missing.
	Missing    float64
	HasMissing bool
}

// IsMissing reports whether v is this field's missing-value code.
func (f Field) IsMissing(v float64) bool {
	return f.HasMissing && v >= f.Missing
}

// InRange reports whether v lies within the documented valid range.
func (f Field) InRange(v float64) bool {
	return v >= f.Min && v <= f.Max
}

// Positions of the date, time and text fields.
const (
	idxYear = iota
	idxMonth
	idxDay
	idxHour
	idxMinute
	idxFlags
)

const (
	idxPresentWeatherCodes = 27

	// FieldCount is the number of comma-separated fields on every data line.
	FieldCount = 35
)

var inf = math.Inf(1)

func measure(name string, index int, unit string, kind Kind, lo, hi, missing float64) Field {
	return Field{Name: name, Index: index, Unit: unit, Kind: kind, Min: lo, Max: hi, Missing: missing, HasMissing: true}
}

var catalog = []Field{
	{Name: "year", Index: idxYear, Kind: KindInt, Min: -inf, Max: inf},
	{Name: "month", Index: idxMonth, Kind: KindInt, Min: 1, Max: 12},
	{Name: "day", Index: idxDay, Kind: KindInt, Min: 1, Max: 31},
	{Name: "hour", Index: idxHour, Kind: KindInt, Min: 1, Max: 24},
	{Name: "minute", Index: idxMinute, Kind: KindInt, Min: 0, Max: 60},
	{Name: "data_source_flags", Index: idxFlags, Kind: KindString},
	measure("dry_bulb_temperature", 6, "C", KindFloat, -70, 70, 99.9),
	measure("dew_point_temperature", 7, "C", KindFloat, -70, 70, 99.9),
	measure("relative_humidity", 8, "%", KindInt, 0, 110, 999),
	measure("atmospheric_station_pressure", 9, "Pa", KindInt, 31000, 120000, 999999),
	measure("extraterrestrial_horizontal_radiation", 10, "Wh/m2", KindInt, 0, inf, 9999),
	measure("extraterrestrial_direct_normal_radiation", 11, "Wh/m2", KindInt, 0, inf, 9999),
	measure("horizontal_infrared_radiation_intensity", 12, "Wh/m2", KindInt, 0, inf, 9999),
	measure("global_horizontal_radiation", 13, "Wh/m2", KindInt, 0, inf, 9999),
	measure("direct_normal_radiation", 14, "Wh/m2", KindInt, 0, inf, 9999),
	measure("diffuse_horizontal_radiation", 15, "Wh/m2", KindInt, 0, inf, 9999),
	measure("global_horizontal_illuminance", 16, "lux", KindInt, 0, inf, 999999),
	measure("direct_normal_illuminance", 17, "lux", KindInt, 0, inf, 999999),
	measure("diffuse_horizontal_illuminance", 18, "lux", KindInt, 0, inf, 999999),
	measure("zenith_luminance", 19, "Cd/m2", KindInt, 0, inf, 9999),
	measure("wind_direction", 20, "degrees", KindInt, 0, 360, 999),
	measure("wind_speed", 21, "m/s", KindFloat, 0, 40, 999),
	measure("total_sky_cover", 22, "tenths", KindInt, 0, 10, 99),
	measure("opaque_sky_cover", 23, "tenths", KindInt, 0, 10, 99),
	measure("visibility", 24, "km", KindFloat, 0, inf, 9999),
	measure("ceiling_height", 25, "m", KindInt, 0, inf, 99999),
	{Name: "present_weather_observation", Index: 26, Kind: KindInt, Min: 0, Max: 9},
	{Name: "present_weather_codes", Index: idxPresentWeatherCodes, Kind: KindString},
	measure("precipitable_water", 28, "mm", KindFloat, 0, inf, 999),
	measure("aerosol_optical_depth", 29, "thousandths", KindFloat, 0, inf, 0.999),
	measure("snow_depth", 30, "cm", KindFloat, 0, inf, 999),
	measure("days_since_last_snowfall", 31, "days", KindInt, 0, inf, 99),
	measure("albedo", 32, "", KindFloat, 0, inf, 999),
	measure("liquid_precipitation_depth", 33, "mm", KindFloat, 0, inf, 999),
	measure("liquid_precipitation_quantity", 34, "hr", KindFloat, 0, inf, 99),
}

var catalogByName = func() map[string]Field {
	m := make(map[string]Field, len(catalog))
	for _, f := range catalog {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the positional field catalog in file order.
func Fields() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog field with the given name.
func Lookup(name string) (Field, bool) {
	f, ok := catalogByName[name]
	return f, ok
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Field {
	f, ok := catalogByName[name]
	if !ok {
		panic("epw: unknown field " + name)
	}
	return f
}

// isMeasurement reports whether f is decoded into a Value.
func isMeasurement(f Field) bool {
	return f.Index > idxFlags && f.Kind != KindString
}
