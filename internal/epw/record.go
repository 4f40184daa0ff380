package epw

import (
	"fmt"
	"time"
)

// Value is a decoded measurement that may be missing.
type Value struct {
	v     float64
	valid bool
}

// Present wraps a decoded number.
func Present(v float64) Value { return Value{v: v, valid: true} }

// Missing is the explicit absent value.
func Missing() Value { return Value{} }

// Float returns the number and whether it is present.
func (v Value) Float() (float64, bool) { return v.v, v.valid }

// IsMissing reports whether the value was a sentinel code.
func (v Value) IsMissing() bool { return !v.valid }

func (v Value) String() string {
	if !v.valid {
		return "missing"
	}
	return fmt.Sprintf("%g", v.v)
}

// Header holds the informational fields of an EPW file. It never varies
// within a file.
type Header struct {
	City       string
	State      string
	Country    string
	DataSource string
	WMO        string
	Latitude   float64
	Longitude  float64
	TimeZone   float64
	Elevation  float64

	// LeapYear is the "leap year observed" flag from the holidays line.
	LeapYear       bool
	RecordsPerHour int
}

// ReferenceYear is the calendar year used to place records in time.
func (h Header) ReferenceYear() int {
	return ReferenceYear(h.LeapYear)
}

// ExpectedRecords is the number of hourly records a complete file carries.
func (h Header) ExpectedRecords() int {
	if h.LeapYear {
		return 8784
	}
	return 8760
}

// ReferenceYear returns 2016 for leap-year files and 2017 otherwise.
func ReferenceYear(leap bool) int {
	if leap {
		return 2016
	}
	return 2017
}

// Record is one decoded hourly observation.
type Record struct {
	Year   int
	Month  int
	Day    int
	Hour   int // 1-24, hour ending
	Minute int

	// Time is the start of the observation hour on the reference calendar.
	Time time.Time
	// HourOfYear is zero-based.
	HourOfYear int
	// Line is the 1-based line number in the source file.
	Line int

	DataSourceFlags     string
	PresentWeatherCodes string

	values [FieldCount]Value
}

// Value returns the decoded measurement for f. Date, time and text fields
// are not measurements and always report missing.
func (r Record) Value(f Field) Value {
	if f.Index < 0 || f.Index >= FieldCount {
		return Missing()
	}
	return r.values[f.Index]
}

// Text returns the raw text of a string field.
func (r Record) Text(f Field) string {
	switch f.Index {
	case idxFlags:
		return r.DataSourceFlags
	case idxPresentWeatherCodes:
		return r.PresentWeatherCodes
	default:
		return ""
	}
}

// Int returns the integer date/time field f.
func (r Record) Int(f Field) (int, bool) {
	switch f.Index {
	case idxYear:
		return r.Year, true
	case idxMonth:
		return r.Month, true
	case idxDay:
		return r.Day, true
	case idxHour:
		return r.Hour, true
	case idxMinute:
		return r.Minute, true
	default:
		return 0, false
	}
}

// hourOfYear places (month, day, hour) on the reference calendar.
func hourOfYear(leap bool, month, day, hour int) (time.Time, int, error) {
	if month < 1 || month > 12 {
		return time.Time{}, 0, fmt.Errorf("month %d out of range", month)
	}
	if hour < 1 || hour > 24 {
		return time.Time{}, 0, fmt.Errorf("hour %d out of range", hour)
	}
	day0 := time.Date(ReferenceYear(leap), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if day < 1 || day0.Month() != time.Month(month) || day0.Day() != day {
		return time.Time{}, 0, fmt.Errorf("invalid date %02d/%02d", month, day)
	}
	start := day0.Add(time.Duration(hour-1) * time.Hour)
	return start, (day0.YearDay()-1)*24 + hour - 1, nil
}
