// Package epw decodes EnergyPlus Weather (EPW) files.
//
// # File Layout
//
// An EPW file is plain text with eight header lines followed by one data
// line per hour of the year. Every line is comma-separated and positional.
//
//	LOCATION,<city>,<state>,<country>,<source>,<WMO>,<lat>,<lon>,<tz>,<elevation>
//	DESIGN CONDITIONS,...
//	TYPICAL/EXTREME PERIODS,...
//	GROUND TEMPERATURES,...
//	HOLIDAYS/DAYLIGHT SAVINGS,<leap year observed: Yes|No>,...
//	COMMENTS 1,...
//	COMMENTS 2,...
//	DATA PERIODS,<count>,<records per hour>,...
//
// Data lines carry 35 fields: year, month, day, hour (1-24, hour ending),
// minute, a data source/uncertainty flag string, then meteorological
// measurements. See [Fields] for the full catalog.
//
// # Missing Values
//
// EnergyPlus marks missing measurements with out-of-range sentinel codes
// (99.9 for dry-bulb temperature, 999 for relative humidity, 999999 for
// station pressure and so on). The decoder keeps those as an explicit
// missing [Value] rather than a number, so a real zero reading is never
// confused with an absent one.
//
// # Calendar
//
// Typical meteorological year files mix data years month by month, so the
// data year cannot order records. Ordering uses the hour of the year
// reconstructed from month, day and hour on a reference calendar: 2016 for
// files that declare a leap year, 2017 otherwise.
package epw
