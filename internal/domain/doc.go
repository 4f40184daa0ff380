// Package domain models the merged weather table built from EPW files.
//
// # Schema
//
// A run selects its columns once, before any file is opened. Columns come
// from three places:
//
//	Informational: constant within a file (station, coordinates, scenario).
//	Record:        one value per hourly EPW record, plus "datetime".
//	Comfort:       computed per row by comfort models, always last.
//
// The provenance column "source_file" is always present so rows of
// overlapping files stay distinguishable.
//
// # Scenarios
//
// Future-climate files encode their scenario in the name:
//
//	some_city_WHATEVER_ssp126_2050.epw  ->  code "SSP126", year 2050
//	sao_paulo_2021.epw                  ->  code "Baseline", year 2021
//
// The year is always the last four characters of the stem and is missing
// when they are not digits.
//
// # Missing values
//
// Sentinel-coded EPW values and failed comfort cells are nil in a Row and
// null in every output format. They are never zero.
package domain
