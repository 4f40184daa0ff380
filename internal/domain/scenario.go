package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// BaselineScenario is the code given to files without an ssp marker.
const BaselineScenario = "Baseline"

// Scenario is the climate scenario encoded in an EPW file name, e.g.
// "some_city_WHATEVER_ssp126_2050.epw" is SSP126 for 2050.
type Scenario struct {
	Code    string
	Year    int
	HasYear bool
}

// ParseScenario reads the scenario from a file name. The year is the last
// four characters of the stem. A stem containing "ssp" takes its code from
// the second-to-last underscore segment; anything else is the baseline.
func ParseScenario(name string) Scenario {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	sc := Scenario{Code: BaselineScenario}
	if len(stem) >= 4 {
		if y, err := strconv.Atoi(stem[len(stem)-4:]); err == nil && y >= 0 {
			sc.Year, sc.HasYear = y, true
		}
	}

	if strings.Contains(strings.ToLower(stem), "ssp") {
		parts := strings.Split(stem, "_")
		if len(parts) >= 2 && parts[len(parts)-2] != "" {
			sc.Code = strings.ToUpper(parts[len(parts)-2])
		}
	}
	return sc
}
