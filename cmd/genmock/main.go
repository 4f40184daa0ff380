// Command genmock writes deterministic synthetic EPW files for demos and
// manual runs of epwmerge. Each station gets one baseline file plus one file
// per climate scenario, with the scenario warming applied to the dry-bulb
// temperature.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -scenarios ssp245_2050,ssp585_2080
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw/epwtest"
)

type station struct {
	file string
	opts func() epwtest.Options
}

var stations = []station{
	{file: "sao_paulo", opts: epwtest.Defaults},
	{file: "lisboa", opts: func() epwtest.Options {
		o := epwtest.Defaults()
		o.City, o.State, o.Country, o.Source, o.WMO = "Lisboa", "-", "PRT", "IWEC", "085360"
		o.Latitude, o.Longitude, o.TimeZone, o.Elevation = 38.73, -9.15, 0, 71
		return o
	}},
}

// warming is the dry-bulb offset in degrees C applied per scenario code.
var warming = map[string]float64{
	"SSP126": 0.8,
	"SSP245": 1.4,
	"SSP370": 2.1,
	"SSP585": 2.9,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the generated EPW files")
	scenarios := flag.String("scenarios", "ssp245_2050,ssp585_2080", "comma-separated <ssp>_<year> scenarios")
	leap := flag.Bool("leap", false, "generate leap-year files (8784 hours)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	names := []string{"tmy"}
	for _, s := range strings.Split(*scenarios, ",") {
		if s = strings.TrimSpace(s); s != "" {
			names = append(names, s)
		}
	}

	total := 0
	for _, st := range stations {
		for _, scenario := range names {
			name := fmt.Sprintf("%s_%s.epw", st.file, scenario)
			opts := st.opts()
			opts.LeapYear = *leap
			opts.Mutate = warm(domain.ParseScenario(name).Code)

			path, err := epwtest.Write(*out, name, opts)
			if err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			log.Printf("%s: %d hours", path, opts.Hours())
			total += opts.Hours()
		}
	}
	log.Printf("total: %d hours in %d files", total, len(stations)*len(names))
	return nil
}

// warm returns a record mutator that raises the dry-bulb temperature by the
// scenario's offset. Baseline files are left untouched.
func warm(code string) func(int, []string) []string {
	delta, ok := warming[code]
	if !ok {
		return nil
	}
	return func(_ int, fields []string) []string {
		if v, err := strconv.ParseFloat(fields[6], 64); err == nil {
			fields[6] = strconv.FormatFloat(v+delta, 'f', 1, 64)
		}
		return fields
	}
}
