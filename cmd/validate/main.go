// Command validate performs integrity checks on an epwmerge artifact: the
// Parquet file is re-read and checked for provenance and chronological
// order, compared against the CSV rendering, and optionally reconciled with
// the EPW inputs it was built from.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -parquet "out/merged.parquet" \
//	  -csv out/merged.csv \
//	  -inputs data/mock
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	csvadapter "github.com/couchcryptid/epw-merge-etl/internal/adapter/csv"
	"github.com/couchcryptid/epw-merge-etl/internal/adapter/parquet"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw"
)

// maxErrors caps the detail printed per phase.
const maxErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	parquetPath := flag.String("parquet", "", "path to the merged Parquet file")
	csvPath := flag.String("csv", "", "path to the CSV rendering (skipped when empty)")
	inputs := flag.String("inputs", "", "directory of the EPW inputs (skipped when empty)")
	flag.Parse()

	if *parquetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*parquetPath, *csvPath, *inputs); code != 0 {
		os.Exit(code)
	}
}

func run(parquetPath, csvPath, inputs string) int {
	fmt.Println("=== EPW Merge Artifact Validation ===")
	fmt.Println()

	table, err := parquet.ReadFile(parquetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read parquet: %v\n", err)
		return 1
	}

	phases := []*phase{validateStructure(table)}

	if csvPath != "" {
		records, err := loadCSV(csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
			return 1
		}
		phases = append(phases, validateCSVParity(table, records))
	}

	if inputs != "" {
		counts, err := expectedCounts(inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read inputs: %v\n", err)
			return 1
		}
		phases = append(phases, validateSourceParity(table, counts))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d, columns: %d\n", len(table.Rows), len(table.Columns))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateStructure checks provenance and per-file chronological order.
func validateStructure(t parquet.Table) *phase {
	p := &phase{name: "Parquet structure"}
	if len(t.Columns) == 0 || t.Columns[0] != domain.ColumnSourceFile {
		p.errorf("first column must be %s, got %v", domain.ColumnSourceFile, t.Columns)
		return p
	}
	dt := index(t.Columns, domain.ColumnDatetime)

	var prevSource string
	var prevTime time.Time
	for i, row := range t.Rows {
		src, ok := row[0].(string)
		if !ok || src == "" {
			p.errorf("row %d: missing %s", i, domain.ColumnSourceFile)
			continue
		}
		if dt < 0 {
			continue
		}
		ts, ok := row[dt].(time.Time)
		if !ok {
			p.errorf("row %d: datetime is %T", i, row[dt])
			continue
		}
		if src == prevSource && !ts.After(prevTime) {
			p.errorf("row %d (%s): %s does not follow %s", i, src, ts.Format(csvadapter.TimeLayout), prevTime.Format(csvadapter.TimeLayout))
		}
		prevSource, prevTime = src, ts
	}
	return p
}

// validateCSVParity checks that the CSV carries the same logical content.
func validateCSVParity(t parquet.Table, records [][]string) *phase {
	p := &phase{name: "CSV parity"}
	if len(records) == 0 {
		p.errorf("CSV is empty")
		return p
	}
	if got := strings.Join(records[0], ","); got != strings.Join(t.Columns, ",") {
		p.errorf("header mismatch: csv %q, parquet %q", got, strings.Join(t.Columns, ","))
		return p
	}
	if len(records)-1 != len(t.Rows) {
		p.errorf("row count mismatch: csv %d, parquet %d", len(records)-1, len(t.Rows))
		return p
	}
	for i, row := range t.Rows {
		for c, cell := range row {
			if want := csvadapter.FormatCell(cell); records[i+1][c] != want {
				p.errorf("row %d column %s: csv %q, parquet %q", i, t.Columns[c], records[i+1][c], want)
			}
		}
	}
	return p
}

// validateSourceParity checks that each input contributed all of its hours,
// in input order.
func validateSourceParity(t parquet.Table, counts []sourceCount) *phase {
	p := &phase{name: "Source parity"}

	got := map[string]int{}
	var order []string
	for _, row := range t.Rows {
		src, _ := row[0].(string)
		if got[src] == 0 {
			order = append(order, src)
		}
		got[src]++
	}

	want := make([]string, 0, len(counts))
	for _, c := range counts {
		want = append(want, c.source)
		if got[c.source] != c.hours {
			p.errorf("%s: %d rows, expected %d", c.source, got[c.source], c.hours)
		}
	}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		p.errorf("source order %v, expected %v", order, want)
	}
	return p
}

type sourceCount struct {
	source string
	hours  int
}

// expectedCounts reads the header of every .epw file in dir, in the order
// epwmerge expands a directory.
func expectedCounts(dir string) ([]sourceCount, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".epw") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	counts := make([]sourceCount, 0, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		dec, err := epw.NewDecoder(f, name)
		f.Close()
		if err != nil {
			return nil, err
		}
		counts = append(counts, sourceCount{source: name, hours: dec.Header().ExpectedRecords()})
	}
	return counts, nil
}

func loadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func index(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
