package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

// expandInputs replaces each directory argument with its .epw files, sorted
// by name. Files keep argument order. Matching is case-insensitive and not
// recursive.
func expandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, &domain.ConfigurationError{Reason: "no input files or directories given"}
	}

	var paths []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "invalid input", Err: err}
		}
		if !fi.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "invalid input", Err: err}
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".epw") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("directory %s has no .epw files", arg)}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
