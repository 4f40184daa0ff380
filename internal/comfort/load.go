package comfort

import (
	"fmt"
	"strings"
)

// CapabilityError reports a comfort model that could not be resolved. It is
// fatal and raised before any input file is opened.
type CapabilityError struct {
	Index  string
	Path   string
	Reason string
	Err    error
}

func (e *CapabilityError) Error() string {
	var b strings.Builder
	b.WriteString("comfort capability")
	if e.Index != "" {
		fmt.Fprintf(&b, " %q", e.Index)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// LoadOptions selects the comfort models of a run.
type LoadOptions struct {
	// Indices are model names in output order.
	Indices []string
	// PluginDir holds Go source plugins. Empty means built-ins only.
	PluginDir string
}

// Load resolves every requested index from the built-in models and the
// plugins in PluginDir.
func Load(opts LoadOptions) ([]Model, error) {
	if len(opts.Indices) == 0 {
		return nil, &CapabilityError{Reason: "no comfort indices requested"}
	}

	available := builtins()
	plugins, err := LoadPluginDir(opts.PluginDir)
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		if _, dup := available[p.Name()]; dup {
			path := ""
			if pm, ok := p.(*pluginModel); ok {
				path = pm.path
			}
			return nil, &CapabilityError{Index: p.Name(), Path: path, Reason: "defined more than once"}
		}
		available[p.Name()] = p
	}

	models := make([]Model, 0, len(opts.Indices))
	seen := make(map[string]bool, len(opts.Indices))
	for _, name := range opts.Indices {
		name = strings.TrimSpace(name)
		if seen[name] {
			return nil, &CapabilityError{Index: name, Reason: "requested more than once"}
		}
		seen[name] = true
		m, ok := available[name]
		if !ok {
			return nil, &CapabilityError{Index: name, Reason: "no built-in model or plugin provides it"}
		}
		models = append(models, m)
	}
	return models, nil
}
