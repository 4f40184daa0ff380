package comfort

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
)

const (
	definitionFuncName = "Definition"
	computeFuncName    = "Compute"
)

// computeFunc is the signature plugins export as Compute.
type computeFunc = func(tdb, tr, v, rh float64) ([]any, error)

type pluginDefinition struct {
	Name     string               `mapstructure:"name"`
	Outputs  []pluginOutput       `mapstructure:"outputs"`
	Requires []string             `mapstructure:"requires"`
	Bounds   map[string][]float64 `mapstructure:"bounds"`
}

type pluginOutput struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
}

type pluginModel struct {
	name     string
	path     string
	outputs  []domain.Column
	requires []Input
	bounds   map[Input]Range
	compute  computeFunc
}

func (p *pluginModel) Name() string             { return p.name }
func (p *pluginModel) Outputs() []domain.Column { return p.outputs }
func (p *pluginModel) Requires() []Input        { return p.requires }
func (p *pluginModel) Bounds() map[Input]Range  { return p.bounds }

func (p *pluginModel) Compute(v Values) ([]any, error) {
	return p.compute(v.DryBulb, v.MeanRadiant, v.WindSpeed, v.RelativeHumidity)
}

// LoadPluginDir interprets every .go file in dir as a comfort model plugin.
// A plugin is a package main file exporting
//
//	func Definition() map[string]interface{}
//	func Compute(tdb, tr, v, rh float64) ([]interface{}, error)
//
// Models are returned sorted by file name.
func LoadPluginDir(dir string) ([]Model, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		return nil, &CapabilityError{Path: trimmed, Reason: "read plugin directory", Err: err}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		paths = append(paths, filepath.Join(trimmed, entry.Name()))
	}
	sort.Strings(paths)

	models := make([]Model, 0, len(paths))
	for _, path := range paths {
		m, err := loadPluginFile(path)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func loadPluginFile(path string) (*pluginModel, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, &CapabilityError{Path: path, Reason: "read plugin", Err: err}
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, &CapabilityError{Path: path, Reason: "plugin is empty"}
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, &CapabilityError{Path: path, Reason: "load interpreter symbols", Err: err}
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, &CapabilityError{Path: path, Reason: "interpret plugin", Err: err}
	}

	defVal, err := i.Eval(definitionFuncName)
	if err != nil {
		return nil, &CapabilityError{Path: path, Reason: fmt.Sprintf("plugin must define %s() map[string]interface{}", definitionFuncName), Err: err}
	}
	raw, err := invokeDefinition(defVal)
	if err != nil {
		return nil, &CapabilityError{Path: path, Reason: "call " + definitionFuncName, Err: err}
	}
	def, err := decodeDefinition(raw)
	if err != nil {
		return nil, &CapabilityError{Path: path, Reason: "invalid definition", Err: err}
	}

	compVal, err := i.Eval(computeFuncName)
	if err != nil {
		return nil, &CapabilityError{Path: path, Index: def.Name, Reason: fmt.Sprintf("plugin must define %s(tdb, tr, v, rh float64) ([]interface{}, error)", computeFuncName), Err: err}
	}
	if !compVal.IsValid() || compVal.Kind() != reflect.Func {
		return nil, &CapabilityError{Path: path, Index: def.Name, Reason: computeFuncName + " is not a function"}
	}
	compute, ok := compVal.Interface().(computeFunc)
	if !ok {
		return nil, &CapabilityError{Path: path, Index: def.Name, Reason: fmt.Sprintf("%s has signature %s", computeFuncName, compVal.Type())}
	}

	return newPluginModel(path, def, compute)
}

func invokeDefinition(value reflect.Value) (map[string]any, error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", definitionFuncName)
	}
	results := value.Call(nil)
	if len(results) != 1 {
		return nil, fmt.Errorf("%s must return a single map", definitionFuncName)
	}
	m, ok := results[0].Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, want map[string]interface{}", definitionFuncName, results[0].Type())
	}
	return m, nil
}

func decodeDefinition(raw map[string]any) (pluginDefinition, error) {
	var def pluginDefinition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return def, fmt.Errorf("create definition decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return def, err
	}
	return def, nil
}

// identifier restricts plugin and output names to what column metadata and
// metric labels accept.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newPluginModel(path string, def pluginDefinition, compute computeFunc) (*pluginModel, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, &CapabilityError{Path: path, Reason: "definition has no name"}
	}
	if !identifier.MatchString(name) {
		return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("name %q is not an identifier", name)}
	}
	if len(def.Outputs) == 0 {
		return nil, &CapabilityError{Path: path, Index: name, Reason: "definition declares no outputs"}
	}

	m := &pluginModel{name: name, path: path, compute: compute, bounds: make(map[Input]Range)}
	for _, out := range def.Outputs {
		kind, ok := parseKind(out.Kind)
		if !ok {
			return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("output %q has unknown kind %q", out.Name, out.Kind)}
		}
		outName := strings.TrimSpace(out.Name)
		if outName == "" {
			return nil, &CapabilityError{Path: path, Index: name, Reason: "output without a name"}
		}
		if !identifier.MatchString(outName) {
			return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("output %q is not an identifier", outName)}
		}
		m.outputs = append(m.outputs, domain.ComfortColumn(outName, kind))
	}

	requires := def.Requires
	if len(requires) == 0 {
		requires = []string{string(InputDryBulb), string(InputMeanRadiant), string(InputWindSpeed), string(InputRelativeHumidity)}
	}
	for _, r := range requires {
		in, ok := parseInput(r)
		if !ok {
			return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("unknown input %q", r)}
		}
		m.requires = append(m.requires, in)
	}

	for k, b := range def.Bounds {
		in, ok := parseInput(k)
		if !ok {
			return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("bounds for unknown input %q", k)}
		}
		if len(b) != 2 || b[0] > b[1] {
			return nil, &CapabilityError{Path: path, Index: name, Reason: fmt.Sprintf("bounds for %q must be [lo, hi]", k)}
		}
		m.bounds[in] = Range{Lo: b[0], Hi: b[1]}
	}
	return m, nil
}

func parseKind(s string) (domain.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float64", "float", "double":
		return domain.KindFloat64, true
	case "int32", "int":
		return domain.KindInt32, true
	case "string":
		return domain.KindString, true
	default:
		return 0, false
	}
}
