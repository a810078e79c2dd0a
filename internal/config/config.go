// Package config loads tsconfig-style project configuration.
//
// Values are layered: typed defaults, then the tsconfig.json file, then
// ATOM_TS_* environment variables. The merged result also resolves the
// project file list via include/exclude glob matching.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment overrides, e.g. ATOM_TS_TARGET.
const envPrefix = "ATOM_TS_"

// envKeys maps supported environment variable suffixes to config keys.
var envKeys = map[string]string{
	"TARGET":            "compilerOptions.target",
	"MODULE":            "compilerOptions.module",
	"MODULE_RESOLUTION": "compilerOptions.moduleResolution",
	"STRICT":            "compilerOptions.strict",
	"NO_IMPLICIT_ANY":   "compilerOptions.noImplicitAny",
	"SOURCE_MAP":        "compilerOptions.sourceMap",
	"OUT_DIR":           "compilerOptions.outDir",
}

// CompilerOptions is the compiler configuration object handed verbatim to
// the analysis engine.
type CompilerOptions struct {
	Target           string   `koanf:"target" json:"target"`
	Module           string   `koanf:"module" json:"module"`
	ModuleResolution string   `koanf:"moduleResolution" json:"moduleResolution,omitempty"`
	Strict           bool     `koanf:"strict" json:"strict"`
	NoImplicitAny    bool     `koanf:"noImplicitAny" json:"noImplicitAny"`
	SourceMap        bool     `koanf:"sourceMap" json:"sourceMap"`
	OutDir           string   `koanf:"outDir" json:"outDir,omitempty"`
	Lib              []string `koanf:"lib" json:"lib,omitempty"`
	Types            []string `koanf:"types" json:"types,omitempty"`
}

// Project is a loaded project configuration.
type Project struct {
	CompilerOptions CompilerOptions `koanf:"compilerOptions" json:"compilerOptions"`

	// Files lists explicit project files relative to the root.
	Files []string `koanf:"files" json:"files,omitempty"`

	// Include and Exclude are doublestar glob patterns relative to the root.
	// Exclude wins over Include; Files bypasses both.
	Include []string `koanf:"include" json:"include,omitempty"`
	Exclude []string `koanf:"exclude" json:"exclude,omitempty"`

	// RootDir is the directory globs resolve against. Derived from the
	// config file location when loaded from disk.
	RootDir string `koanf:"-" json:"-"`
}

// Default returns the configuration used when no tsconfig.json exists.
func Default() Project {
	return Project{
		CompilerOptions: CompilerOptions{
			Target: "es2018",
			Module: "commonjs",
		},
		Include: []string{"**/*.ts", "**/*.tsx"},
		Exclude: []string{"node_modules/**", "**/*.d.ts"},
	}
}

// Load reads a tsconfig.json file and merges it over the defaults and under
// environment overrides. An empty path yields defaults plus environment;
// a named file that does not exist is an error. Programmatic overrides
// (koanf-keyed, e.g. "compilerOptions.target") are applied last.
func Load(path string, overrides ...map[string]any) (*Project, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	root := "."
	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if dir := dirOf(path); dir != "" {
			root = dir
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// Unmapped variables are skipped (empty key).
			return envKeys[strings.TrimPrefix(key, envPrefix)], value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for _, o := range overrides {
		if err := k.Load(confmap.Provider(o, "."), nil); err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}

	var p Project
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	p.RootDir = root
	return &p, nil
}

// Discover loads tsconfig.json from dir when present, defaults otherwise.
func Discover(dir string, overrides ...map[string]any) (*Project, error) {
	path := filepath.Join(dir, "tsconfig.json")
	if _, err := os.Stat(path); err != nil {
		p, err := Load("", overrides...)
		if err != nil {
			return nil, err
		}
		p.RootDir = dir
		return p, nil
	}
	return Load(path, overrides...)
}

func dirOf(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[:i]
	}
	return ""
}
