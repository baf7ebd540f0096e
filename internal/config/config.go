package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Working directory used when the Dockerfile declares none.
const defaultWorkdir = "/src"

// Fleet-wide values applied to descriptor fields a project leaves unset.
type Defaults struct {
	Disabled          bool
	Language          string
	Architectures     []string
	Sanitizers        []string
	Engines           []string
	RunTests          bool
	CoverageExtraArgs string
}

// Returns the standard build defaults.
func StandardDefaults() Defaults {
	return Defaults{
		Language:      "c++",
		Architectures: []string{"x86_64"},
		Sanitizers:    []string{"address", "undefined"},
		Engines:       []string{"libfuzzer", "afl", "honggfuzz"},
		RunTests:      true,
	}
}

// A fully resolved project build configuration.
//
// Defaults are applied at load time; consumers never observe an unset
// optional field.
type Project struct {
	Name              string
	Language          string
	Disabled          bool
	Sanitizers        []SanitizerEntry
	Engines           []string
	Architectures     []string
	RunTests          bool
	CoverageExtraArgs string
	Labels            map[string]string
	Workdir           string
}

// On-disk shape of project.yaml. Fields whose default differs from the zero
// value are pointers so an absent key can be told apart from an explicit one.
type descriptor struct {
	Disabled          *bool             `yaml:"disabled"`
	Language          string            `yaml:"language"`
	Architectures     []string          `yaml:"architectures"`
	Sanitizers        sanitizerList     `yaml:"sanitizers"`
	FuzzingEngines    []string          `yaml:"fuzzing_engines"`
	RunTests          *bool             `yaml:"run_tests"`
	CoverageExtraArgs string            `yaml:"coverage_extra_args"`
	Labels            map[string]string `yaml:"labels"`
}

// Loads and resolves the build configuration for one project.
//
// The project directory under root must contain a Dockerfile and a
// project.yaml descriptor. A missing directory or file is reported as
// [ErrNotFound] so batch callers can skip the project instead of aborting.
func Load(root, name string, defaults Defaults) (*Project, error) {
	dir := filepath.Join(root, name)

	dockerfile, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project %q has no Dockerfile: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading Dockerfile for %q: %w", name, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "project.yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project %q has no project.yaml: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading project.yaml for %q: %w", name, err)
	}

	var desc descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing project.yaml for %q: %w", name, err)
	}

	prj := &Project{
		Name:              name,
		Language:          desc.Language,
		Disabled:          defaults.Disabled,
		Sanitizers:        []SanitizerEntry(desc.Sanitizers),
		Engines:           desc.FuzzingEngines,
		Architectures:     desc.Architectures,
		RunTests:          defaults.RunTests,
		CoverageExtraArgs: desc.CoverageExtraArgs,
		Labels:            desc.Labels,
		Workdir:           workdirFromDockerfile(dockerfile),
	}

	if desc.Disabled != nil {
		prj.Disabled = *desc.Disabled
	}
	if desc.RunTests != nil {
		prj.RunTests = *desc.RunTests
	}
	if prj.Language == "" {
		prj.Language = defaults.Language
	}
	if prj.Architectures == nil {
		prj.Architectures = defaults.Architectures
	}
	if prj.Sanitizers == nil {
		prj.Sanitizers = entriesFromNames(defaults.Sanitizers)
	}
	if prj.Engines == nil {
		prj.Engines = defaults.Engines
	}
	if prj.CoverageExtraArgs == "" {
		prj.CoverageExtraArgs = defaults.CoverageExtraArgs
	}
	if prj.Labels == nil {
		prj.Labels = map[string]string{}
	}
	if prj.Workdir == "" {
		prj.Workdir = defaultWorkdir
	}

	return prj, nil
}

// Returns the fully qualified container image name for the project.
func (p *Project) Image(registry string) string {
	return "gcr.io/" + registry + "/" + p.Name
}
