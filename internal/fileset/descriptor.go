package fileset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Descriptor is a YAML file describing one or more staging passes.
//
//	stages:
//	  - name: runtime
//	    basedirs: [build/dist]
//	    include: ["lib/**/*.so*", "bin/**"]
//	    exclude: ["**/*.a"]
//	    dest: out/runtime
//	    archive: out/runtime.tar.zst
type Descriptor struct {
	Stages []Stage `yaml:"stages"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Stage selects files from BaseDirs and materializes them under Dest.
type Stage struct {
	Name         string   `yaml:"name"`
	BaseDirs     []string `yaml:"basedirs"`
	Include      []string `yaml:"include"`
	Exclude      []string `yaml:"exclude"`
	ForceInclude []string `yaml:"force_include"`
	Dest         string   `yaml:"dest"`
	DestPrefix   string   `yaml:"dest_prefix"`
	AlwaysCopy   bool     `yaml:"always_copy"`
	KeepDest     bool     `yaml:"keep_dest"`
	// Manifest, if set, is written after the stage with checksums of Dest.
	Manifest string `yaml:"manifest"`
	// Archive, if set, receives a tarball of Dest; the suffix picks compression.
	Archive string `yaml:"archive"`
}

// loadDescriptor parses and validates a descriptor file. Relative paths in
// stages are resolved against the descriptor's directory.
func loadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errInvalidDescriptor, path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	d.dir = abs
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.resolvePaths()
	return &d, nil
}

func (d *Descriptor) validate() error {
	if len(d.Stages) == 0 {
		return fmt.Errorf("%w: no stages", errInvalidDescriptor)
	}
	seen := make(map[string]bool, len(d.Stages))
	for i, st := range d.Stages {
		switch {
		case st.Name == "":
			return fmt.Errorf("%w: stage %d has no name", errInvalidDescriptor, i)
		case seen[st.Name]:
			return fmt.Errorf("%w: duplicate stage %q", errInvalidDescriptor, st.Name)
		case len(st.BaseDirs) == 0:
			return fmt.Errorf("%w: stage %q has no basedirs", errInvalidDescriptor, st.Name)
		case st.Dest == "":
			return fmt.Errorf("%w: stage %q has no dest", errInvalidDescriptor, st.Name)
		}
		if st.Archive != "" {
			if _, err := formatFromName(st.Archive); err != nil {
				return fmt.Errorf("%w: stage %q: %v", errInvalidDescriptor, st.Name, err)
			}
		}
		seen[st.Name] = true
	}
	return nil
}

func (d *Descriptor) resolvePaths() {
	for i := range d.Stages {
		st := &d.Stages[i]
		for j, b := range st.BaseDirs {
			st.BaseDirs[j] = d.resolve(b)
		}
		st.Dest = d.resolve(st.Dest)
		st.Manifest = d.resolve(st.Manifest)
		st.Archive = d.resolve(st.Archive)
	}
}

func (d *Descriptor) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.dir, filepath.FromSlash(p))
}

// selectStages returns the named stages in the order given, or all stages
// in descriptor order when names is empty.
func (d *Descriptor) selectStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return d.Stages, nil
	}
	byName := make(map[string]Stage, len(d.Stages))
	for _, st := range d.Stages {
		byName[st.Name] = st
	}
	out := make([]Stage, 0, len(names))
	for _, n := range names {
		st, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errStageNotFound, n)
		}
		out = append(out, st)
	}
	return out, nil
}
