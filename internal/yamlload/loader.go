// Package yamlload is the YAML implementation of config.RegionLoader,
// parsing the region dumps the compiler backend emits per basic block.
package yamlload

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/fsutil"
)

// Loader parses YAML region dumps.
type Loader struct{}

// NewLoader creates a new YAML region-dump loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Regions []regionSpec `yaml:"regions"`
}

type regionSpec struct {
	Name  string     `yaml:"name"`
	Units []unitSpec `yaml:"units"`
	Exit  *unitSpec  `yaml:"exit"`
	Deps  []depSpec  `yaml:"deps"`
}

type unitSpec struct {
	Opcode string   `yaml:"opcode"`
	Base   []string `yaml:"base"`
	Offset int64    `yaml:"offset"`
	Width  int64    `yaml:"width"`
}

type depSpec struct {
	Pred int    `yaml:"pred"`
	Succ int    `yaml:"succ"`
	Kind string `yaml:"kind"`
}

// LoadRegions reads every .yaml/.yml file under path (a single file or a
// directory) and returns the dumped regions in file order.
func (l *Loader) LoadRegions(ctx context.Context, path string) ([]*config.Region, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := discover(path)
	if err != nil {
		return nil, err
	}

	var regions []*config.Region
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read region dump %s: %w", file, err)
		}
		var root fileRoot
		if err := yaml.Unmarshal(raw, &root); err != nil {
			return nil, fmt.Errorf("failed to decode region dump %s: %w", file, err)
		}
		for _, spec := range root.Regions {
			reg, err := translate(spec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			regions = append(regions, reg)
		}
	}

	logger.Debug("Region dumps loaded.", "file_count", len(files), "region_count", len(regions))
	return regions, nil
}

func discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no region dumps found under %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func translate(spec regionSpec) (*config.Region, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("region name is required")
	}
	if len(spec.Units) == 0 {
		return nil, fmt.Errorf("region %q has no units", spec.Name)
	}

	reg := &config.Region{Name: spec.Name}
	for _, u := range spec.Units {
		reg.Units = append(reg.Units, translateUnit(u))
	}
	if spec.Exit != nil {
		reg.Exit = translateUnit(*spec.Exit)
	}
	for _, d := range spec.Deps {
		if d.Pred < 0 || d.Pred >= len(spec.Units) || d.Succ < 0 || d.Succ >= len(spec.Units) {
			return nil, fmt.Errorf("region %q: dep %d -> %d references an unknown unit", spec.Name, d.Pred, d.Succ)
		}
		reg.Deps = append(reg.Deps, &config.Dep{Pred: d.Pred, Succ: d.Succ, Kind: d.Kind})
	}
	return reg, nil
}

func translateUnit(u unitSpec) *config.Unit {
	return &config.Unit{Opcode: u.Opcode, Base: u.Base, Offset: u.Offset, Width: u.Width}
}
