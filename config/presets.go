package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/fs"
)

// MachinePreset is a named emulator board and CPU pairing.
type MachinePreset struct {
	Name    string `yaml:"name"`
	Machine string `yaml:"machine"`
	CPU     string `yaml:"cpu"`
}

type presetFile struct {
	Machines []MachinePreset `yaml:"machines"`
}

// DefaultPresets returns the built-in board list. The first entry is the
// stock target.
func DefaultPresets() []MachinePreset {
	return []MachinePreset{
		{Name: "versatileab", Machine: "versatileab", CPU: "arm926"},
		{Name: "versatilepb", Machine: "versatilepb", CPU: "arm926"},
		{Name: "mps2-an385", Machine: "mps2-an385", CPU: "cortex-m3"},
	}
}

// LoadPresets reads additional machine presets from a YAML file. Entries
// with the same name as a built-in preset override it.
func LoadPresets(fsys fs.Filesystem, path string) ([]MachinePreset, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to read machine presets",
			map[string]interface{}{"path": path},
		)
	}

	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to parse machine presets",
			map[string]interface{}{"path": path},
		)
	}

	for i, m := range pf.Machines {
		if m.Name == "" || m.Machine == "" || m.CPU == "" {
			return nil, errors.New(
				errors.CodeInvalidConfig,
				fmt.Sprintf("machine preset %d: name, machine, and cpu are all required", i),
			)
		}
	}

	presets := DefaultPresets()
	for _, m := range pf.Machines {
		if i := presetIndex(presets, m.Name); i >= 0 {
			presets[i] = m
		} else {
			presets = append(presets, m)
		}
	}
	return presets, nil
}

// FindPreset looks up a preset by name.
func FindPreset(presets []MachinePreset, name string) (MachinePreset, error) {
	if i := presetIndex(presets, name); i >= 0 {
		return presets[i], nil
	}
	return MachinePreset{}, errors.New(
		errors.CodeInvalidConfig,
		fmt.Sprintf("unknown machine preset %q", name),
	)
}

func presetIndex(presets []MachinePreset, name string) int {
	for i, p := range presets {
		if p.Name == name {
			return i
		}
	}
	return -1
}
