package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// AnimSetSpec describes one animation set: its clips and the links between
// them. Clip and link references are by clip name.
type AnimSetSpec struct {
	Name     string     `yaml:"name"`
	Capacity int        `yaml:"capacity"`
	Start    string     `yaml:"start"`
	Driver   string     `yaml:"driver"`
	Clips    []ClipSpec `yaml:"clips"`
	Links    []LinkSpec `yaml:"links"`
}

// ClipSpec is one clip. DefaultKeyDuration applies to keys without their own
// duration.
type ClipSpec struct {
	Name               string      `yaml:"name"`
	DefaultKeyDuration float64     `yaml:"default_key_duration"`
	Keys               []KeySpec   `yaml:"keys"`
	Events             []EventSpec `yaml:"events"`
}

// KeySpec is one key; Duration is relative to the previous key.
type KeySpec struct {
	Data     string   `yaml:"data"`
	Duration *float64 `yaml:"duration"`
}

type EventSpec struct {
	Name  string  `yaml:"name"`
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// LinkSpec is one direct link. Property holds space separated flags such as
// "immediate cleartarget", matched case-insensitively.
type LinkSpec struct {
	Name        string `yaml:"name"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Priority    *int   `yaml:"priority"`
	Loop        *int   `yaml:"loop"`
	Property    string `yaml:"property"`
	Immediate   bool   `yaml:"immediate"`
	ClearTarget bool   `yaml:"clear_target"`
}

// LoadAnimSetSpec loads a set spec; the .yaml extension is optional.
func LoadAnimSetSpec(name string) (AnimSetSpec, error) {
	return LoadSpec[AnimSetSpec](specFileName(name))
}
