// Package presets loads the per-mode default parameters and view sets.
package presets

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/planviz/planviz/viewer-go/internal/document"
	"github.com/planviz/planviz/viewer-go/internal/engine"
)

//go:embed presets.yaml
var defaultYAML []byte

// Preset is the starting state of one mode.
type Preset struct {
	Views  []engine.View           `yaml:"views" json:"views"`
	Params document.ViewParameters `yaml:"params" json:"params"`
}

// Set holds a preset for every mode.
type Set struct {
	presets map[document.Mode]Preset
}

// Default returns the embedded presets.
func Default() (*Set, error) {
	return parse(defaultYAML, nil)
}

// Load reads presets from path on top of the embedded defaults. Fields the
// file leaves out keep their default value. An empty path returns Default.
func Load(path string) (*Set, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return parse(data, base)
}

// Parse decodes presets from YAML on top of the embedded defaults.
func Parse(data []byte) (*Set, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	return parse(data, base)
}

func parse(data []byte, base *Set) (*Set, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	set := &Set{presets: make(map[document.Mode]Preset, len(document.Modes))}
	if base != nil {
		for mode, p := range base.presets {
			set.presets[mode] = p
		}
	}

	for key, node := range nodes {
		mode, err := document.ParseMode(key)
		if err != nil {
			return nil, fmt.Errorf("parse presets: %w", err)
		}
		p := set.presets[mode]
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("parse presets for %s: %w", mode, err)
		}
		set.presets[mode] = p
	}

	for mode, p := range set.presets {
		if len(p.Views) == 0 {
			p.Views = engine.DefaultViews(mode)
			set.presets[mode] = p
		}
		if err := engine.ValidateViews(mode, p.Views); err != nil {
			return nil, fmt.Errorf("presets for %s: %w", mode, err)
		}
	}
	return set, nil
}

// For returns the preset of mode.
func (s *Set) For(mode document.Mode) (Preset, error) {
	p, ok := s.presets[mode]
	if !ok {
		return Preset{}, fmt.Errorf("no preset for mode %q", mode)
	}
	p.Views = append([]engine.View(nil), p.Views...)
	return p, nil
}
