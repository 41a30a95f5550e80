package lighting

import (
	"fmt"
	"image/color"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset selects the environment map an asset is lit and backed by.
type Preset int

const (
	PresetStudio Preset = iota
	PresetCity
	PresetSunset
	PresetApartment
	PresetWarehouse
	PresetDawn
	PresetForest
	PresetLobby
	PresetNight
	PresetPark
	PresetBridge
)

type presetInfo struct {
	name       string
	background color.RGBA
	// Multiplier for the key light; dim presets darken the asset.
	exposure float64
}

var presets = [...]presetInfo{
	PresetStudio:    {"studio", color.RGBA{0xf2, 0xf2, 0xf2, 0xff}, 1},
	PresetCity:      {"city", color.RGBA{0xc9, 0xd3, 0xdc, 0xff}, 0.95},
	PresetSunset:    {"sunset", color.RGBA{0xf3, 0xb0, 0x7c, 0xff}, 0.85},
	PresetApartment: {"apartment", color.RGBA{0xe8, 0xdf, 0xd2, 0xff}, 0.9},
	PresetWarehouse: {"warehouse", color.RGBA{0xb5, 0xb1, 0xa8, 0xff}, 0.8},
	PresetDawn:      {"dawn", color.RGBA{0xe9, 0xc6, 0xc0, 0xff}, 0.8},
	PresetForest:    {"forest", color.RGBA{0x9c, 0xb5, 0x8e, 0xff}, 0.75},
	PresetLobby:     {"lobby", color.RGBA{0xdc, 0xd4, 0xc4, 0xff}, 0.9},
	PresetNight:     {"night", color.RGBA{0x1c, 0x22, 0x33, 0xff}, 0.4},
	PresetPark:      {"park", color.RGBA{0xb9, 0xd4, 0xe8, 0xff}, 0.95},
	PresetBridge:    {"bridge", color.RGBA{0xa9, 0xb4, 0xc0, 0xff}, 0.85},
}

// Presets returns every known preset in declaration order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i := range presets {
		out[i] = Preset(i)
	}
	return out
}

// ParsePreset resolves a preset by name, case-insensitively.
// An empty name selects the studio preset.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PresetStudio, nil
	}
	for i, p := range presets {
		if p.name == name {
			return Preset(i), nil
		}
	}
	return PresetStudio, fmt.Errorf("unknown environment preset %q", name)
}

// Valid reports whether p is one of the known presets.
func (p Preset) Valid() bool {
	return p >= 0 && int(p) < len(presets)
}

func (p Preset) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presets[p].name
}

// Background returns the backdrop color for the preset.
func (p Preset) Background() color.RGBA {
	if !p.Valid() {
		return presets[PresetStudio].background
	}
	return presets[p].background
}

// Exposure returns the key light multiplier for the preset.
func (p Preset) Exposure() float64 {
	if !p.Valid() {
		return 1
	}
	return presets[p].exposure
}

// MarshalYAML writes the preset name.
func (p Preset) MarshalYAML() (interface{}, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid environment preset %d", int(p))
	}
	return p.String(), nil
}

// UnmarshalYAML reads a preset name.
func (p *Preset) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParsePreset(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Set implements flag.Value.
func (p *Preset) Set(name string) error {
	parsed, err := ParsePreset(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
