package filters

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Preset names a canned parameter set.
type Preset string

const (
	// PresetAutoEnhance is computed from the image by the enhance package.
	PresetAutoEnhance Preset = "auto-enhance"
	PresetDocument    Preset = "document"
	PresetReset       Preset = "reset"
)

var staticPresets = map[Preset]Params{
	PresetDocument: {
		Contrast:        30,
		Sharpness:       45,
		Saturation:      -80,
		Denoise:         20,
		Binarization:    60,
		WhiteBackground: 60,
		TextEnhancement: 70,
	},
	PresetReset: {},
}

var presetDescriptions = map[Preset]string{
	PresetAutoEnhance: "Brightness and contrast derived from the image histogram",
	PresetDocument:    "High contrast black and white for printed text",
	PresetReset:       "All filters neutral",
}

// Presets lists all presets in name order.
func Presets() []Preset {
	out := []Preset{PresetAutoEnhance, PresetDocument, PresetReset}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePreset accepts a preset name case-insensitively; "document-mode"
// is accepted for the document preset.
func ParsePreset(name string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(name)))
	if p == "document-mode" {
		p = PresetDocument
	}
	if _, ok := presetDescriptions[p]; !ok {
		return "", fmt.Errorf("%w: unknown preset %q", ErrInvalidParams, name)
	}
	return p, nil
}

// Params returns the fixed parameters of a static preset. ok is false for
// PresetAutoEnhance, whose values depend on the image.
func (p Preset) Params() (Params, bool) {
	params, ok := staticPresets[p]
	return params, ok
}

// Title returns a display name such as "Auto Enhance".
func (p Preset) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(p), "-", " "))
}

// Description returns a one-line summary of the preset.
func (p Preset) Description() string { return presetDescriptions[p] }
