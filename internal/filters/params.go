package filters

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams reports a parameter that is not a finite number.
var ErrInvalidParams = errors.New("invalid filter parameters")

// Params holds the filter sliders. The zero value is neutral: every stage
// whose parameters are zero is skipped.
type Params struct {
	Brightness      float64 `json:"brightness" yaml:"brightness" mapstructure:"brightness"`
	Contrast        float64 `json:"contrast" yaml:"contrast" mapstructure:"contrast"`
	Sharpness       float64 `json:"sharpness" yaml:"sharpness" mapstructure:"sharpness"`
	Saturation      float64 `json:"saturation" yaml:"saturation" mapstructure:"saturation"`
	Denoise         float64 `json:"denoise" yaml:"denoise" mapstructure:"denoise"`
	Temperature     float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	Tint            float64 `json:"tint" yaml:"tint" mapstructure:"tint"`
	Binarization    float64 `json:"binarization" yaml:"binarization" mapstructure:"binarization"`
	WhiteBackground float64 `json:"whiteBackground" yaml:"white_background" mapstructure:"white_background"`
	TextEnhancement float64 `json:"textEnhancement" yaml:"text_enhancement" mapstructure:"text_enhancement"`
}

// Range is the closed interval a slider accepts.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// field pairs a slider name with its range and accessor.
type field struct {
	name string
	rng  Range
	ptr  func(*Params) *float64
}

var fields = []field{
	{"brightness", Range{-100, 100}, func(p *Params) *float64 { return &p.Brightness }},
	{"contrast", Range{-100, 100}, func(p *Params) *float64 { return &p.Contrast }},
	{"sharpness", Range{0, 200}, func(p *Params) *float64 { return &p.Sharpness }},
	{"saturation", Range{-100, 100}, func(p *Params) *float64 { return &p.Saturation }},
	{"denoise", Range{0, 100}, func(p *Params) *float64 { return &p.Denoise }},
	{"temperature", Range{-100, 100}, func(p *Params) *float64 { return &p.Temperature }},
	{"tint", Range{-100, 100}, func(p *Params) *float64 { return &p.Tint }},
	{"binarization", Range{0, 100}, func(p *Params) *float64 { return &p.Binarization }},
	{"whiteBackground", Range{0, 100}, func(p *Params) *float64 { return &p.WhiteBackground }},
	{"textEnhancement", Range{0, 100}, func(p *Params) *float64 { return &p.TextEnhancement }},
}

// Ranges returns the accepted range of every slider keyed by its JSON name.
func Ranges() map[string]Range {
	out := make(map[string]Range, len(fields))
	for _, f := range fields {
		out[f.name] = f.rng
	}
	return out
}

// Validate rejects NaN and infinite values. Out-of-range values are
// accepted and clamped by Clamp.
func (p Params) Validate() error {
	for _, f := range fields {
		v := *f.ptr(&p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParams, f.name, v)
		}
	}
	return nil
}

// Clamp returns a copy with every slider forced into its range.
func (p Params) Clamp() Params {
	for _, f := range fields {
		v := f.ptr(&p)
		*v = math.Max(f.rng.Min, math.Min(f.rng.Max, *v))
	}
	return p
}

// IsNeutral reports whether every slider is at its neutral value.
func (p Params) IsNeutral() bool {
	return p == Params{}
}

// Set assigns a slider by its JSON name, as used on the command line
// ("contrast=30") and in websocket updates.
func (p *Params) Set(name string, value float64) error {
	for _, f := range fields {
		if f.name == name {
			*f.ptr(p) = value
			return nil
		}
	}
	return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParams, name)
}
