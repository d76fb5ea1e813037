// Package enhance derives filter parameters from image statistics.
package enhance

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	maxBrightness    = 50
	lowContrastRange = 50
	maxContrast      = 50

	autoSharpness  = 20
	autoSaturation = 10
	autoDenoise    = 15
)

// Stats summarises the luminance distribution of a raster.
type Stats struct {
	Mean  float64 `json:"mean"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Range int     `json:"range"`
}

func luminanceStats(r *raster.Raster) Stats {
	hist := r.LuminanceHistogram()
	st := Stats{Min: -1}
	var sum float64
	for level, n := range hist {
		if n == 0 {
			continue
		}
		if st.Min < 0 {
			st.Min = level
		}
		st.Max = level
		sum += float64(level) * float64(n)
	}
	st.Mean = sum / float64(hist.Total())
	st.Range = st.Max - st.Min
	return st
}

// FromStats maps luminance statistics to filter parameters: brightness
// pulls the mean towards mid-gray, contrast only boosts a narrow range,
// and a light fixed amount of sharpening, saturation and denoising is added.
func FromStats(st Stats) filters.Params {
	p := filters.Params{
		Brightness: math.Max(-maxBrightness, math.Min(maxBrightness, (128-st.Mean)/128*maxBrightness)),
		Sharpness:  autoSharpness,
		Saturation: autoSaturation,
		Denoise:    autoDenoise,
	}
	if st.Range < lowContrastRange {
		p.Contrast = math.Min(maxContrast, float64(lowContrastRange-st.Range)/2)
	}
	return p
}

// Estimate computes auto-enhance parameters for r.
func Estimate(r *raster.Raster) (filters.Params, error) {
	if err := r.Validate(); err != nil {
		return filters.Params{}, raster.Wrap("estimate", err)
	}
	return FromStats(luminanceStats(r)), nil
}

// AutoEnhance estimates parameters and runs them through the pipeline.
func AutoEnhance(r *raster.Raster, p *filters.Pipeline) (*raster.Raster, filters.Params, error) {
	params, err := Estimate(r)
	if err != nil {
		return nil, filters.Params{}, err
	}
	if p == nil {
		p = filters.NewPipeline()
	}
	out, err := p.Apply(r, params)
	if err != nil {
		return nil, params, err
	}
	return out, params, nil
}

// ResolvePreset returns the parameters of a preset for r, estimating them
// for the auto-enhance preset.
func ResolvePreset(preset filters.Preset, r *raster.Raster) (filters.Params, error) {
	if params, ok := preset.Params(); ok {
		return params, nil
	}
	if preset == filters.PresetAutoEnhance {
		return Estimate(r)
	}
	return filters.Params{}, fmt.Errorf("%w: unknown preset %q", filters.ErrInvalidParams, preset)
}

// Analysis reports image statistics alongside the suggested parameters.
type Analysis struct {
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Luminance     Stats          `json:"luminance"`
	OtsuThreshold int            `json:"otsu_threshold"`
	MeanColor     string         `json:"mean_color"`
	Hue           float64        `json:"hue"`
	Saturation    float64        `json:"saturation"`
	Lightness     float64        `json:"lightness"`
	LowContrast   bool           `json:"low_contrast"`
	Suggested     filters.Params `json:"suggested"`
}

// Analyze computes luminance and colour statistics for r.
func Analyze(r *raster.Raster) (Analysis, error) {
	if err := r.Validate(); err != nil {
		return Analysis{}, raster.Wrap("analyze", err)
	}
	st := luminanceStats(r)
	hist := r.LuminanceHistogram()
	otsu, ok := hist.OtsuThreshold()
	if !ok {
		otsu = 0
	}

	var sr, sg, sb float64
	for i := 0; i < len(r.Pix); i += raster.Channels {
		sr += float64(r.Pix[i])
		sg += float64(r.Pix[i+1])
		sb += float64(r.Pix[i+2])
	}
	n := float64(r.Width * r.Height * 255)
	mean := colorful.Color{R: sr / n, G: sg / n, B: sb / n}
	h, s, l := mean.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return Analysis{
		Width:         r.Width,
		Height:        r.Height,
		Luminance:     st,
		OtsuThreshold: otsu,
		MeanColor:     mean.Clamped().Hex(),
		Hue:           h,
		Saturation:    s,
		Lightness:     l,
		LowContrast:   st.Range < lowContrastRange,
		Suggested:     FromStats(st),
	}, nil
}
