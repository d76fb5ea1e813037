// Package scan runs the whole document pipeline on one raster: corner
// detection, perspective rectification and the filter chain.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docscan/internal/common"
	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/rectify"
)

// Stage names reported to the observer and recorded in Result.Timings.
// Filter stages are reported as "filter:<stage>".
const (
	StageDetect  = "detect"
	StageRectify = "rectify"
	StageFilters = "filters"
)

// Warnings attached to a Result.
const (
	WarnDetectionFallback = "no document outline found, using the full frame"
	WarnInvalidGeometry   = "corners do not form a valid quadrilateral, image left unrectified"
)

// Config bundles the component configurations.
type Config struct {
	Detector detector.Config
	Rectify  rectify.Config
}

// DefaultConfig returns the component defaults.
func DefaultConfig() Config {
	return Config{Detector: detector.DefaultConfig(), Rectify: rectify.DefaultConfig()}
}

// Options select what a single Process call does.
type Options struct {
	// Corners skips detection when set.
	Corners *raster.CornerSet
	// Width and Height fix the rectified size; zero selects the optimal size.
	Width  int
	Height int
	// Params takes precedence over Preset. Neither means no filtering.
	Params *filters.Params
	Preset filters.Preset
}

// Result describes a processed scan.
type Result struct {
	Raster       *raster.Raster
	Corners      raster.CornerSet
	Detection    *detector.Result
	Rectified    bool
	Params       filters.Params
	SourceWidth  int
	SourceHeight int
	Warnings     []string
	Timings      *common.Timings
}

// Fallback reports whether detection fell back to the full frame.
func (r *Result) Fallback() bool {
	return r.Detection != nil && r.Detection.Fallback
}

// Observer receives the duration of every completed stage.
type Observer func(stage string, d time.Duration)

// Processor is safe for concurrent use.
type Processor struct {
	detector  *detector.Detector
	rectifier *rectify.Rectifier
	stages    []filters.Stage
	observer  Observer
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithObserver installs a stage duration callback, used for metrics.
func WithObserver(fn Observer) ProcessorOption {
	return func(p *Processor) { p.observer = fn }
}

// WithStages replaces the filter stage chain.
func WithStages(stages ...filters.Stage) ProcessorOption {
	return func(p *Processor) { p.stages = stages }
}

// NewProcessor builds a processor from cfg.
func NewProcessor(cfg Config, opts ...ProcessorOption) (*Processor, error) {
	det, err := detector.NewDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}
	rect, err := rectify.New(cfg.Rectify)
	if err != nil {
		return nil, err
	}
	p := &Processor{detector: det, rectifier: rect, stages: filters.DefaultStages()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Detector returns the corner detector.
func (p *Processor) Detector() *detector.Detector { return p.detector }

// Rectifier returns the perspective rectifier.
func (p *Processor) Rectifier() *rectify.Rectifier { return p.rectifier }

// Pipeline returns a filter pipeline that reports stage timings to the
// processor's observer.
func (p *Processor) Pipeline() *filters.Pipeline {
	return p.pipeline(nil)
}

func (p *Processor) pipeline(timings *common.Timings) *filters.Pipeline {
	return filters.NewPipeline(
		filters.WithStages(p.stages...),
		filters.WithObserver(func(stage string, d time.Duration) {
			name := StageFilters + ":" + stage
			if timings != nil {
				timings.Add(name, d)
			}
			p.observe(name, d)
		}),
	)
}

func (p *Processor) observe(stage string, d time.Duration) {
	if p.observer != nil {
		p.observer(stage, d)
	}
}

// Process runs detection, rectification and filtering on src. Detection
// failures fall back to the full frame and invalid corners leave the image
// unrectified; both add a warning to the result. ctx is checked between
// stages.
func (p *Processor) Process(ctx context.Context, src *raster.Raster, opts Options) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, raster.Wrap("scan", err)
	}
	res := &Result{
		SourceWidth:  src.Width,
		SourceHeight: src.Height,
		Timings:      &common.Timings{},
	}

	if opts.Corners != nil {
		res.Corners = *opts.Corners
	} else {
		stop := res.Timings.Track(StageDetect)
		det, err := p.detector.Detect(src)
		p.observe(StageDetect, stop())
		if err != nil {
			return nil, err
		}
		res.Detection = &det
		res.Corners = det.Corners
		if det.Fallback {
			res.Warnings = append(res.Warnings, WarnDetectionFallback)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled after detection: %w", err)
	}

	work, err := p.rectify(src, res, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled after rectification: %w", err)
	}

	params, err := resolveParams(opts, work)
	if err != nil {
		return nil, err
	}
	res.Params = params

	stop := res.Timings.Track(StageFilters)
	out, err := p.pipeline(res.Timings).Apply(work, params)
	p.observe(StageFilters, stop())
	if err != nil {
		return nil, err
	}
	res.Raster = out

	slog.Debug("Scan processed",
		"fallback", res.Fallback(),
		"rectified", res.Rectified,
		"width", out.Width, "height", out.Height,
		"timings", res.Timings.String())
	return res, nil
}

func (p *Processor) rectify(src *raster.Raster, res *Result, opts Options) (*raster.Raster, error) {
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = p.rectifier.OptimalOutputSize(res.Corners)
	}
	stop := res.Timings.Track(StageRectify)
	out, err := p.rectifier.Rectify(src, res.Corners, w, h)
	p.observe(StageRectify, stop())
	switch {
	case err == nil:
		res.Rectified = true
		return out, nil
	case errors.Is(err, raster.ErrInvalidGeometry):
		slog.Warn("Keeping unrectified image", "error", err)
		res.Warnings = append(res.Warnings, WarnInvalidGeometry)
		return src, nil
	default:
		return nil, err
	}
}

func resolveParams(opts Options, r *raster.Raster) (filters.Params, error) {
	switch {
	case opts.Params != nil:
		if err := opts.Params.Validate(); err != nil {
			return filters.Params{}, err
		}
		return opts.Params.Clamp(), nil
	case opts.Preset != "":
		return enhance.ResolvePreset(opts.Preset, r)
	default:
		return filters.Params{}, nil
	}
}
