// Package filters implements the ordered document enhancement chain.
package filters

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docscan/internal/raster"
)

// DefaultStages returns the fixed stage order.
func DefaultStages() []Stage {
	return []Stage{
		BrightnessStage(),
		ContrastStage(),
		SharpnessStage{},
		SaturationStage(),
		DenoiseStage{},
		ColorStage(),
		WhiteBackgroundStage(),
		TextEnhancementStage{},
		BinarizationStage(),
	}
}

// StageObserver is called after every stage that ran successfully.
type StageObserver func(stage string, d time.Duration)

// Pipeline runs stages in order, skipping inactive ones.
type Pipeline struct {
	stages   []Stage
	observer StageObserver
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStages replaces the default stage chain.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) { p.stages = stages }
}

// WithObserver registers a callback receiving per-stage durations.
func WithObserver(fn StageObserver) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// NewPipeline creates a pipeline with the default stages.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{stages: DefaultStages()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StageNames lists the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// ActiveStages lists the stages params would run.
func (p *Pipeline) ActiveStages(params Params) []string {
	var names []string
	for _, s := range p.stages {
		if s.Active(params) {
			names = append(names, s.Name())
		}
	}
	return names
}

// Apply runs every active stage on a copy of r. Parameters are clamped to
// their ranges first. With neutral parameters the result is an identical
// copy. A failing stage aborts the run with a *StageError.
func (p *Pipeline) Apply(r *raster.Raster, params Params) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, raster.Wrap("filter", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params = params.Clamp()

	current := r
	for _, s := range p.stages {
		if !s.Active(params) {
			continue
		}
		start := time.Now()
		next, err := runStage(s, current, params)
		if err != nil {
			slog.Error("Filter stage failed", "stage", s.Name(), "error", err)
			return nil, &StageError{Stage: s.Name(), Err: err, Last: current}
		}
		d := time.Since(start)
		slog.Debug("Filter stage applied", "stage", s.Name(), "duration_ms", d.Milliseconds())
		if p.observer != nil {
			p.observer(s.Name(), d)
		}
		current = next
	}

	if current == r {
		return r.Clone(), nil
	}
	return current, nil
}

// runStage applies one stage and checks that it produced a complete raster
// of the same size.
func runStage(s Stage, r *raster.Raster, params Params) (out *raster.Raster, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	out, err = s.Apply(r, params)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: stage returned no raster", raster.ErrUnsupportedInput)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if out.Width != r.Width || out.Height != r.Height {
		return nil, fmt.Errorf("%w: stage changed size %dx%d to %dx%d",
			raster.ErrUnsupportedInput, r.Width, r.Height, out.Width, out.Height)
	}
	return out, nil
}

var defaultPipeline = NewPipeline()

// ApplyAll runs the default pipeline.
func ApplyAll(r *raster.Raster, params Params) (*raster.Raster, error) {
	return defaultPipeline.Apply(r, params)
}
