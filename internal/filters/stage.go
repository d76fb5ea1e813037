package filters

import (
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/sourcegraph/conc/pool"
)

// Stage is one step of the filter chain. Apply must not modify its input.
type Stage interface {
	Name() string
	// Active reports whether the stage has work to do for p; inactive
	// stages are skipped.
	Active(p Params) bool
	Apply(r *raster.Raster, p Params) (*raster.Raster, error)
}

// StageError aborts a pipeline run. Last is the last complete raster: the
// output of the previous stage or the untouched input.
type StageError struct {
	Stage string
	Err   error
	Last  *raster.Raster
}

func (e *StageError) Error() string {
	return fmt.Sprintf("filter stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage names in pipeline order.
const (
	StageBrightness      = "brightness"
	StageContrast        = "contrast"
	StageSharpness       = "sharpness"
	StageSaturation      = "saturation"
	StageDenoise         = "denoise"
	StageColor           = "color"
	StageWhiteBackground = "white-background"
	StageTextEnhancement = "text-enhancement"
	StageBinarization    = "binarization"
)

// pixelStage adapts a per-pixel RGB transform. Alpha is copied unchanged.
type pixelStage struct {
	name   string
	active func(Params) bool
	// prepare derives the per-pixel function from the parameters and raster.
	prepare func(*raster.Raster, Params) func(r, g, b uint8) (uint8, uint8, uint8)
}

func (s pixelStage) Name() string { return s.name }

func (s pixelStage) Active(p Params) bool { return s.active(p) }

func (s pixelStage) Apply(r *raster.Raster, p Params) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	fn := s.prepare(r, p)
	out := r.CloneEmpty()
	stride := r.Width * raster.Channels
	forEachBand(r, func(y0, y1 int) {
		for i := y0 * stride; i < y1*stride; i += raster.Channels {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = fn(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
			out.Pix[i+3] = r.Pix[i+3]
		}
	})
	return out, nil
}

// parallelMinPixels is the size below which per-pixel work stays on the
// calling goroutine.
const parallelMinPixels = 256 * 256

// forEachBand splits the rows of r into contiguous bands and runs fn on
// each, concurrently for large rasters. fn must only write its own rows.
func forEachBand(r *raster.Raster, fn func(y0, y1 int)) {
	workers := min(runtime.GOMAXPROCS(0), r.Height)
	if workers <= 1 || r.Width*r.Height < parallelMinPixels {
		fn(0, r.Height)
		return
	}
	band := (r.Height + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for y0 := 0; y0 < r.Height; y0 += band {
		y1 := min(y0+band, r.Height)
		p.Go(func() { fn(y0, y1) })
	}
	p.Wait()
}
