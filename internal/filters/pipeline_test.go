package filters

import (
	"errors"
	"testing"
	"time"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAll_NeutralIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		r    *raster.Raster
	}{
		{"gradient", testutil.GradientRaster(t, 40, 30)},
		{"noise with alpha", testutil.NoiseRaster(t, 17, 9, 1)},
		{"single pixel", testutil.NoiseRaster(t, 1, 1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyAll(tt.r, Params{})
			require.NoError(t, err)
			assert.True(t, tt.r.Equal(out))
			assert.NotSame(t, tt.r, out, "result must be a copy")
		})
	}
}

func TestApplyAll_DoesNotModifyInput(t *testing.T) {
	src := testutil.NoiseRaster(t, 32, 24, 5)
	before := src.Clone()
	doc, _ := PresetDocument.Params()

	_, err := ApplyAll(src, doc)
	require.NoError(t, err)
	assert.True(t, before.Equal(src))
}

func TestApplyAll_AllStagesPreserveAlpha(t *testing.T) {
	src := testutil.NoiseRaster(t, 24, 24, 9)
	p := Params{
		Brightness: 10, Contrast: 20, Sharpness: 50, Saturation: 30, Denoise: 50,
		Temperature: 40, Tint: -20, Binarization: 50, WhiteBackground: 40, TextEnhancement: 50,
	}

	out, err := ApplyAll(src, p)
	require.NoError(t, err)
	for i := 3; i < len(src.Pix); i += raster.Channels {
		require.Equal(t, src.Pix[i], out.Pix[i], "alpha at byte %d", i)
	}
}

func TestApplyAll_InvalidInput(t *testing.T) {
	_, err := ApplyAll(&raster.Raster{Width: 2, Height: 2, Pix: make([]uint8, 3)}, Params{})
	assert.ErrorIs(t, err, raster.ErrUnsupportedInput)

	_, err = ApplyAll(testutil.GradientRaster(t, 4, 4), Params{Contrast: nanValue()})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestPipeline_StageOrder(t *testing.T) {
	p := NewPipeline()
	assert.Equal(t, []string{
		StageBrightness, StageContrast, StageSharpness, StageSaturation, StageDenoise,
		StageColor, StageWhiteBackground, StageTextEnhancement, StageBinarization,
	}, p.StageNames())

	doc, _ := PresetDocument.Params()
	assert.Equal(t, []string{
		StageContrast, StageSharpness, StageSaturation, StageDenoise,
		StageWhiteBackground, StageTextEnhancement, StageBinarization,
	}, p.ActiveStages(doc))

	assert.Equal(t, []string{StageColor}, p.ActiveStages(Params{Tint: 5}))
	assert.Empty(t, p.ActiveStages(Params{}))
}

type failingStage struct{ panics bool }

func (failingStage) Name() string { return "broken" }

func (failingStage) Active(Params) bool { return true }

func (f failingStage) Apply(*raster.Raster, Params) (*raster.Raster, error) {
	if f.panics {
		panic("kaboom")
	}
	return nil, errors.New("disk on fire")
}

type resizingStage struct{}

func (resizingStage) Name() string { return "resize" }

func (resizingStage) Active(Params) bool { return true }

func (resizingStage) Apply(*raster.Raster, Params) (*raster.Raster, error) {
	return raster.New(1, 1)
}

func TestPipeline_StageErrorKeepsLastRaster(t *testing.T) {
	src := testutil.GradientRaster(t, 10, 10)
	p := NewPipeline(WithStages(BrightnessStage(), failingStage{}, ContrastStage()))

	_, err := p.Apply(src, Params{Brightness: 20, Contrast: 20})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "broken", stageErr.Stage)
	assert.EqualError(t, stageErr.Err, "disk on fire")

	brightened, err := ApplyAll(src, Params{Brightness: 20})
	require.NoError(t, err)
	assert.True(t, brightened.Equal(stageErr.Last), "Last must be the brightness output")
}

func TestPipeline_FirstStageFailureKeepsInput(t *testing.T) {
	src := testutil.GradientRaster(t, 10, 10)

	for _, stage := range []Stage{failingStage{panics: true}, resizingStage{}} {
		_, err := NewPipeline(WithStages(stage)).Apply(src, Params{})
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Same(t, src, stageErr.Last)
	}
}

func TestPipeline_Observer(t *testing.T) {
	var seen []string
	p := NewPipeline(WithObserver(func(stage string, d time.Duration) {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		seen = append(seen, stage)
	}))

	_, err := p.Apply(testutil.GradientRaster(t, 8, 8), Params{Brightness: 5, Binarization: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{StageBrightness, StageBinarization}, seen)
}
