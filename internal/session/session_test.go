package session

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *raster.Raster) {
	t.Helper()
	src := testutil.NewDocumentRaster(t, testutil.DefaultDocumentConfig())
	s, err := New(src, raster.FullFrame(src.Width, src.Height))
	require.NoError(t, err)
	return s, src
}

func TestNew_InvalidSource(t *testing.T) {
	_, err := New(&raster.Raster{}, raster.CornerSet{})
	assert.ErrorIs(t, err, raster.ErrUnsupportedInput)
}

func TestSession_PendingAndCommit(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetPending(filters.Params{Brightness: 30, Contrast: 250}))
	assert.True(t, s.Dirty())
	assert.Equal(t, filters.Params{Brightness: 30, Contrast: 100}, s.Pending())
	assert.Equal(t, filters.Params{}, s.Committed())

	committed := s.Commit()
	assert.Equal(t, filters.Params{Brightness: 30, Contrast: 100}, committed)
	assert.Equal(t, committed, s.Committed())
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetPending(filters.Params{Denoise: 10}))
	s.Discard()
	assert.Equal(t, committed, s.Pending())
}

func TestSession_SetPendingRejectsNaN(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.SetPending(filters.Params{Tint: math.NaN()})
	assert.ErrorIs(t, err, filters.ErrInvalidParams)
	assert.Equal(t, filters.Params{}, s.Pending())
}

func TestSession_MoveCornerClamps(t *testing.T) {
	s, src := newTestSession(t)

	c, err := s.MoveCorner(0, raster.Point{X: -20, Y: 15})
	require.NoError(t, err)
	assert.Equal(t, raster.Point{X: 0, Y: 15}, c[0])

	c, err = s.MoveCorner(2, raster.Point{X: 1e6, Y: 1e6})
	require.NoError(t, err)
	assert.Equal(t, raster.Point{X: float64(src.Width), Y: float64(src.Height)}, c[2])
	assert.Equal(t, c, s.Corners())

	_, err = s.MoveCorner(4, raster.Point{})
	assert.ErrorIs(t, err, ErrCornerIndex)
}

func TestSession_RenderNeutralIsIdentity(t *testing.T) {
	s, src := newTestSession(t)
	s.SetOutputSize(src.Width, src.Height)

	out, err := s.Render()
	require.NoError(t, err)
	assert.True(t, out.Equal(src))
}

func TestSession_RenderUsesCommittedParams(t *testing.T) {
	s, src := newTestSession(t)
	s.SetOutputSize(src.Width, src.Height)

	require.NoError(t, s.SetPending(filters.Params{Binarization: 100}))
	out, err := s.Render()
	require.NoError(t, err)
	assert.True(t, out.Equal(src), "pending params must not affect Render")

	s.Commit()
	out, err = s.Render()
	require.NoError(t, err)
	for i := 0; i < len(out.Pix); i += raster.Channels {
		v := out.Pix[i]
		assert.True(t, v == 0 || v == 255)
	}
}

func TestSession_RectifiedCache(t *testing.T) {
	s, _ := newTestSession(t)

	first, err := s.Rectified()
	require.NoError(t, err)
	again, err := s.Rectified()
	require.NoError(t, err)
	assert.Same(t, first, again)

	cfg := testutil.DefaultDocumentConfig()
	s.SetCorners(cfg.Corners)
	moved, err := s.Rectified()
	require.NoError(t, err)
	assert.NotSame(t, first, moved)

	w, h := s.rectifier.OptimalOutputSize(cfg.Corners)
	assert.Equal(t, w, moved.Width)
	assert.Equal(t, h, moved.Height)
}

func TestSession_RenderInvalidGeometry(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetCorners(raster.CornerSet{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 90, Y: 10}, {X: 10, Y: 80}})

	_, err := s.Render()
	assert.ErrorIs(t, err, raster.ErrInvalidGeometry)
}

func TestPickCorner(t *testing.T) {
	corners := raster.CornerSet{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	tests := []struct {
		name   string
		p      raster.Point
		radius float64
		want   int
	}{
		{"exact hit", raster.Point{X: 100, Y: 0}, 0, 1},
		{"within default radius", raster.Point{X: 88, Y: 95}, 0, 2},
		{"on radius boundary", raster.Point{X: 0, Y: 80}, 20, 3},
		{"outside radius", raster.Point{X: 50, Y: 50}, 0, -1},
		{"custom radius", raster.Point{X: 50, Y: 50}, 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickCorner(corners, tt.p, tt.radius))
		})
	}
}
