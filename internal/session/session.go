// Package session keeps the interactive editing state of one scan: the
// source raster, the corner quadrilateral and the filter parameters, with
// a pending/committed split so sliders update instantly while expensive
// renders only see committed values.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/rectify"
)

// ErrCornerIndex reports a corner index outside 0..3.
var ErrCornerIndex = errors.New("corner index out of range")

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	src       *raster.Raster
	corners   raster.CornerSet
	committed filters.Params
	pending   filters.Params
	outW      int
	outH      int

	rectifier *rectify.Rectifier
	pipeline  *filters.Pipeline
	rectified *raster.Raster
}

// Option configures a Session.
type Option func(*Session)

// WithRectifier sets the rectifier used by Render.
func WithRectifier(r *rectify.Rectifier) Option {
	return func(s *Session) { s.rectifier = r }
}

// WithPipeline sets the filter pipeline used by Render.
func WithPipeline(p *filters.Pipeline) Option {
	return func(s *Session) { s.pipeline = p }
}

// New starts a session on src with the given initial corners.
func New(src *raster.Raster, corners raster.CornerSet, opts ...Option) (*Session, error) {
	if err := src.Validate(); err != nil {
		return nil, raster.Wrap("session", err)
	}
	s := &Session{src: src, corners: corners.Clamp(src.Width, src.Height)}
	for _, opt := range opts {
		opt(s)
	}
	if s.rectifier == nil {
		r, err := rectify.New(rectify.DefaultConfig())
		if err != nil {
			return nil, err
		}
		s.rectifier = r
	}
	if s.pipeline == nil {
		s.pipeline = filters.NewPipeline()
	}
	return s, nil
}

// Source returns the source raster.
func (s *Session) Source() *raster.Raster { return s.src }

// Corners returns the committed corners.
func (s *Session) Corners() raster.CornerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corners
}

// SetCorners replaces all four corners, clamped to the raster.
func (s *Session) SetCorners(c raster.CornerSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corners = c.Clamp(s.src.Width, s.src.Height)
	s.rectified = nil
}

// MoveCorner moves one corner, clamped to the raster, and returns the new set.
func (s *Session) MoveCorner(i int, p raster.Point) (raster.CornerSet, error) {
	if i < 0 || i >= len(s.corners) {
		return raster.CornerSet{}, fmt.Errorf("%w: %d", ErrCornerIndex, i)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.corners
	c[i] = p
	s.corners = c.Clamp(s.src.Width, s.src.Height)
	s.rectified = nil
	return s.corners, nil
}

// SetOutputSize fixes the rectified size; zero values select the optimal size.
func (s *Session) SetOutputSize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w != s.outW || h != s.outH {
		s.outW, s.outH = w, h
		s.rectified = nil
	}
}

// Pending returns the parameters most recently set by the caller.
func (s *Session) Pending() filters.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Committed returns the parameters Render uses.
func (s *Session) Committed() filters.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// SetPending records new parameters without affecting Render. Values are
// clamped to their ranges; NaN or Inf is rejected.
func (s *Session) SetPending(p filters.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p.Clamp()
	return nil
}

// Commit promotes the pending parameters and returns them.
func (s *Session) Commit() filters.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = s.pending
	return s.committed
}

// Discard drops the pending parameters.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.committed
}

// Dirty reports whether pending parameters differ from committed ones.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != s.committed
}

// Rectified returns the rectified source for the current corners. The
// result is cached until the corners or output size change.
func (s *Session) Rectified() (*raster.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rectifiedLocked()
}

func (s *Session) rectifiedLocked() (*raster.Raster, error) {
	if s.rectified != nil {
		return s.rectified, nil
	}
	w, h := s.outW, s.outH
	if w <= 0 || h <= 0 {
		w, h = s.rectifier.OptimalOutputSize(s.corners)
	}
	out, err := s.rectifier.Rectify(s.src, s.corners, w, h)
	if err != nil {
		return nil, err
	}
	s.rectified = out
	return out, nil
}

// Render rectifies and filters with the committed state.
func (s *Session) Render() (*raster.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rect, err := s.rectifiedLocked()
	if err != nil {
		return nil, err
	}
	return s.pipeline.Apply(rect, s.committed)
}
