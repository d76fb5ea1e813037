package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionFailure means no document boundary qualified; callers fall back to the full frame.
	ErrDetectionFailure = errors.New("no document boundary found")
	// ErrInvalidGeometry means a corner set cannot define a perspective transform.
	ErrInvalidGeometry = errors.New("invalid corner geometry")
	// ErrUnsupportedInput means the raster itself is unusable.
	ErrUnsupportedInput = errors.New("unsupported input raster")
)

// OpError records the operation that failed along with the underlying cause.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap annotates err with the operation name. A nil err yields nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
