package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/MeKo-Tech/docscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// presetsHandler lists filter presets, slider ranges and the stage order.
func (s *Server) presetsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	presets := filters.Presets()
	infos := make([]PresetInfo, len(presets))
	for i, p := range presets {
		infos[i] = PresetInfo{Name: string(p), Title: p.Title(), Description: p.Description()}
		if params, ok := p.Params(); ok {
			infos[i].Params = &params
		}
	}
	writeJSON(w, http.StatusOK, PresetsResponse{
		Presets: infos,
		Ranges:  filters.Ranges(),
		Stages:  s.processor.Pipeline().StageNames(),
	})
}

// writeJSON writes v as a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

// writeProcessingError maps a processing error onto a status code.
func (s *Server) writeProcessingError(w http.ResponseWriter, operation string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "error", err)
	}
	s.writeRequestError(w, operation, fmt.Sprintf("%s failed: %v", operation, err), status)
}

// writeRequestError counts a failed request for operation and writes the
// error response.
func (s *Server) writeRequestError(w http.ResponseWriter, operation, message string, status int) {
	scanRequestsTotal.WithLabelValues(operation, "error").Inc()
	s.writeErrorResponse(w, message, status)
}

// statusForError maps sentinel errors to HTTP status codes.
func statusForError(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, utils.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, raster.ErrInvalidGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, raster.ErrUnsupportedInput),
		errors.Is(err, filters.ErrInvalidParams),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// formValue reads a field from the multipart form, falling back to the query string.
func formValue(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}

// parseCorners decodes a JSON array of four {"x","y"} points or [x,y] pairs.
func parseCorners(value string) (*raster.CornerSet, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var pts []raster.Point
	if err := json.Unmarshal([]byte(value), &pts); err != nil {
		var pairs [][2]float64
		if err2 := json.Unmarshal([]byte(value), &pairs); err2 != nil {
			return nil, fmt.Errorf("%w: corners must be a JSON array of points: %w", raster.ErrInvalidGeometry, err)
		}
		pts = make([]raster.Point, len(pairs))
		for i, p := range pairs {
			pts[i] = raster.Point{X: p[0], Y: p[1]}
		}
	}
	corners, err := raster.CornersFromSlice(pts)
	if err != nil {
		return nil, err
	}
	return &corners, nil
}

// parseParams decodes a JSON filter parameter object; unknown keys are rejected.
func parseParams(value string) (*filters.Params, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(value))
	dec.DisallowUnknownFields()
	var p filters.Params
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidParams, err)
	}
	return &p, nil
}

// parsePreset returns the preset named in the request, if any.
func parsePreset(r *http.Request) (filters.Preset, error) {
	name := formValue(r, "preset")
	if name == "" {
		return "", nil
	}
	return filters.ParsePreset(name)
}

// parseFormat returns the requested output format or the server default.
func (s *Server) parseFormat(r *http.Request) (export.Format, error) {
	name := formValue(r, "format")
	if name == "" {
		return s.format, nil
	}
	return export.ParseFormat(name)
}

// parseSize reads optional positive width and height fields and rejects
// sizes above the rectifier's limit.
func (s *Server) parseSize(r *http.Request) (int, int, error) {
	var dims [2]int
	for i, key := range []string{"width", "height"} {
		v := formValue(r, key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("%w: invalid %s %q", raster.ErrUnsupportedInput, key, v)
		}
		dims[i] = n
	}
	if err := s.processor.Rectifier().Config().CheckOutputSize(dims[0], dims[1]); err != nil {
		return 0, 0, err
	}
	return dims[0], dims[1], nil
}
