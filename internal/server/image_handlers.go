package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// parseImageRequest reads the multipart "image" field and decodes it. On
// failure the error response has already been written and counted.
func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request, op string) (*raster.Raster, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeRequestError(w, op, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeRequestError(w, op, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeRequestError(w, op, "No image file provided", http.StatusBadRequest)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadBytes() {
		s.writeRequestError(w, op, "File too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	img, _, err := utils.DecodeImage(file, s.maxUploadBytes())
	if err != nil {
		if errors.Is(err, utils.ErrImageTooLarge) {
			s.writeRequestError(w, op, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeRequestError(w, op, "Invalid image format", http.StatusUnsupportedMediaType)
		}
		return nil, false
	}

	rs, err := raster.FromImage(img)
	if err != nil {
		s.writeRequestError(w, op, "Invalid image", http.StatusBadRequest)
		return nil, false
	}
	return rs, true
}

// writeImageResponse encodes r in the requested format.
func (s *Server) writeImageResponse(w http.ResponseWriter, r *raster.Raster, format export.Format) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, r, format, s.exportOptions); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("encoding failed: %v", err), statusForError(err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// detectHandler returns the document corners found in the uploaded image.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	src, ok := s.parseImageRequest(w, r, "detect")
	if !ok {
		return
	}

	res, err := s.processor.Detector().Detect(src)
	if err != nil {
		s.writeProcessingError(w, "detect", err)
		return
	}
	observeStage(scan.StageDetect, res.Duration)
	detectionResultsTotal.WithLabelValues(res.Strategy).Inc()
	scanRequestsTotal.WithLabelValues("detect", "success").Inc()

	sw, sh := s.processor.Rectifier().OptimalOutputSize(res.Corners)
	resp := DetectResponse{
		Success:         true,
		Corners:         res.Corners,
		Fallback:        res.Fallback,
		Strategy:        res.Strategy,
		AreaRatio:       res.AreaRatio,
		Width:           src.Width,
		Height:          src.Height,
		SuggestedWidth:  sw,
		SuggestedHeight: sh,
		DurationMs:      res.Duration.Milliseconds(),
	}
	if res.Reason != nil {
		resp.Reason = res.Reason.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// rectifyHandler warps the quadrilateral given in "corners" to a rectangle.
func (s *Server) rectifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	src, ok := s.parseImageRequest(w, r, "rectify")
	if !ok {
		return
	}

	corners, err := parseCorners(formValue(r, "corners"))
	if err != nil {
		s.writeProcessingError(w, "rectify", err)
		return
	}
	if corners == nil {
		s.writeRequestError(w, "rectify", "No corners provided", http.StatusBadRequest)
		return
	}
	width, height, err := s.parseSize(r)
	if err != nil {
		s.writeProcessingError(w, "rectify", err)
		return
	}
	format, err := s.parseFormat(r)
	if err != nil {
		s.writeProcessingError(w, "rectify", err)
		return
	}

	rect := s.processor.Rectifier()
	if width == 0 || height == 0 {
		width, height = rect.OptimalOutputSize(*corners)
	}
	out, err := rect.Rectify(src, *corners, width, height)
	if err != nil {
		s.writeProcessingError(w, "rectify", err)
		return
	}
	scanRequestsTotal.WithLabelValues("rectify", "success").Inc()
	s.writeImageResponse(w, out, format)
}

// enhanceHandler runs the filter chain with "params" or a "preset".
func (s *Server) enhanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	src, ok := s.parseImageRequest(w, r, "enhance")
	if !ok {
		return
	}

	params, err := parseParams(formValue(r, "params"))
	if err != nil {
		s.writeProcessingError(w, "enhance", err)
		return
	}
	preset, err := parsePreset(r)
	if err != nil {
		s.writeProcessingError(w, "enhance", err)
		return
	}
	format, err := s.parseFormat(r)
	if err != nil {
		s.writeProcessingError(w, "enhance", err)
		return
	}

	if params == nil && preset != "" {
		p, err := enhance.ResolvePreset(preset, src)
		if err != nil {
			s.writeProcessingError(w, "enhance", err)
			return
		}
		params = &p
	}
	if params == nil {
		s.writeRequestError(w, "enhance", "No params or preset provided", http.StatusBadRequest)
		return
	}

	out, err := s.processor.Pipeline().Apply(src, *params)
	if err != nil {
		s.writeProcessingError(w, "enhance", err)
		return
	}
	scanRequestsTotal.WithLabelValues("enhance", "success").Inc()
	setParamsHeader(w, *params)
	s.writeImageResponse(w, out, format)
}

// scanHandler runs detection, rectification and filtering in one request.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	src, ok := s.parseImageRequest(w, r, "scan")
	if !ok {
		return
	}

	var opts scan.Options
	var err error
	if opts.Corners, err = parseCorners(formValue(r, "corners")); err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}
	if opts.Params, err = parseParams(formValue(r, "params")); err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}
	if opts.Preset, err = parsePreset(r); err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}
	if opts.Width, opts.Height, err = s.parseSize(r); err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}
	format, err := s.parseFormat(r)
	if err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.processor.Process(ctx, src, opts)
	if err != nil {
		s.writeProcessingError(w, "scan", err)
		return
	}
	if res.Detection != nil {
		detectionResultsTotal.WithLabelValues(res.Detection.Strategy).Inc()
	}
	scanRequestsTotal.WithLabelValues("scan", "success").Inc()

	if data, err := json.Marshal(res.Corners); err == nil {
		w.Header().Set(HeaderCorners, string(data))
	}
	w.Header().Set(HeaderFallback, strconv.FormatBool(res.Fallback()))
	w.Header().Set(HeaderRectified, strconv.FormatBool(res.Rectified))
	if len(res.Warnings) > 0 {
		w.Header().Set(HeaderWarnings, strings.Join(res.Warnings, "; "))
	}
	setParamsHeader(w, res.Params)
	s.writeImageResponse(w, res.Raster, format)
}

// analyzeHandler returns image statistics and suggested auto-enhance parameters.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	src, ok := s.parseImageRequest(w, r, "analyze")
	if !ok {
		return
	}

	analysis, err := enhance.Analyze(src)
	if err != nil {
		s.writeProcessingError(w, "analyze", err)
		return
	}
	scanRequestsTotal.WithLabelValues("analyze", "success").Inc()
	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Analysis: analysis})
}

func setParamsHeader(w http.ResponseWriter, p any) {
	if data, err := json.Marshal(p); err == nil {
		w.Header().Set(HeaderParams, string(data))
	}
}
