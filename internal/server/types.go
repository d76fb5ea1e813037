package server

import (
	"net/http"
	"time"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Response headers describing a processed scan.
const (
	HeaderCorners   = "X-Docscan-Corners"
	HeaderFallback  = "X-Docscan-Fallback"
	HeaderRectified = "X-Docscan-Rectified"
	HeaderWarnings  = "X-Docscan-Warnings"
	HeaderParams    = "X-Docscan-Params"
)

var exposedHeaders = []string{HeaderCorners, HeaderFallback, HeaderRectified, HeaderWarnings, HeaderParams}

// Server holds the HTTP server state and dependencies.
type Server struct {
	processor     *scan.Processor
	corsOrigin    string
	maxUploadMB   int64
	timeout       time.Duration
	debounce      time.Duration
	previewMaxDim int
	format        export.Format
	exportOptions export.Options
	rateLimiter   *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigin    string
	MaxUploadMB   int64
	TimeoutSec    int
	Debounce      time.Duration
	PreviewMaxDim int
	Scan          scan.Config
	Format        export.Format
	Export        export.Options
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// PresetInfo describes one filter preset.
type PresetInfo struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Params      *filters.Params `json:"params,omitempty"`
}

// PresetsResponse lists the presets and the slider ranges.
type PresetsResponse struct {
	Presets []PresetInfo             `json:"presets"`
	Ranges  map[string]filters.Range `json:"ranges"`
	Stages  []string                 `json:"stages"`
}

// DetectResponse reports detected corners.
type DetectResponse struct {
	Success         bool             `json:"success"`
	Corners         raster.CornerSet `json:"corners"`
	Fallback        bool             `json:"fallback"`
	Strategy        string           `json:"strategy"`
	Reason          string           `json:"reason,omitempty"`
	AreaRatio       float64          `json:"area_ratio"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	SuggestedWidth  int              `json:"suggested_width"`
	SuggestedHeight int              `json:"suggested_height"`
	DurationMs      int64            `json:"duration_ms"`
}

// AnalyzeResponse reports image statistics and suggested parameters.
type AnalyzeResponse struct {
	Success  bool             `json:"success"`
	Analysis enhance.Analysis `json:"analysis"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new document scanning server.
func NewServer(config Config) (*Server, error) {
	proc, err := scan.NewProcessor(config.Scan, scan.WithObserver(observeStage))
	if err != nil {
		return nil, err
	}
	format := config.Format
	if format == "" {
		format = export.FormatPNG
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 10
	}
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	previewMax := config.PreviewMaxDim
	if previewMax <= 0 {
		previewMax = 1024
	}
	exportOpts := config.Export
	if exportOpts == (export.Options{}) {
		exportOpts = export.DefaultOptions()
	}
	return &Server{
		processor:     proc,
		corsOrigin:    config.CORSOrigin,
		maxUploadMB:   maxUpload,
		timeout:       timeout,
		debounce:      config.Debounce,
		previewMaxDim: previewMax,
		format:        format,
		exportOptions: exportOpts,
		rateLimiter:   config.RateLimiter,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/presets", s.corsMiddleware(s.presetsHandler))
	mux.HandleFunc("/detect", s.corsMiddleware(s.rateLimitMiddleware(s.detectHandler)))
	mux.HandleFunc("/rectify", s.corsMiddleware(s.rateLimitMiddleware(s.rectifyHandler)))
	mux.HandleFunc("/enhance", s.corsMiddleware(s.rateLimitMiddleware(s.enhanceHandler)))
	mux.HandleFunc("/scan", s.corsMiddleware(s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/analyze", s.corsMiddleware(s.rateLimitMiddleware(s.analyzeHandler)))
	mux.HandleFunc("/ws", s.rateLimitMiddleware(s.previewWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB << 20
}
