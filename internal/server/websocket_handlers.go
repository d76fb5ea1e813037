package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/session"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client message types.
const (
	MsgLoad    = "load"
	MsgCorners = "corners"
	MsgCorner  = "corner"
	MsgParams  = "params"
	MsgCommit  = "commit"
	MsgPreset  = "preset"
	MsgPick    = "pick"
)

// Server message types.
const (
	MsgPreview  = "preview"
	MsgDetected = "detected"
	MsgPicked   = "picked"
	MsgError    = "error"
)

// WebSocketRequest is a message sent by the preview client.
type WebSocketRequest struct {
	Type string `json:"type"`
	// Image is the base64 encoded source for "load".
	Image   string          `json:"image,omitempty"`
	Corners []raster.Point  `json:"corners,omitempty"`
	Index   int             `json:"index,omitempty"`
	X       float64         `json:"x,omitempty"`
	Y       float64         `json:"y,omitempty"`
	Radius  float64         `json:"radius,omitempty"`
	Params  *filters.Params `json:"params,omitempty"`
	Preset  string          `json:"preset,omitempty"`
	Width   int             `json:"width,omitempty"`
	Height  int             `json:"height,omitempty"`
}

// WebSocketResponse is a message sent to the preview client.
type WebSocketResponse struct {
	Type      string            `json:"type"`
	Image     string            `json:"image,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	Corners   *raster.CornerSet `json:"corners,omitempty"`
	Fallback  bool              `json:"fallback,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Params    *filters.Params   `json:"params,omitempty"`
	Index     *int              `json:"index,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorType string            `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// lockedWriter serializes writes from the reader loop and debounce timers.
type lockedWriter struct {
	mu sync.Mutex
	w  WebSocketConnWriter
}

func (l *lockedWriter) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.WriteMessage(messageType, data)
}

// previewClient holds the editing session of one connection.
type previewClient struct {
	srv  *Server
	conn WebSocketConnWriter

	mu       sync.Mutex
	sess     *session.Session
	debounce *session.Debouncer[filters.Params]
}

func (s *Server) newPreviewClient(conn WebSocketConnWriter) *previewClient {
	return &previewClient{srv: s, conn: &lockedWriter{w: conn}}
}

// previewWebSocketHandler handles live preview connections.
func (s *Server) previewWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	conn.SetReadLimit(s.maxUploadBytes() * 2)

	client := s.newPreviewClient(conn)
	defer client.close()
	s.handleWebSocketConnection(conn, client)
}

// handleWebSocketConnection reads messages until the peer goes away.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, client *previewClient) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			client.handleMessage(data)
		}
	}
}

func (c *previewClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounce != nil {
		c.debounce.Stop()
	}
}

// handleMessage dispatches one client message.
func (c *previewClient) handleMessage(data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	if req.Type == MsgLoad {
		c.load(req)
		return
	}

	sess := c.session()
	if sess == nil {
		c.sendError("no_image", "no image loaded")
		return
	}

	switch req.Type {
	case MsgCorners:
		corners, err := raster.CornersFromSlice(req.Corners)
		if err != nil {
			c.sendError("invalid_geometry", err.Error())
			return
		}
		if err := c.srv.processor.Rectifier().Config().CheckOutputSize(req.Width, req.Height); err != nil {
			c.sendError("invalid_size", err.Error())
			return
		}
		sess.SetCorners(corners)
		if req.Width > 0 && req.Height > 0 {
			sess.SetOutputSize(req.Width, req.Height)
		}
		c.sendPreview(sess)
	case MsgCorner:
		if _, err := sess.MoveCorner(req.Index, raster.Point{X: req.X, Y: req.Y}); err != nil {
			c.sendError("invalid_corner", err.Error())
			return
		}
		c.sendPreview(sess)
	case MsgParams:
		if req.Params == nil {
			c.sendError("invalid_params", "params message without params")
			return
		}
		if err := sess.SetPending(*req.Params); err != nil {
			c.sendError("invalid_params", err.Error())
			return
		}
		c.submit(sess.Pending())
	case MsgCommit:
		if !c.flush() {
			sess.Commit()
			c.sendPreview(sess)
		}
	case MsgPreset:
		c.applyPreset(sess, req.Preset)
	case MsgPick:
		idx := session.PickCorner(sess.Corners(), raster.Point{X: req.X, Y: req.Y}, req.Radius)
		corners := sess.Corners()
		c.send(WebSocketResponse{Type: MsgPicked, Index: &idx, Corners: &corners})
	default:
		c.sendError("invalid_request", "Unsupported request type: "+req.Type)
	}
}

// load decodes the image, detects corners and starts a fresh session.
func (c *previewClient) load(req WebSocketRequest) {
	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.sendError("invalid_image", "image must be base64 encoded")
		return
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(raw), c.srv.maxUploadBytes())
	if err != nil {
		c.sendError("invalid_image", err.Error())
		return
	}
	src, err := raster.FromImage(img)
	if err != nil {
		c.sendError("invalid_image", err.Error())
		return
	}

	det, err := c.srv.processor.Detector().Detect(src)
	if err != nil {
		c.sendError("detection_failed", err.Error())
		return
	}
	detectionResultsTotal.WithLabelValues(det.Strategy).Inc()

	sess, err := session.New(src, det.Corners,
		session.WithRectifier(c.srv.processor.Rectifier()),
		session.WithPipeline(c.srv.processor.Pipeline()))
	if err != nil {
		c.sendError("invalid_image", err.Error())
		return
	}

	c.mu.Lock()
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.sess = sess
	c.debounce = nil
	if c.srv.debounce > 0 {
		c.debounce = session.NewDebouncer(c.srv.debounce, func(filters.Params) {
			sess.Commit()
			c.sendPreview(sess)
		})
	}
	c.mu.Unlock()

	corners := sess.Corners()
	c.send(WebSocketResponse{
		Type:     MsgDetected,
		Width:    src.Width,
		Height:   src.Height,
		Corners:  &corners,
		Fallback: det.Fallback,
		Strategy: det.Strategy,
	})
	c.sendPreview(sess)
}

func (c *previewClient) applyPreset(sess *session.Session, name string) {
	preset, err := filters.ParsePreset(name)
	if err != nil {
		c.sendError("invalid_preset", err.Error())
		return
	}
	rect, err := sess.Rectified()
	if err != nil {
		c.sendError("render_failed", err.Error())
		return
	}
	params, err := enhance.ResolvePreset(preset, rect)
	if err != nil {
		c.sendError("invalid_preset", err.Error())
		return
	}
	if err := sess.SetPending(params); err != nil {
		c.sendError("invalid_params", err.Error())
		return
	}
	sess.Commit()
	c.sendPreview(sess)
}

func (c *previewClient) session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// submit schedules a commit and render, or runs it now without debouncing.
func (c *previewClient) submit(p filters.Params) {
	c.mu.Lock()
	d, sess := c.debounce, c.sess
	c.mu.Unlock()
	if d != nil {
		d.Submit(p)
		return
	}
	sess.Commit()
	c.sendPreview(sess)
}

func (c *previewClient) flush() bool {
	c.mu.Lock()
	d := c.debounce
	c.mu.Unlock()
	return d != nil && d.Flush()
}

// sendPreview renders the committed state and sends a PNG thumbnail.
func (c *previewClient) sendPreview(sess *session.Session) {
	start := time.Now()
	out, err := sess.Render()
	if err != nil {
		errType := "render_failed"
		if errors.Is(err, raster.ErrInvalidGeometry) {
			errType = "invalid_geometry"
		}
		c.sendError(errType, err.Error())
		return
	}
	observeStage("preview", time.Since(start))

	thumb := imaging.Fit(out.ToImage(), c.srv.previewMaxDim, c.srv.previewMaxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		c.sendError("render_failed", err.Error())
		return
	}
	params := sess.Committed()
	corners := sess.Corners()
	c.send(WebSocketResponse{
		Type:    MsgPreview,
		Image:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   out.Width,
		Height:  out.Height,
		Corners: &corners,
		Params:  &params,
	})
}

func (c *previewClient) send(resp WebSocketResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (c *previewClient) sendError(errorType, message string) {
	c.send(WebSocketResponse{Type: MsgError, Error: message, ErrorType: errorType})
}
