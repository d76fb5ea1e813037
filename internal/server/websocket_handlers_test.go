package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

// mockConn records every message written to it.
type mockConn struct {
	mu       sync.Mutex
	messages []WebSocketResponse
}

func (m *mockConn) WriteMessage(_ int, data []byte) error {
	var resp WebSocketResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, resp)
	return nil
}

func (m *mockConn) all() []WebSocketResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WebSocketResponse(nil), m.messages...)
}

func (m *mockConn) last() WebSocketResponse {
	msgs := m.all()
	if len(msgs) == 0 {
		return WebSocketResponse{}
	}
	return msgs[len(msgs)-1]
}

func (m *mockConn) count(msgType string) int {
	n := 0
	for _, msg := range m.all() {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

func send(t *testing.T, c *previewClient, req WebSocketRequest) {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	c.handleMessage(data)
}

func loadRequest(t *testing.T) WebSocketRequest {
	t.Helper()
	return WebSocketRequest{Type: MsgLoad, Image: base64.StdEncoding.EncodeToString(documentPNG(t))}
}

func newLoadedClient(t *testing.T, mutate func(*Config)) (*previewClient, *mockConn) {
	t.Helper()
	srv, _ := newTestServer(t, mutate)
	conn := &mockConn{}
	c := srv.newPreviewClient(conn)
	t.Cleanup(c.close)

	send(t, c, loadRequest(t))
	require.Equal(t, 2, len(conn.all()), "load replies with detected and preview")
	return c, conn
}

func TestWebSocket_Load(t *testing.T) {
	_, conn := newLoadedClient(t, nil)
	msgs := conn.all()

	detected := msgs[0]
	assert.Equal(t, MsgDetected, detected.Type)
	assert.False(t, detected.Fallback)
	require.NotNil(t, detected.Corners)
	cfg := testutil.DefaultDocumentConfig()
	assert.Equal(t, cfg.Width, detected.Width)
	assert.Equal(t, cfg.Height, detected.Height)

	preview := msgs[1]
	assert.Equal(t, MsgPreview, preview.Type)
	raw, err := base64.StdEncoding.DecodeString(preview.Image)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, preview.Width, img.Bounds().Dx())
	assert.Equal(t, preview.Height, img.Bounds().Dy())
	require.NotNil(t, preview.Params)
	assert.True(t, preview.Params.IsNeutral())
}

func TestWebSocket_PreviewThumbnailIsBounded(t *testing.T) {
	_, conn := newLoadedClient(t, func(c *Config) { c.PreviewMaxDim = 64 })

	preview := conn.last()
	raw, err := base64.StdEncoding.DecodeString(preview.Image)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 64)
	assert.LessOrEqual(t, img.Bounds().Dy(), 64)
	assert.Greater(t, preview.Width, 64)
}

func TestWebSocket_RequiresLoad(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := &mockConn{}
	c := srv.newPreviewClient(conn)

	send(t, c, WebSocketRequest{Type: MsgCommit})
	assert.Equal(t, MsgError, conn.last().Type)
	assert.Equal(t, "no_image", conn.last().ErrorType)

	c.handleMessage([]byte("{not json"))
	assert.Equal(t, "invalid_request", conn.last().ErrorType)

	send(t, c, WebSocketRequest{Type: MsgLoad, Image: "***"})
	assert.Equal(t, "invalid_image", conn.last().ErrorType)
}

func TestWebSocket_ParamsWithoutDebounce(t *testing.T) {
	c, conn := newLoadedClient(t, nil)

	send(t, c, WebSocketRequest{Type: MsgParams, Params: &filters.Params{Contrast: 20, Brightness: 500}})
	last := conn.last()
	require.Equal(t, MsgPreview, last.Type)
	assert.InDelta(t, 20, last.Params.Contrast, 1e-9)
	assert.InDelta(t, 100, last.Params.Brightness, 1e-9, "out of range values are clamped")
}

func TestWebSocket_ParamsAreDebounced(t *testing.T) {
	c, conn := newLoadedClient(t, func(c *Config) { c.Debounce = time.Hour })

	for _, v := range []float64{10, 20, 30} {
		send(t, c, WebSocketRequest{Type: MsgParams, Params: &filters.Params{Contrast: v}})
	}
	assert.Equal(t, 1, conn.count(MsgPreview), "no render before the quiet period ends")
	assert.InDelta(t, 30, c.session().Pending().Contrast, 1e-9)
	assert.True(t, c.session().Dirty())

	send(t, c, WebSocketRequest{Type: MsgCommit})
	assert.Equal(t, 2, conn.count(MsgPreview))
	assert.InDelta(t, 30, conn.last().Params.Contrast, 1e-9)
	assert.False(t, c.session().Dirty())
}

func TestWebSocket_CornerEditing(t *testing.T) {
	c, conn := newLoadedClient(t, nil)

	send(t, c, WebSocketRequest{Type: MsgCorners, Corners: []raster.Point{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 300}, {X: 0, Y: 300}}, Width: 200, Height: 150})
	last := conn.last()
	require.Equal(t, MsgPreview, last.Type)
	assert.Equal(t, 200, last.Width)
	assert.Equal(t, 150, last.Height)

	send(t, c, WebSocketRequest{Type: MsgCorner, Index: 2, X: 900, Y: 900})
	last = conn.last()
	require.Equal(t, MsgPreview, last.Type)
	assert.InDelta(t, 400, last.Corners[2].X, 1e-9)
	assert.InDelta(t, 300, last.Corners[2].Y, 1e-9)

	send(t, c, WebSocketRequest{Type: MsgCorner, Index: 4})
	assert.Equal(t, "invalid_corner", conn.last().ErrorType)

	send(t, c, WebSocketRequest{Type: MsgCorners, Corners: []raster.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}})
	assert.Equal(t, "invalid_geometry", conn.last().ErrorType)
}

func TestWebSocket_RejectsOversizedOutput(t *testing.T) {
	c, conn := newLoadedClient(t, nil)
	before := c.session().Corners()

	quad := []raster.Point{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 300}, {X: 0, Y: 300}}
	send(t, c, WebSocketRequest{Type: MsgCorners, Corners: quad, Width: 1 << 20, Height: 1 << 20})
	assert.Equal(t, "invalid_size", conn.last().ErrorType)
	assert.Equal(t, before, c.session().Corners(), "rejected request leaves the session untouched")

	send(t, c, WebSocketRequest{Type: MsgCorners, Corners: quad, Width: 200, Height: 150})
	assert.Equal(t, MsgPreview, conn.last().Type)
}

func TestWebSocket_Pick(t *testing.T) {
	c, conn := newLoadedClient(t, nil)
	corners := c.session().Corners()

	send(t, c, WebSocketRequest{Type: MsgPick, X: corners[1].X + 3, Y: corners[1].Y - 2})
	last := conn.last()
	require.Equal(t, MsgPicked, last.Type)
	require.NotNil(t, last.Index)
	assert.Equal(t, 1, *last.Index)

	send(t, c, WebSocketRequest{Type: MsgPick, X: 200, Y: 150, Radius: 5})
	assert.Equal(t, -1, *conn.last().Index)
}

func TestWebSocket_Preset(t *testing.T) {
	c, conn := newLoadedClient(t, nil)

	send(t, c, WebSocketRequest{Type: MsgPreset, Preset: "document"})
	want, _ := filters.PresetDocument.Params()
	last := conn.last()
	require.Equal(t, MsgPreview, last.Type)
	assert.Equal(t, want, *last.Params)

	send(t, c, WebSocketRequest{Type: MsgPreset, Preset: "reset"})
	assert.True(t, conn.last().Params.IsNeutral())

	send(t, c, WebSocketRequest{Type: MsgPreset, Preset: "vintage"})
	assert.Equal(t, "invalid_preset", conn.last().ErrorType)
}

func TestWebSocket_UnknownType(t *testing.T) {
	c, conn := newLoadedClient(t, nil)

	send(t, c, WebSocketRequest{Type: "rotate"})
	assert.Equal(t, "invalid_request", conn.last().ErrorType)
	assert.True(t, strings.HasSuffix(conn.last().Error, "rotate"))
}

func TestWebSocket_EndToEnd(t *testing.T) {
	_, mux := newTestServer(t, nil)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteJSON(loadRequest(t)))

	var detected, preview WebSocketResponse
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	require.NoError(t, conn.ReadJSON(&detected))
	require.NoError(t, conn.ReadJSON(&preview))
	assert.Equal(t, MsgDetected, detected.Type)
	assert.Equal(t, MsgPreview, preview.Type)
	assert.NotEmpty(t, preview.Image)
}
