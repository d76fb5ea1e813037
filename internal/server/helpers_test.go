package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *http.ServeMux) {
	t.Helper()

	cfg := Config{
		CORSOrigin:    "*",
		MaxUploadMB:   5,
		TimeoutSec:    10,
		PreviewMaxDim: 1024,
		Scan:          scan.DefaultConfig(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	return srv, mux
}

func documentPNG(t *testing.T) []byte {
	t.Helper()
	return testutil.EncodePNG(t, testutil.NewDocumentRaster(t, testutil.DefaultDocumentConfig()))
}

// uploadRequest builds a multipart POST with an "image" file and extra fields.
func uploadRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
