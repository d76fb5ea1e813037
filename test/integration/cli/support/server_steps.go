package support

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/MeKo-Tech/docscan/internal/server"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/cucumber/godog"
)

// HTTPTestServerWrapper owns an in-process API server.
type HTTPTestServerWrapper struct {
	Server *httptest.Server
	api    *server.Server
}

func (testCtx *TestContext) startServer(cfg server.Config) error {
	testCtx.stopTestHTTPServer()

	api, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	api.SetupRoutes(mux)
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{Server: httptest.NewServer(mux), api: api}
	return nil
}

func defaultServerConfig() server.Config {
	return server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  10,
		Scan:        scan.DefaultConfig(),
	}
}

func (testCtx *TestContext) theAPIServerIsRunning() error {
	return testCtx.startServer(defaultServerConfig())
}

func (testCtx *TestContext) theAPIServerIsRunningWithRateLimit(perMinute int) error {
	cfg := defaultServerConfig()
	cfg.RateLimiter = server.NewRateLimiter(perMinute, 0, 0, 0)
	return testCtx.startServer(cfg)
}

func (testCtx *TestContext) stopTestHTTPServer() {
	if testCtx.HTTPTestServer == nil {
		return
	}
	testCtx.HTTPTestServer.Server.Close()
	_ = testCtx.HTTPTestServer.api.Close()
	testCtx.HTTPTestServer = nil
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = body
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[strings.ToLower(k)] = resp.Header.Get(k)
	}
	// JSON steps read LastOutput, so HTTP bodies share it with the CLI.
	testCtx.LastOutput = string(body)
	return nil
}

func (testCtx *TestContext) url(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("API server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) iSendARequestTo(method, path string) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) upload(name, path string, fields map[string]string) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(testCtx.path(name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, u, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) iUploadTo(name, path string) error {
	return testCtx.upload(name, path, nil)
}

func (testCtx *TestContext) iUploadToWithFields(name, path string, table *godog.Table) error {
	fields := make(map[string]string)
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return errors.New("field rows need a name and a value")
		}
		fields[row.Cells[0].Value] = row.Cells[1].Value
	}
	return testCtx.upload(name, path, fields)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status is %d, want %d\nBody: %s",
			testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	got, ok := testCtx.LastHTTPHeaders[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("response has no %s header", name)
	}
	if got != want {
		return fmt.Errorf("header %s is %q, want %q", name, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeAnImageOf(width, height int) error {
	img, _, err := utils.DecodeImage(bytes.NewReader(testCtx.LastHTTPResponse), 0)
	if err != nil {
		return fmt.Errorf("response is not an image: %w", err)
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return nil
}

// RegisterServerSteps registers HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the API server is running$`, testCtx.theAPIServerIsRunning)
	sc.Step(`^the API server is running with a limit of (\d+) requests? per minute$`,
		testCtx.theAPIServerIsRunningWithRateLimit)
	sc.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)"$`, testCtx.iSendARequestTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with fields:$`, testCtx.iUploadToWithFields)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response image should be (\d+)x(\d+)$`, testCtx.theResponseShouldBeAnImageOf)
}
