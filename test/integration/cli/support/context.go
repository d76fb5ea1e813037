package support

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/cmd/docscan/cmd"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastDuration time.Duration

	// Test environment
	TempDir    string
	oldHome    string
	restoreEnv []func()

	// HTTP state
	HTTPTestServer     *HTTPTestServerWrapper
	LastHTTPStatusCode int
	LastHTTPResponse   []byte
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a scenario context with a private temp directory
// that doubles as $HOME, so no user configuration leaks into the run.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "docscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	ctx := &TestContext{TempDir: tempDir, oldHome: os.Getenv("HOME")}
	if err := os.Setenv("HOME", tempDir); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Cleanup stops servers and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	testCtx.stopTestHTTPServer()
	for _, restore := range testCtx.restoreEnv {
		restore()
	}
	_ = os.Setenv("HOME", testCtx.oldHome)
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// path resolves a scenario-relative file name inside the temp directory.
func (testCtx *TestContext) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substitute replaces {tmp} with the scenario temp directory.
func (testCtx *TestContext) substitute(s string) string {
	return strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
}

// run executes the CLI in-process with a fresh command tree.
func (testCtx *TestContext) run(args []string) {
	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	start := time.Now()
	testCtx.LastError = root.Execute()
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
}
