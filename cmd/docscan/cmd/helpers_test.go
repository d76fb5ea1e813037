package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// runCommand executes a fresh root command with an isolated home directory.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeRasterPNG(t *testing.T, path string, r *raster.Raster) string {
	t.Helper()
	require.NoError(t, export.WriteFile(path, r, export.FormatPNG, export.DefaultOptions()))
	return path
}

func writeDocumentPNG(t *testing.T, dir string) string {
	t.Helper()
	src := testutil.NewDocumentRaster(t, testutil.DefaultDocumentConfig())
	return writeRasterPNG(t, filepath.Join(dir, "photo.png"), src)
}
