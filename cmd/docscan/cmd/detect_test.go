package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPNG(t, dir)
	cfg := testutil.DefaultDocumentConfig()

	out, _, err := runCommand(t, "detect", input)
	require.NoError(t, err)

	var res detectOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, input, res.File)
	assert.Equal(t, cfg.Width, res.Width)
	assert.Equal(t, cfg.Height, res.Height)
	assert.False(t, res.Fallback)
	for i, want := range cfg.Corners {
		assert.LessOrEqual(t, utils.Distance(want, res.Corners[i]), 6.0, "corner %d", i)
	}
	assert.Positive(t, res.SuggestedWidth)
}

func TestDetectCommand_TextAndOverlay(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPNG(t, dir)
	overlay := filepath.Join(dir, "overlay.png")

	out, _, err := runCommand(t, "detect", input, "--output-format", "text", "--overlay", overlay)
	require.NoError(t, err)
	assert.Contains(t, out, "top-left")
	assert.Contains(t, out, "bottom-left")
	assert.Contains(t, out, "suggested size")

	img, _, err := utils.LoadImage(overlay, 0)
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultDocumentConfig().Width, img.Bounds().Dx())
}

func TestDetectCommand_Fallback(t *testing.T) {
	dir := t.TempDir()
	input := writeRasterPNG(t, filepath.Join(dir, "blank.png"),
		testutil.UniformRaster(t, 90, 70, testutil.DefaultDocumentConfig().Paper))

	out, _, err := runCommand(t, "detect", input, "--strategy", "edge-scan")
	require.NoError(t, err)

	var res detectOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Fallback)
	assert.Equal(t, "full-frame", res.Strategy)
	assert.NotEmpty(t, res.Reason)
}

func TestDetectCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPNG(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"detect"}},
		{"missing file", []string{"detect", filepath.Join(dir, "missing.png")}},
		{"bad output format", []string{"detect", input, "--output-format", "xml"}},
		{"bad mask", []string{"detect", input, "--mask", "sobel"}},
		{"bad min area", []string{"detect", input, "--min-area", "1.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
