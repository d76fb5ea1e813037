package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeRasterPNG(t, filepath.Join(dir, "page.png"), testutil.GradientRaster(t, 80, 60))

	tests := []struct {
		name string
		args []string
	}{
		{"preset", []string{"--preset", "document"}},
		{"params", []string{"--param", "brightness=10", "--params", `{"contrast":25}`}},
		{"auto enhance by default", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name+".jpg")
			args := append([]string{"enhance", input, "-o", output}, tt.args...)
			out, _, err := runCommand(t, args...)
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote "+output)

			img, _, err := utils.LoadImage(output, 0)
			require.NoError(t, err)
			assert.Equal(t, 80, img.Bounds().Dx())
			assert.Equal(t, 60, img.Bounds().Dy())
		})
	}
}

func TestEnhanceCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeRasterPNG(t, filepath.Join(dir, "page.png"), testutil.GradientRaster(t, 40, 30))

	_, _, err := runCommand(t, "enhance", input, "--params", "{broken")
	assert.Error(t, err)

	_, _, err = runCommand(t, "enhance", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPNG(t, dir)

	out, _, err := runCommand(t, "analyze", input)
	require.NoError(t, err)

	var a enhance.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	cfg := testutil.DefaultDocumentConfig()
	assert.Equal(t, cfg.Width, a.Width)
	assert.Equal(t, cfg.Height, a.Height)
	assert.NotEmpty(t, a.MeanColor)
}
