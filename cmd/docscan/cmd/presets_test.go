package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsCommand_Text(t *testing.T) {
	out, _, err := runCommand(t, "presets")
	require.NoError(t, err)
	for _, want := range []string{"auto-enhance", "document", "reset", "whiteBackground", "Filter order:"} {
		assert.Contains(t, out, want)
	}
}

func TestPresetsCommand_JSON(t *testing.T) {
	out, _, err := runCommand(t, "presets", "--json")
	require.NoError(t, err)

	var res presetsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Presets, 3)
	assert.Len(t, res.Ranges, 10)
	assert.NotEmpty(t, res.Stages)
	for _, p := range res.Presets {
		if p.Name == "document" {
			require.NotNil(t, p.Params)
			assert.InDelta(t, 70, p.Params.TextEnhancement, 1e-9)
		}
	}
}
