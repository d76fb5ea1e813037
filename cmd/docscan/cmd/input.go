package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/pdf"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/spf13/cobra"
)

// loadRaster reads an image file, or one page of a PDF.
func loadRaster(path string, page int, maxBytes int64) (*raster.Raster, error) {
	var (
		img image.Image
		err error
	)
	if pdf.IsPDF(path) {
		img, err = pdf.PageImage(path, page)
	} else {
		img, _, err = utils.LoadImage(path, maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return raster.FromImage(img)
}

// addPageFlag registers --page for commands that accept PDF input.
func addPageFlag(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "page to read when the input is a PDF (1-based)")
}

func pageFlag(cmd *cobra.Command) int {
	page, _ := cmd.Flags().GetInt("page")
	return page
}

// addFilterFlags registers the flags selecting an enhancement.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "filter preset: auto-enhance, document or reset")
	cmd.Flags().StringArray("param", nil, "filter parameter as name=value, repeatable (e.g. contrast=30)")
	cmd.Flags().String("params", "", `filter parameters as JSON (e.g. '{"contrast":30}')`)
}

// filterSelection returns the explicitly requested params or preset. With
// no filter flags set the configuration's filters section applies.
func filterSelection(cmd *cobra.Command, cfg *config.Config) (*filters.Params, filters.Preset, error) {
	flags := cmd.Flags()
	if !flags.Changed("preset") && !flags.Changed("param") && !flags.Changed("params") {
		opts, err := cfg.DefaultScanOptions()
		if err != nil {
			return nil, "", err
		}
		return opts.Params, opts.Preset, nil
	}

	if flags.Changed("preset") && (flags.Changed("param") || flags.Changed("params")) {
		return nil, "", errors.New("use either --preset or --param/--params, not both")
	}
	if flags.Changed("preset") {
		name, _ := flags.GetString("preset")
		preset, err := filters.ParsePreset(name)
		return nil, preset, err
	}

	var params filters.Params
	if raw, _ := flags.GetString("params"); strings.TrimSpace(raw) != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&params); err != nil {
			return nil, "", fmt.Errorf("%w: --params: %w", filters.ErrInvalidParams, err)
		}
	}
	pairs, _ := flags.GetStringArray("param")
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, "", fmt.Errorf("%w: --param %q must be name=value", filters.ErrInvalidParams, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: --param %q: %w", filters.ErrInvalidParams, pair, err)
		}
		if err := params.Set(strings.TrimSpace(name), v); err != nil {
			return nil, "", err
		}
	}
	return &params, "", nil
}

// addOutputFlags registers the flags describing the written file.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output file (default: <input>-scan.<format>)")
	cmd.Flags().StringP("format", "f", "", "output format: png, jpeg or pdf (default: from --output, then config)")
	cmd.Flags().Int("quality", 0, "JPEG quality 1-100 (default from config)")
}

// outputTarget resolves the output path, format and encoder options.
func outputTarget(cmd *cobra.Command, cfg *config.Config, input string) (string, export.Format, export.Options, error) {
	flags := cmd.Flags()
	output, _ := flags.GetString("output")

	var (
		format export.Format
		err    error
	)
	switch {
	case flags.Changed("format"):
		name, _ := flags.GetString("format")
		format, err = export.ParseFormat(name)
	case output != "":
		format, err = export.FormatFromPath(output)
	default:
		format, err = cfg.ExportFormat()
	}
	if err != nil {
		return "", "", export.Options{}, err
	}

	opts := cfg.ToExportOptions()
	if flags.Changed("quality") {
		q, _ := flags.GetInt("quality")
		if q < 1 || q > 100 {
			return "", "", export.Options{}, fmt.Errorf("invalid quality: %d (must be between 1 and 100)", q)
		}
		opts.JPEGQuality = q
	}

	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = base + "-scan." + format.Extension()
	}
	return output, format, opts, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseCornersFlag accepts [[x,y],...] or [{"x":..,"y":..},...] with four points.
func parseCornersFlag(value string) (raster.CornerSet, error) {
	var pts []raster.Point
	if err := json.Unmarshal([]byte(value), &pts); err != nil {
		var pairs [][2]float64
		if err2 := json.Unmarshal([]byte(value), &pairs); err2 != nil {
			return raster.CornerSet{}, fmt.Errorf("%w: --corners must be a JSON array of points", raster.ErrInvalidGeometry)
		}
		pts = make([]raster.Point, len(pairs))
		for i, p := range pairs {
			pts[i] = raster.Point{X: p[0], Y: p[1]}
		}
	}
	return raster.CornersFromSlice(pts)
}
