package cmd

import (
	"fmt"
	"image/color"
	"time"

	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// detectOutput is the result of one detect run.
type detectOutput struct {
	File            string           `json:"file"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	Corners         raster.CornerSet `json:"corners"`
	Fallback        bool             `json:"fallback"`
	Strategy        string           `json:"strategy"`
	Reason          string           `json:"reason,omitempty"`
	AreaRatio       float64          `json:"area_ratio"`
	SuggestedWidth  int              `json:"suggested_width"`
	SuggestedHeight int              `json:"suggested_height"`
	DurationMs      float64          `json:"duration_ms"`
}

func newDetectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Find the four corners of the document in a photo",
		Long: `Detect the outline of a paper document and print its corners in
top-left, top-right, bottom-right, bottom-left order.

When no outline is found the full image frame is reported with
"fallback": true.

Examples:
  docscan detect photo.jpg
  docscan detect photo.jpg --output-format text
  docscan detect photo.jpg --strategy edge-scan --overlay corners.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("strategy") {
				cfg.Detector.Strategy, _ = flags.GetString("strategy")
			}
			if flags.Changed("mask") {
				cfg.Detector.MaskMode, _ = flags.GetString("mask")
			}
			if flags.Changed("max-dimension") {
				cfg.Detector.MaxDimension, _ = flags.GetInt("max-dimension")
			}
			if flags.Changed("min-area") {
				cfg.Detector.MinAreaRatio, _ = flags.GetFloat64("min-area")
			}
			outFormat, _ := flags.GetString("output-format")
			if outFormat != outputFormatJSON && outFormat != outputFormatText {
				return fmt.Errorf("invalid output format: %s (must be one of: %s, %s)", outFormat, outputFormatJSON, outputFormatText)
			}

			det, err := detector.NewDetector(cfg.ToDetectorConfig())
			if err != nil {
				return err
			}
			src, err := loadRaster(args[0], pageFlag(cmd), cfg.MaxInputBytes())
			if err != nil {
				return err
			}
			res, err := det.Detect(src)
			if err != nil {
				return err
			}

			sw, sh := rectify.OptimalOutputSize(res.Corners)
			out := detectOutput{
				File:            args[0],
				Width:           src.Width,
				Height:          src.Height,
				Corners:         res.Corners,
				Fallback:        res.Fallback,
				Strategy:        res.Strategy,
				AreaRatio:       res.AreaRatio,
				SuggestedWidth:  sw,
				SuggestedHeight: sh,
				DurationMs:      float64(res.Duration) / float64(time.Millisecond),
			}
			if res.Reason != nil {
				out.Reason = res.Reason.Error()
			}

			if overlay, _ := flags.GetString("overlay"); overlay != "" {
				if err := writeOverlay(overlay, src, res.Corners); err != nil {
					return err
				}
			}

			if outFormat == outputFormatJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printDetectText(cmd, out)
		},
	}

	cmd.Flags().String("strategy", "", "detection strategy: contour or edge-scan (default from config)")
	cmd.Flags().String("mask", "", "contour mask: auto, otsu or canny (default from config)")
	cmd.Flags().Int("max-dimension", 0, "downscale so the longer side is at most this many pixels")
	cmd.Flags().Float64("min-area", 0, "minimum document area as a fraction of the image (0..1)")
	cmd.Flags().String("output-format", outputFormatJSON, "output format: json or text")
	cmd.Flags().String("overlay", "", "write the image with the detected outline drawn on it")
	addPageFlag(cmd)
	return cmd
}

func printDetectText(cmd *cobra.Command, out detectOutput) error {
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "%s: %dx%d, strategy %s\n", out.File, out.Width, out.Height, out.Strategy); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	names := [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}
	for i, p := range out.Corners {
		_, _ = fmt.Fprintf(w, "  %-12s %7.1f %7.1f\n", names[i], p.X, p.Y)
	}
	if out.Fallback {
		_, _ = fmt.Fprintf(w, "  no document outline found: %s\n", out.Reason)
	}
	_, _ = fmt.Fprintf(w, "  suggested size %dx%d\n", out.SuggestedWidth, out.SuggestedHeight)
	return nil
}

// writeOverlay draws the corner quadrilateral onto a copy of src.
func writeOverlay(path string, src *raster.Raster, corners raster.CornerSet) error {
	format, err := export.FormatFromPath(path)
	if err != nil {
		return err
	}
	img := src.ToImage()
	thickness := max(2, min(src.Width, src.Height)/200)
	red := color.NRGBA{R: 255, A: 255}
	utils.DrawPolygon(img, corners.Slice(), red, thickness)
	for _, p := range corners {
		utils.DrawMarker(img, p, red, thickness*3)
	}
	overlay, err := raster.FromImage(img)
	if err != nil {
		return err
	}
	return export.WriteFile(path, overlay, format, export.DefaultOptions())
}
