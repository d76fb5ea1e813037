package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/docscan/internal/common"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/spf13/cobra"
)

// scanOutput summarizes a written scan.
type scanOutput struct {
	Input     string           `json:"input"`
	Output    string           `json:"output"`
	Format    export.Format    `json:"format"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Corners   raster.CornerSet `json:"corners"`
	Detected  bool             `json:"detected"`
	Fallback  bool             `json:"fallback"`
	Rectified bool             `json:"rectified"`
	Params    filters.Params   `json:"params"`
	Warnings  []string         `json:"warnings,omitempty"`
	Timings   []common.Timing  `json:"timings"`
}

func newScanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <input>",
		Short: "Detect, straighten and enhance a document photo",
		Long: `Run the full scan: find the document outline (or use --corners),
warp it to a rectangle, apply filters and write the result.

Input can be a JPEG, PNG, WebP or BMP image, or a PDF (see --page).

Examples:
  docscan scan photo.jpg
  docscan scan photo.jpg -o page.pdf --preset document
  docscan scan photo.jpg --corners '[[12,30],[590,18],[600,810],[4,798]]' --width 1240 --height 1754
  docscan scan scan.pdf --page 2 -o page2.png --param contrast=20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			input := args[0]

			var opts scan.Options
			if opts.Params, opts.Preset, err = filterSelection(cmd, cfg); err != nil {
				return err
			}
			if raw, _ := cmd.Flags().GetString("corners"); raw != "" {
				corners, err := parseCornersFlag(raw)
				if err != nil {
					return err
				}
				opts.Corners = &corners
			}
			opts.Width, _ = cmd.Flags().GetInt("width")
			opts.Height, _ = cmd.Flags().GetInt("height")
			if opts.Width < 0 || opts.Height < 0 {
				return fmt.Errorf("invalid output size %dx%d", opts.Width, opts.Height)
			}

			output, format, exportOpts, err := outputTarget(cmd, cfg, input)
			if err != nil {
				return err
			}

			proc, err := scan.NewProcessor(cfg.ToScanConfig())
			if err != nil {
				return err
			}
			src, err := loadRaster(input, pageFlag(cmd), cfg.MaxInputBytes())
			if err != nil {
				return err
			}

			res, err := proc.Process(cmd.Context(), src, opts)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				slog.Warn(w, "input", input)
			}

			if err := export.WriteFile(output, res.Raster, format, exportOpts); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			slog.Debug("Scan completed", "input", input, "output", output, "timings", res.Timings.String())

			summary := scanOutput{
				Input:     input,
				Output:    output,
				Format:    format,
				Width:     res.Raster.Width,
				Height:    res.Raster.Height,
				Corners:   res.Corners,
				Detected:  res.Detection != nil,
				Fallback:  res.Fallback(),
				Rectified: res.Rectified,
				Params:    res.Params,
				Warnings:  res.Warnings,
				Timings:   res.Timings.Entries(),
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d %s)\n", output, summary.Width, summary.Height, format)
			return err
		},
	}

	cmd.Flags().String("corners", "", "document corners as JSON, TL TR BR BL (skips detection)")
	cmd.Flags().Int("width", 0, "output width in pixels (default: from the corners)")
	cmd.Flags().Int("height", 0, "output height in pixels (default: from the corners)")
	cmd.Flags().Bool("json", false, "print a JSON summary instead of a status line")
	addFilterFlags(cmd)
	addOutputFlags(cmd)
	addPageFlag(cmd)
	return cmd
}
