package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/spf13/cobra"
)

func newEnhanceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enhance <image>",
		Short: "Apply filters to an already straightened image",
		Long: `Apply the filter chain without detection or perspective correction.

The enhancement is chosen by --preset, --param/--params, or the filters
section of the configuration. With none of them set, auto-enhance is used.

Examples:
  docscan enhance page.png --preset document
  docscan enhance page.png --param brightness=10 --param contrast=25 -o out.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			params, preset, err := filterSelection(cmd, cfg)
			if err != nil {
				return err
			}
			output, format, exportOpts, err := outputTarget(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			src, err := loadRaster(args[0], pageFlag(cmd), cfg.MaxInputBytes())
			if err != nil {
				return err
			}
			if params == nil {
				if preset == "" {
					preset = filters.PresetAutoEnhance
				}
				p, err := enhance.ResolvePreset(preset, src)
				if err != nil {
					return err
				}
				params = &p
			}

			out, err := filters.NewPipeline().Apply(src, *params)
			if err != nil {
				return err
			}
			if err := export.WriteFile(output, out, format, exportOpts); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d %s)\n", output, out.Width, out.Height, format)
			return err
		},
	}
	addFilterFlags(cmd)
	addOutputFlags(cmd)
	addPageFlag(cmd)
	return cmd
}

func newAnalyzeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Print image statistics and the suggested auto-enhance parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			src, err := loadRaster(args[0], pageFlag(cmd), cfg.MaxInputBytes())
			if err != nil {
				return err
			}
			analysis, err := enhance.Analyze(src)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
	addPageFlag(cmd)
	return cmd
}
