package cmd

import (
	"fmt"
	"slices"

	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/spf13/cobra"
)

type presetOutput struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Params      *filters.Params `json:"params,omitempty"`
}

type presetsOutput struct {
	Presets []presetOutput           `json:"presets"`
	Ranges  map[string]filters.Range `json:"ranges"`
	Stages  []string                 `json:"stages"`
}

func newPresetsCommand(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List filter presets and parameter ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out presetsOutput
			for _, p := range filters.Presets() {
				po := presetOutput{Name: string(p), Title: p.Title(), Description: p.Description()}
				if params, ok := p.Params(); ok {
					po.Params = &params
				}
				out.Presets = append(out.Presets, po)
			}
			out.Ranges = filters.Ranges()
			out.Stages = filters.NewPipeline().StageNames()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "Presets:")
			for _, p := range out.Presets {
				_, _ = fmt.Fprintf(w, "  %-14s %s\n", p.Name, p.Description)
			}
			_, _ = fmt.Fprintln(w, "Parameters:")
			names := make([]string, 0, len(out.Ranges))
			for name := range out.Ranges {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				r := out.Ranges[name]
				_, _ = fmt.Fprintf(w, "  %-16s %5.0f .. %.0f\n", name, r.Min, r.Max)
			}
			_, _ = fmt.Fprintln(w, "Filter order:")
			for i, s := range out.Stages {
				_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, s)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}
