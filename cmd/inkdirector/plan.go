package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/inkdirector/internal/export"
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

func newPlanCmd(a *app) *cobra.Command {
	var sequence, batch, doc bool

	cmd := &cobra.Command{
		Use:   "plan <report.json|->",
		Short: "Compute the generation plan for an analysis report",
		Long: `Reads an analysis report (raw JSON, optionally wrapped in a markdown
fence) and prints its generation plan as JSON.

With --sequence the input is a JSON array of per-frame reports; the
keyframes are merged and planned once. With --batch every frame is planned
independently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			opts := a.options(cmd)
			d := a.director(cmd)
			out := cmd.OutOrStdout()

			if !sequence && !batch {
				raw, err := report.Decode(data)
				if err != nil {
					return err
				}
				p := d.Plan(raw, opts)
				return writePlan(out, p, doc, func() (*export.PlanExport, error) {
					return export.ExportPlan(raw, opts, p)
				})
			}

			var frames []map[string]any
			if err := json.Unmarshal(data, &frames); err != nil {
				return fmt.Errorf("decode frames: %w", err)
			}
			if sequence {
				p := d.PlanSequence(frames, opts)
				return writePlan(out, p, doc, func() (*export.PlanExport, error) {
					return export.ExportSequence(frames, opts, p)
				})
			}

			plans, err := d.PlanBatch(cmd.Context(), frames, opts)
			if err != nil {
				return err
			}
			if !doc {
				return export.WriteJSON(out, plans)
			}
			docs := make([]*export.PlanExport, len(plans))
			for i, p := range plans {
				if docs[i], err = export.ExportPlan(frames[i], opts, p); err != nil {
					return err
				}
			}
			return export.WriteJSON(out, docs)
		},
	}

	cmd.Flags().BoolVar(&sequence, "sequence", false, "input is a frame sequence planned from its merged keyframes")
	cmd.Flags().BoolVar(&batch, "batch", false, "input is a list of frames planned independently")
	cmd.Flags().BoolVar(&doc, "export", false, "wrap each plan with its fingerprint and export time")
	cmd.MarkFlagsMutuallyExclusive("sequence", "batch")
	return cmd
}

// writePlan prints p, or the export document built by wrap when doc is set.
func writePlan(w io.Writer, p plan.Plan, doc bool, wrap func() (*export.PlanExport, error)) error {
	if !doc {
		return export.WriteJSON(w, p)
	}
	exp, err := wrap()
	if err != nil {
		return err
	}
	return export.WriteJSON(w, exp)
}
