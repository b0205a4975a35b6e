package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/inkdirector/internal/export"
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
	"github.com/dusk-indust/inkdirector/internal/workflow"
)

func newPatchCmd(a *app) *cobra.Command {
	var (
		workflowPath string
		planPath     string
		reference    string
		output       string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "patch [report.json|-]",
		Short: "Write a generation plan into an API-format workflow graph",
		Long: `Plans the given report (or loads a saved plan with --plan) and writes the
sampler, ControlNet and IP-Adapter values into a copy of the workflow.
Node ids come from the "nodes" section of inkdirector.yml, falling back to
the defaults of the two-stage cleanup workflow.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" && len(args) == 0 {
				return errors.New("patch: a report argument or --plan is required")
			}

			data, err := os.ReadFile(workflowPath)
			if err != nil {
				return fmt.Errorf("read workflow: %w", err)
			}
			graph, err := workflow.Decode(data)
			if err != nil {
				return err
			}
			nodes, err := a.nodeMap()
			if err != nil {
				return err
			}
			if strict {
				if err := workflow.Validate(graph, nodes); err != nil {
					return err
				}
			}

			var p plan.Plan
			if planPath != "" {
				if p, err = loadPlan(planPath); err != nil {
					return err
				}
			} else {
				data, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				raw, err := report.Decode(data)
				if err != nil {
					return err
				}
				p = a.director(cmd).Plan(raw, a.options(cmd))
			}

			patched, slots := workflow.Apply(graph, p, nodes)
			a.log.Info("workflow patched", zap.Int("slots", len(slots)), zap.String("route", p.Diagnostics.Route))
			if reference != "" {
				if ids := workflow.SetReferenceImage(patched, reference); len(ids) == 0 {
					a.log.Warn("reference image loader not found", zap.String("image", reference))
				}
			}

			if output == "" {
				return export.WriteJSON(cmd.OutOrStdout(), patched)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			return writeAndClose(f, output, patched)
		},
	}

	cmd.Flags().StringVar(&workflowPath, "workflow", "", "API-format workflow JSON to patch")
	cmd.Flags().StringVar(&planPath, "plan", "", "saved plan JSON to apply instead of planning a report")
	cmd.Flags().StringVar(&reference, "reference", "", "uploaded reference image filename")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the patched workflow here instead of stdout")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a mapped node is missing or has the wrong class")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}

// writeAndClose writes v to wc as JSON and closes it. A close error is
// returned when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, name string, v any) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()
	return export.WriteJSON(wc, v)
}

// loadPlan reads a plan or an exported plan document and re-checks its
// invariants.
func loadPlan(path string) (plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("read plan: %w", err)
	}

	var doc struct {
		Plan *plan.Plan `json:"plan"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return plan.Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	var p plan.Plan
	if doc.Plan != nil {
		p = *doc.Plan
	} else if err := json.Unmarshal(data, &p); err != nil {
		return plan.Plan{}, fmt.Errorf("decode plan: %w", err)
	}

	p = p.Seal()
	if err := p.Validate(); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}
