package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/export"
)

func newRoutesCmd() *cobra.Command {
	var mermaid bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the routing table in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes := director.Routes()
			if mermaid {
				fmt.Fprint(cmd.OutOrStdout(), export.GenerateMermaid(routes))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tROUTE\tBUILDER\tADAPTIVE\tDESCRIPTION")
			for i, rt := range routes {
				adaptive := "-"
				if rt.Adaptive {
					adaptive = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, rt.Name, rt.Source, adaptive, rt.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "print a Mermaid flowchart instead of a table")
	return cmd
}
