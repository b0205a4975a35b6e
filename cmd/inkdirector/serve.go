package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/inkdirector/internal/mcptools"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run as an MCP server exposing the planning tools",
		Long: `Serves create_generation_plan, patch_workflow and describe_routes over
stdio, or over streamable HTTP when --http is set. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			nodes, err := a.nodeMap()
			if err != nil {
				return err
			}
			svc := mcptools.NewPlanService(a.director(cmd), mcptools.ServiceConfig{
				Defaults: a.options(cmd),
				Nodes:    nodes,
				CacheTTL: a.cfg.CacheTTL,
			}, a.log)
			server := mcptools.NewPlanMCPServer(svc)

			if addr != "" {
				a.log.Info("serving MCP over HTTP", zap.String("addr", addr))
				return mcptools.RunHTTP(ctx, server, addr)
			}
			a.log.Info("serving MCP over stdio")
			return mcptools.RunStdio(ctx, server)
		},
	}

	cmd.Flags().StringVar(&addr, "http", "", "listen address for streamable HTTP, e.g. :8080")
	return cmd
}
