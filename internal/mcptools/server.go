package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPlanMCPServer creates an MCP server with the 3 planning tools registered:
// create_generation_plan, patch_workflow and describe_routes.
func NewPlanMCPServer(svc *PlanService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "inkdirector",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_generation_plan",
		Description: "Turn a line-art analysis report into a bounded two-stage generation plan (sampler, ControlNet and IP-Adapter settings) with diagnostics. Accepts a decoded report, raw response text or a frame sequence.",
	}, svc.CreatePlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "patch_workflow",
		Description: "Write a generation plan into a copy of an API-format workflow graph. Returns the patched graph and the slots that were written.",
	}, svc.PatchWorkflow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_routes",
		Description: "List the planner's routing table in priority order, the known phase transitions and a Mermaid diagram of the flow.",
	}, svc.DescribeRoutes)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
