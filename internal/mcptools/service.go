package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/export"
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
	"github.com/dusk-indust/inkdirector/internal/workflow"
)

// DefaultCacheTTL is how long computed plans are reused.
const DefaultCacheTTL = 10 * time.Minute

// ErrNoReport is returned when a plan request carries no report.
var ErrNoReport = errors.New("mcptools: no report given")

// ServiceConfig configures a PlanService.
type ServiceConfig struct {
	Defaults director.Options
	Nodes    workflow.NodeMap
	CacheTTL time.Duration
}

// PlanService handles MCP tool calls for the planning server mode. It wraps
// a Director and memoises plans by input fingerprint.
type PlanService struct {
	director *director.Director
	cfg      ServiceConfig
	plans    *cache.Cache
	log      *zap.Logger
}

// NewPlanService creates a PlanService. A zero CacheTTL uses
// DefaultCacheTTL; a nil node map uses workflow.DefaultNodeMap.
func NewPlanService(d *director.Director, cfg ServiceConfig, log *zap.Logger) *PlanService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Nodes == nil {
		cfg.Nodes = workflow.DefaultNodeMap()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanService{
		director: d,
		cfg:      cfg,
		plans:    cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		log:      log,
	}
}

// CreatePlan normalizes the given report and returns its generation plan.
func (s *PlanService) CreatePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreatePlanInput,
) (*mcp.CallToolResult, CreatePlanOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, CreatePlanOutput{}, err
	}
	opts := s.options(input.Options)

	var (
		id  uuid.UUID
		err error
		fn  func() plan.Plan
	)
	switch {
	case input.Report != nil:
		id, err = export.Fingerprint(input.Report, opts)
		fn = func() plan.Plan { return s.director.Plan(input.Report, opts) }
	case strings.TrimSpace(input.ReportText) != "":
		raw, decodeErr := report.Decode([]byte(input.ReportText))
		if decodeErr != nil {
			return nil, CreatePlanOutput{}, fmt.Errorf("decode report: %w", decodeErr)
		}
		id, err = export.Fingerprint(raw, opts)
		fn = func() plan.Plan { return s.director.Plan(raw, opts) }
	case len(input.Frames) > 0:
		id, err = export.SequenceFingerprint(input.Frames, opts)
		fn = func() plan.Plan { return s.director.PlanSequence(input.Frames, opts) }
	default:
		return nil, CreatePlanOutput{}, ErrNoReport
	}
	if err != nil {
		return nil, CreatePlanOutput{}, err
	}
	p, cached := s.lookup(id.String(), fn)

	return nil, CreatePlanOutput{
		ID:     id.String(),
		Route:  p.Diagnostics.Route,
		Cached: cached,
		Plan:   p,
	}, nil
}

// PatchWorkflow writes a plan into a copy of the given workflow graph.
func (s *PlanService) PatchWorkflow(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PatchWorkflowInput,
) (*mcp.CallToolResult, PatchWorkflowOutput, error) {
	if len(input.Workflow) == 0 {
		return nil, PatchWorkflowOutput{}, workflow.ErrEmptyGraph
	}
	nodes, err := s.cfg.Nodes.With(input.Nodes)
	if err != nil {
		return nil, PatchWorkflowOutput{}, err
	}
	if input.Strict {
		if err := workflow.Validate(input.Workflow, nodes); err != nil {
			return nil, PatchWorkflowOutput{}, err
		}
	}

	var p plan.Plan
	switch {
	case input.Plan != nil:
		p = input.Plan.Seal()
		if err := p.Validate(); err != nil {
			return nil, PatchWorkflowOutput{}, err
		}
	case input.Report != nil:
		_, out, err := s.CreatePlan(ctx, req, CreatePlanInput{Report: input.Report, Options: input.Options})
		if err != nil {
			return nil, PatchWorkflowOutput{}, err
		}
		p = out.Plan
	default:
		return nil, PatchWorkflowOutput{}, ErrNoReport
	}

	graph, patched := workflow.Apply(input.Workflow, p, nodes)
	out := PatchWorkflowOutput{Workflow: graph, Plan: p}
	for _, slot := range patched {
		out.Patched = append(out.Patched, string(slot))
	}
	if input.ReferenceImage != "" {
		out.ReferenceLoaders = workflow.SetReferenceImage(graph, input.ReferenceImage)
		if len(out.ReferenceLoaders) == 0 {
			s.log.Warn("reference image loader not found", zap.String("image", input.ReferenceImage))
		}
	}
	s.log.Debug("workflow patched", zap.Strings("slots", out.Patched))
	return nil, out, nil
}

// DescribeRoutes lists the routing table in priority order.
func (s *PlanService) DescribeRoutes(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ DescribeRoutesInput,
) (*mcp.CallToolResult, DescribeRoutesOutput, error) {
	routes := director.Routes()
	out := DescribeRoutesOutput{
		Transitions: director.Transitions(),
		Mermaid:     export.GenerateMermaid(routes),
	}
	for i, rt := range routes {
		out.Routes = append(out.Routes, RouteSummary{
			Priority:    i + 1,
			Name:        rt.Name,
			Description: rt.Description,
			Source:      string(rt.Source),
			Adaptive:    rt.Adaptive,
		})
	}
	return nil, out, nil
}

// lookup returns the cached plan for key or computes and stores it.
func (s *PlanService) lookup(key string, compute func() plan.Plan) (plan.Plan, bool) {
	if v, ok := s.plans.Get(key); ok {
		s.log.Debug("plan cache hit", zap.String("id", key))
		return v.(plan.Plan).Clone(), true
	}
	p := compute()
	s.plans.SetDefault(key, p.Clone())
	return p, false
}

// options overlays the per-call overrides on the server defaults.
func (s *PlanService) options(o PlanOptions) director.Options {
	opts := s.cfg.Defaults
	if o.SourcePhase != "" {
		opts.SourcePhase = o.SourcePhase
	}
	if o.DestPhase != "" {
		opts.DestPhase = o.DestPhase
	}
	if o.PoseLock != nil {
		opts.PoseLock = *o.PoseLock
	}
	if o.StyleLock != nil {
		opts.StyleLock = *o.StyleLock
	}
	return opts
}
