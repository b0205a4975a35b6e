// Package director turns a visual-analysis report into a bounded generation
// plan. A report is normalized, routed through an ordered strategy table to a
// base plan, and then passed through the adaptive controller (single_complex
// routes), the reference correlation adjuster and the issue override layer.
package director

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

// Options are the per-request settings chosen by the operator.
type Options struct {
	// SourcePhase and DestPhase name the transition, e.g. "Roughs" and
	// "CleanUp". Empty values take the defaults.
	SourcePhase string `json:"source_phase"`
	DestPhase   string `json:"dest_phase"`

	// PoseLock forces the pose conditioning high.
	PoseLock bool `json:"pose_lock"`

	// StyleLock bounds the stage-1 adapter weight.
	StyleLock bool `json:"style_lock"`
}

// DefaultOptions returns the operator defaults: Roughs to CleanUp with pose
// and style locked.
func DefaultOptions() Options {
	return Options{
		SourcePhase: PhaseRoughs,
		DestPhase:   PhaseCleanUp,
		PoseLock:    true,
		StyleLock:   true,
	}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SourcePhase) == "" {
		o.SourcePhase = PhaseRoughs
	}
	if strings.TrimSpace(o.DestPhase) == "" {
		o.DestPhase = PhaseCleanUp
	}
	return o
}

// Config configures a Director.
type Config struct {
	// Workers bounds PlanBatch concurrency. Zero means unbounded.
	Workers int
}

// input is everything a stage may read. It is built once per request.
type input struct {
	report report.Normalized
	opts   Options
	text   string

	// transition is the requested key; row is the resolved matrix row.
	transition string
	row        Row
	known      bool
}

func newInput(rep report.Normalized, opts Options) input {
	opts = opts.withDefaults()
	transition := Transition(opts.SourcePhase, opts.DestPhase)
	row, known := LookupRow(transition)
	return input{
		report:     rep,
		opts:       opts,
		text:       rep.FreeText(),
		transition: transition,
		row:        row,
		known:      known,
	}
}

// stage is one Plan -> Plan transformation after routing.
type stage struct {
	name  string
	apply func(plan.Plan, input) plan.Plan
}

// Director builds generation plans. It holds no per-request state and is
// safe for concurrent use.
type Director struct {
	cfg Config
	log *zap.Logger

	adaptive stage
	post     []stage
}

// New creates a Director. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Director {
	if log == nil {
		log = zap.NewNop()
	}
	return &Director{
		cfg:      cfg,
		log:      log,
		adaptive: stage{name: "adaptive", apply: adaptive},
		post: []stage{
			{name: "reference", apply: adjustReference},
			{name: "issues", apply: applyIssueLayer},
		},
	}
}

// Plan builds the plan for one raw analysis report. It never fails: defects
// in the report are defaulted and a failing stage is skipped.
func (d *Director) Plan(raw map[string]any, opts Options) plan.Plan {
	in := newInput(report.Normalize(raw), opts)
	rt := selectRoute(in)

	p := rt.build(in)
	p.Diagnostics.Route = rt.Name
	p.Diagnostics.SetLabel("transition", in.row.Transition())
	if !in.known {
		p.Diagnostics.SetLabel("transition_requested", in.transition)
		p.Diagnostics.AddClamp("matrix.unknown_transition")
	}
	p = p.Seal()

	d.log.Debug("route selected",
		zap.String("route", rt.Name),
		zap.String("source", string(p.Source)),
		zap.String("transition", in.transition),
		zap.Bool("adaptive", rt.Adaptive),
	)

	if rt.Adaptive {
		p = d.run(d.adaptive, p, in)
	}
	for _, st := range d.post {
		p = d.run(st, p, in)
	}
	return p
}

// run applies st to a copy of p. A panic or an invalid result keeps p and
// records the failure.
func (d *Director) run(st stage, p plan.Plan, in input) (out plan.Plan) {
	defer func() {
		if r := recover(); r != nil {
			out = d.fallback(st.name, p, fmt.Errorf("panic: %v", r))
		}
	}()

	next := st.apply(p.Clone(), in).Seal()
	if err := next.Validate(); err != nil {
		return d.fallback(st.name, p, err)
	}
	return next
}

func (d *Director) fallback(name string, p plan.Plan, err error) plan.Plan {
	d.log.Warn("stage failed, keeping previous plan",
		zap.String("stage", name),
		zap.String("route", p.Diagnostics.Route),
		zap.Error(err),
	)
	q := p.Clone()
	q.Diagnostics.AddFallback(name, err)
	return q
}

// PlanBatch plans every report concurrently. Results keep the input order.
// Cancelling ctx stops reports that have not started yet.
func (d *Director) PlanBatch(ctx context.Context, reports []map[string]any, opts Options) ([]plan.Plan, error) {
	plans := make([]plan.Plan, len(reports))
	g, gctx := errgroup.WithContext(ctx)
	if d.cfg.Workers > 0 {
		g.SetLimit(d.cfg.Workers)
	}

	for i, raw := range reports {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plans[i] = d.Plan(raw, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("director: plan batch: %w", err)
	}
	return plans, nil
}

// PlanSequence plans a frame sequence from its first, middle and last frame
// reports merged into one.
func (d *Director) PlanSequence(frames []map[string]any, opts Options) plan.Plan {
	idx := report.KeyframeIndices(len(frames))
	keyframes := make([]map[string]any, 0, len(idx))
	labels := make([]string, 0, len(idx))
	for _, i := range idx {
		keyframes = append(keyframes, frames[i])
		labels = append(labels, strconv.Itoa(i))
	}

	p := d.Plan(report.Merge(keyframes), opts)
	p.Diagnostics.SetLabel("keyframes", strings.Join(labels, ","))
	return p
}
