package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/plan"
)

// namespace scopes plan fingerprints.
var namespace = uuid.MustParse("5b0e6f3c-7d1a-4c2e-9a57-1f1f3e8d2b40")

// PlanExport is the top-level JSON export structure for one planned frame.
type PlanExport struct {
	ID         string           `json:"id"`
	ExportedAt string           `json:"exportedAt"`
	Route      string           `json:"route"`
	Transition string           `json:"transition,omitempty"`
	Options    director.Options `json:"options"`
	Plan       plan.Plan        `json:"plan"`
}

// Fingerprint derives a stable name-based UUID from a raw report and the
// planning options. Identical inputs always map to the same id.
func Fingerprint(raw map[string]any, opts director.Options) (uuid.UUID, error) {
	return fingerprint(struct {
		Report  map[string]any   `json:"report"`
		Options director.Options `json:"options"`
	}{raw, opts})
}

// SequenceFingerprint is Fingerprint for a frame sequence. A sequence never
// shares an id with a single report, whatever keys that report holds.
func SequenceFingerprint(frames []map[string]any, opts director.Options) (uuid.UUID, error) {
	return fingerprint(struct {
		Frames  []map[string]any `json:"frames"`
		Options director.Options `json:"options"`
	}{frames, opts})
}

func fingerprint(doc any) (uuid.UUID, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("export: fingerprint: %w", err)
	}
	return uuid.NewSHA1(namespace, data), nil
}

// ExportPlan wraps p with its fingerprint and export time.
func ExportPlan(raw map[string]any, opts director.Options, p plan.Plan) (*PlanExport, error) {
	id, err := Fingerprint(raw, opts)
	if err != nil {
		return nil, err
	}
	return newExport(id, opts, p), nil
}

// ExportSequence wraps a plan built from frames with the sequence
// fingerprint and export time.
func ExportSequence(frames []map[string]any, opts director.Options, p plan.Plan) (*PlanExport, error) {
	id, err := SequenceFingerprint(frames, opts)
	if err != nil {
		return nil, err
	}
	return newExport(id, opts, p), nil
}

func newExport(id uuid.UUID, opts director.Options, p plan.Plan) *PlanExport {
	return &PlanExport{
		ID:         id.String(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Route:      p.Diagnostics.Route,
		Transition: p.Diagnostics.Labels["transition"],
		Options:    opts,
		Plan:       p,
	}
}

// WriteJSON writes v to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: marshal JSON: %w", err)
	}
	return nil
}
