package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/plan"
)

var builderLabels = map[plan.Source]string{
	plan.SourceFixed:  "fixed override",
	plan.SourceMatrix: "matrix baseline + rules",
}

// GenerateMermaid produces a Mermaid flowchart of the routing table. Routes
// are tried top to bottom and each "no" edge falls through to the next one.
// Adaptive routes pass their plan through the controller before the shared
// reference and issue stages.
func GenerateMermaid(routes []director.Route) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if len(routes) == 0 {
		return sb.String()
	}
	sb.WriteString("  IN([\"report\"]) --> R0\n")

	// Builder nodes in first-use order.
	var builders []string
	next := map[string]string{}
	for i, rt := range routes {
		id := fmt.Sprintf("R%d", i)
		sb.WriteString(fmt.Sprintf("  %s{\"%s\"}\n", id, escape(rt.Name)))

		target, then := "B_"+string(rt.Source), "REF"
		if rt.Adaptive {
			target, then = "BA_"+string(rt.Source), "AC"
		}
		if _, ok := next[target]; !ok {
			builders = append(builders, target)
			next[target] = then
		}
		sb.WriteString(fmt.Sprintf("  %s -->|yes| %s\n", id, target))
		if i+1 < len(routes) {
			sb.WriteString(fmt.Sprintf("  %s -->|no| R%d\n", id, i+1))
		}
	}

	for _, b := range builders {
		source := plan.Source(b[strings.Index(b, "_")+1:])
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"] --> %s\n", b, builderLabels[source], next[b]))
	}
	sb.WriteString("  AC[\"adaptive controller\"] --> REF\n")
	sb.WriteString("  REF[\"reference adjuster\"] --> ISS[\"issue layer\"]\n")
	sb.WriteString("  ISS --> OUT([\"plan\"])\n")
	return sb.String()
}

// escape makes a label safe inside a quoted Mermaid node.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
