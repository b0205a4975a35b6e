package report

import (
	"maps"
	"strings"
)

// majorityKeys are categorical fields merged by majority vote.
var majorityKeys = []string{KeyEntityType, KeyEntityExamples, KeyLineQuality, KeyComplexity}

// maxRiskKeys are risk fields merged by taking the most severe value.
var maxRiskKeys = []string{KeyConstructionLines, KeyBrokenLines, KeyAnatomyRisk}

// listKeys are free-text lists merged as an ordered, de-duplicated union.
var listKeys = []string{KeyFixes, KeyRemoves, KeyPreserve, KeyNotes, KeyIssues}

// meanScoreKeys are reference similarity scores averaged across keyframes.
var meanScoreKeys = []string{KeyReferenceFinalScore, KeyReferenceStyleDistance}

// maxScoreKeys are reference conflict scores merged by maximum.
var maxScoreKeys = []string{
	KeyReferenceConflictPenalty,
	KeyReferenceTextConflict,
	KeyReferenceImageConflict,
	KeyReferenceAccessoryMismatch,
}

var riskOrder = map[string]int{LevelLow: 0, LevelMedium: 1, LevelHigh: 2}

// Merge combines keyframe reports from a frame sequence into one
// sequence-level report. The first report seeds the result; categorical
// fields are decided by majority vote (earliest value wins ties), risk
// fields by the most severe value, and conflict scores by their maximum so
// the director stays conservative across the whole sequence.
func Merge(reports []map[string]any) map[string]any {
	if len(reports) == 0 {
		return map[string]any{}
	}
	merged := maps.Clone(reports[0])
	if merged == nil {
		merged = map[string]any{}
	}

	for _, key := range majorityKeys {
		if v, ok := majority(reports, key); ok {
			merged[key] = v
		}
	}

	for _, key := range maxRiskKeys {
		best, bestRank := "", -1
		for _, r := range reports {
			v := strings.ToLower(strings.TrimSpace(toString(r[key])))
			if v == "" {
				continue
			}
			if rank := riskOrder[v]; rank > bestRank {
				best, bestRank = v, rank
			}
		}
		if best != "" {
			merged[key] = best
		}
	}

	for _, key := range listKeys {
		var all []string
		for _, r := range reports {
			all = append(all, toStrings(r[key])...)
		}
		merged[key] = dedupe(all)
	}

	var subjects []string
	for _, r := range reports {
		for _, tag := range strings.Split(toString(r[KeySubjectDetails]), ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				subjects = append(subjects, tag)
			}
		}
	}
	if len(subjects) > 0 {
		merged[KeySubjectDetails] = strings.Join(dedupe(subjects), ", ")
	}

	for _, r := range reports {
		if sub := strings.TrimSpace(toString(r[KeyLowConstructionSublevel])); sub != "" {
			merged[KeyLowConstructionSublevel] = sub
			break
		}
	}

	mergeScores(merged, reports)
	return merged
}

func mergeScores(merged map[string]any, reports []map[string]any) {
	for _, key := range meanScoreKeys {
		sum, count := 0.0, 0
		for _, r := range reports {
			if v, ok := lookupFloat(r, key); ok {
				sum += v
				count++
			}
		}
		if count > 0 {
			merged[key] = sum / float64(count)
		}
	}

	for _, key := range maxScoreKeys {
		best, found := 0.0, false
		for _, r := range reports {
			if v, ok := lookupFloat(r, key); ok && (!found || v > best) {
				best, found = v, true
			}
		}
		if found {
			merged[key] = best
		}
	}

	colored := false
	for _, r := range reports {
		colored = colored || toBool(r[KeyReferenceIsColored])
	}
	if _, ok := merged[KeyReferenceIsColored]; ok || colored {
		merged[KeyReferenceIsColored] = colored
	}
}

// majority returns the most common value of key, compared by its string
// form so list values such as entity_examples vote too. The earliest value
// wins ties and is returned as it appeared in its report.
func majority(reports []map[string]any, key string) (any, bool) {
	counts := make(map[string]int)
	first := make(map[string]any)
	var order []string
	for _, r := range reports {
		v := strings.Join(toStrings(r[key]), ",")
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
			first[v] = r[key]
		}
		counts[v]++
	}

	best := ""
	for _, v := range order {
		if counts[v] > counts[best] {
			best = v
		}
	}
	if best == "" {
		return nil, false
	}
	if s, ok := first[best].(string); ok {
		return strings.TrimSpace(s), true
	}
	return first[best], true
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// KeyframeIndices picks the first, middle and last frame of a sequence of n
// frames, without duplicates.
func KeyframeIndices(n int) []int {
	switch {
	case n <= 0:
		return nil
	case n <= 3:
		idx := make([]int, n)
		for i := range n {
			idx[i] = i
		}
		return idx
	default:
		return []int{0, n / 2, n - 1}
	}
}
