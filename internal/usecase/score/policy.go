package score

import (
	"fmt"

	"github.com/textdup/sitescore/internal/domain"
)

// Policy selects how the per-pair similarities of a document reduce to
// its single score.
type Policy string

// Scoring policies. The pairwise measure is the longest common
// substring with another document, normalized by document length.
const (
	PolicyMaxPairwise  Policy = "max-pairwise"
	PolicyMeanPairwise Policy = "mean-pairwise"
	PolicyOverlapRatio Policy = "overlap-ratio"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = PolicyOverlapRatio

// DefaultMinMatch is the shortest match overlap-ratio counts toward
// coverage.
const DefaultMinMatch = 4

// ParsePolicy validates a policy name from config or flags. The empty
// string selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return DefaultPolicy, nil
	case PolicyMaxPairwise, PolicyMeanPairwise, PolicyOverlapRatio:
		return p, nil
	default:
		return "", domain.NewConfigError("policy", fmt.Sprintf("unknown scoring policy %q", s))
	}
}

// scoreMax is the largest shared-substring length over the other
// documents, normalized by document length.
func scoreMax(pair []int, docLen int) float64 {
	best := 0
	for _, l := range pair {
		if l > best {
			best = l
		}
	}
	return float64(best) / float64(docLen)
}

// scoreMean is the mean normalized shared-substring length over the
// other documents. The sum stays integral so the result is a fixed
// sequence of two divisions.
func scoreMean(pair []int, docLen int) float64 {
	if len(pair) < 2 {
		return 0
	}
	sum := 0
	for _, l := range pair {
		sum += l
	}
	return float64(sum) / float64(docLen) / float64(len(pair)-1)
}

// scoreOverlap is the fraction of the document covered by matches of at
// least minMatch bytes against any other document. ml is the
// MatchLengths array, one entry per byte position; overlapping match
// regions count once.
func scoreOverlap(ml []int, minMatch int) float64 {
	if len(ml) == 0 {
		return 0
	}
	eff := minMatch
	if eff > len(ml) {
		eff = len(ml)
	}
	if eff < 1 {
		eff = 1
	}

	covered, end := 0, 0
	for p, l := range ml {
		if l < eff {
			continue
		}
		right := p + l
		if right <= end {
			continue
		}
		from := p
		if end > from {
			from = end
		}
		covered += right - from
		end = right
	}
	return float64(covered) / float64(len(ml))
}
