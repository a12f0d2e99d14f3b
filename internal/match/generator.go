package match

import (
	"github.com/klu-lostfound/internal/debug"
)

// Pair is one lost/found combination queued for scoring
type Pair struct {
	Lost  Report
	Found Report
}

// PairSet is the outcome of pair generation
type PairSet struct {
	Pairs   []Pair
	Skipped int  // pairs excluded because both reports share a reporter
	Capped  bool // generation stopped at the comparison ceiling
}

// GeneratePairs enumerates lost-major every pair of reports filed by
// different reporters, stopping once maxPairs pairs are queued (0 means no cap)
func GeneratePairs(localDebug bool, lost, found []Report, maxPairs int) PairSet {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	capacity := len(lost) * len(found)
	if maxPairs > 0 && capacity > maxPairs {
		capacity = maxPairs
	}
	set := PairSet{Pairs: make([]Pair, 0, capacity)}

	for _, l := range lost {
		for _, f := range found {
			if SameReporter(l, f) {
				set.Skipped++
				continue
			}
			if maxPairs > 0 && len(set.Pairs) >= maxPairs {
				set.Capped = true
				debug.DebugOutput(localDebug, "Comparison cap of %d reached", maxPairs)
				return set
			}
			set.Pairs = append(set.Pairs, Pair{Lost: l, Found: f})
		}
	}

	debug.DebugOutput(localDebug, "Generated %d pairs, skipped %d same-reporter pairs", len(set.Pairs), set.Skipped)
	return set
}

// CandidatesFor returns the active reports of the type opposite to report
func CandidatesFor(report Report, pool []Report) []Report {
	want := report.Type.Opposite()
	out := make([]Report, 0, len(pool))
	for _, r := range pool {
		if r.Type == want && r.Active() && r.ID != report.ID {
			out = append(out, r)
		}
	}
	return out
}
