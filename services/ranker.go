package services

import (
	"sort"

	"auction-bargains/models"
)

// Ranker orders deal results for presentation.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker { return &Ranker{} }

// Rank keeps the best-ranked result per auction ID and sorts the survivors:
// reliable first, then deviation descending with missing deviations last,
// then comparable count descending, then auction ID.
func (r *Ranker) Rank(results []models.DealResult) []models.DealResult {
	best := make(map[string]int, len(results))
	out := make([]models.DealResult, 0, len(results))
	for _, res := range results {
		if i, seen := best[res.AuctionID]; seen {
			if rankedBefore(&res, &out[i]) {
				out[i] = res
			}
			continue
		}
		best[res.AuctionID] = len(out)
		out = append(out, res)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rankedBefore(&out[i], &out[j])
	})
	return out
}

func rankedBefore(a, b *models.DealResult) bool {
	ar, br := a.Reliability == models.Reliable, b.Reliability == models.Reliable
	if ar != br {
		return ar
	}
	switch {
	case a.DeviationPct != nil && b.DeviationPct == nil:
		return true
	case a.DeviationPct == nil && b.DeviationPct != nil:
		return false
	case a.DeviationPct != nil && *a.DeviationPct != *b.DeviationPct:
		return *a.DeviationPct > *b.DeviationPct
	}
	if a.ComparableCount != b.ComparableCount {
		return a.ComparableCount > b.ComparableCount
	}
	return a.AuctionID < b.AuctionID
}
