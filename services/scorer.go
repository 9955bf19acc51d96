package services

import (
	"math"
	"sort"

	"auction-bargains/config"
	"auction-bargains/models"
)

// Scorer turns a comparable set into a DealResult.
type Scorer struct {
	minComparables int
	eligible       map[models.PropertyType]struct{}
}

// NewScorer creates a Scorer from the reliability floor and the eligible
// property types in s.
func NewScorer(s config.Scoring) *Scorer {
	eligible := make(map[models.PropertyType]struct{}, len(s.EligibleTypes))
	for _, t := range s.EligibleTypes {
		eligible[models.ParsePropertyType(t)] = struct{}{}
	}
	return &Scorer{minComparables: s.MinComparables, eligible: eligible}
}

// Score computes the market median, signed deviation and bargain score for
// set.Anchor. Partial interests, non-residential types and thin samples get
// a reliability state instead of a score.
//
// Score panics if set or set.Anchor is nil.
func (s *Scorer) Score(set *models.ComparableSet) models.DealResult {
	if set == nil || set.Anchor == nil {
		panic("services: Score called with nil comparable set or anchor")
	}
	a := set.Anchor
	res := models.DealResult{
		AuctionID:          a.SourceID,
		City:               a.City,
		Neighborhood:       a.Neighborhood,
		URL:                a.URL,
		PriceEUR:           a.PriceEUR,
		AreaSqm:            a.AreaSqm,
		Rooms:              a.Rooms,
		PropertyType:       a.PropertyType,
		Ownership:          a.Ownership,
		AuctionPricePerSqm: a.PricePerSqm,
		MarketReferenceIDs: []string{},
		Court:              a.Court,
		AuctionStart:       a.AuctionStart,
		AuctionEnd:         a.AuctionEnd,
	}

	if a.Ownership.IsPartial() {
		res.Reliability = models.ExcludedPartialOwnership
		return res
	}
	if _, ok := s.eligible[a.PropertyType]; !ok {
		res.Reliability = models.ExcludedNonResidential
		return res
	}

	res.MarketReferenceIDs = set.ReferenceIDs()
	res.ComparableCount = set.Count()
	res.MatchType = set.MatchType

	prices := make([]float64, 0, len(set.Members))
	for _, m := range set.Members {
		if m.PricePerSqm != nil {
			prices = append(prices, *m.PricePerSqm)
		}
	}
	if a.PricePerSqm == nil || len(prices) < s.minComparables {
		res.Reliability = models.InsufficientData
		return res
	}

	central := median(prices)
	if central <= 0 {
		res.Reliability = models.InsufficientData
		return res
	}
	deviation := roundTo((central-*a.PricePerSqm)/central*100, 2)
	score := int(math.Round(math.Max(0, math.Min(100, deviation))))
	central = roundTo(central, 2)

	res.MarketCentralPricePerSqm = &central
	res.DeviationPct = &deviation
	res.BargainScore = &score
	res.Rating = ratingFor(deviation)
	res.Stars = starsFor(deviation)
	res.Reliability = models.Reliable
	return res
}

// median of a non-empty slice; even-length input averages the middle pair.
// values is sorted in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func ratingFor(deviation float64) models.Rating {
	switch {
	case deviation >= 50:
		return models.RatingExcellent
	case deviation >= 30:
		return models.RatingGood
	case deviation >= 15:
		return models.RatingFair
	case deviation >= 0:
		return models.RatingBelowMarket
	}
	return models.RatingOverpriced
}

func starsFor(deviation float64) int {
	switch {
	case deviation >= 40:
		return 5
	case deviation >= 30:
		return 4
	case deviation >= 20:
		return 3
	case deviation >= 10:
		return 2
	}
	return 1
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
