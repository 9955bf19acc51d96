package models

import "time"

// Reliability says whether a DealResult carries a usable market comparison.
type Reliability string

const (
	Reliable                 Reliability = "reliable"
	InsufficientData         Reliability = "insufficient_data"
	ExcludedPartialOwnership Reliability = "excluded_partial_ownership"
	ExcludedNonResidential   Reliability = "excluded_non_residential"
)

// MatchType records which refinement produced a comparable set.
type MatchType string

const (
	MatchCity                 MatchType = "city"
	MatchNeighborhood         MatchType = "neighborhood"
	MatchRooms                MatchType = "rooms"
	MatchNeighborhoodAndRooms MatchType = "neighborhood+rooms"
)

// Rating is the human label attached to a reliable comparison.
type Rating string

const (
	RatingExcellent   Rating = "excellent"
	RatingGood        Rating = "good"
	RatingFair        Rating = "fair"
	RatingBelowMarket Rating = "below_market"
	RatingOverpriced  Rating = "overpriced"
)

// ComparableSet is the market evidence gathered for one auction property.
// It is built per scoring call and never persisted on its own.
type ComparableSet struct {
	Anchor    *ExtractedProperty
	Members   []*ExtractedProperty
	MatchType MatchType
}

// Count returns the number of comparables.
func (c *ComparableSet) Count() int { return len(c.Members) }

// ReferenceIDs returns the source IDs of the members, in member order.
func (c *ComparableSet) ReferenceIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.SourceID)
	}
	return ids
}

// DealResult is the outcome of scoring one auction property. BargainScore is
// set if and only if Reliability is Reliable; DeviationPct keeps its sign.
type DealResult struct {
	AuctionID                string       `json:"auction_id"`
	RunID                    string       `json:"run_id,omitempty"`
	City                     string       `json:"city"`
	Neighborhood             string       `json:"neighborhood,omitempty"`
	URL                      string       `json:"url,omitempty"`
	PriceEUR                 *float64     `json:"price_eur"`
	AreaSqm                  *float64     `json:"area_sqm"`
	Rooms                    *int         `json:"rooms"`
	PropertyType             PropertyType `json:"property_type"`
	Ownership                Ownership    `json:"ownership_fraction"`
	AuctionPricePerSqm       *float64     `json:"auction_price_per_sqm"`
	MarketReferenceIDs       []string     `json:"market_reference_ids"`
	ComparableCount          int          `json:"comparable_count"`
	MatchType                MatchType    `json:"match_type,omitempty"`
	MarketCentralPricePerSqm *float64     `json:"market_central_price_per_sqm"`
	DeviationPct             *float64     `json:"deviation_pct"`
	BargainScore             *int         `json:"bargain_score"`
	Rating                   Rating       `json:"rating,omitempty"`
	Stars                    int          `json:"stars,omitempty"`
	Reliability              Reliability  `json:"reliability"`
	Court                    string       `json:"court,omitempty"`
	AuctionStart             *time.Time   `json:"auction_start"`
	AuctionEnd               *time.Time   `json:"auction_end"`
	EvaluatedAt              time.Time    `json:"evaluated_at"`
}

// IsBargain reports whether a reliable result sits at least threshold percent
// below the market.
func (d *DealResult) IsBargain(thresholdPct float64) bool {
	return d.Reliability == Reliable && d.DeviationPct != nil && *d.DeviationPct >= thresholdPct
}
