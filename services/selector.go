package services

import (
	"math"
	"sort"

	"auction-bargains/config"
	"auction-bargains/models"
)

// neighborhoodMatchThreshold is the NeighborhoodSimilarity at which two
// districts count as the same.
const neighborhoodMatchThreshold = 0.8

// Selector picks the market listings an auction property is compared with.
type Selector struct {
	tolerance      float64
	minComparables int
	bandMin        float64
	bandMax        float64
}

// NewSelector creates a Selector from the comparison settings in s.
func NewSelector(s config.Scoring) *Selector {
	return &Selector{
		tolerance:      s.SizeTolerancePct,
		minComparables: s.MinComparables,
		bandMin:        s.PricePerSqmMin,
		bandMax:        s.PricePerSqmMax,
	}
}

// Select filters corpus down to the comparables of anchor. Filters run in
// order: missing price and area, partial ownership, type group, price per m²
// band, city, area tolerance. The result is then narrowed to the anchor's
// neighborhood and room count, each only when the narrower set still holds
// at least the minimum number of comparables. Members are deduplicated by
// source ID and sorted by it, so the corpus order does not matter.
//
// Select panics if anchor is nil.
func (s *Selector) Select(anchor *models.ExtractedProperty, corpus []*models.ExtractedProperty) *models.ComparableSet {
	if anchor == nil {
		panic("services: Select called with nil anchor")
	}
	set := &models.ComparableSet{Anchor: anchor, MatchType: models.MatchCity}

	cityKey := CityKey(anchor.City)
	if cityKey == "" || anchor.AreaSqm == nil || *anchor.AreaSqm <= 0 {
		return set
	}
	group := typeGroup(anchor.PropertyType)
	window := *anchor.AreaSqm * s.tolerance

	var members []*models.ExtractedProperty
	for _, c := range corpus {
		if c == nil || c == anchor || (anchor.SourceID != "" && c.SourceID == anchor.SourceID) {
			continue
		}
		if c.PriceEUR == nil && c.AreaSqm == nil {
			continue
		}
		if c.Ownership.IsPartial() {
			continue
		}
		if typeGroup(c.PropertyType) != group {
			continue
		}
		if c.PricePerSqm == nil || *c.PricePerSqm < s.bandMin || *c.PricePerSqm > s.bandMax {
			continue
		}
		if CityKey(c.City) != cityKey {
			continue
		}
		if c.AreaSqm == nil || math.Abs(*c.AreaSqm-*anchor.AreaSqm) > window {
			continue
		}
		members = append(members, c)
	}
	members = dedupeBySourceID(members)

	if anchor.Neighborhood != "" {
		sub := filterMembers(members, func(c *models.ExtractedProperty) bool {
			return NeighborhoodSimilarity(anchor.Neighborhood, c.Neighborhood) >= neighborhoodMatchThreshold
		})
		if len(sub) >= s.minComparables {
			members = sub
			set.MatchType = models.MatchNeighborhood
		}
	}
	if anchor.Rooms != nil {
		sub := filterMembers(members, func(c *models.ExtractedProperty) bool {
			return c.Rooms != nil && *c.Rooms == *anchor.Rooms
		})
		if len(sub) >= s.minComparables {
			members = sub
			if set.MatchType == models.MatchNeighborhood {
				set.MatchType = models.MatchNeighborhoodAndRooms
			} else {
				set.MatchType = models.MatchRooms
			}
		}
	}

	set.Members = members
	return set
}

// typeGroup maps property types that are priced alike onto one group.
func typeGroup(t models.PropertyType) models.PropertyType {
	switch t {
	case models.TypeApartment, models.TypeStudio:
		return models.TypeApartment
	case models.TypeHouse, models.TypeVilla:
		return models.TypeHouse
	}
	return t
}

// dedupeBySourceID sorts by source ID and keeps one listing per ID. Among
// duplicates the one with the lowest price per m² is kept so the outcome does
// not depend on input order. Listings without an ID are all kept.
func dedupeBySourceID(in []*models.ExtractedProperty) []*models.ExtractedProperty {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].SourceID != in[j].SourceID {
			return in[i].SourceID < in[j].SourceID
		}
		return *in[i].PricePerSqm < *in[j].PricePerSqm
	})
	var out []*models.ExtractedProperty
	for _, c := range in {
		if c.SourceID != "" && len(out) > 0 && out[len(out)-1].SourceID == c.SourceID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func filterMembers(in []*models.ExtractedProperty, keep func(*models.ExtractedProperty) bool) []*models.ExtractedProperty {
	var out []*models.ExtractedProperty
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
