package services

import (
	"math/rand"
	"reflect"
	"testing"

	"auction-bargains/models"
)

func anchorApartment(area float64) *models.ExtractedProperty {
	a := listing("bcpea-1", "София", area, 1000)
	a.Kind = models.KindAuction
	return a
}

func TestSelectFilters(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := anchorApartment(80)

	partial := listing("m-partial", "София", 80, 1500)
	partial.Ownership = models.OwnershipHalf
	house := listing("m-house", "София", 80, 1500)
	house.PropertyType = models.TypeHouse
	empty := &models.ExtractedProperty{SourceID: "m-empty", City: "София", PropertyType: models.TypeApartment}
	studio := listing("m-studio", "София", 75, 1500)
	studio.PropertyType = models.TypeStudio

	corpus := []*models.ExtractedProperty{
		anchor,
		listing("bcpea-1", "София", 80, 1500),
		listing("m-ok", "гр. София", 80, 1500),
		listing("m-edge-high", "София", 92, 1500),
		listing("m-edge-low", "София", 68, 1500),
		listing("m-too-big", "София", 93, 1500),
		listing("m-cheap", "София", 80, 150),
		listing("m-dear", "София", 80, 6000),
		listing("m-varna", "Варна", 80, 1500),
		partial, house, empty, studio, nil,
	}

	set := s.Select(anchor, corpus)
	want := []string{"m-edge-high", "m-edge-low", "m-ok", "m-studio"}
	if got := set.ReferenceIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v; want %v", got, want)
	}
	if set.MatchType != models.MatchCity {
		t.Errorf("match type = %q; want city", set.MatchType)
	}
}

func TestSelectTooFewComparablesIsInsufficient(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := anchorApartment(80)
	corpus := []*models.ExtractedProperty{
		listing("m-1", "София", 78, 1500),
		listing("m-2", "София", 84, 1700),
		listing("m-3", "Пловдив", 80, 1100),
	}

	res := NewScorer(testScoring()).Score(s.Select(anchor, corpus))
	if res.Reliability != models.InsufficientData {
		t.Errorf("reliability = %q; want insufficient_data", res.Reliability)
	}
	if res.BargainScore != nil {
		t.Errorf("bargain_score = %d; want nil", *res.BargainScore)
	}
	if res.ComparableCount != 2 {
		t.Errorf("comparable_count = %d; want 2", res.ComparableCount)
	}
}

func TestSelectIsOrderIndependent(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := withRooms(anchorApartment(70), 2)

	var corpus []*models.ExtractedProperty
	for i, area := range []float64{62, 65, 70, 71, 75, 79, 81, 50, 90} {
		c := listing(string(rune('a'+i))+"-imot", "София", area, 1200+float64(i)*50)
		corpus = append(corpus, withRooms(c, 2+i%2))
	}
	corpus = append(corpus, listing("c-imot", "София", 70, 1900)) // duplicate source_id

	want := s.Select(anchor, corpus).ReferenceIDs()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*models.ExtractedProperty(nil), corpus...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := s.Select(anchor, shuffled).ReferenceIDs(); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d: members = %v; want %v", i, got, want)
		}
	}
}

func TestSelectDeduplicatesBySourceID(t *testing.T) {
	s := NewSelector(testScoring())
	corpus := []*models.ExtractedProperty{
		listing("m-1", "София", 80, 1500),
		listing("m-1", "София", 80, 1400),
		listing("m-2", "София", 80, 1600),
	}

	set := s.Select(anchorApartment(80), corpus)
	if set.Count() != 2 {
		t.Fatalf("count = %d; want 2", set.Count())
	}
	if *set.Members[0].PricePerSqm != 1400 {
		t.Errorf("kept duplicate price_per_sqm = %v; want 1400", *set.Members[0].PricePerSqm)
	}
}

func TestSelectKeepsListingsWithoutSourceID(t *testing.T) {
	s := NewSelector(testScoring())
	corpus := []*models.ExtractedProperty{
		listing("", "София", 80, 1500),
		listing("", "София", 80, 1400),
		listing("", "София", 80, 1600),
		listing("", "София", 80, 1450),
	}

	set := s.Select(anchorApartment(80), corpus)
	if set.Count() != 4 {
		t.Errorf("count = %d; want 4", set.Count())
	}
}

func TestSelectRoomRefinement(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := withRooms(anchorApartment(80), 3)

	tests := []struct {
		name      string
		rooms     []int
		wantCount int
		wantMatch models.MatchType
	}{
		{"enough same-room listings", []int{3, 3, 3, 2, 4}, 3, models.MatchRooms},
		{"falls back below floor", []int{3, 3, 2, 2, 4}, 5, models.MatchCity},
	}

	for _, tt := range tests {
		var corpus []*models.ExtractedProperty
		for i, r := range tt.rooms {
			corpus = append(corpus, withRooms(listing(string(rune('a'+i)), "София", 80, 1500), r))
		}
		set := s.Select(anchor, corpus)
		if set.Count() != tt.wantCount || set.MatchType != tt.wantMatch {
			t.Errorf("%s: count=%d match=%q; want count=%d match=%q",
				tt.name, set.Count(), set.MatchType, tt.wantCount, tt.wantMatch)
		}
	}
}

func TestSelectNeighborhoodThenRooms(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := withNeighborhood(withRooms(anchorApartment(80), 2), "Младост 1")

	corpus := []*models.ExtractedProperty{
		withNeighborhood(withRooms(listing("a", "София", 80, 1500), 2), "Младост"),
		withNeighborhood(withRooms(listing("b", "София", 80, 1500), 2), "mladost 1"),
		withNeighborhood(withRooms(listing("c", "София", 80, 1500), 2), "ж.к. Младост 1"),
		withNeighborhood(withRooms(listing("d", "София", 80, 1500), 3), "Младост 1"),
		withNeighborhood(withRooms(listing("e", "София", 80, 1500), 2), "Лозенец"),
		withNeighborhood(withRooms(listing("f", "София", 80, 1500), 2), "Люлин"),
	}

	set := s.Select(anchor, corpus)
	want := []string{"a", "b", "c"}
	if got := set.ReferenceIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v; want %v", got, want)
	}
	if set.MatchType != models.MatchNeighborhoodAndRooms {
		t.Errorf("match type = %q; want neighborhood+rooms", set.MatchType)
	}
}

func TestSelectAnchorWithoutAreaHasNoComparables(t *testing.T) {
	s := NewSelector(testScoring())
	anchor := &models.ExtractedProperty{SourceID: "bcpea-9", City: "София", PropertyType: models.TypeApartment}

	set := s.Select(anchor, []*models.ExtractedProperty{listing("m-1", "София", 80, 1500)})
	if set.Count() != 0 {
		t.Errorf("count = %d; want 0", set.Count())
	}
}

func TestSelectNilAnchorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Select(nil) did not panic")
		}
	}()
	NewSelector(testScoring()).Select(nil, nil)
}
