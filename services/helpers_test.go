package services

import (
	"auction-bargains/config"
	"auction-bargains/models"
	"auction-bargains/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger("error") }

func fptr(f float64) *float64 { return &f }

func iptr(i int) *int { return &i }

func fmtPtr[T any](p *T) any {
	if p == nil {
		return "nil"
	}
	return *p
}

// listing builds a whole-unit apartment with price per m² already derived.
func listing(id, city string, area, ppsqm float64) *models.ExtractedProperty {
	p := &models.ExtractedProperty{
		SourceID:     id,
		Kind:         models.KindMarket,
		City:         city,
		AreaSqm:      fptr(area),
		PriceEUR:     fptr(area * ppsqm),
		PropertyType: models.TypeApartment,
	}
	p.DerivePricePerSqm()
	return p
}

func withRooms(p *models.ExtractedProperty, rooms int) *models.ExtractedProperty {
	p.Rooms = iptr(rooms)
	return p
}

func withNeighborhood(p *models.ExtractedProperty, n string) *models.ExtractedProperty {
	p.Neighborhood = n
	return p
}

func testScoring() config.Scoring { return config.DefaultScoring() }
