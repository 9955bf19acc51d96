package models

import (
	"encoding/json"
	"time"
)

// Kind tells which corpus a record belongs to.
type Kind string

const (
	KindAuction Kind = "auction"
	KindMarket  Kind = "market"
)

// Source identifies the site a record was scraped from.
type Source string

const (
	SourceBCPEA    Source = "bcpea"
	SourceImotBG   Source = "imot.bg"
	SourceOLX      Source = "olx.bg"
	SourceAlo      Source = "alo.bg"
	SourceImotiNet Source = "imoti.net"
)

// PropertyType is the closed set of tags the classifier maps free text to.
type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeStudio     PropertyType = "studio"
	TypeHouse      PropertyType = "house"
	TypeVilla      PropertyType = "villa"
	TypeGarage     PropertyType = "garage"
	TypeCommercial PropertyType = "commercial"
	TypeLand       PropertyType = "land"
	TypeWarehouse  PropertyType = "warehouse"
	TypeOther      PropertyType = "other"
)

// ParsePropertyType maps a stored tag back to a PropertyType, falling back to TypeOther.
func ParsePropertyType(s string) PropertyType {
	switch t := PropertyType(s); t {
	case TypeApartment, TypeStudio, TypeHouse, TypeVilla, TypeGarage,
		TypeCommercial, TypeLand, TypeWarehouse:
		return t
	}
	return TypeOther
}

// Ownership is the fractional interest being sold. The zero value means full
// ownership; every other value marks a partial interest.
type Ownership string

const (
	OwnershipFull          Ownership = ""
	OwnershipHalf          Ownership = "1/2"
	OwnershipThird         Ownership = "1/3"
	OwnershipQuarter       Ownership = "1/4"
	OwnershipFifth         Ownership = "1/5"
	OwnershipSixth         Ownership = "1/6"
	OwnershipEighth        Ownership = "1/8"
	OwnershipTwoThirds     Ownership = "2/3"
	OwnershipThreeQuarters Ownership = "3/4"
	OwnershipUnknown       Ownership = "unknown"
)

// KnownFractions lists the fractions that are reported verbatim; any other
// partial interest is reported as OwnershipUnknown.
var KnownFractions = map[Ownership]struct{}{
	OwnershipHalf: {}, OwnershipThird: {}, OwnershipQuarter: {}, OwnershipFifth: {},
	OwnershipSixth: {}, OwnershipEighth: {}, OwnershipTwoThirds: {}, OwnershipThreeQuarters: {},
}

// IsPartial reports whether the record sells less than the whole unit.
func (o Ownership) IsPartial() bool { return o != OwnershipFull }

// MarshalJSON encodes full ownership as null.
func (o Ownership) MarshalJSON() ([]byte, error) {
	if o == OwnershipFull {
		return []byte("null"), nil
	}
	return json.Marshal(string(o))
}

// UnmarshalJSON accepts null or a fraction string.
func (o *Ownership) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OwnershipFull
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*o = Ownership(s)
	return nil
}

// RawRecord is one scraped record as handed over by a scraper. It is never
// modified once created.
type RawRecord struct {
	SourceID    string    `json:"source_id"`
	Source      Source    `json:"source"`
	Kind        Kind      `json:"kind"`
	RawText     string    `json:"raw_text"`
	RawPrice    string    `json:"raw_price"`
	RawCurrency string    `json:"raw_currency"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	URL         string    `json:"url"`
	Court       string    `json:"court"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// ExtractedProperty is the structured form of a RawRecord. Pointer fields are
// nil when the extractor found nothing for them. AuctionStart and AuctionEnd
// bound the bidding period and are only set for auctions.
type ExtractedProperty struct {
	SourceID     string       `json:"source_id"`
	Source       Source       `json:"source"`
	Kind         Kind         `json:"kind"`
	City         string       `json:"city"`
	Neighborhood string       `json:"neighborhood,omitempty"`
	Address      string       `json:"address,omitempty"`
	URL          string       `json:"url,omitempty"`
	CadastralID  string       `json:"cadastral_id,omitempty"`
	AreaSqm      *float64     `json:"area_sqm"`
	Rooms        *int         `json:"rooms"`
	Floor        *int         `json:"floor"`
	TotalFloors  *int         `json:"total_floors"`
	PropertyType PropertyType `json:"property_type"`
	Ownership    Ownership    `json:"ownership_fraction"`
	PriceEUR     *float64     `json:"price_eur"`
	PricePerSqm  *float64     `json:"price_per_sqm"`
	Court        string       `json:"court,omitempty"`
	AuctionStart *time.Time   `json:"auction_start"`
	AuctionEnd   *time.Time   `json:"auction_end"`
}

// DerivePricePerSqm sets PricePerSqm from PriceEUR and AreaSqm, clearing it
// unless both are present and the area is positive.
func (p *ExtractedProperty) DerivePricePerSqm() {
	p.PricePerSqm = nil
	if p.PriceEUR == nil || p.AreaSqm == nil || *p.AreaSqm <= 0 {
		return
	}
	v := *p.PriceEUR / *p.AreaSqm
	p.PricePerSqm = &v
}
