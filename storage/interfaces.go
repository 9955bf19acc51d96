package storage

import (
	"context"

	"auction-bargains/models"
)

// PropertyWriter is the interface any snapshot sink for extracted properties
// must satisfy.
type PropertyWriter interface {
	WriteProperties(props []*models.ExtractedProperty) error
	Close() error
}

// MarketSource supplies the market listings of one city.
type MarketSource interface {
	Market(ctx context.Context, city string) ([]*models.ExtractedProperty, error)
}

// DealReader is the read side of stored deal results.
type DealReader interface {
	FetchDeals(ctx context.Context) ([]models.DealResult, error)
	FetchDeal(ctx context.Context, auctionID string) (*models.DealResult, error)
}
