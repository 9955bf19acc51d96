package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auction-bargains/models"
)

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "properties.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	full := property("imot-1", models.KindMarket, "София", 80, 120000)
	full.Rooms = iptr(3)
	end := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)
	partial := &models.ExtractedProperty{
		SourceID: "bcpea-1", Kind: models.KindAuction, City: "Варна",
		PropertyType: models.TypeHouse, Ownership: models.OwnershipHalf,
		Court: "Варна", AuctionEnd: &end,
	}
	if err := w.WriteProperties([]*models.ExtractedProperty{full, partial}); err != nil {
		t.Fatalf("WriteProperties: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want header + 2", len(rows))
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[h] = i
	}
	checks := []struct {
		row  int
		col  string
		want string
	}{
		{1, "area_sqm", "80.00"},
		{1, "rooms", "3"},
		{1, "price_per_sqm", "1500.00"},
		{1, "ownership_fraction", ""},
		{2, "area_sqm", ""},
		{2, "rooms", ""},
		{2, "ownership_fraction", "1/2"},
		{2, "property_type", "house"},
		{1, "auction_end", ""},
		{2, "court", "Варна"},
		{2, "auction_start", ""},
		{2, "auction_end", "2026-04-12"},
	}
	for _, c := range checks {
		if got := rows[c.row][col[c.col]]; got != c.want {
			t.Errorf("row %d %s = %q; want %q", c.row, c.col, got, c.want)
		}
	}
}
