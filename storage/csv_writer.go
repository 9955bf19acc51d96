package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"auction-bargains/models"
)

var propertyCSVHeader = []string{
	"source_id", "source", "kind", "city", "neighborhood", "property_type", "ownership_fraction",
	"area_sqm", "rooms", "floor", "total_floors", "price_eur", "price_per_sqm", "cadastral_id", "url",
	"court", "auction_start", "auction_end",
}

// CSVWriter writes extracted properties to a CSV snapshot file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(propertyCSVHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteProperties appends one row per property. Absent fields are left empty.
func (c *CSVWriter) WriteProperties(props []*models.ExtractedProperty) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range props {
		row := []string{
			p.SourceID,
			string(p.Source),
			string(p.Kind),
			p.City,
			p.Neighborhood,
			string(p.PropertyType),
			string(p.Ownership),
			formatFloat(p.AreaSqm),
			formatInt(p.Rooms),
			formatInt(p.Floor),
			formatInt(p.TotalFloors),
			formatFloat(p.PriceEUR),
			formatFloat(p.PricePerSqm),
			p.CadastralID,
			p.URL,
			p.Court,
			formatDate(p.AuctionStart),
			formatDate(p.AuctionEnd),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func formatInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
