package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"auction-bargains/models"
)

// DealExport is the payload handed to the frontend.
type DealExport struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Count       int                 `json:"count"`
	Deals       []models.DealResult `json:"deals"`
}

// WriteDealsJSON writes the ranked deals of one run to path, replacing any
// previous export.
func WriteDealsJSON(path, runID string, deals []models.DealResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}
	if deals == nil {
		deals = []models.DealResult{}
	}

	data, err := json.MarshalIndent(DealExport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Count:       len(deals),
		Deals:       deals,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode deals: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("json: replace %q: %w", path, err)
	}
	return nil
}
