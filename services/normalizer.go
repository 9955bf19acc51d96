package services

import (
	"strings"

	"auction-bargains/models"
	"auction-bargains/utils"
)

// ExtractionStats counts fields the extractor could not fill over a batch.
type ExtractionStats struct {
	Records      int
	MissingArea  int
	MissingRooms int
	MissingFloor int
	MissingPrice int
	UnknownType  int
	Partial      int
}

// Normalizer transforms RawRecords into ExtractedProperties.
type Normalizer struct {
	extractor *Extractor
	workers   int
	logger    *utils.Logger
}

// NewNormalizer creates a Normalizer that runs extraction on up to workers
// goroutines.
func NewNormalizer(extractor *Extractor, workers int, logger *utils.Logger) *Normalizer {
	return &Normalizer{extractor: extractor, workers: workers, logger: logger}
}

// Normalize extracts every record with a source ID, skipping repeats of an ID
// already seen. Output order follows input order.
func (n *Normalizer) Normalize(raw []*models.RawRecord) []*models.ExtractedProperty {
	seen := utils.NewKeySet()
	accepted := make([]*models.RawRecord, 0, len(raw))
	emptyIDs, withID := 0, 0

	for _, r := range raw {
		if r == nil {
			continue
		}
		id := strings.TrimSpace(r.SourceID)
		if id == "" {
			emptyIDs++
			n.logger.Warn("[normalizer] Dropping record with empty source_id: %s", r.URL)
			continue
		}
		withID++
		if !seen.Add(id) {
			n.logger.Debug("[normalizer] Duplicate source_id skipped: %s", id)
			continue
		}
		accepted = append(accepted, r)
	}

	result := make([]*models.ExtractedProperty, len(accepted))
	pool := utils.NewWorkerPool(n.workers)
	for i, r := range accepted {
		i, r := i, r
		pool.Submit(func() {
			result[i] = n.extractor.ExtractRecord(r)
		})
	}
	pool.Wait()

	stats := Tally(result)
	n.logger.Info("[normalizer] Normalized %d → %d records (dropped %d: empty_id=%d duplicates=%d)",
		len(raw), len(result), len(raw)-len(result), emptyIDs, withID-seen.Size())
	n.logger.Debug("[normalizer] Field misses: area=%d rooms=%d floor=%d price=%d type=%d, partial=%d",
		stats.MissingArea, stats.MissingRooms, stats.MissingFloor, stats.MissingPrice, stats.UnknownType, stats.Partial)
	return result
}

// Tally counts missing fields over props.
func Tally(props []*models.ExtractedProperty) ExtractionStats {
	s := ExtractionStats{Records: len(props)}
	for _, p := range props {
		if p.AreaSqm == nil {
			s.MissingArea++
		}
		if p.Rooms == nil {
			s.MissingRooms++
		}
		if p.Floor == nil {
			s.MissingFloor++
		}
		if p.PriceEUR == nil {
			s.MissingPrice++
		}
		if p.PropertyType == models.TypeOther {
			s.UnknownType++
		}
		if p.Ownership.IsPartial() {
			s.Partial++
		}
	}
	return s
}
