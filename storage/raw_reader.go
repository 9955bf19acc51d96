package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"auction-bargains/models"
)

const maxJSONLineBytes = 4 << 20

// ReadRawRecords loads scraper output from path. ".jsonl" files hold one
// JSON record per line, ".json" files a single array, and ".csv" files a
// header row naming RawRecord's JSON fields in any order.
func ReadRawRecords(path string) ([]*models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raw: open %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return decodeJSONLines(f)
	case ".json":
		var records []*models.RawRecord
		if err := json.NewDecoder(f).Decode(&records); err != nil {
			return nil, fmt.Errorf("raw: decode %q: %w", path, err)
		}
		return records, nil
	case ".csv":
		return decodeCSV(f)
	}
	return nil, fmt.Errorf("raw: unsupported input format %q", filepath.Ext(path))
}

func decodeJSONLines(r io.Reader) ([]*models.RawRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxJSONLineBytes)

	var records []*models.RawRecord
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec := &models.RawRecord{}
		if err := json.Unmarshal([]byte(text), rec); err != nil {
			return nil, fmt.Errorf("raw: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("raw: read lines: %w", err)
	}
	return records, nil
}

func decodeCSV(r io.Reader) ([]*models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("raw: read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["source_id"]; !ok {
		return nil, errors.New("raw: csv header has no source_id column")
	}

	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []*models.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("raw: read csv row: %w", err)
		}
		rec := &models.RawRecord{
			SourceID:    get(row, "source_id"),
			Source:      models.Source(get(row, "source")),
			Kind:        models.Kind(get(row, "kind")),
			RawText:     get(row, "raw_text"),
			RawPrice:    get(row, "raw_price"),
			RawCurrency: get(row, "raw_currency"),
			City:        get(row, "city"),
			Address:     get(row, "address"),
			URL:         get(row, "url"),
			Court:       get(row, "court"),
		}
		if ts := get(row, "scraped_at"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				rec.ScrapedAt = t
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
