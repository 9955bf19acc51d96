package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"auction-bargains/models"
	"auction-bargains/services"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

const batchSize = 50

// Store persists extracted properties and deal results in PostgreSQL or SQLite.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open opens a database handle for driver "postgres" or "sqlite". It does not
// connect; call Ping (usually under a retry) and then Migrate.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "postgres":
	case "sqlite":
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("sqlite: create db dir: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: driver}, nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping: %w", s.dialect, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := sqliteSchema
	if s.dialect == "postgres" {
		ddl = postgresSchema
	}
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: migrate: %w", s.dialect, err)
		}
	}
	return nil
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS properties (
		source_id          TEXT PRIMARY KEY,
		source             TEXT             NOT NULL DEFAULT '',
		kind               TEXT             NOT NULL,
		city               TEXT             NOT NULL DEFAULT '',
		city_key           TEXT             NOT NULL DEFAULT '',
		neighborhood       TEXT             NOT NULL DEFAULT '',
		address            TEXT             NOT NULL DEFAULT '',
		url                TEXT             NOT NULL DEFAULT '',
		cadastral_id       TEXT             NOT NULL DEFAULT '',
		area_sqm           DOUBLE PRECISION,
		rooms              INTEGER,
		floor              INTEGER,
		total_floors       INTEGER,
		property_type      TEXT             NOT NULL,
		ownership_fraction TEXT,
		price_eur          DOUBLE PRECISION,
		price_per_sqm      DOUBLE PRECISION,
		court              TEXT             NOT NULL DEFAULT '',
		auction_start      TIMESTAMPTZ,
		auction_end        TIMESTAMPTZ,
		updated_at         TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_kind_city ON properties(kind, city_key);
	CREATE INDEX IF NOT EXISTS idx_properties_cadastral ON properties(cadastral_id);

	CREATE TABLE IF NOT EXISTS deals (
		auction_id                   TEXT PRIMARY KEY,
		ordinal                      INTEGER          NOT NULL,
		run_id                       TEXT             NOT NULL,
		city                         TEXT             NOT NULL DEFAULT '',
		neighborhood                 TEXT             NOT NULL DEFAULT '',
		url                          TEXT             NOT NULL DEFAULT '',
		price_eur                    DOUBLE PRECISION,
		area_sqm                     DOUBLE PRECISION,
		rooms                        INTEGER,
		property_type                TEXT             NOT NULL,
		ownership_fraction           TEXT,
		auction_price_per_sqm        DOUBLE PRECISION,
		market_reference_ids         TEXT             NOT NULL DEFAULT '[]',
		comparable_count             INTEGER          NOT NULL DEFAULT 0,
		match_type                   TEXT             NOT NULL DEFAULT '',
		market_central_price_per_sqm DOUBLE PRECISION,
		deviation_pct                DOUBLE PRECISION,
		bargain_score                INTEGER,
		rating                       TEXT             NOT NULL DEFAULT '',
		stars                        INTEGER          NOT NULL DEFAULT 0,
		reliability                  TEXT             NOT NULL,
		court                        TEXT             NOT NULL DEFAULT '',
		auction_start                TIMESTAMPTZ,
		auction_end                  TIMESTAMPTZ,
		evaluated_at                 TIMESTAMPTZ      NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_reliability ON deals(reliability);
	CREATE INDEX IF NOT EXISTS idx_deals_city        ON deals(city);
`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS properties (
		source_id          TEXT PRIMARY KEY,
		source             TEXT      NOT NULL DEFAULT '',
		kind               TEXT      NOT NULL,
		city               TEXT      NOT NULL DEFAULT '',
		city_key           TEXT      NOT NULL DEFAULT '',
		neighborhood       TEXT      NOT NULL DEFAULT '',
		address            TEXT      NOT NULL DEFAULT '',
		url                TEXT      NOT NULL DEFAULT '',
		cadastral_id       TEXT      NOT NULL DEFAULT '',
		area_sqm           REAL,
		rooms              INTEGER,
		floor              INTEGER,
		total_floors       INTEGER,
		property_type      TEXT      NOT NULL,
		ownership_fraction TEXT,
		price_eur          REAL,
		price_per_sqm      REAL,
		court              TEXT      NOT NULL DEFAULT '',
		auction_start      TIMESTAMP,
		auction_end        TIMESTAMP,
		updated_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_properties_kind_city ON properties(kind, city_key);
	CREATE INDEX IF NOT EXISTS idx_properties_cadastral ON properties(cadastral_id);

	CREATE TABLE IF NOT EXISTS deals (
		auction_id                   TEXT PRIMARY KEY,
		ordinal                      INTEGER   NOT NULL,
		run_id                       TEXT      NOT NULL,
		city                         TEXT      NOT NULL DEFAULT '',
		neighborhood                 TEXT      NOT NULL DEFAULT '',
		url                          TEXT      NOT NULL DEFAULT '',
		price_eur                    REAL,
		area_sqm                     REAL,
		rooms                        INTEGER,
		property_type                TEXT      NOT NULL,
		ownership_fraction           TEXT,
		auction_price_per_sqm        REAL,
		market_reference_ids         TEXT      NOT NULL DEFAULT '[]',
		comparable_count             INTEGER   NOT NULL DEFAULT 0,
		match_type                   TEXT      NOT NULL DEFAULT '',
		market_central_price_per_sqm REAL,
		deviation_pct                REAL,
		bargain_score                INTEGER,
		rating                       TEXT      NOT NULL DEFAULT '',
		stars                        INTEGER   NOT NULL DEFAULT 0,
		reliability                  TEXT      NOT NULL,
		court                        TEXT      NOT NULL DEFAULT '',
		auction_start                TIMESTAMP,
		auction_end                  TIMESTAMP,
		evaluated_at                 TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_reliability ON deals(reliability);
	CREATE INDEX IF NOT EXISTS idx_deals_city        ON deals(city);
`

// placeholders renders the VALUES tuples for rows×cols bind parameters in
// the store's dialect.
func (s *Store) placeholders(rows, cols int) string {
	tuples := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		marks := make([]string, cols)
		for c := range marks {
			if s.dialect == "postgres" {
				marks[c] = fmt.Sprintf("$%d", r*cols+c+1)
			} else {
				marks[c] = "?"
			}
		}
		tuples = append(tuples, "("+strings.Join(marks, ",")+")")
	}
	return strings.Join(tuples, ",")
}

func (s *Store) param(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

var propertyColumns = []string{
	"source_id", "source", "kind", "city", "city_key", "neighborhood", "address", "url",
	"cadastral_id", "area_sqm", "rooms", "floor", "total_floors", "property_type",
	"ownership_fraction", "price_eur", "price_per_sqm", "court", "auction_start", "auction_end",
	"updated_at",
}

// SaveProperties upserts props by source_id in batches.
func (s *Store) SaveProperties(ctx context.Context, props []*models.ExtractedProperty) error {
	if len(props) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := 0; i < len(props); i += batchSize {
		end := min(i+batchSize, len(props))
		if err := s.upsertBatch(ctx, tx, props[i:end], now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit properties: %w", s.dialect, err)
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, tx *sql.Tx, batch []*models.ExtractedProperty, now time.Time) error {
	cols := len(propertyColumns)
	args := make([]any, 0, len(batch)*cols)
	for _, p := range batch {
		args = append(args,
			p.SourceID, string(p.Source), string(p.Kind), p.City, services.CityKey(p.City),
			p.Neighborhood, p.Address, p.URL, p.CadastralID,
			nullFloat(p.AreaSqm), nullInt(p.Rooms), nullInt(p.Floor), nullInt(p.TotalFloors),
			string(p.PropertyType), nullOwnership(p.Ownership),
			nullFloat(p.PriceEUR), nullFloat(p.PricePerSqm),
			p.Court, nullTime(p.AuctionStart), nullTime(p.AuctionEnd), now,
		)
	}

	updates := make([]string, 0, cols-1)
	for _, c := range propertyColumns[1:] {
		updates = append(updates, c+" = excluded."+c)
	}

	query := fmt.Sprintf(`
		INSERT INTO properties (%s)
		VALUES %s
		ON CONFLICT (source_id) DO UPDATE SET %s
	`, strings.Join(propertyColumns, ", "), s.placeholders(len(batch), cols), strings.Join(updates, ", "))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: upsert properties: %w", s.dialect, err)
	}
	return nil
}

// FetchMarket returns the market listings whose city matches city after
// normalization. It satisfies services.MarketCorpus.
func (s *Store) FetchMarket(ctx context.Context, city string) ([]*models.ExtractedProperty, error) {
	return s.queryProperties(ctx, "kind = "+s.param(1)+" AND city_key = "+s.param(2),
		string(models.KindMarket), services.CityKey(city))
}

// Market is FetchMarket under the services.MarketCorpus name.
func (s *Store) Market(ctx context.Context, city string) ([]*models.ExtractedProperty, error) {
	return s.FetchMarket(ctx, city)
}

// FetchAuctions returns every stored auction property.
func (s *Store) FetchAuctions(ctx context.Context) ([]*models.ExtractedProperty, error) {
	return s.queryProperties(ctx, "kind = "+s.param(1), string(models.KindAuction))
}

func (s *Store) queryProperties(ctx context.Context, where string, args ...any) ([]*models.ExtractedProperty, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, source, kind, city, neighborhood, address, url, cadastral_id,
		       area_sqm, rooms, floor, total_floors, property_type, ownership_fraction,
		       price_eur, price_per_sqm, court, auction_start, auction_end
		FROM properties
		WHERE `+where+`
		ORDER BY source_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch properties: %w", s.dialect, err)
	}
	defer rows.Close()

	var props []*models.ExtractedProperty
	for rows.Next() {
		var (
			p                         models.ExtractedProperty
			source, kind, ptype       string
			area, price, ppsqm        sql.NullFloat64
			rooms, floor, totalFloors sql.NullInt64
			ownership, start, end     sql.NullString
		)
		if err := rows.Scan(
			&p.SourceID, &source, &kind, &p.City, &p.Neighborhood, &p.Address, &p.URL, &p.CadastralID,
			&area, &rooms, &floor, &totalFloors, &ptype, &ownership, &price, &ppsqm,
			&p.Court, &start, &end,
		); err != nil {
			return nil, fmt.Errorf("%s: scan property: %w", s.dialect, err)
		}
		if p.AuctionStart, err = timePtr(start); err != nil {
			return nil, fmt.Errorf("storage: auction_start for %s: %w", p.SourceID, err)
		}
		if p.AuctionEnd, err = timePtr(end); err != nil {
			return nil, fmt.Errorf("storage: auction_end for %s: %w", p.SourceID, err)
		}
		p.Source = models.Source(source)
		p.Kind = models.Kind(kind)
		p.PropertyType = models.ParsePropertyType(ptype)
		p.Ownership = models.Ownership(ownership.String)
		p.AreaSqm = floatPtr(area)
		p.PriceEUR = floatPtr(price)
		p.PricePerSqm = floatPtr(ppsqm)
		p.Rooms = intPtr(rooms)
		p.Floor = intPtr(floor)
		p.TotalFloors = intPtr(totalFloors)
		props = append(props, &p)
	}
	return props, rows.Err()
}

var dealColumns = []string{
	"auction_id", "ordinal", "run_id", "city", "neighborhood", "url", "price_eur", "area_sqm",
	"rooms", "property_type", "ownership_fraction", "auction_price_per_sqm",
	"market_reference_ids", "comparable_count", "match_type", "market_central_price_per_sqm",
	"deviation_pct", "bargain_score", "rating", "stars", "reliability",
	"court", "auction_start", "auction_end", "evaluated_at",
}

// SaveDeals replaces the stored deals with the ranked results of run runID.
func (s *Store) SaveDeals(ctx context.Context, runID string, deals []models.DealResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM deals"); err != nil {
		return fmt.Errorf("%s: clear deals: %w", s.dialect, err)
	}

	cols := len(dealColumns)
	for i := 0; i < len(deals); i += batchSize {
		end := min(i+batchSize, len(deals))
		args := make([]any, 0, (end-i)*cols)
		for j := i; j < end; j++ {
			d := deals[j]
			refs, err := json.Marshal(d.MarketReferenceIDs)
			if err != nil {
				return fmt.Errorf("storage: encode reference ids: %w", err)
			}
			if d.MarketReferenceIDs == nil {
				refs = []byte("[]")
			}
			evaluatedAt := d.EvaluatedAt
			if evaluatedAt.IsZero() {
				evaluatedAt = time.Now()
			}
			args = append(args,
				d.AuctionID, j, runID, d.City, d.Neighborhood, d.URL,
				nullFloat(d.PriceEUR), nullFloat(d.AreaSqm), nullInt(d.Rooms),
				string(d.PropertyType), nullOwnership(d.Ownership), nullFloat(d.AuctionPricePerSqm),
				string(refs), d.ComparableCount, string(d.MatchType), nullFloat(d.MarketCentralPricePerSqm),
				nullFloat(d.DeviationPct), nullInt(d.BargainScore), string(d.Rating), d.Stars,
				string(d.Reliability), d.Court, nullTime(d.AuctionStart), nullTime(d.AuctionEnd),
				evaluatedAt.UTC(),
			)
		}

		query := fmt.Sprintf(`INSERT INTO deals (%s) VALUES %s`,
			strings.Join(dealColumns, ", "), s.placeholders(end-i, cols))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: insert deals: %w", s.dialect, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit deals: %w", s.dialect, err)
	}
	return nil
}

// FetchDeals returns the stored deals in ranked order.
func (s *Store) FetchDeals(ctx context.Context) ([]models.DealResult, error) {
	return s.queryDeals(ctx, "")
}

// FetchDeal returns the deal for one auction, or ErrNotFound.
func (s *Store) FetchDeal(ctx context.Context, auctionID string) (*models.DealResult, error) {
	deals, err := s.queryDeals(ctx, "WHERE auction_id = "+s.param(1), auctionID)
	if err != nil {
		return nil, err
	}
	if len(deals) == 0 {
		return nil, ErrNotFound
	}
	return &deals[0], nil
}

func (s *Store) queryDeals(ctx context.Context, where string, args ...any) ([]models.DealResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT auction_id, run_id, city, neighborhood, url, price_eur, area_sqm, rooms,
		       property_type, ownership_fraction, auction_price_per_sqm, market_reference_ids,
		       comparable_count, match_type, market_central_price_per_sqm, deviation_pct,
		       bargain_score, rating, stars, reliability, court, auction_start, auction_end,
		       evaluated_at
		FROM deals
		`+where+`
		ORDER BY ordinal
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch deals: %w", s.dialect, err)
	}
	defer rows.Close()

	var deals []models.DealResult
	for rows.Next() {
		var (
			d                               models.DealResult
			ptype, refs, match, rating, rel string
			evaluatedAt                     string
			price, area, auctionPPSqm       sql.NullFloat64
			central, deviation              sql.NullFloat64
			rooms, score                    sql.NullInt64
			ownership, start, end           sql.NullString
		)
		if err := rows.Scan(
			&d.AuctionID, &d.RunID, &d.City, &d.Neighborhood, &d.URL, &price, &area, &rooms,
			&ptype, &ownership, &auctionPPSqm, &refs,
			&d.ComparableCount, &match, &central, &deviation,
			&score, &rating, &d.Stars, &rel, &d.Court, &start, &end, &evaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan deal: %w", s.dialect, err)
		}
		if d.AuctionStart, err = timePtr(start); err != nil {
			return nil, fmt.Errorf("storage: auction_start for %s: %w", d.AuctionID, err)
		}
		if d.AuctionEnd, err = timePtr(end); err != nil {
			return nil, fmt.Errorf("storage: auction_end for %s: %w", d.AuctionID, err)
		}
		if d.EvaluatedAt, err = parseTimestamp(evaluatedAt); err != nil {
			return nil, fmt.Errorf("storage: evaluated_at for %s: %w", d.AuctionID, err)
		}
		if err := json.Unmarshal([]byte(refs), &d.MarketReferenceIDs); err != nil {
			return nil, fmt.Errorf("storage: decode reference ids for %s: %w", d.AuctionID, err)
		}
		d.PropertyType = models.ParsePropertyType(ptype)
		d.Ownership = models.Ownership(ownership.String)
		d.MatchType = models.MatchType(match)
		d.Rating = models.Rating(rating)
		d.Reliability = models.Reliability(rel)
		d.PriceEUR = floatPtr(price)
		d.AreaSqm = floatPtr(area)
		d.AuctionPricePerSqm = floatPtr(auctionPPSqm)
		d.MarketCentralPricePerSqm = floatPtr(central)
		d.DeviationPct = floatPtr(deviation)
		d.Rooms = intPtr(rooms)
		d.BargainScore = intPtr(score)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// timestampLayouts covers lib/pq (RFC 3339 after database/sql conversion)
// and the text form modernc/sqlite stores.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullOwnership(o models.Ownership) any {
	if o == models.OwnershipFull {
		return nil
	}
	return string(o)
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
