package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q; want sqlite", cfg.DBDriver)
	}
	if cfg.Scoring.MinComparables != 3 {
		t.Errorf("MinComparables = %d; want 3", cfg.Scoring.MinComparables)
	}
	if cfg.Scoring.BGNEURRate != 1.95583 {
		t.Errorf("BGNEURRate = %v; want 1.95583", cfg.Scoring.BGNEURRate)
	}
	if cfg.CorpusCacheTTL != 10*time.Minute {
		t.Errorf("CorpusCacheTTL = %v; want 10m", cfg.CorpusCacheTTL)
	}
	if cfg.DSN() != cfg.SQLitePath {
		t.Errorf("DSN() = %q; want sqlite path", cfg.DSN())
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "scoring.yaml")
	yaml := "size_tolerance_pct: 0.2\nmin_comparables: 5\neligible_types: [apartment]\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCORING_CONFIG", path)
	t.Setenv("MIN_COMPARABLES", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.SizeTolerancePct != 0.2 {
		t.Errorf("SizeTolerancePct = %v; want 0.2 from yaml", cfg.Scoring.SizeTolerancePct)
	}
	if cfg.Scoring.MinComparables != 4 {
		t.Errorf("MinComparables = %d; want 4 from env", cfg.Scoring.MinComparables)
	}
	if len(cfg.Scoring.EligibleTypes) != 1 || cfg.Scoring.EligibleTypes[0] != "apartment" {
		t.Errorf("EligibleTypes = %v; want [apartment]", cfg.Scoring.EligibleTypes)
	}
	if cfg.Scoring.PricePerSqmMax != 5000 {
		t.Errorf("PricePerSqmMax = %v; want default 5000 kept", cfg.Scoring.PricePerSqmMax)
	}
}

func TestLoadRejectsInvalidScoring(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SIZE_TOLERANCE_PCT", "1.5")

	if _, err := Load(); err == nil {
		t.Error("Load should reject size_tolerance_pct >= 1")
	}
}

func TestLoadRejectsUnknownEligibleType(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ELIGIBLE_TYPES", "apartment, vila")

	if _, err := Load(); err == nil {
		t.Error("Load should reject an unknown eligible type")
	}
}

func TestLoadMissingScoringFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SCORING_CONFIG", "/nonexistent/scoring.yaml")

	if _, err := Load(); err == nil {
		t.Error("Load should fail when SCORING_CONFIG points nowhere")
	}
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{
		DBDriver: "postgres", PostgresHost: "db", PostgresPort: "5432",
		PostgresUser: "u", PostgresPassword: "p", PostgresDB: "auctions", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=auctions sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scoring)
		ok     bool
	}{
		{"defaults", func(*Scoring) {}, true},
		{"zero min comparables", func(s *Scoring) { s.MinComparables = 0 }, false},
		{"inverted band", func(s *Scoring) { s.PricePerSqmMin, s.PricePerSqmMax = 5000, 200 }, false},
		{"zero rate", func(s *Scoring) { s.BGNEURRate = 0 }, false},
		{"zero tolerance", func(s *Scoring) { s.SizeTolerancePct = 0 }, false},
		{"negative threshold", func(s *Scoring) { s.BGNMagnitudeThreshold = -1 }, false},
		{"no eligible types", func(s *Scoring) { s.EligibleTypes = nil }, false},
		{"misspelled eligible type", func(s *Scoring) { s.EligibleTypes = []string{"apartment", "apartmnet"} }, false},
		{"capitalised eligible type", func(s *Scoring) { s.EligibleTypes = []string{"House"} }, false},
		{"land made eligible", func(s *Scoring) { s.EligibleTypes = []string{"apartment", "land"} }, true},
	}
	for _, tt := range tests {
		s := DefaultScoring()
		tt.mutate(&s)
		if err := s.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v; want ok=%v", tt.name, err, tt.ok)
		}
	}
}
