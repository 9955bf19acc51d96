package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"auction-bargains/models"
)

// Scoring holds the tunable constants of extraction and comparison.
type Scoring struct {
	// SizeTolerancePct is the relative area window around the anchor, 0.15 = ±15%.
	SizeTolerancePct float64 `yaml:"size_tolerance_pct"`
	// MinComparables is the reliability floor.
	MinComparables int `yaml:"min_comparables"`
	// PricePerSqmMin and PricePerSqmMax bound plausible market listings in EUR/m².
	PricePerSqmMin float64 `yaml:"price_per_sqm_min"`
	PricePerSqmMax float64 `yaml:"price_per_sqm_max"`
	// BGNEURRate is the currency board peg, BGN per EUR.
	BGNEURRate float64 `yaml:"bgn_eur_rate"`
	// BGNMagnitudeThreshold: bare amounts above it are read as BGN.
	BGNMagnitudeThreshold float64 `yaml:"bgn_magnitude_threshold"`
	// BargainThresholdPct marks a reliable deal as a bargain in reports.
	BargainThresholdPct float64 `yaml:"bargain_threshold_pct"`
	// EligibleTypes are the property types an auction may be scored as.
	EligibleTypes []string `yaml:"eligible_types"`
}

// DefaultScoring returns the built-in constants.
func DefaultScoring() Scoring {
	return Scoring{
		SizeTolerancePct:      0.15,
		MinComparables:        3,
		PricePerSqmMin:        200,
		PricePerSqmMax:        5000,
		BGNEURRate:            1.95583,
		BGNMagnitudeThreshold: 100000,
		BargainThresholdPct:   15,
		EligibleTypes:         []string{"apartment", "studio", "house", "villa"},
	}
}

// LoadFile overlays the YAML file at path onto s. Keys missing from the file
// keep their current values.
func (s *Scoring) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read scoring file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("config: parse scoring file %q: %w", path, err)
	}
	return nil
}

func (s *Scoring) applyEnv() {
	s.SizeTolerancePct = getEnvFloat("SIZE_TOLERANCE_PCT", s.SizeTolerancePct)
	s.MinComparables = getEnvInt("MIN_COMPARABLES", s.MinComparables)
	s.PricePerSqmMin = getEnvFloat("PRICE_PER_SQM_MIN", s.PricePerSqmMin)
	s.PricePerSqmMax = getEnvFloat("PRICE_PER_SQM_MAX", s.PricePerSqmMax)
	s.BGNEURRate = getEnvFloat("BGN_EUR_RATE", s.BGNEURRate)
	s.BGNMagnitudeThreshold = getEnvFloat("BGN_MAGNITUDE_THRESHOLD", s.BGNMagnitudeThreshold)
	s.BargainThresholdPct = getEnvFloat("BARGAIN_THRESHOLD_PCT", s.BargainThresholdPct)
	if v := getEnv("ELIGIBLE_TYPES", ""); v != "" {
		var types []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		s.EligibleTypes = types
	}
}

// Validate rejects settings that would make every comparison meaningless.
func (s *Scoring) Validate() error {
	switch {
	case s.SizeTolerancePct <= 0 || s.SizeTolerancePct >= 1:
		return fmt.Errorf("config: size_tolerance_pct must be in (0,1), got %v", s.SizeTolerancePct)
	case s.MinComparables < 1:
		return fmt.Errorf("config: min_comparables must be >= 1, got %d", s.MinComparables)
	case s.PricePerSqmMin < 0 || s.PricePerSqmMax <= s.PricePerSqmMin:
		return fmt.Errorf("config: invalid price_per_sqm band [%v, %v]", s.PricePerSqmMin, s.PricePerSqmMax)
	case s.BGNEURRate <= 0:
		return fmt.Errorf("config: bgn_eur_rate must be positive, got %v", s.BGNEURRate)
	case s.BGNMagnitudeThreshold <= 0:
		return fmt.Errorf("config: bgn_magnitude_threshold must be positive, got %v", s.BGNMagnitudeThreshold)
	case len(s.EligibleTypes) == 0:
		return fmt.Errorf("config: eligible_types must not be empty")
	}
	for _, t := range s.EligibleTypes {
		if models.ParsePropertyType(t) != models.PropertyType(t) {
			return fmt.Errorf("config: unknown property type %q in eligible_types", t)
		}
	}
	return nil
}
