package services

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"auction-bargains/config"
)

// Currency is the currency a scraped price was quoted in.
type Currency string

const (
	CurrencyEUR     Currency = "EUR"
	CurrencyBGN     Currency = "BGN"
	CurrencyUnknown Currency = ""
)

var (
	// amountRegexp captures a price literal with optional digit grouping
	amountRegexp = regexp.MustCompile(`\d(?:[\d ',.]*\d)?`)
	eurRegexp    = regexp.MustCompile(`(?i)(?:€|eur|евро)`)
	bgnRegexp    = regexp.MustCompile(`(?i)(?:bgn|лв|лева)`)
	// textPriceRegexp finds a price in the description when no price field was scraped
	textPriceRegexp = regexp.MustCompile(`(?:начална\s+цена|цена)\s*[:\-]?\s*(\d(?:[\d ',.]*\d)?)\s*(€|eur|евро|лв\.?|лева|bgn)?`)
)

// PriceNormalizer converts scraped price strings into EUR.
type PriceNormalizer struct {
	rate      decimal.Decimal
	threshold decimal.Decimal
}

// NewPriceNormalizer builds a normalizer from the configured peg and the
// bare-amount magnitude threshold.
func NewPriceNormalizer(s config.Scoring) *PriceNormalizer {
	return &PriceNormalizer{
		rate:      decimal.NewFromFloat(s.BGNEURRate),
		threshold: decimal.NewFromFloat(s.BGNMagnitudeThreshold),
	}
}

// DetectCurrency reads the currency from the currency field, falling back to
// markers inside the price string itself.
func DetectCurrency(rawPrice, rawCurrency string) Currency {
	for _, s := range []string{rawCurrency, rawPrice} {
		switch {
		case eurRegexp.MatchString(s):
			return CurrencyEUR
		case bgnRegexp.MatchString(s):
			return CurrencyBGN
		}
	}
	return CurrencyUnknown
}

// Normalize returns the price in EUR rounded to cents, or nil when rawPrice
// holds no positive amount. BGN is divided by the peg; a bare amount above
// the magnitude threshold is taken to be BGN.
func (n *PriceNormalizer) Normalize(rawPrice, rawCurrency string) *float64 {
	amount, ok := parseAmount(rawPrice)
	if !ok {
		return nil
	}

	cur := DetectCurrency(rawPrice, rawCurrency)
	if cur == CurrencyUnknown && amount.GreaterThan(n.threshold) {
		cur = CurrencyBGN
	}
	if cur == CurrencyBGN {
		amount = amount.Div(n.rate)
	}

	eur := amount.Round(2).InexactFloat64()
	return &eur
}

// FromText looks for a "цена: N лв" style price inside free text.
func (n *PriceNormalizer) FromText(text string) *float64 {
	m := textPriceRegexp.FindStringSubmatch(foldText(text))
	if m == nil {
		return nil
	}
	return n.Normalize(m[1], m[2])
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	lit := amountRegexp.FindString(normaliseText(raw))
	if lit == "" {
		return decimal.Zero, false
	}
	num := canonicalNumber(strings.TrimSpace(lit))
	if num == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(num)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
