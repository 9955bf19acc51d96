package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"auction-bargains/config"
	"auction-bargains/models"
)

// rule pairs a pattern with the function that turns one of its matches into
// a field value. parse may reject a match, in which case the next match (and
// then the next rule) is tried.
type rule[T any] struct {
	pattern *regexp.Regexp
	parse   func(m []string) (T, bool)
}

// firstMatch evaluates rules in priority order and returns the first value
// any of them accepts.
func firstMatch[T any](rules []rule[T], text string) (T, bool) {
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			if v, ok := r.parse(m); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

const (
	maxAreaSqm = 1_000_000
	minRooms   = 1
	maxRooms   = 20
	minFloor   = 1
	maxFloor   = 30
)

var areaRules = []rule[float64]{
	{
		pattern: regexp.MustCompile(numberToken + `\s*(?:кв\.?\s*м(?:етра|\.)?|квадратни\s+метра|м2|м²|m2|m²|sq\.?\s*m)` + wordEnd),
		parse:   areaFromMatch(1),
	},
	{
		pattern: regexp.MustCompile(numberToken + `\s*(?:дка|декар\p{L}*)` + wordEnd),
		parse:   areaFromMatch(1000),
	},
	{
		pattern: regexp.MustCompile(wordStart + `(?:площ|квадратура|рзп)\s*[:\-]?\s*(?:от\s*)?` + numberToken),
		parse:   areaFromMatch(1),
	},
}

// minDecimalAreaSqm: an ambiguous literal whose decimal reading is below this
// many m² is read as grouped thousands instead.
const minDecimalAreaSqm = 10

// ambiguousAreaRegexp matches a literal whose one separator is either a
// thousands mark or a decimal point, e.g. "85,000" or "1.200".
var ambiguousAreaRegexp = regexp.MustCompile(`^\d{1,3}[.,]\d{3}$`)

// parseArea reads an area literal. An ambiguous literal is a decimal unless
// that reading gives an implausibly small number of square metres.
func parseArea(lit string, factor float64) (float64, bool) {
	if ambiguousAreaRegexp.MatchString(lit) {
		v, err := strconv.ParseFloat(strings.Replace(lit, ",", ".", 1), 64)
		if err == nil && (factor != 1 || v >= minDecimalAreaSqm) {
			return v, true
		}
	}
	return parseNumber(lit)
}

func areaFromMatch(factor float64) func(m []string) (float64, bool) {
	return func(m []string) (float64, bool) {
		v, ok := parseArea(m[1], factor)
		if !ok {
			return 0, false
		}
		v *= factor
		if v <= 0 || v > maxAreaSqm {
			return 0, false
		}
		return v, true
	}
}

// roomWords maps numeral-adjective stems to room counts.
var roomWords = []struct {
	stem  string
	rooms int
}{
	{"едноста", 1}, {"гарсониер", 1},
	{"двуста", 2},
	{"триста", 3}, {"мезонет", 3},
	{"четириста", 4},
	{"петста", 5},
	{"шестста", 6},
	{"многоста", 5},
}

var roomRules = []rule[int]{
	{
		pattern: regexp.MustCompile(wordStart + `((?:едно|дву|три|четири|пет|шест|много)ста(?:ен|йн)\p{L}*|гарсониер\p{L}*|мезонет\p{L}*)`),
		parse: func(m []string) (int, bool) {
			for _, w := range roomWords {
				if strings.HasPrefix(m[1], w.stem) {
					return w.rooms, true
				}
			}
			return 0, false
		},
	},
	{
		pattern: regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*-?\s*(?:ста(?:ен|йн)\p{L}*|стаи|стая)` + wordEnd),
		parse: func(m []string) (int, bool) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < minRooms || n > maxRooms {
				return 0, false
			}
			return n, true
		},
	},
}

type floorMatch struct {
	floor int
	total int
}

var floorRules = []rule[floorMatch]{
	{
		pattern: regexp.MustCompile(wordStart + `(?:ет\.|етаж)\s*(\d{1,2})\s*(?:от|/)\s*(\d{1,2})(?:[^\d]|$)`),
		parse:   floorFromMatch,
	},
	{
		pattern: regexp.MustCompile(`(?:^|[^\d/.])(\d{1,2})\s*/\s*(\d{1,2})\s*(?:ет\.?|етаж)` + wordEnd),
		parse:   floorFromMatch,
	},
	{
		pattern: regexp.MustCompile(wordStart + `(?:ет\.|етаж)\s*[:№]?\s*(\d{1,2})(?:[^\d/]|$)`),
		parse:   floorFromMatch,
	},
	{
		pattern: regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*-?\s*(?:ви|ри|ти|ми|и)\s+етаж`),
		parse:   floorFromMatch,
	},
}

// floorFromMatch reads floor from m[1] and, when present, total floors from
// m[2]. An implausible total is dropped on its own; an implausible floor
// rejects the match.
func floorFromMatch(m []string) (floorMatch, bool) {
	floor, err := strconv.Atoi(m[1])
	if err != nil || floor < minFloor || floor > maxFloor {
		return floorMatch{}, false
	}
	fm := floorMatch{floor: floor}
	if len(m) > 2 && m[2] != "" {
		total, err := strconv.Atoi(m[2])
		if err == nil && total >= floor && total <= maxFloor {
			fm.total = total
		}
	}
	return fm, true
}

var (
	descriptionMarkerRegexp = regexp.MustCompile(`описание\s*[:\-]?`)
	// boilerplateRegexp marks where listing-site chrome starts after the description
	boilerplateRegexp = regexp.MustCompile(`свържете се|изпрати(?:те)? съобщение|подобни обяви|виж(?:те)? още|докладвай|сподели обявата|телефон за връзка|всички права запазени`)
)

// descriptionSection narrows page text to the description block so that
// floor patterns do not match navigation or form numbers.
func descriptionSection(text string) string {
	if loc := descriptionMarkerRegexp.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}
	if loc := boilerplateRegexp.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return text
}

var (
	auctionPeriodRegexp = regexp.MustCompile(wordStart + `от\s*(\d{2}\.\d{2}\.\d{4})\s*(?:г\.?\s*)?до\s*(\d{2}\.\d{2}\.\d{4})`)
	courtRegexp         = regexp.MustCompile(wordStart + `окръжен\s+съд\s*[:\-–]?\s*(?:гр\.\s*)?(\p{L}+(?:\s+(?:търново|загора))?)`)
)

const auctionDateLayout = "02.01.2006"

// auctionPeriod returns the first well-formed "от DD.MM.YYYY до DD.MM.YYYY"
// bidding period in text, in UTC.
func auctionPeriod(text string) (start, end *time.Time) {
	for _, m := range auctionPeriodRegexp.FindAllStringSubmatch(text, -1) {
		from, err := time.Parse(auctionDateLayout, m[1])
		if err != nil {
			continue
		}
		to, err := time.Parse(auctionDateLayout, m[2])
		if err != nil || to.Before(from) {
			continue
		}
		return &from, &to
	}
	return nil, nil
}

// courtFromText reads the district court named after an "окръжен съд" label
// and capitalises it, e.g. "стара загора" -> "Стара Загора".
func courtFromText(text string) string {
	m := courtRegexp.FindStringSubmatch(foldText(text))
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// parseNumber parses a scraped numeric literal with comma or dot decimals.
func parseNumber(s string) (float64, bool) {
	num := canonicalNumber(s)
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Extractor turns raw scraped text into ExtractedProperty values. It holds
// only read-only configuration and is safe for concurrent use.
type Extractor struct {
	prices *PriceNormalizer
}

// NewExtractor creates an Extractor using the currency settings in s.
func NewExtractor(s config.Scoring) *Extractor {
	return &Extractor{prices: NewPriceNormalizer(s)}
}

// Extract parses one record's text and price. Each field is evaluated on its
// own and left absent when nothing matches; Extract never fails.
func (e *Extractor) Extract(kind models.Kind, rawText, rawPrice, rawCurrency string) models.ExtractedProperty {
	text := foldText(rawText)
	p := models.ExtractedProperty{
		Kind:         kind,
		PropertyType: ClassifyType(text, kind),
		Ownership:    DetectOwnership(text),
	}

	if v, ok := firstMatch(areaRules, text); ok {
		p.AreaSqm = &v
	}
	if v, ok := firstMatch(roomRules, text); ok {
		p.Rooms = &v
	}
	if fm, ok := firstMatch(floorRules, descriptionSection(text)); ok {
		p.Floor = &fm.floor
		if fm.total > 0 {
			p.TotalFloors = &fm.total
		}
	}

	if kind == models.KindAuction {
		p.AuctionStart, p.AuctionEnd = auctionPeriod(text)
	}

	if strings.TrimSpace(rawPrice) != "" {
		p.PriceEUR = e.prices.Normalize(rawPrice, rawCurrency)
	} else {
		p.PriceEUR = e.prices.FromText(text)
	}

	p.DerivePricePerSqm()
	return p
}

// ExtractRecord extracts r and carries over its identity and location.
func (e *Extractor) ExtractRecord(r *models.RawRecord) *models.ExtractedProperty {
	p := e.Extract(r.Kind, r.RawText, r.RawPrice, r.RawCurrency)
	p.SourceID = strings.TrimSpace(r.SourceID)
	p.Source = r.Source
	p.URL = strings.TrimSpace(r.URL)
	p.Address = normaliseText(r.Address)
	p.City = NormalizeCity(r.City)
	p.CadastralID = ExtractCadastralID(r.RawText)
	if p.Court = normaliseText(r.Court); p.Court == "" && r.Kind == models.KindAuction {
		p.Court = courtFromText(r.RawText)
	}

	p.Neighborhood = ExtractNeighborhood(r.Address)
	if p.Neighborhood == "" {
		p.Neighborhood = ExtractNeighborhood(r.RawText)
	}
	return &p
}
