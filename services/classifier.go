package services

import (
	"regexp"
	"strconv"
	"strings"

	"auction-bargains/models"
)

var (
	// commonPartsRegexp matches shares of the building's common parts or of
	// the land/building right; those accompany whole units and are not a
	// partial interest in the unit itself
	commonPartsRegexp = regexp.MustCompile(
		`(?:\d+(?:[.,]\d+)?\s*%|\d+\s*/\s*\d+|\d+(?:[.,]\d+)?\s*кв\.?\s*м\.?)?\s*` +
			`(?:ид\.?\s*ч(?:\.|аст\p{L}*)?|идеалн\p{L}*\s+част\p{L}*)\s+(?:от\s+|в\s+)?(?:сградата\s+и\s+)?` +
			`(?:общите\s+части|правото\s+на\s+строеж|мястото|земята|поземления\s+имот|терена|двора)`)

	fractionRegexp = regexp.MustCompile(`(?:^|[^\d./])(\d{1,2})\s*/\s*(\d{1,2})(?:[^\d./]|$)`)
	// fractionAfterRegexp: an ownership noun right after the fraction
	fractionAfterRegexp = regexp.MustCompile(
		`^\s*(?:\(\p{L}+\s+\p{L}+\)\s*)?(?:ид\.?\s*ч|идеалн|част|дял|от\s+(?:правото\s+на\s+собственост|собствеността|имот|апартамент|жилище|къща|сграда|вила))`)
	// fractionBeforeRegexp: a sale/ownership verb right before the fraction
	fractionBeforeRegexp = regexp.MustCompile(`(?:притежава\p{L}*|продава\p{L}*|продажба\s+на|собственост\s+върху|дял)\s*(?:от\s*)?$`)
	floorBeforeRegexp    = regexp.MustCompile(`(?:ет\.?|етаж)\s*$`)

	fractionWordRegexp = regexp.MustCompile(wordStart +
		`(една\s+втора|една\s+трета|една\s+четвърт|една\s+пета|една\s+шеста|една\s+осма|две\s+трети|три\s+четвърти)` + wordEnd)
	idealShareRegexp = regexp.MustCompile(wordStart + `(?:идеалн\p{L}*\s+част\p{L}*|ид\.\s*ч\.?)`)

	labeledCadastralRegexp = regexp.MustCompile(`идентификатор\s*[:№]?\s*(\d{5}\.\d{1,5}\.\d{1,5}(?:\.\d{1,3}){0,2})`)
	cadastralRegexp        = regexp.MustCompile(`(?:^|[^\d.])(\d{5}\.\d{1,5}\.\d{1,5}(?:\.\d{1,3}){0,2})(?:[^\d]|$)`)
)

var fractionGlyphs = map[rune]models.Ownership{
	'½': models.OwnershipHalf,
	'⅓': models.OwnershipThird,
	'¼': models.OwnershipQuarter,
	'⅕': models.OwnershipFifth,
	'⅙': models.OwnershipSixth,
	'⅛': models.OwnershipEighth,
	'⅔': models.OwnershipTwoThirds,
	'¾': models.OwnershipThreeQuarters,
}

var fractionWords = map[string]models.Ownership{
	"една втора":   models.OwnershipHalf,
	"една трета":   models.OwnershipThird,
	"една четвърт": models.OwnershipQuarter,
	"една пета":    models.OwnershipFifth,
	"една шеста":   models.OwnershipSixth,
	"една осма":    models.OwnershipEighth,
	"две трети":    models.OwnershipTwoThirds,
	"три четвърти": models.OwnershipThreeQuarters,
}

type ownershipRule struct {
	name   string
	detect func(text string) (models.Ownership, bool)
}

// ownershipRules run in priority order; the first to fire decides.
var ownershipRules = []ownershipRule{
	{"numeric", numericFraction},
	{"glyph", glyphFraction},
	{"words", wordFraction},
	{"ideal share", idealShare},
}

// DetectOwnership returns the fractional interest sold, OwnershipFull when
// nothing in text marks a partial interest, or OwnershipUnknown when a share
// is stated without a recognizable fraction.
func DetectOwnership(text string) models.Ownership {
	t := commonPartsRegexp.ReplaceAllString(foldText(text), " ")
	for _, r := range ownershipRules {
		if o, ok := r.detect(t); ok {
			return o
		}
	}
	return models.OwnershipFull
}

func numericFraction(text string) (models.Ownership, bool) {
	for _, loc := range fractionRegexp.FindAllStringSubmatchIndex(text, -1) {
		num, _ := strconv.Atoi(text[loc[2]:loc[3]])
		den, _ := strconv.Atoi(text[loc[4]:loc[5]])
		before := text[max(0, loc[2]-48):loc[2]]
		after := text[loc[5]:min(len(text), loc[5]+64)]

		if floorBeforeRegexp.MatchString(before) {
			continue
		}
		if !fractionAfterRegexp.MatchString(after) && !fractionBeforeRegexp.MatchString(before) {
			continue
		}
		if num <= 0 || den <= 0 || num > den {
			continue
		}
		if num == den {
			return models.OwnershipFull, true
		}
		g := gcd(num, den)
		num, den = num/g, den/g
		o := models.Ownership(strconv.Itoa(num) + "/" + strconv.Itoa(den))
		if _, known := models.KnownFractions[o]; known {
			return o, true
		}
		return models.OwnershipUnknown, true
	}
	return "", false
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func glyphFraction(text string) (models.Ownership, bool) {
	for _, r := range text {
		if o, ok := fractionGlyphs[r]; ok {
			return o, true
		}
	}
	return "", false
}

func wordFraction(text string) (models.Ownership, bool) {
	m := fractionWordRegexp.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return fractionWords[normaliseText(m[1])], true
}

func idealShare(text string) (models.Ownership, bool) {
	if idealShareRegexp.MatchString(text) {
		return models.OwnershipUnknown, true
	}
	return "", false
}

type typeRule struct {
	propertyType models.PropertyType
	pattern      *regexp.Regexp
}

func keywords(words ...string) *regexp.Regexp {
	return regexp.MustCompile(wordStart + `(?:` + strings.Join(words, "|") + `)`)
}

// typeRules are checked in order: studio terms before the generic apartment
// ones, dwelling types before trade and land terms that often appear in the
// same legal description.
var typeRules = []typeRule{
	{models.TypeStudio, keywords(`гарсониер`, `студио`)},
	{models.TypeApartment, keywords(`апартамент`, `мезонет`, `жилище`, `(?:едно|дву|три|четири|пет|шест|много)ста(?:ен|йн)`)},
	{models.TypeVilla, keywords(`вил(?:а|ата|и|ите)` + wordEnd)},
	{models.TypeHouse, keywords(`къща`, `къщи`, `еднофамилн`)},
	{models.TypeGarage, keywords(`гараж`, `паркомяст`, `паркинг`)},
	{models.TypeWarehouse, keywords(`склад`, `хале`, `хали` + wordEnd)},
	{models.TypeCommercial, keywords(`магазин`, `офис`, `търговск`, `хотел`, `ресторант`, `заведение`, `кантора`, `ателие`)},
	{models.TypeLand, keywords(`поземлен`, `парцел`, `нива`, `земеделск`, `упи` + wordEnd, `лозе`, `ливада`)},
}

// ClassifyType maps free text to a property type. Ambiguous market listings
// default to apartment and ambiguous auction listings to other.
func ClassifyType(text string, kind models.Kind) models.PropertyType {
	t := foldText(text)
	for _, r := range typeRules {
		if r.pattern.MatchString(t) {
			return r.propertyType
		}
	}
	if kind == models.KindMarket {
		return models.TypeApartment
	}
	return models.TypeOther
}

// ExtractCadastralID returns the cadastral identifier (e.g.
// "68134.4083.6.1.12"), preferring one labelled "идентификатор".
func ExtractCadastralID(text string) string {
	t := foldText(text)
	if m := labeledCadastralRegexp.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if m := cadastralRegexp.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return ""
}
