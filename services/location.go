package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

var (
	cityPrefixRegexp = regexp.MustCompile(`(?i)^(?:гр\.|град\s|с\.|село\s|к\.к\.|кк\s|gr\.)\s*`)
	// neighborhoodRegexp captures the name following a district marker
	neighborhoodRegexp = regexp.MustCompile(`(?i)` + wordStart +
		`(?:ж\.\s*к\.|кв\.|м-ст\.?|(?:жк|квартал|район|р-н|местност)[\s.:"„“']+)\s*["„“']?\s*([\p{L}][\p{L}\d .\-]*)`)
	neighborhoodPrefixRegexp = regexp.MustCompile(`^(?:ж\.\s*к\.|кв\.|м-ст\.?|(?:жк|квартал|район|р-н|местност)(?:[\s.:]|$))\s*`)
	neighborhoodStopRegexp   = regexp.MustCompile(`\s(?:бл|ул|вх|ет|ап|№|до|в|на|с)(?:[^\p{L}]|$)`)
	trailingNumberRegexp     = regexp.MustCompile(`^(.*?)\s*(\d+)$`)
	// sqmUnitRegexp rejects "кв.м" read as a "кв." district marker
	sqmUnitRegexp = regexp.MustCompile(`^(?:м|метра|m)(?:[^\p{L}]|$)`)
)

// neighborhoodAliases maps Latin transliterations and spelling variants to
// the Cyrillic name used in the market corpus.
var neighborhoodAliases = map[string]string{
	// Sofia
	"center":             "център",
	"centre":             "център",
	"tsentar":            "център",
	"centar":             "център",
	"централна част":     "център",
	"mladost":            "младост",
	"lozenets":           "лозенец",
	"lozenec":            "лозенец",
	"lyulin":             "люлин",
	"ljulin":             "люлин",
	"nadezhda":           "надежда",
	"druzhba":            "дружба",
	"iztok":              "изток",
	"izgrev":             "изгрев",
	"oborishte":          "оборище",
	"boyana":             "бояна",
	"dragalevtsi":        "драгалевци",
	"simeonovo":          "симеоново",
	"vitosha":            "витоша",
	"studentski grad":    "студентски град",
	"studentski":         "студентски град",
	"студентски":         "студентски град",
	"ovcha kupel":        "овча купел",
	"krasno selo":        "красно село",
	"krastova vada":      "кръстова вада",
	"manastirski livadi": "манастирски ливади",
	"hristo botev":       "христо ботев",
	"geo milev":          "гео милев",
	"reduta":             "редута",
	"banishora":          "банишора",
	"borovo":             "борово",
	"hadzhi dimitar":     "хаджи димитър",
	"poligona":           "полигона",
	"slatina":            "слатина",
	"musagenitsa":        "мусагеница",
	// Plovdiv
	"karshiyaka":        "кършияка",
	"trakia":            "тракия",
	"trakiya":           "тракия",
	"kamenitsa":         "каменица",
	"smirnenski":        "смирненски",
	"kyuchuk parizh":    "кючук париж",
	"maritsa":           "марица",
	"hristo smirnenski": "смирненски",
	"христо смирненски": "смирненски",
	// Varna
	"chaika":               "чайка",
	"levski":               "левски",
	"briz":                 "бриз",
	"vinitsa":              "виница",
	"asparuhovo":           "аспарухово",
	"vazrazhdane":          "възраждане",
	"chataldzha":           "чаталджа",
	"grand mol":            "гранд мол",
	"troshevo":             "трошево",
	"vladislav varnenchik": "владислав варненчик",
	// Resorts
	"sunny beach":        "слънчев бряг",
	"golden sands":       "златни пясъци",
	"st. constantine":    "св. св. константин и елена",
	"sv. konstantin":     "св. св. константин и елена",
	"св. константин":     "св. св. константин и елена",
	"константин и елена": "св. св. константин и елена",
	"bansko":             "банско",
	"pamporovo":          "пампорово",
	"borovets":           "боровец",
}

// NormalizeCity strips legal locality prefixes ("гр.", "град", "с.", "село",
// "к.к.") and anything after the first comma or parenthesis.
func NormalizeCity(raw string) string {
	s := normaliseText(raw)
	if i := strings.IndexAny(s, ",("); i >= 0 {
		s = s[:i]
	}
	for {
		stripped := cityPrefixRegexp.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.TrimSpace(s)
}

// CityKey is the case-folded city used for exact city matching.
func CityKey(raw string) string {
	return strings.ToLower(NormalizeCity(raw))
}

// ExtractNeighborhood finds the district named after a "ж.к.", "кв.",
// "квартал", "район" or "местност" marker, or "" if there is none.
func ExtractNeighborhood(text string) string {
	text = normaliseText(text)
	for pos := 0; pos < len(text); {
		loc := neighborhoodRegexp.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		name := text[pos+loc[2] : pos+loc[3]]
		_, size := utf8.DecodeRuneInString(name)
		pos += loc[2] + size

		lower := strings.ToLower(name)
		if sqmUnitRegexp.MatchString(lower) {
			continue
		}
		if cut := neighborhoodStopRegexp.FindStringIndex(lower); cut != nil {
			name = name[:cut[0]]
		}
		name = strings.Trim(name, " .-\"'“”„")
		if utf8.RuneCountInString(name) >= 2 {
			return name
		}
	}
	return ""
}

// NormalizeNeighborhood case-folds a district name, removes its marker and
// quotes, and maps known aliases to their canonical spelling. A trailing
// number ("Младост 1") is kept since it names a distinct district.
func NormalizeNeighborhood(name string) string {
	s := stripNeighborhood(name)
	if s == "" {
		return ""
	}
	base, num := s, ""
	if m := trailingNumberRegexp.FindStringSubmatch(s); m != nil && m[1] != "" {
		base, num = m[1], m[2]
	}
	if canon, ok := neighborhoodAliases[base]; ok {
		base = canon
	}
	if num != "" {
		return base + " " + num
	}
	return base
}

func stripNeighborhood(name string) string {
	s := foldText(name)
	s = neighborhoodPrefixRegexp.ReplaceAllString(s, "")
	s = strings.Trim(s, " .-\"'“”„")
	return normaliseText(s)
}

// NeighborhoodSimilarity scores how likely a and b name the same district:
// 1.0 identical, 0.9 equal after alias mapping, 0.8 when one contains the
// other, at most 0.5 for a fuzzy subsequence match scaled by the shared
// prefix, and 0 otherwise.
func NeighborhoodSimilarity(a, b string) float64 {
	sa, sb := stripNeighborhood(a), stripNeighborhood(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 1.0
	}
	ca, cb := NormalizeNeighborhood(a), NormalizeNeighborhood(b)
	if ca == cb {
		return 0.9
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return 0.8
	}

	short, long := ca, cb
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if len(fuzzy.Find(short, []string{long})) == 0 {
		return 0
	}
	prefix := commonPrefixRunes(ca, cb)
	longest := utf8.RuneCountInString(long)
	return 0.5 * float64(prefix) / float64(longest)
}

func commonPrefixRunes(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < len(ra) && n < len(rb) && ra[n] == rb[n] {
		n++
	}
	return n
}
