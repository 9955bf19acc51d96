package services

import (
	"regexp"
	"strings"
	"unicode"
)

// wordStart stands in for \b in front of Cyrillic words; RE2's \b is ASCII-only.
const wordStart = `(?:^|[^\p{L}])`

// wordEnd is the trailing counterpart of wordStart.
const wordEnd = `(?:[^\p{L}]|$)`

// numberToken matches an integer or decimal with either separator, including
// space-grouped thousands such as "1 200" or "12 500,5". Folded text carries
// plain spaces only.
const numberToken = `(\d{1,3}(?: \d{3})+(?:[.,]\d+)?|\d+(?:[.,]\d+)?)`

var groupedDigitsRegexp = regexp.MustCompile(`^\d{1,3}(?:[ '.,]\d{3})+$`)

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace, including non-breaking and other Unicode spaces.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// foldText prepares free text for pattern matching: collapsed spaces, lower case.
func foldText(s string) string {
	return strings.ToLower(normaliseText(s))
}

// canonicalNumber rewrites a scraped numeric literal into a form
// strconv/decimal can parse, or returns "" when it is not a number.
//
//	"85.50"     -> "85.50"
//	"112,15"    -> "112.15"
//	"120 000"   -> "120000"
//	"1.250.000" -> "1250000"
//	"1 250,50"  -> "1250.50"
//	"85,000"    -> "85000"
func canonicalNumber(s string) string {
	s = strings.Trim(s, " .,'")
	if s == "" {
		return ""
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && !strings.ContainsRune(" .,'", r) {
			return ""
		}
	}

	if groupedDigitsRegexp.MatchString(s) && !mixedSeparators(s) {
		return stripAny(s, " '.,")
	}

	s = stripAny(s, " '")
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec := lastDot
		if lastComma > lastDot {
			dec = lastComma
		}
		intPart := stripAny(s[:dec], ".,")
		return intPart + "." + s[dec+1:]
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return ""
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return ""
		}
	}
	return s
}

// mixedSeparators reports whether s groups thousands with more than one kind
// of separator, e.g. "1.250,500", which is a decimal rather than a grouping.
func mixedSeparators(s string) bool {
	kinds := 0
	for _, sep := range []string{" ", "'", ".", ","} {
		if strings.Contains(s, sep) {
			kinds++
		}
	}
	return kinds > 1
}

func stripAny(s, cutset string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(cutset, r) {
			return -1
		}
		return r
	}, s)
}
