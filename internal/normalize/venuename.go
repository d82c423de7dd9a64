package normalize

import (
	"regexp"
	"strings"
)

// TbcSentinel is returned by VenueName whenever a junk guard fires.
const TbcSentinel = "Tbc"

var (
	urlLike      = regexp.MustCompile(`(?i)^(https?://|www\.)`)
	plusCodeLike = regexp.MustCompile(`^[23456789CFGHJMPQRVWX]{4,8}\+[23456789CFGHJMPQRVWX]{2,3}$`)

	showNumberingNoise = regexp.MustCompile(`^\(\d+\)\s*-\s*`)
	eventDescriptorParen = regexp.MustCompile(`(?i)\s*\((Festival|Championship|Championships|Show|Open|Qualifier|Final|Finals)\)\s*$`)

	trailingLimited = regexp.MustCompile(`(?i)\s+Limited$`)
	trailingAbbrevCode = regexp.MustCompile(`(?i)\s+-\s+[A-Z]{1,6}$`)

	orphanPreposition = regexp.MustCompile(`(?i)\s+(of|at|in|on|&|and)$`)

	wordSplitter = regexp.MustCompile(`\s+`)
)

// suffixVocabulary is stripped iteratively from the end of a venue name,
// longest-match-first so "Equestrian Centre" is tried before "Equestrian".
var suffixVocabulary = []string{
	"Equestrian Centre",
	"Equine Centre",
	"Riding Centre",
	"Riding School",
	"Riding Club",
	"Event Centre",
	"Equestrian",
	"Equine",
	"Showground",
	"Stables",
	"Farm",
	"Ltd",
}

// VenueName canonicalizes a raw venue name per the junk-guard, title-case,
// suffix-stripping, and address-truncation pipeline. Returns the TbcSentinel
// whenever the first junk guard fires.
func VenueName(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if isJunkVenueName(trimmed) {
		return TbcSentinel
	}

	s := trimmed
	s = showNumberingNoise.ReplaceAllString(s, "")
	s = eventDescriptorParen.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	s = titleCasePreservingAcronyms(s)

	if pc := Postcode(s); pc != "" {
		s = removeSubstringFold(s, pc)
	}

	s = trailingLimited.ReplaceAllString(s, "")
	s = trailingAbbrevCode.ReplaceAllString(s, "")

	s = stripSuffixVocabulary(s)

	s = wordSplitter.ReplaceAllString(s, " ")
	s = trailingPunct.ReplaceAllString(strings.TrimSpace(s), "")
	s = orphanPreposition.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	s = truncateAddress(s)

	if s == "" {
		return TbcSentinel
	}
	return s
}

func isJunkVenueName(s string) bool {
	if s == "" {
		return true
	}
	if len(s) > 100 {
		return true
	}
	if urlLike.MatchString(s) {
		return true
	}
	if Postcode(s) != "" {
		return true
	}
	if plusCodeLike.MatchString(s) {
		return true
	}
	return false
}

func stripSuffixVocabulary(s string) string {
	for pass := 0; pass < 2; pass++ {
		stripped := false
		for _, suffix := range suffixVocabulary {
			if trimmed, ok := trimCaseInsensitiveSuffix(s, suffix); ok {
				s = trimmed
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	return strings.TrimSpace(s)
}

func trimCaseInsensitiveSuffix(s, suffix string) (string, bool) {
	trimmedS := strings.TrimRight(s, " ")
	if len(trimmedS) < len(suffix) {
		return s, false
	}
	cut := len(trimmedS) - len(suffix)
	tail := trimmedS[cut:]
	if !strings.EqualFold(tail, suffix) {
		return s, false
	}
	// Require a word boundary before the matched suffix so "farm" in
	// "Redfarm" isn't mistaken for the "Farm" suffix.
	if cut > 0 && trimmedS[cut-1] != ' ' {
		return s, false
	}
	return strings.TrimSpace(trimmedS[:cut]), true
}

func removeSubstringFold(s, substr string) string {
	idx := strings.Index(strings.ToUpper(s), strings.ToUpper(substr))
	if idx < 0 {
		return s
	}
	return strings.TrimSpace(s[:idx] + s[idx+len(substr):])
}

// truncateAddress applies the comma-based address truncation rule: keep the
// first comma-delimited segment when there are two or more commas, or when
// there is exactly one comma and the total length exceeds 50 characters.
func truncateAddress(s string) string {
	commaCount := strings.Count(s, ",")
	if commaCount == 0 {
		return s
	}
	first := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
	if commaCount >= 2 {
		return first
	}
	if len(s) > 50 {
		return first
	}
	return s
}

// titleCasePreservingAcronyms title-cases a string word by word, leaving
// all-uppercase words of 3 letters or fewer untouched (so "UK" stays "UK");
// longer all-uppercase words such as "NSEA" are title-cased like any other.
func titleCasePreservingAcronyms(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if isShortAcronym(w) {
			continue
		}
		words[i] = titleCaseWord(w)
	}
	return strings.Join(words, " ")
}

func isShortAcronym(w string) bool {
	letters := strings.TrimFunc(w, func(r rune) bool { return !isASCIILetter(r) })
	if letters == "" || len(letters) > 3 {
		return false
	}
	return letters == strings.ToUpper(letters)
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func titleCaseWord(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
