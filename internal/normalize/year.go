package normalize

import "regexp"

var (
	bareYearExpr    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	editionYearExpr = regexp.MustCompile(`\((\d{4})\)`)
)

// datePatterns are tried in order once the bare and edition forms miss.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})-\d{2}-\d{2}`), // YYYY-MM-DD
	regexp.MustCompile(`\d{2}-\d{2}-(\d{4})`), // DD-MM-YYYY
	regexp.MustCompile(`(\d{4})-\d{2}`),       // YYYY-MM
}

// ExtractYearFromString returns the first year found in text, or "".
func ExtractYearFromString(text string) string {
	if text == "" {
		return ""
	}

	if match := bareYearExpr.FindString(text); match != "" {
		return match
	}

	if match := editionYearExpr.FindStringSubmatch(text); match != nil {
		return match[1]
	}

	for _, pattern := range datePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}

	return ""
}

// ExtractYear looks in the date text first and falls back to the edition
// text. Placeholders count as absent.
func ExtractYear(date, edition string) string {
	if !isPlaceholder(date) {
		if year := ExtractYearFromString(date); year != "" {
			return year
		}
	}
	if !isPlaceholder(edition) {
		if year := ExtractYearFromString(edition); year != "" {
			return year
		}
	}
	return ""
}
