package relevance

import (
	"fmt"
	"log/slog"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
	"DesignCatalog/internal/textutil"
)

// portugueseCodes are the detector codes accepted as Portuguese.
var portugueseCodes = map[string]struct{}{
	"pt":    {},
	"pt-br": {},
	"por":   {},
}

var portugueseWords = buildWordIndex(portugueseWordGroups)

func buildWordIndex(groups [][]string) map[string]int {
	index := make(map[string]int)
	for _, group := range groups {
		for _, word := range group {
			index[word]++
		}
	}
	return index
}

// LanguageVerifier runs the primary detector and falls back to word counts.
type LanguageVerifier struct {
	detector ports.LanguageDetector
	logger   *slog.Logger
}

// NewLanguageVerifier accepts a nil detector, in which case only the
// fallback runs.
func NewLanguageVerifier(detector ports.LanguageDetector, logger *slog.Logger) *LanguageVerifier {
	return &LanguageVerifier{detector: detector, logger: logger}
}

// Verify labels the title. It never fails.
func (v *LanguageVerifier) Verify(title string) domain.LanguageLabel {
	if code, err := v.detect(title); err != nil {
		v.debug("language detector failed", "error", err)
	} else if _, ok := portugueseCodes[code]; ok {
		return domain.LanguagePortuguese
	}

	if CountPortugueseMarkers(title) >= portugueseThreshold {
		return domain.LanguagePortuguese
	}
	return domain.LanguageUnverified
}

func (v *LanguageVerifier) detect(title string) (code string, err error) {
	if v.detector == nil {
		return "", fmt.Errorf("no detector configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return v.detector.Detect(title)
}

func (v *LanguageVerifier) debug(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}

// CountPortugueseMarkers counts title words found in the Portuguese word
// groups. A word listed in several groups counts once per group.
func CountPortugueseMarkers(title string) int {
	matches := 0
	for _, token := range textutil.Tokenize(title) {
		matches += portugueseWords[token]
	}
	return matches
}
