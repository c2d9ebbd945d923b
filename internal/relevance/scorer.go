package relevance

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
	"DesignCatalog/internal/textutil"
)

// Options extends the built-in vocabularies.
type Options struct {
	ExtraRelevantTerms  []string
	ExtraExclusionTerms []string
}

// Assessment is the verdict for one title.
type Assessment struct {
	Excluded bool
	Reason   string
	Score    int
}

// Relevant reports whether the title survives filtering.
func (a Assessment) Relevant() bool {
	return !a.Excluded && a.Score > 0
}

// FilterResult is the filtered batch plus what was removed.
type FilterResult struct {
	Batch      domain.Batch
	Excluded   int
	Irrelevant int
	Unverified int
}

// Scorer decides relevance and language for catalog candidates.
type Scorer struct {
	relevant   []string
	exclusions []string
	language   *LanguageVerifier
	logger     *slog.Logger
}

// NewScorer builds a scorer; a nil detector leaves only the word-count
// language fallback.
func NewScorer(detector ports.LanguageDetector, logger *slog.Logger, opts Options) *Scorer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scorer{
		relevant:   mergeTerms(relevantTerms, opts.ExtraRelevantTerms),
		exclusions: mergeTerms(exclusionTerms, opts.ExtraExclusionTerms),
		language:   NewLanguageVerifier(detector, logger),
		logger:     logger,
	}
}

func mergeTerms(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, term := range list {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			merged = append(merged, term)
		}
	}
	return merged
}

// Score assesses a title. Exclusion is checked first and an excluded title
// is never scored.
func (s *Scorer) Score(title string) Assessment {
	if excluded, reason := s.IsExcluded(title); excluded {
		return Assessment{Excluded: true, Reason: reason}
	}
	return Assessment{Score: s.points(strings.ToLower(title))}
}

// IsExcluded reports whether the title is spam, a test entry or otherwise
// suspicious, along with the reason.
func (s *Scorer) IsExcluded(title string) (bool, string) {
	lowered := strings.ToLower(title)
	for _, term := range s.exclusions {
		if strings.Contains(lowered, term) {
			return true, "exclusion term: " + term
		}
	}
	if isSuspicious(title) {
		return true, "suspicious title"
	}
	return false, ""
}

func (s *Scorer) points(lowered string) int {
	score := 0
	for _, term := range s.relevant {
		if strings.Contains(lowered, term) {
			score++
		}
	}
	for _, b := range bonuses {
		for _, phrase := range b.phrases {
			if strings.Contains(lowered, phrase) {
				score += b.points
				break
			}
		}
	}
	return score
}

// isSuspicious flags blank titles, titles made only of digits and
// punctuation, and titles with two letters or fewer.
func isSuspicious(title string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return true
	}
	return textutil.CountLetters(trimmed) <= 2
}

// VerifyLanguage labels a title as Portuguese or unverified.
func (s *Scorer) VerifyLanguage(title string) domain.LanguageLabel {
	return s.language.Verify(title)
}

// Filter drops excluded and zero-score records, annotates the rest with
// score and language, and orders them by score descending. Ties keep their
// input order.
func (s *Scorer) Filter(ctx context.Context, batch domain.Batch) FilterResult {
	result := FilterResult{}
	kept := make([]domain.CatalogRecord, 0, batch.Len())

	for _, record := range batch.Records {
		if ctx.Err() != nil {
			s.logger.Warn("filtering interrupted", "error", ctx.Err(), "kept", len(kept))
			break
		}

		assessment := s.Score(record.Title)
		if assessment.Excluded {
			result.Excluded++
			s.logger.Debug("record excluded", "title", record.Title, "reason", assessment.Reason)
			continue
		}
		if assessment.Score == 0 {
			result.Irrelevant++
			continue
		}

		record.Scored = true
		record.RelevanceScore = assessment.Score
		record.LanguageVerified = s.language.Verify(record.Title)
		if record.LanguageVerified == domain.LanguageUnverified {
			result.Unverified++
		}
		kept = append(kept, record)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})

	result.Batch = batch.WithScoreColumns(kept)
	s.logger.Info("filtering finished",
		"input", batch.Len(),
		"kept", len(kept),
		"excluded", result.Excluded,
		"irrelevant", result.Irrelevant,
		"unverified_language", result.Unverified,
	)
	return result
}
