package dedup

import (
	"sort"

	"DesignCatalog/internal/domain"
)

// Stats counts records per source and per category.
type Stats struct {
	Total      int
	BySource   map[string]int
	ByCategory map[string]int
}

// Count is one bucket of a breakdown.
type Count struct {
	Name  string
	Count int
}

// Statistics summarises a set of catalog records.
func Statistics(records []domain.CatalogRecord) Stats {
	stats := Stats{
		Total:      len(records),
		BySource:   map[string]int{},
		ByCategory: map[string]int{},
	}
	for _, record := range records {
		stats.BySource[record.Database]++
		stats.ByCategory[record.Category]++
	}
	return stats
}

// UniqueSources is the number of distinct sources.
func (s Stats) UniqueSources() int { return len(s.BySource) }

// UniqueCategories is the number of distinct categories.
func (s Stats) UniqueCategories() int { return len(s.ByCategory) }

// Sources returns the per-source breakdown, largest first.
func (s Stats) Sources() []Count { return sortedCounts(s.BySource) }

// Categories returns the per-category breakdown, largest first.
func (s Stats) Categories() []Count { return sortedCounts(s.ByCategory) }

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}
