package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// FilterItem is one entry in the in-view quick filter index.
type FilterItem struct {
	Title string // display title, also the match target
	Kind  string // "course" or "video"
	ID    int
	Index int // position in the backing list (cursor restore)
}

// FilterResult is a filter match with highlight metadata.
type FilterResult struct {
	FilterItem
	MatchedIndexes []int
	Score          int
}

// FilterIndex implements fuzzy.Source for zero-allocation fuzzy matching
// over the currently displayed list (course or video titles).
type FilterIndex struct {
	items       []FilterItem
	lowerTitles []string // pre-computed at index time
}

// String returns the lowercase title at index i (implements fuzzy.Source).
func (idx *FilterIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source).
func (idx *FilterIndex) Len() int { return len(idx.items) }

// NewFilterIndex builds an index over the given items.
func NewFilterIndex(items []FilterItem) *FilterIndex {
	idx := &FilterIndex{
		items:       items,
		lowerTitles: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lowerTitles[i] = strings.ToLower(item.Title)
	}
	return idx
}

// Filter returns fuzzy matches for the pattern, best first.
func (idx *FilterIndex) Filter(pattern string) []FilterResult {
	pattern = strings.TrimSpace(strings.ToLower(pattern))
	if pattern == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(pattern, idx)

	results := make([]FilterResult, len(matches))
	for i, match := range matches {
		results[i] = FilterResult{
			FilterItem:     idx.items[match.Index],
			MatchedIndexes: match.MatchedIndexes,
			Score:          match.Score,
		}
	}
	return results
}
