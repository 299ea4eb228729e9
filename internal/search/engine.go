package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/akademi/akademi/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MinQueryLength is the shortest query the engine will run. Anything
// shorter returns empty without touching the cache or the network.
const MinQueryLength = 2

// Relevance assigned to cache-derived entries. Server results keep the
// relevance the server reported.
const (
	courseRelevance = 1.0
	videoRelevance  = 0.8
)

// CatalogCache is the consumer-defined slice of the catalog service the
// engine reads from. Videos are lazily cached (only after a course is
// opened or prefetched), so a nil video list means "unknown", not "none".
type CatalogCache interface {
	CachedCategories() []domain.Category
	CachedCourses() []domain.Course
	CachedVideos(courseID int) []domain.Video
}

// Engine merges a cache-only scan with a server-side fallback search into
// one deduplicated, relevance-ordered result set. Callers debounce raw
// keystrokes (~300ms) before invoking it.
type Engine struct {
	cache  CatalogCache
	client domain.SearchClient
	logger *slog.Logger
}

// NewEngine creates a search engine.
func NewEngine(cache CatalogCache, client domain.SearchClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cache:  cache,
		client: client,
		logger: logger,
	}
}

// courseMatch pairs a matching course with its matching cached videos, so
// videos can be emitted immediately after their parent course.
type courseMatch struct {
	course domain.Course
	videos []domain.Video
	score  int // lower is better
}

// Search produces the merged result set for a query.
//
// The cache pass alone is authoritative when it found at least one video
// match: videos are only cached for visited or prefetched courses, so a
// video hit means the cache is populated enough for this query. Otherwise
// the server search fills in courses the cache has never seen.
func (e *Engine) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, nil
	}

	needle := strings.ToLower(query)
	labels := e.categoryLabels()

	matches, sawVideoMatch := e.scanCache(needle)
	results := e.flatten(matches, labels)

	if sawVideoMatch {
		e.logger.Debug("search served from cache", "query", query, "results", len(results))
		return results, nil
	}

	// Cache had no video hits; fall back to the server and merge.
	remote, err := e.client.Search(ctx, query)
	if err != nil {
		e.logger.Warn("fallback search failed, returning cache matches", "query", query, "error", err)
		return results, nil
	}

	merged := dedupeMerge(results, remote)
	e.logger.Debug("search merged with server", "query", query, "cache", len(results), "remote", len(remote), "final", len(merged))
	return merged, nil
}

// scanCache walks cached courses and their cached video lists. A course is
// kept when it matches directly or has at least one matching cached video.
func (e *Engine) scanCache(needle string) ([]courseMatch, bool) {
	var matches []courseMatch
	sawVideoMatch := false

	for _, course := range e.cache.CachedCourses() {
		courseHit := matchesText(needle, course.Title, course.Description)

		var videoHits []domain.Video
		for _, video := range e.cache.CachedVideos(course.ID) {
			if matchesText(needle, video.Title, video.Description) {
				videoHits = append(videoHits, video)
			}
		}

		if !courseHit && len(videoHits) == 0 {
			continue
		}
		if len(videoHits) > 0 {
			sawVideoMatch = true
		}

		matches = append(matches, courseMatch{
			course: course,
			videos: videoHits,
			score:  titleScore(needle, course.Title),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score < matches[j].score
	})

	return matches, sawVideoMatch
}

// flatten emits each course entry followed by its matching videos.
func (e *Engine) flatten(matches []courseMatch, labels map[int]string) []domain.SearchResult {
	var results []domain.SearchResult
	for _, m := range matches {
		results = append(results, domain.SearchResult{
			Type:         domain.ResultTypeCourse,
			ID:           m.course.ID,
			Title:        m.course.Title,
			URL:          "/courses/" + m.course.Slug,
			Relevance:    courseRelevance,
			CourseSlug:   m.course.Slug,
			CategoryName: labels[m.course.CategoryID],
		})
		for _, v := range m.videos {
			results = append(results, domain.SearchResult{
				Type:         domain.ResultTypeVideo,
				ID:           v.ID,
				Title:        v.Title,
				URL:          "/courses/" + m.course.Slug,
				Relevance:    videoRelevance,
				CourseID:     m.course.ID,
				CourseName:   m.course.Title.EN,
				CourseSlug:   m.course.Slug,
				CategoryName: labels[m.course.CategoryID],
			})
		}
	}
	return results
}

// categoryLabels resolves each category to a "parent / child" breadcrumb,
// child-only when the category has no parent.
func (e *Engine) categoryLabels() map[int]string {
	categories := e.cache.CachedCategories()
	byID := make(map[int]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	labels := make(map[int]string, len(categories))
	for _, c := range categories {
		label := c.Title.EN
		if parent, ok := byID[c.ParentID]; ok && c.ParentID != 0 {
			label = parent.Title.EN + " / " + c.Title.EN
		}
		labels[c.ID] = label
	}
	return labels
}

// dedupeMerge appends remote results after the cache-derived ones,
// dropping any (type,id) already present. Cache entries win on conflict.
func dedupeMerge(local []domain.SearchResult, remote []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]bool, len(local)+len(remote))
	merged := make([]domain.SearchResult, 0, len(local)+len(remote))

	for _, r := range local {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		merged = append(merged, r)
	}
	for _, r := range remote {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		merged = append(merged, r)
	}
	return merged
}

// matchesText does a case-insensitive substring match across both
// languages of both fields.
func matchesText(needle string, fields ...domain.LocalizedText) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.EN), needle) ||
			strings.Contains(strings.ToLower(f.TR), needle) {
			return true
		}
	}
	return false
}

// titleScore ranks a match for ordering within the cache pass.
// Lower score = better match.
func titleScore(needle string, title domain.LocalizedText) int {
	best := scoreOne(needle, strings.ToLower(title.EN))
	if tr := scoreOne(needle, strings.ToLower(title.TR)); tr < best {
		best = tr
	}
	return best
}

func scoreOne(needle, haystack string) int {
	switch {
	case haystack == needle:
		return 0
	case strings.HasPrefix(haystack, needle):
		return 10
	case strings.Contains(haystack, needle):
		return 50
	default:
		return 100 + fuzzy.LevenshteinDistance(needle, haystack)
	}
}
