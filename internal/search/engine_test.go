package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akademi/akademi/internal/domain"
)

// fakeCache is a fixed catalog snapshot.
type fakeCache struct {
	categories []domain.Category
	courses    []domain.Course
	videos     map[int][]domain.Video
}

func (f *fakeCache) CachedCategories() []domain.Category    { return f.categories }
func (f *fakeCache) CachedCourses() []domain.Course         { return f.courses }
func (f *fakeCache) CachedVideos(courseID int) []domain.Video { return f.videos[courseID] }

// fakeSearchClient records whether the server fallback was hit.
type fakeSearchClient struct {
	results []domain.SearchResult
	err     error
	calls   int
}

func (f *fakeSearchClient) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	f.calls++
	return f.results, f.err
}

func text(en string) domain.LocalizedText {
	return domain.LocalizedText{EN: en}
}

func testCatalog() *fakeCache {
	return &fakeCache{
		categories: []domain.Category{
			{ID: 1, Title: text("Development")},
			{ID: 2, ParentID: 1, Title: text("Web")},
		},
		courses: []domain.Course{
			{ID: 10, CategoryID: 2, Slug: "react-fundamentals", Title: text("React Fundamentals")},
			{ID: 11, CategoryID: 2, Slug: "go-basics", Title: text("Go Basics"), Description: text("Learn Go from scratch")},
			{ID: 12, CategoryID: 1, Slug: "databases", Title: text("Databases")},
		},
		videos: map[int][]domain.Video{
			10: {
				{ID: 100, CourseID: 10, Title: text("Intro to React")},
				{ID: 101, CourseID: 10, Title: text("Components and Props")},
			},
			11: {
				{ID: 110, CourseID: 11, Title: text("Installing Go")},
			},
		},
	}
}

func TestSearchShortQueryReturnsNothing(t *testing.T) {
	client := &fakeSearchClient{}
	e := NewEngine(testCatalog(), client, nil)

	results, err := e.Search(context.Background(), "r")
	require.NoError(t, err)
	require.Empty(t, results)
	require.Zero(t, client.calls)

	results, err = e.Search(context.Background(), "  a  ")
	require.NoError(t, err)
	require.Empty(t, results)
	require.Zero(t, client.calls)
}

func TestSearchCourseEntryPrecedesItsVideos(t *testing.T) {
	e := NewEngine(testCatalog(), &fakeSearchClient{}, nil)

	results, err := e.Search(context.Background(), "react")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, domain.ResultTypeCourse, results[0].Type)
	require.Equal(t, 10, results[0].ID)
	require.Equal(t, 1.0, results[0].Relevance)
	require.Equal(t, "/courses/react-fundamentals", results[0].URL)
	require.Equal(t, "Development / Web", results[0].CategoryName)

	require.Equal(t, domain.ResultTypeVideo, results[1].Type)
	require.Equal(t, 100, results[1].ID)
	require.Equal(t, 10, results[1].CourseID)
	require.Equal(t, 0.8, results[1].Relevance)
}

func TestSearchCacheAuthoritativeOnVideoMatch(t *testing.T) {
	client := &fakeSearchClient{
		results: []domain.SearchResult{
			{Type: domain.ResultTypeCourse, ID: 99, Title: text("Server Only React Course")},
		},
	}
	e := NewEngine(testCatalog(), client, nil)

	// "react" matches cached videos, so the server is never consulted.
	results, err := e.Search(context.Background(), "react")
	require.NoError(t, err)
	require.Zero(t, client.calls)
	for _, r := range results {
		require.NotEqual(t, 99, r.ID)
	}
}

func TestSearchFallsBackWithoutVideoMatch(t *testing.T) {
	client := &fakeSearchClient{
		results: []domain.SearchResult{
			{Type: domain.ResultTypeCourse, ID: 12, Title: text("Databases"), Relevance: 0.7},
			{Type: domain.ResultTypeCourse, ID: 50, Title: text("Database Design"), Relevance: 0.6},
		},
	}
	e := NewEngine(testCatalog(), client, nil)

	// "database" matches a cached course title but no cached videos.
	results, err := e.Search(context.Background(), "database")
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	// Cache entry first, then the server-only course; the duplicate
	// course 12 from the server is dropped and the cache copy wins.
	require.Len(t, results, 2)
	require.Equal(t, 12, results[0].ID)
	require.Equal(t, 1.0, results[0].Relevance)
	require.Equal(t, 50, results[1].ID)
}

func TestSearchFallbackErrorKeepsCacheMatches(t *testing.T) {
	client := &fakeSearchClient{err: errors.New("server offline")}
	e := NewEngine(testCatalog(), client, nil)

	results, err := e.Search(context.Background(), "database")
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)
	require.Len(t, results, 1)
	require.Equal(t, 12, results[0].ID)
}

func TestSearchMatchesTurkishText(t *testing.T) {
	cache := testCatalog()
	cache.courses = append(cache.courses, domain.Course{
		ID:    13,
		Slug:  "yazilim",
		Title: domain.LocalizedText{EN: "Software Engineering", TR: "Yazılım Mühendisliği"},
	})
	e := NewEngine(cache, &fakeSearchClient{results: nil}, nil)

	results, err := e.Search(context.Background(), "yazılım")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 13, results[0].ID)
}

func TestSearchOrdersByTitleScore(t *testing.T) {
	cache := &fakeCache{
		courses: []domain.Course{
			{ID: 1, Slug: "a", Title: text("Advanced Go Patterns")},
			{ID: 2, Slug: "b", Title: text("Go Basics")},
		},
		videos: map[int][]domain.Video{
			1: {{ID: 100, CourseID: 1, Title: text("Go routines")}},
		},
	}
	e := NewEngine(cache, &fakeSearchClient{}, nil)

	results, err := e.Search(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Prefix match on "Go Basics" outranks the substring match.
	require.Equal(t, 2, results[0].ID)
	require.Equal(t, 1, results[1].ID)
	require.Equal(t, domain.ResultTypeVideo, results[2].Type)
}

func TestDedupeMergePreservesOrder(t *testing.T) {
	local := []domain.SearchResult{
		{Type: domain.ResultTypeCourse, ID: 1},
		{Type: domain.ResultTypeVideo, ID: 1},
	}
	remote := []domain.SearchResult{
		{Type: domain.ResultTypeCourse, ID: 1}, // duplicate
		{Type: domain.ResultTypeCourse, ID: 2},
	}

	merged := dedupeMerge(local, remote)
	require.Len(t, merged, 3)
	require.Equal(t, "course:1", merged[0].Key())
	require.Equal(t, "video:1", merged[1].Key())
	require.Equal(t, "course:2", merged[2].Key())
}

func TestFilterIndex(t *testing.T) {
	idx := NewFilterIndex([]FilterItem{
		{Title: "React Fundamentals", Kind: domain.ResultTypeCourse, ID: 10, Index: 0},
		{Title: "Go Basics", Kind: domain.ResultTypeCourse, ID: 11, Index: 1},
		{Title: "Databases", Kind: domain.ResultTypeCourse, ID: 12, Index: 2},
	})

	results := idx.Filter("gob")
	require.NotEmpty(t, results)
	require.Equal(t, 11, results[0].ID)
	require.Equal(t, 1, results[0].Index)

	require.Empty(t, idx.Filter(""))
	require.Empty(t, idx.Filter("zzzz"))
}
