package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalizedTextFallback(t *testing.T) {
	both := LocalizedText{EN: "Hello", TR: "Merhaba"}
	require.Equal(t, "Hello", both.Get("en"))
	require.Equal(t, "Merhaba", both.Get("tr"))

	enOnly := LocalizedText{EN: "Hello"}
	require.Equal(t, "Hello", enOnly.Get("tr"))

	trOnly := LocalizedText{TR: "Merhaba"}
	require.Equal(t, "Merhaba", trOnly.Get("en"))
}

func TestVideoFormattedDuration(t *testing.T) {
	require.Equal(t, "3:32", Video{Duration: 212}.FormattedDuration())
	require.Equal(t, "0:05", Video{Duration: 5}.FormattedDuration())
	require.Equal(t, "1:01:05", Video{Duration: 3665}.FormattedDuration())
}

func TestProgressRecordWatchStatus(t *testing.T) {
	require.Equal(t, WatchStatusUnwatched, ProgressRecord{}.WatchStatus())
	require.Equal(t, WatchStatusInProgress, ProgressRecord{Watched: true}.WatchStatus())
	require.Equal(t, WatchStatusWatched, ProgressRecord{Completed: true}.WatchStatus())
	// Completed implies watched even if the flag was never set.
	require.Equal(t, WatchStatusWatched, ProgressRecord{Completed: true, Watched: false}.WatchStatus())
}

func TestProgressKey(t *testing.T) {
	require.Equal(t, "3-301", ProgressKey(3, 301))
}

func TestCourseProgressPercent(t *testing.T) {
	require.Equal(t, 0, CourseProgress{TotalVideos: 0, CompletedCount: 5}.PercentComplete())
	require.Equal(t, 50, CourseProgress{TotalVideos: 4, CompletedCount: 2}.PercentComplete())
	require.Equal(t, 100, CourseProgress{TotalVideos: 2, CompletedCount: 3}.PercentComplete())
}

func TestSearchResultKey(t *testing.T) {
	require.Equal(t, "course:7", SearchResult{Type: ResultTypeCourse, ID: 7}.Key())
	require.Equal(t, "video:7", SearchResult{Type: ResultTypeVideo, ID: 7}.Key())
}
