package service

import "fmt"

// Cache keys for catalog content. Child resources embed their parent ID so
// a course's cached videos can be found (and evicted) by key alone.
const (
	KeyCategories = "categories"
	KeyCourses    = "courses"

	prefixCategory  = "category:"
	prefixCourse    = "course:"
	prefixVideos    = "videos:"
	prefixDocuments = "documents:"
)

// CategoryKey returns the cache key for a category slug lookup.
func CategoryKey(slug string) string { return prefixCategory + slug }

// CourseKey returns the cache key for a course slug lookup.
func CourseKey(slug string) string { return prefixCourse + slug }

// VideosKey returns the cache key for a course's video list.
func VideosKey(courseID int) string { return fmt.Sprintf("%s%d", prefixVideos, courseID) }

// DocumentsKey returns the cache key for a course's document list.
func DocumentsKey(courseID int) string { return fmt.Sprintf("%s%d", prefixDocuments, courseID) }
